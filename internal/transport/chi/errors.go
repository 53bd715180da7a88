package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rchow93/AgentRAG/internal/domain"
)

// ErrorCode is a machine-readable error identifier in API responses.
type ErrorCode string

const (
	ErrCodeBadRequest          ErrorCode = "bad_request"
	ErrCodeCollectionNotFound  ErrorCode = "collection_not_found"
	ErrCodeModelMismatch       ErrorCode = "model_mismatch"
	ErrCodeVectorDimMismatch   ErrorCode = "vector_dim_mismatch"
	ErrCodeUnsupportedDocument ErrorCode = "unsupported_document"
	ErrCodeConfiguration       ErrorCode = "configuration_error"
	ErrCodeUpstreamError       ErrorCode = "upstream_error"
	ErrCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body for every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns the sentinel's message for known errors and a
// generic one otherwise, so internals never leak to clients.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrModelMismatch,
		domain.ErrVectorDimMismatch,
		domain.ErrUnsupportedDocument,
		domain.ErrConfiguration,
		domain.ErrTransport,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
