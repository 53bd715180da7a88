package agentrag

import "github.com/rchow93/AgentRAG/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration       = domain.ErrConfiguration
	ErrCollectionNotFound  = domain.ErrNotFound
	ErrUnsupportedDocument = domain.ErrUnsupportedDocument
	ErrModelMismatch       = domain.ErrModelMismatch
	ErrVectorDimMismatch   = domain.ErrVectorDimMismatch
	ErrTransport           = domain.ErrTransport
)
