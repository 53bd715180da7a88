package domain

import "errors"

var (
	// ErrConfiguration signals a missing or invalid required setting. Fatal, never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound signals a query against an unknown collection.
	ErrNotFound = errors.New("collection not found")
	// ErrUnsupportedDocument signals a file the ingestor has no loader for.
	ErrUnsupportedDocument = errors.New("unsupported document")
	// ErrEmptyDocument signals a document that yielded no extractable text.
	ErrEmptyDocument = errors.New("document yielded no text")
	// ErrTransport signals a network failure against the embedding, generation, or search service.
	// Retryable by the caller with backoff; the engine itself never retries.
	ErrTransport = errors.New("transport error")
	// ErrModelMismatch signals that a collection was indexed with a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
