package ingest

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrMissingCourse is returned when the course ID is absent.
	ErrMissingCourse = errors.New("course ID required")

	// ErrMissingDocumentID is returned when the document ID is absent.
	ErrMissingDocumentID = errors.New("document ID required")

	// ErrEmptyDocument is returned when a document has no indexable text.
	ErrEmptyDocument = errors.New("document has no indexable text")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
