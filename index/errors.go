package index

import "errors"

var (
	// ErrInvalidChunk indicates a chunk missing its course, document or vector.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyQueryVector indicates a query with no vector.
	ErrEmptyQueryVector = errors.New("query vector cannot be empty")
)
