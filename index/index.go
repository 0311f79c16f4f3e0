package index

import (
	"context"

	"github.com/google/uuid"
)

// Chunk is one embedded fragment of an ingested document.
type Chunk struct {
	// CourseID scopes the chunk to a course.
	CourseID uuid.UUID

	// DocumentID identifies the source document within the course.
	DocumentID string

	// Position is the zero-based order of the chunk within its document.
	Position int

	// Text is the chunk content.
	Text string

	// Vector is the chunk's embedding.
	Vector []float32
}

// Match is one retrieval hit, ordered by descending Score.
type Match struct {
	Text       string
	Score      float32
	CourseID   uuid.UUID
	DocumentID string
}

// Filter restricts a query to a subset of the index.
type Filter struct {
	// CourseID, when set, restricts matches to one course.
	CourseID uuid.UUID

	// DocumentIDs, when non-empty, restricts matches to the listed documents.
	DocumentIDs []string
}

// Index is a vector store over document chunks.
// Implementations must be thread-safe for concurrent use.
type Index interface {
	// Query returns the topK chunks most similar to vector, best first.
	// A nil filter searches the whole index. Returns an empty slice, not an
	// error, when nothing matches.
	Query(ctx context.Context, vector []float32, filter *Filter, topK int) ([]Match, error)

	// Upsert writes chunks to the index. Re-inserting a chunk with the same
	// course, document and position replaces the stored copy.
	// Returns the number of chunks written.
	Upsert(ctx context.Context, chunks []Chunk) (int, error)

	// DeleteDocument removes all chunks of one document.
	DeleteDocument(ctx context.Context, courseID uuid.UUID, documentID string) error

	// Close releases the underlying client resources.
	Close() error
}
