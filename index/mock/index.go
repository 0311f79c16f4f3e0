package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
	"github.com/poiesic/studyhall/index"
)

// MockIndex is an in-memory test double for index.Index.
// It allows custom behavior injection via function fields; the default
// behavior stores chunks and scores queries by cosine similarity.
type MockIndex struct {
	// QueryFunc is called by Query if set.
	QueryFunc func(ctx context.Context, vector []float32, filter *index.Filter, topK int) ([]index.Match, error)

	// UpsertFunc is called by Upsert if set.
	UpsertFunc func(ctx context.Context, chunks []index.Chunk) (int, error)

	mu     sync.Mutex
	chunks map[string]index.Chunk

	queryCount  int
	upsertCount int
}

var _ index.Index = (*MockIndex)(nil)

// NewMockIndex creates an empty in-memory index.
// Note: Returns concrete type to allow test assertions.
func NewMockIndex() *MockIndex {
	return &MockIndex{chunks: make(map[string]index.Chunk)}
}

func chunkKey(chunk index.Chunk) string {
	return fmt.Sprintf("%s/%s/%d", chunk.CourseID, chunk.DocumentID, chunk.Position)
}

// Query scores stored chunks by cosine similarity against vector,
// applies the filter, and returns the topK best matches.
func (m *MockIndex) Query(ctx context.Context, vector []float32, filter *index.Filter, topK int) ([]index.Match, error) {
	m.mu.Lock()
	m.queryCount++
	m.mu.Unlock()

	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, vector, filter, topK)
	}
	if len(vector) == 0 {
		return nil, index.ErrEmptyQueryVector
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []index.Match
	for _, chunk := range m.chunks {
		if !matchesFilter(chunk, filter) {
			continue
		}
		score, err := core.Cosine(vector, chunk.Vector)
		if err != nil {
			continue
		}
		matches = append(matches, index.Match{
			Text:       chunk.Text,
			Score:      score,
			CourseID:   chunk.CourseID,
			DocumentID: chunk.DocumentID,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func matchesFilter(chunk index.Chunk, filter *index.Filter) bool {
	if filter == nil {
		return true
	}
	if filter.CourseID != uuid.Nil && chunk.CourseID != filter.CourseID {
		return false
	}
	if len(filter.DocumentIDs) > 0 {
		found := false
		for _, docID := range filter.DocumentIDs {
			if chunk.DocumentID == docID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Upsert stores chunks keyed by their coordinates.
func (m *MockIndex) Upsert(ctx context.Context, chunks []index.Chunk) (int, error) {
	m.mu.Lock()
	m.upsertCount++
	m.mu.Unlock()

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, chunks)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		if chunk.CourseID == uuid.Nil || chunk.DocumentID == "" || len(chunk.Vector) == 0 {
			return 0, index.ErrInvalidChunk
		}
		m.chunks[chunkKey(chunk)] = chunk
	}
	return len(chunks), nil
}

// DeleteDocument removes all chunks of one document.
func (m *MockIndex) DeleteDocument(ctx context.Context, courseID uuid.UUID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, chunk := range m.chunks {
		if chunk.CourseID == courseID && chunk.DocumentID == documentID {
			delete(m.chunks, key)
		}
	}
	return nil
}

// Close is a no-op for the mock index.
func (m *MockIndex) Close() error {
	return nil
}

// QueryCount returns the number of times Query was called.
func (m *MockIndex) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCount
}

// UpsertCount returns the number of times Upsert was called.
func (m *MockIndex) UpsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCount
}

// ChunkCount returns the number of stored chunks.
func (m *MockIndex) ChunkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}
