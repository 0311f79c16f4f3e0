package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/studyhall/ai"
	"github.com/poiesic/studyhall/index"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
)

// Pipeline turns raw document text into indexed, retrievable chunks.
// Chunking and validation happen synchronously; embedding and index writes
// run on a worker pool so callers are not held up by provider latency.
type Pipeline struct {
	idx           index.Index
	embedder      ai.Embedder
	pool          *ants.Pool
	chunkSize     int
	chunkOverlap  int
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunking overrides the chunk size and overlap, both in runes.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		if overlap < 0 || overlap >= size {
			return fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
		}
		p.chunkSize = size
		p.chunkOverlap = overlap
		return nil
	}
}

// WithRetry overrides the embedding retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.retryAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(idx index.Index, provider ai.Provider, opts ...Option) (*Pipeline, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		idx:           idx,
		embedder:      provider.Embedder(),
		pool:          pool,
		chunkSize:     DefaultChunkSize,
		chunkOverlap:  DefaultChunkOverlap,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestDocument splits text into chunks and schedules them for embedding
// and indexing. Returns the number of chunks scheduled. Embedding and index
// failures after scheduling are logged, not returned; re-ingesting the same
// document replaces its chunks in place.
func (p *Pipeline) IngestDocument(ctx context.Context, courseID uuid.UUID, documentID, text string) (int, error) {
	if courseID == uuid.Nil {
		return 0, ErrMissingCourse
	}
	if documentID == "" {
		return 0, ErrMissingDocumentID
	}

	pieces := SplitText(text, p.chunkSize, p.chunkOverlap)
	if len(pieces) == 0 {
		return 0, ErrEmptyDocument
	}

	p.logger.Info("document accepted for indexing",
		"course", courseID, "document", documentID, "chunks", len(pieces))

	err := p.pool.Submit(func() {
		if procErr := p.embedAndUpsert(context.Background(), courseID, documentID, pieces); procErr != nil {
			p.logger.Error("error indexing document",
				"course", courseID, "document", documentID, "err", procErr)
		}
	})
	if err != nil {
		return 0, err
	}

	return len(pieces), nil
}

// RemoveDocument deletes every indexed chunk of a document.
func (p *Pipeline) RemoveDocument(ctx context.Context, courseID uuid.UUID, documentID string) error {
	if courseID == uuid.Nil {
		return ErrMissingCourse
	}
	if documentID == "" {
		return ErrMissingDocumentID
	}
	return p.idx.DeleteDocument(ctx, courseID, documentID)
}

// embedAndUpsert generates vectors for the chunk texts and writes them to
// the index. Embedding is retried with backoff; transient provider hiccups
// must not drop a whole document.
func (p *Pipeline) embedAndUpsert(ctx context.Context, courseID uuid.UUID, documentID string, pieces []string) error {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, pieces)
		return embedErr
	}, p.retryAttempts, p.retryDelay)
	if err != nil {
		return err
	}

	if len(vectors) != len(pieces) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(pieces), len(vectors))
	}

	chunks := make([]index.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = index.Chunk{
			CourseID:   courseID,
			DocumentID: documentID,
			Position:   i,
			Text:       piece,
			Vector:     vectors[i],
		}
	}

	stored, err := p.idx.Upsert(ctx, chunks)
	if err != nil {
		return err
	}
	if stored < len(chunks) {
		p.logger.Warn("some chunks were not indexed",
			"document", documentID, "stored", stored, "chunks", len(chunks))
	}

	p.logger.Info("document indexed", "document", documentID, "chunks", stored)
	return nil
}

// Flush blocks until every scheduled document has been processed or the
// context is done.
func (p *Pipeline) Flush(ctx context.Context) error {
	for p.pool.Running() > 0 || p.pool.Waiting() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
