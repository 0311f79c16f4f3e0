package retrieve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/index"
)

// DefaultTopK is the number of chunks requested when the caller passes no limit.
const DefaultTopK = 5

// fallbackFloor is the minimum candidate count for the unfiltered probe.
const fallbackFloor = 10

// Retriever reads grounding context for a question out of the vector index.
type Retriever struct {
	index  index.Index
	logger *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever over the vector index.
func NewRetriever(idx index.Index, opts ...Option) (*Retriever, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	r := &Retriever{
		index:  idx,
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve queries the index for the chunks most similar to embedding within
// the course (optionally narrowed to documentIDs) and returns their texts
// joined with blank lines, best match first.
//
// When the filtered query yields nothing, a second unfiltered probe runs over
// a larger candidate set and the course filter is re-applied in-process.
//
// An empty string with a nil error means no usable context exists and the
// caller must not fabricate an answer from it. An error is returned only
// when both the filtered query and the fallback probe fail.
func (r *Retriever) Retrieve(ctx context.Context, embedding []float32, courseID uuid.UUID, topK int, documentIDs []string) (string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	filter := &index.Filter{
		CourseID:    courseID,
		DocumentIDs: documentIDs,
	}

	matches, err := r.index.Query(ctx, embedding, filter, topK)
	if err != nil {
		r.logger.Warn("filtered index query failed, probing unfiltered",
			"course", courseID, "err", err)
		return r.fallback(ctx, embedding, courseID, topK)
	}

	if text := joinTexts(matches, topK); text != "" {
		r.logger.Debug("context retrieved", "course", courseID, "matches", len(matches))
		return text, nil
	}

	r.logger.Debug("filtered query empty, probing unfiltered", "course", courseID)
	return r.fallback(ctx, embedding, courseID, topK)
}

// fallback probes the index without a filter and re-applies the course
// restriction in-process.
func (r *Retriever) fallback(ctx context.Context, embedding []float32, courseID uuid.UUID, topK int) (string, error) {
	probe := fallbackFloor
	if topK > probe {
		probe = topK
	}

	matches, err := r.index.Query(ctx, embedding, nil, probe)
	if err != nil {
		r.logger.Error("fallback index query failed", "course", courseID, "err", err)
		return "", err
	}

	refiltered := make([]index.Match, 0, len(matches))
	for _, match := range matches {
		if match.CourseID == courseID {
			refiltered = append(refiltered, match)
		}
	}

	text := joinTexts(refiltered, topK)
	if text == "" {
		r.logger.Debug("no usable context after fallback", "course", courseID)
	}
	return text, nil
}

// joinTexts concatenates up to limit non-empty match texts with blank lines,
// preserving the index's score-descending order.
func joinTexts(matches []index.Match, limit int) string {
	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		if match.Text == "" {
			continue
		}
		texts = append(texts, match.Text)
		if len(texts) == limit {
			break
		}
	}
	return strings.Join(texts, "\n\n")
}
