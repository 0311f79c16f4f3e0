package cache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
	"github.com/poiesic/studyhall/storage"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity between a
	// new question and a stored one for the stored answer to be reused.
	DefaultSimilarityThreshold float32 = 0.85

	// DefaultMaxEntries bounds how many stored questions are scored per lookup.
	DefaultMaxEntries = 100
)

// Cache answers repeated questions from conversation history instead of
// regenerating them. A lookup scans the course's recent question turns
// newest-first, scores each against the incoming question embedding, and
// returns the paired answer of the first one that clears the threshold.
type Cache struct {
	turnRepository storage.TurnRepository
	logger         *slog.Logger
	threshold      float32
	maxEntries     int
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithSimilarityThreshold overrides the match threshold.
func WithSimilarityThreshold(threshold float32) Option {
	return func(c *Cache) error {
		if threshold <= 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		c.threshold = threshold
		return nil
	}
}

// WithMaxEntries overrides how many stored questions are scored per lookup.
func WithMaxEntries(max int) Option {
	return func(c *Cache) error {
		if max < 1 {
			return ErrInvalidMaxEntries
		}
		c.maxEntries = max
		return nil
	}
}

// NewCache creates a new response cache over the turn repository.
func NewCache(turnRepository storage.TurnRepository, opts ...Option) (*Cache, error) {
	if turnRepository == nil {
		return nil, ErrTurnRepositoryRequired
	}

	c := &Cache{
		turnRepository: turnRepository,
		logger:         slog.Default(),
		threshold:      DefaultSimilarityThreshold,
		maxEntries:     DefaultMaxEntries,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Hit is a successful cache lookup: the stored answer and the past question
// it was generated for.
type Hit struct {
	Answer   string
	Question string
}

// Lookup searches the course's history for a question semantically equivalent
// to questionVector and returns the stored answer for it.
//
// Candidates are considered newest-first and the first one clearing the
// threshold wins, so a recent equivalent question beats an older, possibly
// better-scoring one. A miss is not an error: it returns (nil, nil).
func (c *Cache) Lookup(ctx context.Context, courseID uuid.UUID, questionVector []float32) (*Hit, error) {
	if len(questionVector) == 0 {
		return nil, nil
	}

	// Fetch double the candidate budget so the answer halves of the
	// question/answer pairs are in the window too.
	turns, err := c.turnRepository.GetRecentTurns(ctx, courseID, 2*c.maxEntries)
	if err != nil {
		c.logger.Error("failed to load recent turns for cache lookup", "course", courseID, "err", err)
		return nil, err
	}

	answers := make(map[core.ID]*core.Turn)
	for _, turn := range turns {
		if turn.Role == core.RoleAnswer && turn.ExchangeID != 0 {
			answers[turn.ExchangeID] = turn
		}
	}

	scored := 0
	for _, turn := range turns {
		if scored >= c.maxEntries {
			break
		}
		if turn.Role != core.RoleQuestion || !turn.HasVector() {
			continue
		}

		// Only complete question/answer pairs are candidates; a question
		// whose answer was never persisted must not eat the budget.
		answer, ok := answers[turn.ExchangeID]
		if !ok {
			c.logger.Debug("cached question has no paired answer", "turn", turn.Id, "exchange", turn.ExchangeID)
			continue
		}
		scored++

		score, err := core.Cosine(questionVector, turn.Vector)
		if err != nil {
			// A stored vector from a different embedding model is
			// unusable but must not poison the whole lookup.
			c.logger.Warn("skipping unscorable cached question", "turn", turn.Id, "err", err)
			continue
		}
		if score < c.threshold {
			continue
		}

		c.logger.Debug("cache hit", "course", courseID, "question", turn.Id, "score", score)
		return &Hit{Answer: answer.Text, Question: turn.Text}, nil
	}

	return nil, nil
}
