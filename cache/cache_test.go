package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
	"github.com/poiesic/studyhall/storage"
	"github.com/poiesic/studyhall/storage/badger"
)

func newTestCache(t *testing.T) (*Cache, storage.TurnRepository, func()) {
	t.Helper()

	turnRepo, courseRepo, backend, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	cleanup := func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}

	cache, err := NewCache(turnRepo)
	if err != nil {
		cleanup()
		t.Fatalf("Failed to create cache: %v", err)
	}
	return cache, turnRepo, cleanup
}

func appendExchange(t *testing.T, repo storage.TurnRepository, courseID uuid.UUID, question string, vector []float32, answer string, at time.Time) {
	t.Helper()

	ctx := context.Background()
	exchangeID := core.IDFromContent(question)

	_, err := repo.AppendTurns(ctx,
		&core.Turn{
			CourseID:   courseID,
			ExchangeID: exchangeID,
			Role:       core.RoleQuestion,
			Text:       question,
			Vector:     vector,
			CreatedAt:  at,
		},
		&core.Turn{
			CourseID:   courseID,
			ExchangeID: exchangeID,
			Role:       core.RoleAnswer,
			Text:       answer,
			CreatedAt:  at.Add(time.Second),
		},
	)
	if err != nil {
		t.Fatalf("Failed to append exchange: %v", err)
	}
}

func TestCacheHit(t *testing.T) {
	cache, turnRepo, cleanup := newTestCache(t)
	defer cleanup()

	courseID := uuid.New()
	appendExchange(t, turnRepo, courseID,
		"What is mitosis?", []float32{1.0, 0.0, 0.0},
		"Mitosis is cell division.", time.Now().UTC().Add(-time.Hour))

	hit, err := cache.Lookup(context.Background(), courseID, []float32{1.0, 0.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit == nil {
		t.Fatal("Expected a cache hit")
	}
	if hit.Answer != "Mitosis is cell division." {
		t.Fatalf("Expected the stored answer, got '%s'", hit.Answer)
	}
	if hit.Question != "What is mitosis?" {
		t.Fatalf("Expected the matched question, got '%s'", hit.Question)
	}
}

func TestCacheMissBelowThreshold(t *testing.T) {
	cache, turnRepo, cleanup := newTestCache(t)
	defer cleanup()

	courseID := uuid.New()
	appendExchange(t, turnRepo, courseID,
		"What is mitosis?", []float32{1.0, 0.0, 0.0},
		"Mitosis is cell division.", time.Now().UTC().Add(-time.Hour))

	// Orthogonal vector, similarity 0
	hit, err := cache.Lookup(context.Background(), courseID, []float32{0.0, 1.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit != nil {
		t.Fatal("Expected a cache miss")
	}
}

func TestCachePrefersNewest(t *testing.T) {
	cache, turnRepo, cleanup := newTestCache(t)
	defer cleanup()

	courseID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	// Older exchange is an exact vector match. The newer one clears the
	// threshold but scores lower. Newest-first scan must return it anyway.
	appendExchange(t, turnRepo, courseID,
		"What is osmosis?", []float32{1.0, 0.0, 0.0},
		"Older answer.", base)
	appendExchange(t, turnRepo, courseID,
		"Explain osmosis", []float32{0.95, 0.3122, 0.0},
		"Newer answer.", base.Add(time.Minute))

	hit, err := cache.Lookup(context.Background(), courseID, []float32{1.0, 0.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit == nil {
		t.Fatal("Expected a cache hit")
	}
	if hit.Answer != "Newer answer." {
		t.Fatalf("Expected the newer answer to win, got '%s'", hit.Answer)
	}
}

func TestCacheThresholdBoundary(t *testing.T) {
	cache, turnRepo, cleanup := newTestCache(t)
	defer cleanup()

	courseID := uuid.New()
	appendExchange(t, turnRepo, courseID,
		"What is mitosis?", []float32{1.0, 0.0, 0.0},
		"Mitosis is cell division.", time.Now().UTC().Add(-time.Hour))

	// Similarity 0.80, just under the 0.85 threshold
	hit, err := cache.Lookup(context.Background(), courseID, []float32{0.8, 0.6, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit != nil {
		t.Fatal("Similarity below the threshold must miss")
	}

	// Similarity 0.90 clears it
	hit, err = cache.Lookup(context.Background(), courseID, []float32{0.9, 0.43589, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit == nil {
		t.Fatal("Similarity above the threshold must hit")
	}
}

func TestCacheRespectsCandidateBudget(t *testing.T) {
	turnRepo, courseRepo, backend, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	cache, err := NewCache(turnRepo, WithMaxEntries(2))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	courseID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	// The only matching question is the oldest of three, one past the
	// candidate budget.
	appendExchange(t, turnRepo, courseID,
		"matching question", []float32{1.0, 0.0, 0.0},
		"matching answer", base)
	appendExchange(t, turnRepo, courseID,
		"unrelated one", []float32{0.0, 1.0, 0.0},
		"answer one", base.Add(time.Minute))
	appendExchange(t, turnRepo, courseID,
		"unrelated two", []float32{0.0, 0.0, 1.0},
		"answer two", base.Add(2*time.Minute))

	hit, err := cache.Lookup(context.Background(), courseID, []float32{1.0, 0.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit != nil {
		t.Fatalf("Candidate beyond the budget must not be scored, got %+v", hit)
	}
}

func TestCacheOrphanDoesNotConsumeBudget(t *testing.T) {
	turnRepo, courseRepo, backend, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	cache, err := NewCache(turnRepo, WithMaxEntries(1))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	ctx := context.Background()
	courseID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	// A complete matching exchange, then a newer question whose generation
	// failed and left no answer behind.
	appendExchange(t, turnRepo, courseID,
		"What is mitosis?", []float32{1.0, 0.0, 0.0},
		"Mitosis is cell division.", base)
	_, err = turnRepo.AppendTurns(ctx, &core.Turn{
		CourseID:   courseID,
		ExchangeID: core.IDFromContent("failed"),
		Role:       core.RoleQuestion,
		Text:       "What is mitosis??",
		Vector:     []float32{1.0, 0.0, 0.0},
		CreatedAt:  base.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}

	hit, err := cache.Lookup(ctx, courseID, []float32{1.0, 0.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit == nil {
		t.Fatal("Expected the paired exchange to be found within the budget")
	}
	if hit.Answer != "Mitosis is cell division." {
		t.Fatalf("Expected the paired answer, got '%s'", hit.Answer)
	}
}

func TestCacheInterleavedExchanges(t *testing.T) {
	cache, turnRepo, cleanup := newTestCache(t)
	defer cleanup()

	ctx := context.Background()
	courseID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	firstExchange := core.IDFromContent("first")
	secondExchange := core.IDFromContent("second")

	// Two exchanges whose turns interleave in time. Question one's answer
	// arrives last, after the whole of exchange two.
	turns := []*core.Turn{
		{CourseID: courseID, ExchangeID: firstExchange, Role: core.RoleQuestion,
			Text: "first question", Vector: []float32{1.0, 0.0, 0.0}, CreatedAt: base},
		{CourseID: courseID, ExchangeID: secondExchange, Role: core.RoleQuestion,
			Text: "second question", Vector: []float32{0.0, 1.0, 0.0}, CreatedAt: base.Add(time.Second)},
		{CourseID: courseID, ExchangeID: secondExchange, Role: core.RoleAnswer,
			Text: "second answer", CreatedAt: base.Add(2 * time.Second)},
		{CourseID: courseID, ExchangeID: firstExchange, Role: core.RoleAnswer,
			Text: "first answer", CreatedAt: base.Add(3 * time.Second)},
	}
	for _, turn := range turns {
		if _, err := turnRepo.AppendTurns(ctx, turn); err != nil {
			t.Fatalf("Failed to append turn: %v", err)
		}
	}

	hit, err := cache.Lookup(ctx, courseID, []float32{1.0, 0.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit == nil {
		t.Fatal("Expected a cache hit")
	}
	if hit.Question != "first question" || hit.Answer != "first answer" {
		t.Fatalf("Answer paired by position instead of exchange: %+v", hit)
	}
}

func TestCacheSkipsUnpairedQuestion(t *testing.T) {
	cache, turnRepo, cleanup := newTestCache(t)
	defer cleanup()

	ctx := context.Background()
	courseID := uuid.New()

	// A question whose answer was never persisted
	_, err := turnRepo.AppendTurns(ctx, &core.Turn{
		CourseID:   courseID,
		ExchangeID: core.IDFromContent("orphan"),
		Role:       core.RoleQuestion,
		Text:       "orphan question",
		Vector:     []float32{1.0, 0.0, 0.0},
		CreatedAt:  time.Now().UTC().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}

	hit, err := cache.Lookup(ctx, courseID, []float32{1.0, 0.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit != nil {
		t.Fatal("Question without a stored answer must not produce a hit")
	}
}

func TestCacheSkipsUnscorableVector(t *testing.T) {
	cache, turnRepo, cleanup := newTestCache(t)
	defer cleanup()

	courseID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	// Newer exchange has a vector of the wrong dimension
	appendExchange(t, turnRepo, courseID,
		"good question", []float32{1.0, 0.0, 0.0},
		"good answer", base)
	appendExchange(t, turnRepo, courseID,
		"bad question", []float32{1.0, 0.0},
		"bad answer", base.Add(time.Minute))

	hit, err := cache.Lookup(context.Background(), courseID, []float32{1.0, 0.0, 0.0})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit == nil {
		t.Fatal("Expected a cache hit despite the unscorable candidate")
	}
	if hit.Answer != "good answer" {
		t.Fatalf("Expected 'good answer', got '%s'", hit.Answer)
	}
}

func TestCacheEmptyQuestionVector(t *testing.T) {
	cache, _, cleanup := newTestCache(t)
	defer cleanup()

	hit, err := cache.Lookup(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit != nil {
		t.Fatal("Empty question vector must miss")
	}
}

func TestNewCacheValidation(t *testing.T) {
	if _, err := NewCache(nil); err != ErrTurnRepositoryRequired {
		t.Fatalf("Expected ErrTurnRepositoryRequired, got %v", err)
	}

	turnRepo, courseRepo, backend, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	if _, err := NewCache(turnRepo, WithSimilarityThreshold(1.5)); err != ErrInvalidThreshold {
		t.Fatalf("Expected ErrInvalidThreshold, got %v", err)
	}
	if _, err := NewCache(turnRepo, WithMaxEntries(0)); err != ErrInvalidMaxEntries {
		t.Fatalf("Expected ErrInvalidMaxEntries, got %v", err)
	}
}
