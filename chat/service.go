package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/ai"
	"github.com/poiesic/studyhall/cache"
	"github.com/poiesic/studyhall/core"
	"github.com/poiesic/studyhall/retrieve"
	"github.com/poiesic/studyhall/storage"
)

const (
	// defaultHistoryLimit is how many recent turns are considered for a
	// regular question before token filtering.
	defaultHistoryLimit = 20

	// continuationHistoryLimit is the smaller window for continuations.
	continuationHistoryLimit = 6

	// defaultTokenModel is the tokenizer used for history budgeting.
	defaultTokenModel = "gpt-4"

	// cachedChunkSize is how many runes of a cached answer go out per event,
	// so replayed answers look like live streams to the consumer.
	cachedChunkSize = 48
)

// Service orchestrates one question or continuation request end to end:
// authorize, consult the response cache, retrieve grounding context, filter
// history, drive the streaming generator, persist the resulting turns.
type Service struct {
	turnRepository   storage.TurnRepository
	courseRepository storage.CourseRepository
	embedder         ai.Embedder
	generator        ai.Generator
	cache            *cache.Cache
	retriever        *retrieve.Retriever
	logger           *slog.Logger
	tokenBudget      int
	tokenModel       string
	historyLimit     int
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTokenBudget overrides the history token budget.
func WithTokenBudget(budget int) Option {
	return func(s *Service) error {
		if budget < 1 {
			return errors.New("token budget must be positive")
		}
		s.tokenBudget = budget
		return nil
	}
}

// WithTokenModel sets the tokenizer model used for history budgeting.
func WithTokenModel(model string) Option {
	return func(s *Service) error {
		if model == "" {
			return errors.New("token model cannot be empty")
		}
		s.tokenModel = model
		return nil
	}
}

// WithHistoryLimit overrides how many recent turns are fetched for a
// regular question.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) error {
		if limit < 1 {
			return errors.New("history limit must be positive")
		}
		s.historyLimit = limit
		return nil
	}
}

// NewService creates a new chat orchestrator.
func NewService(
	turnRepository storage.TurnRepository,
	courseRepository storage.CourseRepository,
	provider ai.Provider,
	responseCache *cache.Cache,
	retriever *retrieve.Retriever,
	opts ...Option,
) (*Service, error) {
	if turnRepository == nil {
		return nil, ErrTurnRepositoryRequired
	}
	if courseRepository == nil {
		return nil, ErrCourseRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if responseCache == nil {
		return nil, ErrCacheRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	s := &Service{
		turnRepository:   turnRepository,
		courseRepository: courseRepository,
		embedder:         provider.Embedder(),
		generator:        provider.Generator(),
		cache:            responseCache,
		retriever:        retriever,
		logger:           slog.Default(),
		tokenBudget:      DefaultTokenBudget,
		tokenModel:       defaultTokenModel,
		historyLimit:     defaultHistoryLimit,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Request describes one question to answer.
type Request struct {
	// CourseID scopes the conversation and the retrievable material.
	CourseID uuid.UUID

	// CallerID must match the course owner.
	CallerID uuid.UUID

	// Question is the user's message.
	Question string

	// DocumentIDs optionally narrows retrieval to specific documents.
	DocumentIDs []string

	// TopK overrides the retrieval chunk count. Zero means the default.
	TopK int
}

// Ask answers a question as a lazy event stream. All work, including
// authorization and provider calls, runs when the caller ranges over the
// sequence; abandoning the iteration mid-stream stops the generator and
// leaves no answer turn behind.
//
// The error return covers malformed requests only. Runtime failures arrive
// in-stream as error events, always terminal.
func (s *Service) Ask(ctx context.Context, req Request) (iter.Seq[Event], error) {
	if req.CourseID == uuid.Nil {
		return nil, ErrMissingCourse
	}
	if req.CallerID == uuid.Nil {
		return nil, ErrMissingCaller
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	return func(yield func(Event) bool) {
		course := s.authorize(ctx, req.CourseID, req.CallerID)
		if course == nil {
			yield(Failure(ErrorKindUnauthorized, nil))
			return
		}

		s.logger.Info("question received",
			"course", req.CourseID, "caller", req.CallerID, "preview", preview(req.Question))

		vector, err := s.embedder.EmbedText(ctx, req.Question)
		if err != nil {
			s.logger.Error("question embedding failed",
				"course", req.CourseID, "preview", preview(req.Question), "err", err)
			yield(Failure(ErrorKindProvider, err))
			return
		}

		exchangeID := newExchangeID(req.CourseID, req.Question)

		hit, err := s.cache.Lookup(ctx, req.CourseID, vector)
		if err != nil {
			// The cache is best-effort: a failed lookup degrades to a miss.
			s.logger.Warn("cache lookup failed", "course", req.CourseID, "err", err)
			hit = nil
		}
		if hit != nil {
			s.streamCachedAnswer(ctx, req, exchangeID, vector, hit, yield)
			return
		}

		contextText, err := s.retriever.Retrieve(ctx, vector, req.CourseID, req.TopK, req.DocumentIDs)
		if err != nil {
			yield(Failure(ErrorKindProvider, err))
			return
		}
		if contextText == "" {
			s.logger.Warn("no relevant context found", "course", req.CourseID)
			// The question is still part of the conversation record.
			if err := s.persistQuestion(ctx, req.CourseID, exchangeID, req.Question, vector); err != nil {
				yield(Failure(ErrorKindProvider, err))
				return
			}
			yield(Failure(ErrorKindNoRelevantContent, nil))
			return
		}

		// History is fetched before the question is persisted so the
		// question doesn't appear in the prompt twice.
		recent, err := s.turnRepository.GetRecentTurns(ctx, req.CourseID, s.historyLimit)
		if err != nil {
			s.logger.Warn("failed to load history, answering without it",
				"course", req.CourseID, "err", err)
			recent = nil
		}
		history := FilterHistory(s.tokenModel, recent, req.Question, contextText, s.tokenBudget)

		if err := s.persistQuestion(ctx, req.CourseID, exchangeID, req.Question, vector); err != nil {
			yield(Failure(ErrorKindProvider, err))
			return
		}

		messages := make([]core.PromptMessage, 0, len(history)+2)
		messages = append(messages, core.PromptMessage{
			Role:    core.PromptRoleSystem,
			Content: BuildSystemPrompt(course.Name),
		})
		messages = append(messages, history...)
		messages = append(messages, core.PromptMessage{
			Role:    core.PromptRoleUser,
			Content: QuestionWithContext(req.Question, contextText),
		})

		full, ok := s.streamGeneration(ctx, messages, yield)
		if !ok {
			return
		}
		s.persistAnswer(ctx, req.CourseID, exchangeID, full)
	}, nil
}

// Continue extends the course's most recent answer as a lazy event stream.
// On success the stored answer turn is rewritten in place: the truncation
// marker is stripped and the newly generated text appended.
func (s *Service) Continue(ctx context.Context, courseID, callerID uuid.UUID) (iter.Seq[Event], error) {
	if courseID == uuid.Nil {
		return nil, ErrMissingCourse
	}
	if callerID == uuid.Nil {
		return nil, ErrMissingCaller
	}

	return func(yield func(Event) bool) {
		course := s.authorize(ctx, courseID, callerID)
		if course == nil {
			yield(Failure(ErrorKindUnauthorized, nil))
			return
		}

		last, err := s.turnRepository.GetLastAnswerTurn(ctx, courseID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("no previous answer to continue", "course", courseID)
				yield(Failure(ErrorKindNoPreviousResponse, nil))
			} else {
				yield(Failure(ErrorKindProvider, err))
			}
			return
		}

		recent, err := s.turnRepository.GetRecentTurns(ctx, courseID, continuationHistoryLimit)
		if err != nil {
			s.logger.Warn("failed to load continuation history",
				"course", courseID, "err", err)
			recent = nil
		}
		// No retrieved context for continuations
		history := FilterHistory(s.tokenModel, recent, ContinuationRequest, "", s.tokenBudget)

		messages := make([]core.PromptMessage, 0, len(history)+2)
		messages = append(messages, core.PromptMessage{
			Role:    core.PromptRoleSystem,
			Content: BuildContinuationPrompt(course.Name),
		})
		messages = append(messages, history...)
		messages = append(messages, core.PromptMessage{
			Role:    core.PromptRoleUser,
			Content: ContinuationRequest,
		})

		full, ok := s.streamGeneration(ctx, messages, yield)
		if !ok || full == "" {
			return
		}

		cleaned := strings.ReplaceAll(last.Text, TruncationMarker, "")
		if _, err := s.turnRepository.UpdateTurnText(ctx, last.Id, cleaned+full); err != nil {
			s.logger.Error("failed to extend answer turn", "turn", last.Id, "err", err)
			yield(Failure(ErrorKindProvider, err))
			return
		}
		s.logger.Info("answer extended", "turn", last.Id, "chars", len(full), "course", courseID)
	}, nil
}

// authorize loads the course and checks ownership. Returns nil when the
// caller must not proceed; the reason is logged, not surfaced.
func (s *Service) authorize(ctx context.Context, courseID, callerID uuid.UUID) *core.Course {
	course, err := s.courseRepository.GetCourse(ctx, courseID)
	if err != nil {
		s.logger.Warn("course lookup failed during authorization",
			"course", courseID, "err", err)
		return nil
	}
	if course.OwnerID != callerID {
		s.logger.Warn("caller does not own course",
			"course", courseID, "caller", callerID)
		return nil
	}
	return course
}

// streamCachedAnswer replays a cached answer as a chunked stream and
// persists both turns of the exchange.
func (s *Service) streamCachedAnswer(ctx context.Context, req Request, exchangeID core.ID, vector []float32, hit *cache.Hit, yield func(Event) bool) {
	s.logger.Info("cache hit for similar question",
		"course", req.CourseID, "matched", preview(hit.Question))

	if err := s.persistQuestion(ctx, req.CourseID, exchangeID, req.Question, vector); err != nil {
		yield(Failure(ErrorKindProvider, err))
		return
	}

	for _, chunk := range chunkRunes(hit.Answer, cachedChunkSize) {
		if !yield(Data(chunk)) {
			// Consumer went away; the answer stays cached under the
			// original exchange only.
			return
		}
	}

	s.persistAnswer(ctx, req.CourseID, exchangeID, hit.Answer)
}

// streamGeneration drives the generator, forwarding each fragment to yield
// while accumulating the full text. Returns ok=false when the stream ended
// without a complete answer: consumer abort or provider failure. No partial
// text is ever returned.
func (s *Service) streamGeneration(ctx context.Context, messages []core.PromptMessage, yield func(Event) bool) (string, bool) {
	var full strings.Builder

	err := s.generator.Stream(ctx, messages, func(chunk string) error {
		full.WriteString(chunk)
		if !yield(Data(chunk)) {
			return errStreamAborted
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errStreamAborted) {
			s.logger.Debug("stream abandoned by consumer")
			return "", false
		}
		s.logger.Error("generation failed", "err", err)
		yield(Failure(ErrorKindProvider, err))
		return "", false
	}

	return full.String(), true
}

func (s *Service) persistQuestion(ctx context.Context, courseID uuid.UUID, exchangeID core.ID, question string, vector []float32) error {
	_, err := s.turnRepository.AppendTurns(ctx, &core.Turn{
		CourseID:   courseID,
		ExchangeID: exchangeID,
		Role:       core.RoleQuestion,
		Text:       question,
		Vector:     vector,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to persist question turn", "course", courseID, "err", err)
	}
	return err
}

func (s *Service) persistAnswer(ctx context.Context, courseID uuid.UUID, exchangeID core.ID, text string) {
	_, err := s.turnRepository.AppendTurns(ctx, &core.Turn{
		CourseID:   courseID,
		ExchangeID: exchangeID,
		Role:       core.RoleAnswer,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		// The answer already reached the caller; losing the record is
		// logged, not surfaced.
		s.logger.Error("failed to persist answer turn", "course", courseID, "err", err)
		return
	}
	s.logger.Info("response saved", "chars", len(text), "course", courseID)
}

// newExchangeID derives a fresh exchange identifier linking a question turn
// with the answer generated for it.
func newExchangeID(courseID uuid.UUID, question string) core.ID {
	return core.IDFromContent(fmt.Sprintf("%s|%d|%s", courseID, time.Now().UnixNano(), question))
}

// chunkRunes splits text into rune-bounded chunks of at most size runes.
func chunkRunes(text string, size int) []string {
	if size <= 0 || text == "" {
		return []string{text}
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// preview shortens text for log lines, cutting on rune boundaries.
func preview(text string) string {
	const max = 120
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
