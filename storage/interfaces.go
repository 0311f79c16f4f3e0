package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// TurnRepository provides operations for managing conversation turns.
// Turns are append-only except for UpdateTurnText, which is reserved for
// the continuation path extending a previously generated answer.
type TurnRepository interface {
	Repository

	// AppendTurns appends one or more turns to a course's conversation.
	// For turns with ID=0, generates new IDs from sequence.
	// Sets CreatedAt if not already set.
	// Returns the turns with generated IDs and timestamps populated.
	AppendTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error)

	// UpdateTurnText replaces the text of an existing turn and refreshes
	// its UpdatedAt timestamp. The turn's identity, role, course scope
	// and embedding are never changed by this operation.
	// Returns ErrNotFound if the turn doesn't exist.
	UpdateTurnText(ctx context.Context, id core.ID, text string) (*core.Turn, error)

	// GetTurn retrieves a single turn by ID.
	// Returns ErrNotFound if the turn doesn't exist.
	GetTurn(ctx context.Context, id core.ID) (*core.Turn, error)

	// GetRecentTurns retrieves the N most recent turns for a course,
	// ordered by creation time descending (newest first).
	// A limit below 1 returns no turns.
	GetRecentTurns(ctx context.Context, courseID uuid.UUID, limit int) ([]*core.Turn, error)

	// GetLastAnswerTurn retrieves the most recent answer turn for a course.
	// Returns ErrNotFound if the course has no answer turns.
	GetLastAnswerTurn(ctx context.Context, courseID uuid.UUID) (*core.Turn, error)

	// DeleteCourseTurns removes all turns belonging to a course.
	// Used by the course deletion cascade.
	DeleteCourseTurns(ctx context.Context, courseID uuid.UUID) error
}

// CourseRepository provides operations for managing courses.
type CourseRepository interface {
	Repository

	// AddCourse adds a course to storage.
	// Sets CreatedAt if not already set.
	// Returns ErrDuplicateKey if the course ID already exists.
	AddCourse(ctx context.Context, course *core.Course) (*core.Course, error)

	// GetCourse retrieves a single course by ID.
	// Returns ErrNotFound if the course doesn't exist.
	GetCourse(ctx context.Context, id uuid.UUID) (*core.Course, error)

	// ListCourses retrieves all courses owned by the given owner,
	// ordered by creation time descending.
	ListCourses(ctx context.Context, ownerID uuid.UUID) ([]*core.Course, error)

	// DeleteCourse removes a course by ID.
	// Returns ErrNotFound if the course doesn't exist.
	// Turn cleanup is the caller's concern via TurnRepository.DeleteCourseTurns.
	DeleteCourse(ctx context.Context, id uuid.UUID) error
}
