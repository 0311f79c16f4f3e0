package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mus-format/mus-go"
)

func TestTurnRoundTrip(t *testing.T) {
	turn := Turn{
		Id:         42,
		CourseID:   uuid.New(),
		ExchangeID: IDFromContent("exchange"),
		Role:       RoleQuestion,
		Text:       "What is mitosis?",
		Vector:     []float32{0.1, -0.2, 0.3},
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, TurnMUS.Size(turn))
	if n := TurnMUS.Marshal(turn, buf); n != len(buf) {
		t.Fatalf("Size reported %d bytes, Marshal wrote %d", len(buf), n)
	}

	got, n, err := TurnMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Expected %d bytes consumed, got %d", len(buf), n)
	}
	if got.CourseID != turn.CourseID {
		t.Fatalf("CourseID mismatch: %s != %s", got.CourseID, turn.CourseID)
	}
	if got.ExchangeID != turn.ExchangeID {
		t.Fatalf("ExchangeID mismatch: %d != %d", got.ExchangeID, turn.ExchangeID)
	}
	if got.Text != turn.Text || got.Role != turn.Role {
		t.Fatalf("Payload mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(turn.CreatedAt) || !got.UpdatedAt.Equal(turn.UpdatedAt) {
		t.Fatalf("Timestamp mismatch: %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestCourseRoundTrip(t *testing.T) {
	course := Course{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Name:      "Cell Biology",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, CourseMUS.Size(course))
	CourseMUS.Marshal(course, buf)

	got, _, err := CourseMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.ID != course.ID || got.OwnerID != course.OwnerID || got.Name != course.Name {
		t.Fatalf("Course mismatch: %+v", got)
	}
}

func TestUUIDSerTruncatedInput(t *testing.T) {
	id := uuid.New()

	if _, _, err := uuidSer.Unmarshal(id[:10]); !errors.Is(err, mus.ErrTooSmallByteSlice) {
		t.Fatalf("Expected ErrTooSmallByteSlice, got %v", err)
	}
	if _, err := uuidSer.Skip(id[:10]); !errors.Is(err, mus.ErrTooSmallByteSlice) {
		t.Fatalf("Expected ErrTooSmallByteSlice, got %v", err)
	}

	if _, n, err := uuidSer.Unmarshal(id[:]); err != nil || n != len(id) {
		t.Fatalf("Full-length unmarshal failed: n=%d err=%v", n, err)
	}
}
