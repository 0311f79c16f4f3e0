package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleQuestion represents a turn written by the course's user.
	RoleQuestion Role = iota + 1
	// RoleAnswer represents a turn generated by the assistant.
	RoleAnswer
)

// Turn represents a single message in a course's conversation history.
// Question turns carry the embedding computed at creation time; answer
// turns never do. A question and the answer generated for it share an
// ExchangeID, which is how the response cache pairs them without relying
// on list position.
type Turn struct {
	Id         ID
	CourseID   uuid.UUID
	ExchangeID ID // links the question and answer of one exchange
	Role       Role
	Text       string
	Vector     []float32 // question embedding; empty for answer turns
	CreatedAt  time.Time // when the turn was appended
	UpdatedAt  time.Time // refreshed when a continuation extends an answer
}

// HasVector reports whether the turn carries an embedding and is therefore
// eligible for response-cache matching.
func (t *Turn) HasVector() bool {
	return len(t.Vector) > 0
}

// Course is the ownership scope for conversation turns and documents.
type Course struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PromptRole identifies the speaker of a prompt message.
type PromptRole int

const (
	// PromptRoleSystem carries instructions for the generator.
	PromptRoleSystem PromptRole = iota + 1
	// PromptRoleUser carries user input, including the current question.
	PromptRoleUser
	// PromptRoleAssistant carries previously generated answers.
	PromptRoleAssistant
)

// PromptMessage is one entry of the ordered message list passed to the
// streaming generator. List order is presentation order.
type PromptMessage struct {
	Role    PromptRole
	Content string
}
