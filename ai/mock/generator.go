package mock

import (
	"context"
	"strings"

	"github.com/poiesic/studyhall/core"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// StreamFunc is called by Stream if set.
	// If nil, uses default word-splitting behavior.
	StreamFunc func(ctx context.Context, messages []core.PromptMessage, emit func(chunk string) error) error

	// Response is the text emitted by the default behavior.
	// If empty, a canned answer is used.
	Response string

	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Stream emits the configured response split on word boundaries, one word
// per chunk, mimicking how completions arrive over the wire.
func (m *MockGenerator) Stream(ctx context.Context, messages []core.PromptMessage, emit func(chunk string) error) error {
	m.callCount++

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, messages, emit)
	}

	response := m.Response
	if response == "" {
		response = "This is a mock answer."
	}

	words := strings.SplitAfter(response, " ")
	for _, word := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(word); err != nil {
			return err
		}
	}
	return nil
}

// CallCount returns the number of times Stream was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.StreamFunc = nil
	m.Response = ""
}
