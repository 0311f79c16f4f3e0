package ai

import (
	"context"

	"github.com/poiesic/studyhall/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces answer text from an ordered prompt message list.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Stream generates a completion for the given messages, invoking emit
	// once per chunk as text arrives from the model. Chunks concatenated in
	// emit order form the complete answer.
	//
	// If emit returns an error, generation is aborted and Stream returns
	// that error. Stream returns nil only after the model has finished.
	Stream(ctx context.Context, messages []core.PromptMessage, emit func(chunk string) error) error
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the streaming chat completion service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
