package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/studyhall/ai"
	"github.com/poiesic/studyhall/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat completion APIs.
type Generator struct {
	llm    *openai.LLM
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		llm:    client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new streaming generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Stream generates a completion for the given messages, emitting chunks as
// they arrive. An error returned from emit aborts the generation.
func (g *Generator) Stream(ctx context.Context, messages []core.PromptMessage, emit func(chunk string) error) error {
	g.logger.Debug("starting streaming generation", "messages", len(messages))

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role, err := chatMessageType(msg.Role)
		if err != nil {
			return err
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	_, err := g.llm.GenerateContent(ctx, content,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return emit(string(chunk))
		}),
	)
	if err != nil {
		g.logger.Error("streaming generation failed", "err", err)
		return err
	}

	return nil
}

func chatMessageType(role core.PromptRole) (llms.ChatMessageType, error) {
	switch role {
	case core.PromptRoleSystem:
		return llms.ChatMessageTypeSystem, nil
	case core.PromptRoleUser:
		return llms.ChatMessageTypeHuman, nil
	case core.PromptRoleAssistant:
		return llms.ChatMessageTypeAI, nil
	default:
		return "", fmt.Errorf("unknown prompt role: %d", role)
	}
}
