package chat

import (
	"github.com/poiesic/studyhall/core"
	"github.com/tmc/langchaingo/llms"
)

// DefaultTokenBudget bounds the prompt tokens spent on conversation history,
// the new question and its retrieved context combined.
const DefaultTokenBudget = 3000

// FilterHistory selects the most recent turns that fit the token budget and
// returns them as prompt messages ordered oldest-first.
//
// Turns must arrive newest-first, the order repositories return them in. The
// question and context texts are counted against the budget but not included
// in the output; the caller appends the annotated question itself.
// Deterministic for identical inputs, and an empty history yields an empty
// slice, never nil dereferences.
func FilterHistory(model string, turns []*core.Turn, newQuestion, newContext string, budget int) []core.PromptMessage {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}

	remaining := budget
	remaining -= llms.CountTokens(model, newQuestion)
	remaining -= llms.CountTokens(model, newContext)

	// Walk newest-first so the most recent exchanges survive the cut.
	kept := make([]core.PromptMessage, 0, len(turns))
	for _, turn := range turns {
		if turn == nil || turn.Text == "" {
			continue
		}
		cost := llms.CountTokens(model, turn.Text)
		if cost > remaining {
			break
		}
		remaining -= cost

		role := core.PromptRoleUser
		if turn.Role == core.RoleAnswer {
			role = core.PromptRoleAssistant
		}
		kept = append(kept, core.PromptMessage{Role: role, Content: turn.Text})
	}

	// Reverse to presentation order, oldest first.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
