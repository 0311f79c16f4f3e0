package chat

import (
	"strings"
	"testing"

	"github.com/poiesic/studyhall/core"
)

const testTokenModel = "gpt-4"

func historyTurn(role core.Role, text string) *core.Turn {
	return &core.Turn{Role: role, Text: text}
}

func TestFilterHistoryOrdersOldestFirst(t *testing.T) {
	// Newest-first input, the order repositories return.
	turns := []*core.Turn{
		historyTurn(core.RoleAnswer, "second answer"),
		historyTurn(core.RoleQuestion, "second question"),
		historyTurn(core.RoleAnswer, "first answer"),
		historyTurn(core.RoleQuestion, "first question"),
	}

	messages := FilterHistory(testTokenModel, turns, "new question", "", 10000)
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}

	wantText := []string{"first question", "first answer", "second question", "second answer"}
	wantRole := []core.PromptRole{
		core.PromptRoleUser, core.PromptRoleAssistant,
		core.PromptRoleUser, core.PromptRoleAssistant,
	}
	for i, msg := range messages {
		if msg.Content != wantText[i] {
			t.Errorf("message %d: expected %q, got %q", i, wantText[i], msg.Content)
		}
		if msg.Role != wantRole[i] {
			t.Errorf("message %d: expected role %v, got %v", i, wantRole[i], msg.Role)
		}
	}
}

func TestFilterHistoryBudgetFavorsRecent(t *testing.T) {
	long := strings.Repeat("lecture notes about consensus protocols ", 300)
	turns := []*core.Turn{
		historyTurn(core.RoleAnswer, "ok"),
		historyTurn(core.RoleQuestion, long),
	}

	messages := FilterHistory(testTokenModel, turns, "", "", 200)
	if len(messages) != 1 {
		t.Fatalf("expected only the recent turn to survive, got %d messages", len(messages))
	}
	if messages[0].Content != "ok" {
		t.Errorf("expected the newest turn, got %q", messages[0].Content)
	}
}

func TestFilterHistoryCountsQuestionAndContext(t *testing.T) {
	turns := []*core.Turn{historyTurn(core.RoleQuestion, "hello there")}
	hugeContext := strings.Repeat("retrieved context paragraph ", 400)

	messages := FilterHistory(testTokenModel, turns, "short question", hugeContext, 100)
	if len(messages) != 0 {
		t.Fatalf("expected context to consume the whole budget, got %d messages", len(messages))
	}
}

func TestFilterHistorySkipsEmptyTurns(t *testing.T) {
	turns := []*core.Turn{
		historyTurn(core.RoleAnswer, "real answer"),
		nil,
		historyTurn(core.RoleQuestion, ""),
		historyTurn(core.RoleQuestion, "real question"),
	}

	messages := FilterHistory(testTokenModel, turns, "q", "", 10000)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "real question" || messages[1].Content != "real answer" {
		t.Errorf("unexpected messages: %+v", messages)
	}
}

func TestFilterHistoryEmptyInput(t *testing.T) {
	messages := FilterHistory(testTokenModel, nil, "question", "context", 0)
	if len(messages) != 0 {
		t.Fatalf("expected empty result, got %d messages", len(messages))
	}
}
