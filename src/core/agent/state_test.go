package agent_test

import (
	"testing"

	"ragbot/src/core/agent"
)

func TestNewConversation(t *testing.T) {
	conv := agent.NewConversation("What is the capital of France?")

	if got := conv.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	first := conv.Last()
	if first.Role != agent.RoleUser {
		t.Errorf("first turn role = %q, want %q", first.Role, agent.RoleUser)
	}
	if first.Content != "What is the capital of France?" {
		t.Errorf("first turn content = %q, want the question", first.Content)
	}
}

func TestConversationQuestionStaysOriginal(t *testing.T) {
	conv := agent.NewConversation("original question")
	conv.Append(agent.Turn{
		Role:       agent.RoleDecision,
		Invocation: &agent.Invocation{Tool: agent.ToolRetrieve, Query: "original question"},
	})
	conv.Append(agent.Turn{Role: agent.RoleToolResult, Content: "some passages"})
	conv.Append(agent.Turn{Role: agent.RoleUser, Content: "rewritten question"})

	if got := conv.Question(); got != "original question" {
		t.Errorf("Question() = %q, want %q", got, "original question")
	}
	if got := conv.CurrentQuestion(); got != "rewritten question" {
		t.Errorf("CurrentQuestion() = %q, want %q", got, "rewritten question")
	}
}

func TestCurrentQuestionSkipsNonUserTurns(t *testing.T) {
	turns := []agent.Turn{
		{Role: agent.RoleUser, Content: "first"},
		{Role: agent.RoleUser, Content: "second"},
		{Role: agent.RoleDecision, Content: ""},
		{Role: agent.RoleToolResult, Content: "passages"},
	}

	if got := agent.CurrentQuestion(turns); got != "second" {
		t.Errorf("CurrentQuestion() = %q, want %q", got, "second")
	}
}

func TestCurrentQuestionEmptyHistory(t *testing.T) {
	if got := agent.CurrentQuestion(nil); got != "" {
		t.Errorf("CurrentQuestion(nil) = %q, want empty", got)
	}
}

func TestConversationTurnsReturnsCopy(t *testing.T) {
	conv := agent.NewConversation("question")
	turns := conv.Turns()
	turns[0].Content = "mutated"

	if got := conv.Question(); got != "question" {
		t.Errorf("Question() after mutating copy = %q, want %q", got, "question")
	}
}

func TestConversationLast(t *testing.T) {
	conv := agent.NewConversation("question")
	conv.Append(agent.Turn{Role: agent.RoleToolResult, Content: "passages"})

	last := conv.Last()
	if last.Role != agent.RoleToolResult {
		t.Errorf("Last().Role = %q, want %q", last.Role, agent.RoleToolResult)
	}
	if last.Content != "passages" {
		t.Errorf("Last().Content = %q, want %q", last.Content, "passages")
	}
}
