package assistant_test

import (
	"strings"
	"testing"
	"time"

	"github.com/recallware/recall-go/assistant"
	"github.com/recallware/recall-go/memory"
)

func TestComposePrompt_NoMemories(t *testing.T) {
	got := assistant.ComposePrompt("hello", nil, "")

	if !strings.HasPrefix(got, assistant.DefaultInstructions+"\n\n") {
		t.Errorf("Prompt missing default instructions:\n%s", got)
	}
	if !strings.HasSuffix(got, "\nUser: hello\nAssistant:") {
		t.Errorf("Prompt missing user/assistant cue:\n%s", got)
	}
	if strings.Contains(got, "User memory") {
		t.Errorf("Prompt has a memory block with no memories:\n%s", got)
	}
}

func TestComposePrompt_WithMemories(t *testing.T) {
	ts := time.Date(2026, 4, 2, 11, 30, 0, 0, time.UTC)
	memories := []*memory.Record{
		{Text: "my cat is called Miso", Role: memory.RoleUser, Timestamp: ts},
		{Text: "Noted! Miso is a lovely name.", Role: memory.RoleAssistant, Timestamp: ts},
	}

	got := assistant.ComposePrompt("what is my cat called?", memories, "Be terse.")

	if !strings.HasPrefix(got, "Be terse.\n\n") {
		t.Errorf("Custom instructions not used:\n%s", got)
	}
	if !strings.Contains(got, "User memory (most relevant first):\n") {
		t.Errorf("Memory header missing:\n%s", got)
	}
	userLine := "- [user | 2026-04-02T11:30:00Z] my cat is called Miso"
	assistantLine := "- [assistant | 2026-04-02T11:30:00Z] Noted! Miso is a lovely name."
	if !strings.Contains(got, userLine+"\n") || !strings.Contains(got, assistantLine+"\n") {
		t.Errorf("Memory lines malformed:\n%s", got)
	}
	if strings.Index(got, userLine) > strings.Index(got, assistantLine) {
		t.Errorf("Memory order not preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, "\nUser: what is my cat called?\nAssistant:") {
		t.Errorf("Generation cue malformed:\n%s", got)
	}
}

func TestComposePrompt_PureFunction(t *testing.T) {
	memories := []*memory.Record{
		{Text: "a", Role: memory.RoleUser, Timestamp: time.Unix(0, 0).UTC()},
	}
	first := assistant.ComposePrompt("q", memories, "")
	second := assistant.ComposePrompt("q", memories, "")
	if first != second {
		t.Error("ComposePrompt is not deterministic")
	}
}
