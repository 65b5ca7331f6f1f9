package tools

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/cogcore/internal/memory"
)

func newTestMemory(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.New(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	return s
}

func TestRegistryCallUnknownToolReturnsDiagnostic(t *testing.T) {
	r := NewRegistry(nil)
	out := r.Call(context.Background(), "does_not_exist", nil)
	if !strings.Contains(out, "unknown tool") {
		t.Fatalf("expected diagnostic for unknown tool, got %q", out)
	}
}

func TestRegistryCallReifiesExecuteErrorAsToolErrorContent(t *testing.T) {
	r := NewRegistry(nil)
	store := newTestMemory(t)
	r.Register(NewWriteTaskTool(store))

	// Missing required "assignee" triggers a ValidationError from the store.
	out := r.Call(context.Background(), "write_task", map[string]interface{}{
		"title":   "Ship it",
		"content": "Finish the release",
	})
	if !strings.Contains(out, "tool error") {
		t.Fatalf("expected tool error content, got %q", out)
	}
}

func TestProviderDefsSortedByName(t *testing.T) {
	r := NewRegistry(nil)
	store := newTestMemory(t)
	r.Register(NewWriteFactTool(store))
	r.Register(NewWriteTaskTool(store))
	r.Register(NewSearchMemoryTool(store))

	defs := r.ProviderDefs()
	if len(defs) != 3 {
		t.Fatalf("expected 3 tool defs, got %d", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Function.Name > defs[i].Function.Name {
			t.Fatalf("expected sorted tool defs, got %v", defs)
		}
	}
}

func TestWriteFactToolCommitsToMemoryStore(t *testing.T) {
	store := newTestMemory(t)
	tool := NewWriteFactTool(store)

	out, err := tool.Execute(context.Background(), map[string]interface{}{
		"title":   "Prefers dark mode",
		"content": "User prefers dark mode in all apps",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "Fact saved") {
		t.Fatalf("unexpected result: %q", out)
	}

	items, err := store.ListMemories(memory.CategoryFact)
	if err != nil {
		t.Fatalf("ListMemories: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Prefers dark mode" {
		t.Fatalf("expected one fact item, got %+v", items)
	}
}

func TestMessageEmissionToolRequiresTurnContext(t *testing.T) {
	sent := false
	tool := NewMessageEmissionTool(func(ctx context.Context, channel, chatID, content string) error {
		sent = true
		return nil
	})

	if _, err := tool.Execute(context.Background(), map[string]interface{}{"content": "hi"}); err == nil {
		t.Fatalf("expected error without turn context")
	}
	if sent {
		t.Fatalf("send should not have been called")
	}

	ctx := WithTurnContext(context.Background(), "cli", "c1", "")
	out, err := tool.Execute(ctx, map[string]interface{}{"content": "hi"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !sent {
		t.Fatalf("expected send to be called with turn context present")
	}
	if out == "" {
		t.Fatalf("expected non-empty confirmation")
	}
}
