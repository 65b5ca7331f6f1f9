package sessions

import (
	"testing"
	"time"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	m := NewManager(t.TempDir(), time.Minute)
	a := m.GetOrCreate("cli:c1")
	b := m.GetOrCreate("cli:c1")
	if a != b {
		t.Fatalf("expected the same session instance on repeated GetOrCreate")
	}
}

func TestAppendTurnsTruncatesToolContent(t *testing.T) {
	m := NewManager(t.TempDir(), time.Minute)
	m.GetOrCreate("cli:c1")
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	if err := m.AppendTurns("cli:c1", []Turn{{Role: RoleTool, Content: string(long), ToolCallID: "1", ToolName: "echo"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	history := m.GetHistory("cli:c1", 0)
	if len(history) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(history))
	}
	if len(history[0].Content) != toolOutputCap+len(truncatedSuffix) {
		t.Fatalf("expected truncated content length %d, got %d", toolOutputCap+len(truncatedSuffix), len(history[0].Content))
	}
}

func TestGetHistoryDropsOrphanedLeadingToolTurn(t *testing.T) {
	m := NewManager(t.TempDir(), time.Minute)
	m.GetOrCreate("cli:c1")
	turns := []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "", ToolCallID: ""},
		{Role: RoleTool, Content: "result", ToolCallID: "1", ToolName: "echo"},
		{Role: RoleAssistant, Content: "done"},
	}
	if err := m.AppendTurns("cli:c1", turns); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Ask for the last 2 turns: that window starts mid-tool-call.
	history := m.GetHistory("cli:c1", 2)
	if len(history) != 1 {
		t.Fatalf("expected the orphaned leading tool turn dropped, got %d turns", len(history))
	}
	if history[0].Role != RoleAssistant {
		t.Fatalf("expected remaining turn to be the assistant turn, got %s", history[0].Role)
	}
}

func TestResetPreservesKeyClearsMessages(t *testing.T) {
	m := NewManager(t.TempDir(), time.Minute)
	m.GetOrCreate("cli:c1")
	if err := m.AppendTurns("cli:c1", []Turn{{Role: RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	m.Reset("cli:c1")
	s := m.GetOrCreate("cli:c1")
	if s.Key != "cli:c1" {
		t.Fatalf("expected key preserved, got %s", s.Key)
	}
	if len(s.Messages) != 0 {
		t.Fatalf("expected messages cleared, got %d", len(s.Messages))
	}
}

func TestScanTimedOutRespectsThreshold(t *testing.T) {
	m := NewManager(t.TempDir(), 30*time.Minute)
	m.GetOrCreate("cli:a")
	m.Touch("cli:a")
	past := m.ScanTimedOut(time.Now().UTC())
	if len(past) != 0 {
		t.Fatalf("expected no timed-out sessions immediately after touch, got %d", len(past))
	}
	future := m.ScanTimedOut(time.Now().UTC().Add(31 * time.Minute))
	if len(future) != 1 || future[0] != "cli:a" {
		t.Fatalf("expected cli:a to be timed out 31 minutes later, got %v", future)
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, time.Minute)
	m.GetOrCreate("cli:c1")
	if err := m.AppendTurns("cli:c1", []Turn{{Role: RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	reloaded := NewManager(dir, time.Minute)
	history := reloaded.GetHistory("cli:c1", 0)
	if len(history) != 1 || history[0].Content != "hi" {
		t.Fatalf("expected reload to recover persisted session, got %+v", history)
	}
}
