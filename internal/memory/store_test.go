package memory

import (
	"log/slog"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSerializeParseRoundTrip(t *testing.T) {
	conf := 0.8
	original := &Item{
		ID:        generateID("t", "c"),
		Category:  CategoryFact,
		Title:     "t",
		Content:   "c",
		CreatedAt: mustParseTime(t, "2026-01-02T03-04-05"),
		UpdatedAt: mustParseTime(t, "2026-01-02T03-04-05"),
		Tags:      []string{"a", "b"},
		Confidence: &conf,
		Source:    "conversation",
	}
	data, err := serialize(original)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed, err := parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.ID != original.ID || parsed.Title != original.Title || parsed.Content != original.Content {
		t.Fatalf("round trip mismatch: got %+v", parsed)
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) || !parsed.UpdatedAt.Equal(original.UpdatedAt) {
		t.Fatalf("timestamp round trip mismatch: got %+v", parsed)
	}
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return parsed.UTC()
}

func TestIDIsDeterministic(t *testing.T) {
	a := generateID("title", "content")
	b := generateID("title", "content")
	if a != b {
		t.Fatalf("generateID not deterministic: %s != %s", a, b)
	}
	if len(a) != 8 {
		t.Fatalf("expected 8 hex chars, got %q", a)
	}
}

func TestWriteFactIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	first, err := s.WriteFact("title", "content", nil, nil, "")
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	second, err := s.WriteFact("title", "content", nil, nil, "")
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if first.Path != second.Path {
		t.Fatalf("expected idempotent write to reuse the same file, got %s vs %s", first.Path, second.Path)
	}
}

func TestDecisionCannotBeDeleted(t *testing.T) {
	s := newTestStore(t)
	d, err := s.WriteDecision("d", "content", nil, DecisionActive, "", "")
	if err != nil {
		t.Fatalf("write decision: %v", err)
	}
	if _, err := s.DeleteMemory(CategoryDecision, d.ID); err == nil {
		t.Fatalf("expected delete of a decision to be rejected")
	}
}

func TestReflectionCannotBeUpdated(t *testing.T) {
	s := newTestStore(t)
	r, err := s.WriteReflection("r", "content", nil, ReflectionInsight, "", "", "", "", "", false)
	if err != nil {
		t.Fatalf("write reflection: %v", err)
	}
	_, err = s.UpdateMemory(CategoryReflection, r.ID, func(it *Item) { it.Content = "changed" })
	if err == nil {
		t.Fatalf("expected update of a reflection to be rejected")
	}
}

func TestTaskStatusTransitionGapIsLoggedNotRejected(t *testing.T) {
	s := newTestStore(t)
	task, err := s.WriteTask("t", "content", nil, "agent", TaskOpen, "", "")
	if err != nil {
		t.Fatalf("write task: %v", err)
	}
	// open -> done is a valid edge; done -> open is not, but must still apply.
	if _, err := s.UpdateTaskStatus(task.ID, TaskDone); err != nil {
		t.Fatalf("open->done: %v", err)
	}
	updated, err := s.UpdateTaskStatus(task.ID, TaskOpen)
	if err != nil {
		t.Fatalf("done->open should warn, not error: %v", err)
	}
	if updated.Status != TaskOpen {
		t.Fatalf("expected out-of-graph transition to still apply, got %s", updated.Status)
	}
}

func TestTaskDoneDeleteArchives(t *testing.T) {
	s := newTestStore(t)
	task, err := s.WriteTask("t", "content", nil, "agent", TaskDone, "", "")
	if err != nil {
		t.Fatalf("write task: %v", err)
	}
	ok, err := s.DeleteMemory(CategoryTask, task.ID)
	if err != nil || !ok {
		t.Fatalf("delete done task: ok=%v err=%v", ok, err)
	}
	remaining, err := s.ListMemories(CategoryTask)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected archived task to disappear from active listing, got %d", len(remaining))
	}
}

func TestSearchPrefersTitleOverContent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.WriteFact("unrelated", "mentions needle in passing", nil, nil, ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.WriteFact("needle", "body text", nil, nil, ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	results, err := s.Search("needle", nil, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both items to match, got %d", len(results))
	}
}
