package journal

import (
	"strings"
	"testing"
	"time"
)

func TestWriteEntryRejectsEmptyContent(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.WriteEntry("   ", nil, nil, time.Time{}); err == nil {
		t.Fatalf("expected empty content to be rejected")
	}
}

func TestWriteEntryHeaderOnceThenAppend(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := s.WriteEntry("First thing happened.", []string{"cli:c1"}, []string{"work"}, date); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := s.WriteEntry("Second thing happened.", nil, nil, date); err != nil {
		t.Fatalf("second write: %v", err)
	}

	full, ok, err := s.ReadEntry(date)
	if err != nil || !ok {
		t.Fatalf("read entry: ok=%v err=%v", ok, err)
	}
	if strings.Count(full, "---") != 2 {
		t.Fatalf("expected exactly one frontmatter block (2 delimiters), got content:\n%s", full)
	}
	if !strings.Contains(full, "First thing happened.") || !strings.Contains(full, "Second thing happened.") {
		t.Fatalf("expected both entries appended, got:\n%s", full)
	}
}

func TestReadEntryBodyStripsFrontmatter(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.WriteEntry("narrative body", nil, nil, date); err != nil {
		t.Fatalf("write: %v", err)
	}
	body, ok, err := s.ReadEntryBody(date)
	if err != nil || !ok {
		t.Fatalf("read body: ok=%v err=%v", ok, err)
	}
	if strings.Contains(body, "---") {
		t.Fatalf("expected frontmatter stripped, got:\n%s", body)
	}
	if body != "narrative body" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestListEntriesNewestFirst(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if _, err := s.WriteEntry("day one", nil, nil, d1); err != nil {
		t.Fatalf("write d1: %v", err)
	}
	if _, err := s.WriteEntry("day two", nil, nil, d2); err != nil {
		t.Fatalf("write d2: %v", err)
	}
	entries, err := s.ListEntries(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || !strings.Contains(entries[0], "2026-03-02") {
		t.Fatalf("expected newest-first ordering, got %v", entries)
	}
}
