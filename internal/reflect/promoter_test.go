package reflect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendToSectionCreatesMissingSection(t *testing.T) {
	p := NewPromoter(t.TempDir(), nil, "", nil, 0, nil)
	updated, err := p.appendToSection("AGENTS.md", "## Self-Improvements from Reflection", "Be more careful with shell quoting.")
	if err != nil {
		t.Fatalf("appendToSection: %v", err)
	}
	if !strings.Contains(updated, "## Self-Improvements from Reflection") || !strings.Contains(updated, "Be more careful") {
		t.Fatalf("expected section and content present, got:\n%s", updated)
	}
}

func TestAppendToSectionAppendsUnderExistingSection(t *testing.T) {
	dir := t.TempDir()
	p := NewPromoter(dir, nil, "", nil, 0, nil)
	section := "## Self-Improvements from Reflection"

	first, err := p.appendToSection("AGENTS.md", section, "first lesson")
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "AGENTS.md"), []byte(first), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	second, err := p.appendToSection("AGENTS.md", section, "second lesson")
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if strings.Count(second, section) != 1 {
		t.Fatalf("expected the section header to appear exactly once, got:\n%s", second)
	}
	if !strings.Contains(second, "first lesson") || !strings.Contains(second, "second lesson") {
		t.Fatalf("expected both lessons present, got:\n%s", second)
	}
}

func TestCheckFileSizeAndArchiveTrimsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPromoter(dir, nil, "", nil, 10, nil)

	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "line")
	}
	if err := os.WriteFile(filepath.Join(dir, "AGENTS.md"), []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := p.checkFileSizeAndArchive("AGENTS.md"); err != nil {
		t.Fatalf("checkFileSizeAndArchive: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	archived := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "AGENTS.md.archived.") {
			archived = true
		}
	}
	if !archived {
		t.Fatalf("expected an archived copy to exist")
	}

	trimmed, err := os.ReadFile(filepath.Join(dir, "AGENTS.md"))
	if err != nil {
		t.Fatalf("read trimmed: %v", err)
	}
	if len(strings.Split(string(trimmed), "\n")) > 10 {
		t.Fatalf("expected trimmed file within the configured cap")
	}
}
