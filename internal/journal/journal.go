// Package journal implements the append-only daily narrative log (spec
// §3, §4.3). Grounded directly on
// original_source/hermitcrab/agent/journal.py's JournalStore: one markdown
// file per UTC calendar day, frontmatter written once, subsequent entries
// for the same day appended below it. The journal is never treated as
// authoritative knowledge and is never auto-distilled into memory.
package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nextlevelbuilder/cogcore/internal/coreerrors"
	"github.com/nextlevelbuilder/cogcore/internal/durablewrite"
)

const dateLayout = "2006-01-02"

// Metadata is the parsed frontmatter of a journal entry.
type Metadata struct {
	Date        string
	SessionKeys []string
	Tags        []string
}

// Store is the daily journal store.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New constructs a Store rooted at workspace/journal.
func New(workspace string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(workspace, "journal")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) pathForDate(date time.Time) string {
	return filepath.Join(s.dir, date.UTC().Format(dateLayout)+".md")
}

func buildFrontmatter(date time.Time, sessionKeys, tags []string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "date: %s\n", date.UTC().Format(dateLayout))
	if len(sessionKeys) > 0 {
		b.WriteString("session_keys:\n")
		for _, k := range sessionKeys {
			fmt.Fprintf(&b, "  - %s\n", k)
		}
	}
	if len(tags) > 0 {
		b.WriteString("tags:\n")
		for _, tag := range tags {
			fmt.Fprintf(&b, "  - %s\n", tag)
		}
	}
	b.WriteString("---")
	return b.String()
}

// WriteEntry appends a narrative entry for date (defaults to today UTC if
// zero). The first write of the day emits the frontmatter header; every
// subsequent write for that day appends only the trimmed content. Empty
// content is rejected.
func (s *Store) WriteEntry(content string, sessionKeys, tags []string, date time.Time) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", coreerrors.NewValidationError("content", "journal entry must not be empty")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	path := s.pathForDate(date)
	trimmed := strings.TrimSpace(content)

	_, err := os.Stat(path)
	needsFrontmatter := os.IsNotExist(err)
	if err != nil && !needsFrontmatter {
		return "", err
	}

	var full string
	if needsFrontmatter {
		full = buildFrontmatter(date, sessionKeys, tags) + "\n\n" + trimmed + "\n"
	} else {
		existing, rerr := os.ReadFile(path)
		if rerr != nil {
			return "", rerr
		}
		full = string(existing) + "\n" + trimmed + "\n"
	}

	if err := durablewrite.WriteFile(s.dir, path, []byte(full), 0o644); err != nil {
		return "", err
	}
	s.logger.Info("journal: wrote entry", "path", filepath.Base(path), "bytes", len(content), "new_file", needsFrontmatter)
	return path, nil
}

// ReadEntry returns the full file contents (including frontmatter) for
// date, or ("", false, nil) if no entry exists.
func (s *Store) ReadEntry(date time.Time) (string, bool, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	data, err := os.ReadFile(s.pathForDate(date))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// ReadEntryBody returns the body only, with the frontmatter block stripped.
func (s *Store) ReadEntryBody(date time.Time) (string, bool, error) {
	full, ok, err := s.ReadEntry(date)
	if err != nil || !ok {
		return "", ok, err
	}
	if !strings.HasPrefix(full, "---") {
		return strings.TrimSpace(full), true, nil
	}
	end := strings.Index(full[3:], "\n---")
	if end == -1 {
		return strings.TrimSpace(full), true, nil
	}
	body := full[3+end+4:]
	return strings.TrimSpace(body), true, nil
}

// HasEntry reports whether an entry exists for date.
func (s *Store) HasEntry(date time.Time) bool {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	_, err := os.Stat(s.pathForDate(date))
	return err == nil
}

// ListEntries returns journal file paths sorted newest-day-first, truncated
// to limit (0 = unlimited).
func (s *Store) ListEntries(limit int) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.dir, n)
	}
	return paths, nil
}

// GetEntryMetadata parses and returns an entry's frontmatter.
func (s *Store) GetEntryMetadata(date time.Time) (*Metadata, bool, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	full, ok, err := s.ReadEntry(date)
	if err != nil || !ok {
		return nil, ok, err
	}

	md := &Metadata{Date: date.Format(dateLayout)}
	if !strings.HasPrefix(full, "---") {
		return md, true, nil
	}
	end := strings.Index(full[3:], "\n---")
	if end == -1 {
		return md, true, nil
	}
	frontmatter := full[4 : 3+end]

	var currentList string
	for _, line := range strings.Split(frontmatter, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "session_keys:"):
			currentList = "session_keys"
		case strings.HasPrefix(trimmed, "tags:"):
			currentList = "tags"
		case strings.HasPrefix(trimmed, "- "):
			value := strings.TrimSpace(trimmed[2:])
			switch currentList {
			case "session_keys":
				md.SessionKeys = append(md.SessionKeys, value)
			case "tags":
				md.Tags = append(md.Tags, value)
			}
		case trimmed != "" && !strings.HasPrefix(line, " "):
			currentList = ""
		}
	}
	return md, true, nil
}
