package memory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/cogcore/internal/coreerrors"
	"github.com/nextlevelbuilder/cogcore/internal/durablewrite"
)

// Store is the category-typed, file-per-item memory store (spec §4.1).
// A coarse per-process mutex serializes writes, matching spec §5's
// single-writer assumption.
type Store struct {
	root   string // workspace/memory
	mu     sync.Mutex
	logger *slog.Logger
}

// New constructs a Store rooted at workspace/memory, creating the category
// directories (and their archived/ subdirectories for goal and task) if
// absent.
func New(workspace string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root := filepath.Join(workspace, "memory")
	s := &Store{root: root, logger: logger}
	for _, cat := range categoryOrder {
		dir := filepath.Join(root, cat.dir())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("memory: create %s: %w", dir, err)
		}
	}
	// Only goal and task archive per spec §6 layout.
	for _, cat := range []Category{CategoryGoal, CategoryTask} {
		if err := os.MkdirAll(filepath.Join(root, cat.dir(), "archived"), 0o755); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) categoryDir(c Category) string {
	return filepath.Join(s.root, c.dir())
}

// readAll loads every non-archived .md file under a category directory,
// in lexicographic filename order for determinism. Malformed files are
// logged and skipped (spec §4.1 failure mode).
func (s *Store) readAll(c Category) ([]*Item, error) {
	dir := s.categoryDir(c)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	items := make([]*Item, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("memory: read failed, skipping", "path", path, "error", err)
			continue
		}
		item, err := parse(data)
		if err != nil {
			s.logger.Warn("memory: malformed item, skipping", "path", path, "error", err)
			continue
		}
		item.Path = path
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) findByID(c Category, id string) (*Item, error) {
	items, err := s.readAll(c)
	if err != nil {
		return nil, err
	}
	var matches []*Item
	for _, it := range items {
		if it.ID == id {
			matches = append(matches, it)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		s.logger.Warn("memory: duplicate id, returning newest", "category", c, "id", id, "count", len(matches))
		sort.Slice(matches, func(i, j int) bool { return matches[i].UpdatedAt.After(matches[j].UpdatedAt) })
	}
	return matches[0], nil
}

// writeNewLocked generates a unique filename for it (collision: same stem,
// different id — append -1, -2, … per spec §4.1) and writes it durably.
// Caller must hold s.mu.
func (s *Store) writeNewLocked(it *Item) error {
	dir := s.categoryDir(it.Category)
	stem := strings.TrimSuffix(generateFilename(it.CreatedAt, it.Category, it.Title), ".md")
	name := stem + ".md"
	path := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		} else if err != nil {
			return err
		}
		existing, err := os.ReadFile(path)
		if err == nil {
			if parsed, perr := parse(existing); perr == nil && parsed.ID == it.ID {
				break // same id already at that exact path; treat as in-place
			}
		}
		name = fmt.Sprintf("%s-%d.md", stem, i)
		path = filepath.Join(dir, name)
	}

	data, err := serialize(it)
	if err != nil {
		return err
	}
	if err := durablewrite.WriteFile(dir, path, data, 0o644); err != nil {
		return err
	}
	it.Path = path
	return nil
}

func (s *Store) overwriteLocked(it *Item) error {
	if it.Path == "" {
		return fmt.Errorf("memory: item has no path to overwrite")
	}
	data, err := serialize(it)
	if err != nil {
		return err
	}
	return durablewrite.WriteFile(filepath.Dir(it.Path), it.Path, data, 0o644)
}

// commit is the common body shared by the five typed write entry points
// (spec §9 redesign note): stamp timestamps, compute id, check for an
// existing idempotent match, serialize, write.
func (s *Store) commit(it *Item) (*Item, error) {
	if strings.TrimSpace(it.Title) == "" {
		return nil, coreerrors.NewValidationError("title", "must not be empty")
	}
	if strings.TrimSpace(it.Content) == "" {
		return nil, coreerrors.NewValidationError("content", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	it.ID = generateID(it.Title, it.Content)

	if existing, err := s.findByID(it.Category, it.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil // idempotent: identical commit produces no new file
	}

	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	if err := s.writeNewLocked(it); err != nil {
		return nil, err
	}
	return it, nil
}

// WriteFact saves a long-term fact. Free; only content non-empty required.
func (s *Store) WriteFact(title, content string, tags []string, confidence *float64, source string) (*Item, error) {
	if confidence != nil && (*confidence < 0 || *confidence > 1) {
		return nil, coreerrors.NewValidationError("confidence", "must be within [0,1]")
	}
	return s.commit(&Item{
		Category:   CategoryFact,
		Title:      title,
		Content:    content,
		Tags:       tags,
		Confidence: confidence,
		Source:     source,
	})
}

// WriteDecision saves a decision. Requires status in {active, superseded};
// if supersedes is set, rationale is required.
func (s *Store) WriteDecision(title, content string, tags []string, status, rationale, supersedes string) (*Item, error) {
	if status == "" {
		status = DecisionActive
	}
	if status != DecisionActive && status != DecisionSuperseded {
		return nil, coreerrors.NewValidationError("status", "must be active or superseded")
	}
	if supersedes != "" && strings.TrimSpace(rationale) == "" {
		return nil, coreerrors.NewValidationError("rationale", "required when supersedes is set")
	}
	return s.commit(&Item{
		Category:   CategoryDecision,
		Title:      title,
		Content:    content,
		Tags:       tags,
		Status:     status,
		Rationale:  rationale,
		Supersedes: supersedes,
	})
}

// WriteGoal saves a goal. Status in {active, achieved, abandoned}.
func (s *Store) WriteGoal(title, content string, tags []string, status, priority, horizon string) (*Item, error) {
	if status == "" {
		status = GoalActive
	}
	switch status {
	case GoalActive, GoalAchieved, GoalAbandoned:
	default:
		return nil, coreerrors.NewValidationError("status", "must be active, achieved, or abandoned")
	}
	return s.commit(&Item{
		Category: CategoryGoal,
		Title:    title,
		Content:  content,
		Tags:     tags,
		Status:   status,
		Priority: priority,
		Horizon:  horizon,
	})
}

// WriteTask saves a task. Requires non-empty assignee; status in
// {open, in_progress, done, deferred}.
func (s *Store) WriteTask(title, content string, tags []string, assignee, status, deadline, priority string) (*Item, error) {
	if strings.TrimSpace(assignee) == "" {
		return nil, coreerrors.NewValidationError("assignee", "must not be empty")
	}
	if status == "" {
		status = TaskOpen
	}
	switch status {
	case TaskOpen, TaskInProgress, TaskDone, TaskDeferred:
	default:
		return nil, coreerrors.NewValidationError("status", "must be open, in_progress, done, or deferred")
	}
	return s.commit(&Item{
		Category: CategoryTask,
		Title:    title,
		Content:  content,
		Tags:     tags,
		Assignee: assignee,
		Status:   status,
		Deadline: deadline,
		Priority: priority,
	})
}

// WriteReflection saves a reflection. Free at this layer: the analyzer
// (internal/reflect) validates kind-specific required fields before
// calling here, per spec §4.6.
func (s *Store) WriteReflection(title, content string, tags []string, kind, toolInvolved, errorPattern, frequency, impact, suggestion string, userCorrection bool) (*Item, error) {
	return s.commit(&Item{
		Category:       CategoryReflection,
		Title:          title,
		Content:        content,
		Tags:           tags,
		Kind:           kind,
		ToolInvolved:   toolInvolved,
		ErrorPattern:   errorPattern,
		Frequency:      frequency,
		Impact:         impact,
		Suggestion:     suggestion,
		UserCorrection: userCorrection,
	})
}

// Read loads items for a category, optionally filtered by exact id and/or a
// case-insensitive substring query over title and content, sorted by
// updated_at descending (spec §4.1 read semantics).
func (s *Store) Read(c Category, id, query string) ([]*Item, error) {
	if !c.valid() {
		return nil, fmt.Errorf("memory: unknown category %q", c)
	}
	items, err := s.readAll(c)
	if err != nil {
		return nil, err
	}

	if id != "" {
		var matches []*Item
		for _, it := range items {
			if it.ID == id {
				matches = append(matches, it)
			}
		}
		if len(matches) > 1 {
			s.logger.Warn("memory: duplicate id on read, returning newest first", "category", c, "id", id)
		}
		items = matches
	}

	if query != "" {
		q := strings.ToLower(query)
		filtered := items[:0:0]
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Content), q) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt.After(items[j].UpdatedAt) })
	return items, nil
}

// Search scans every targeted category (registry order if categories is
// nil) for a case-insensitive match, preferring filename stem, then title,
// then any tag, then content substring — first match per file wins (spec
// §4.1 search semantics). Results are sorted by updated_at descending and
// truncated to limit (0 = unlimited).
func (s *Store) Search(query string, categories []Category, limit int) ([]*Item, error) {
	q := strings.ToLower(query)
	cats := categories
	if len(cats) == 0 {
		cats = categoryOrder
	}

	var results []*Item
	for _, c := range cats {
		items, err := s.readAll(c)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			stem := strings.ToLower(strings.TrimSuffix(filepath.Base(it.Path), ".md"))
			matched := strings.Contains(stem, q) || strings.Contains(strings.ToLower(it.Title), q)
			if !matched {
				for _, tag := range it.Tags {
					if strings.Contains(strings.ToLower(tag), q) {
						matched = true
						break
					}
				}
			}
			if !matched && strings.Contains(strings.ToLower(it.Content), q) {
				matched = true
			}
			if matched {
				results = append(results, it)
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].UpdatedAt.After(results[j].UpdatedAt) })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// UpdateMemory applies field updates to an existing item, gated by
// category lifecycle rules. Returns (nil, nil) if id is not found, matching
// spec §7's NotFound-returns-None contract.
func (s *Store) UpdateMemory(c Category, id string, apply func(*Item)) (*Item, error) {
	if c == CategoryReflection {
		return nil, coreerrors.NewRuleViolation("update", "reflections are append-only")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.findByID(c, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	if c == CategoryDecision {
		s.logger.Warn("memory: updating a decision in place; consider superseding with a new item instead", "id", id)
	}

	apply(item)
	item.UpdatedAt = time.Now().UTC()
	if err := s.overwriteLocked(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateTaskStatus transitions a task's status. An out-of-graph transition
// logs a warning but is not rejected — a documented gap (spec §9 open
// question 1).
func (s *Store) UpdateTaskStatus(id, newStatus string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.findByID(CategoryTask, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	allowed := validTaskTransitions[item.Status]
	valid := false
	for _, a := range allowed {
		if a == newStatus {
			valid = true
			break
		}
	}
	if !valid {
		s.logger.Warn("memory: task status transition outside allowed graph; applying anyway", "id", id, "from", item.Status, "to", newStatus)
	}

	item.Status = newStatus
	item.UpdatedAt = time.Now().UTC()
	if err := s.overwriteLocked(item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMemory deletes (or archives) an item, gated by category rules.
// Returns (false, nil) if not found, matching spec §7's NotFound contract.
func (s *Store) DeleteMemory(c Category, id string) (bool, error) {
	if c == CategoryDecision {
		return false, coreerrors.NewRuleViolation("delete", "decisions never mutate or delete; supersede instead")
	}
	if c == CategoryReflection {
		return false, coreerrors.NewRuleViolation("delete", "reflections are append-only")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.findByID(c, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	switch c {
	case CategoryGoal:
		if item.Status == GoalAchieved {
			return true, s.archiveLocked(item)
		}
	case CategoryTask:
		if item.Status == TaskDone {
			return true, s.archiveLocked(item)
		}
	case CategoryFact:
		s.logger.Warn("memory: deleting fact", "id", id)
	}

	if err := os.Remove(item.Path); err != nil {
		return false, err
	}
	return true, nil
}

// archiveLocked renames item's file into the category's archived/
// subdirectory. Caller must hold s.mu.
func (s *Store) archiveLocked(item *Item) error {
	dest := filepath.Join(s.categoryDir(item.Category), "archived", filepath.Base(item.Path))
	if err := os.Rename(item.Path, dest); err != nil {
		return err
	}
	item.Path = dest
	return nil
}

// ListMemories returns every non-archived item in a category, newest first.
func (s *Store) ListMemories(c Category) ([]*Item, error) {
	return s.Read(c, "", "")
}
