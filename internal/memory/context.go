package memory

import (
	"fmt"
	"strings"
)

// BuildContext renders every active (non-archived) item, grouped by
// category in registry order, as the system-preamble block Phase B
// injects at the top of every turn (spec §4.4). Archived goals/tasks are
// excluded because readAll only globs the category's direct children.
func (s *Store) BuildContext() (string, error) {
	var b strings.Builder
	for _, cat := range categoryOrder {
		items, err := s.readAll(cat)
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(string(cat[:1]))+cat.dir()[1:])
		for _, it := range items {
			fmt.Fprintf(&b, "### %s (%s)\n", it.Title, it.ID)
			if len(it.Tags) > 0 {
				fmt.Fprintf(&b, "tags: %s\n", strings.Join(it.Tags, ", "))
			}
			if it.Status != "" {
				fmt.Fprintf(&b, "status: %s\n", it.Status)
			}
			fmt.Fprintf(&b, "updated: %s\n\n", it.UpdatedAt.Format(timeLayout))
			b.WriteString(it.Content)
			b.WriteString("\n\n---\n\n")
		}
	}
	return strings.TrimSuffix(b.String(), "---\n\n"), nil
}

// GetMemoryContext returns the BuildContext rendering restricted to a
// single category, used by tools that want a narrower read (e.g. only
// open tasks) without paying for the full cross-category render.
func (s *Store) GetMemoryContext(c Category) (string, error) {
	items, err := s.readAll(c)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "### %s (%s)\n", it.Title, it.ID)
		if it.Status != "" {
			fmt.Fprintf(&b, "status: %s\n", it.Status)
		}
		b.WriteString("\n")
		b.WriteString(it.Content)
		b.WriteString("\n\n---\n\n")
	}
	return strings.TrimSuffix(b.String(), "---\n\n"), nil
}
