package memory

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML-style header (spec §6): required keys id, title,
// created_at, updated_at, type, tags; category-specific keys beyond that.
type frontmatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	CreatedAt string   `yaml:"created_at"`
	UpdatedAt string   `yaml:"updated_at"`
	Type      string   `yaml:"type"`
	Tags      []string `yaml:"tags,omitempty"`

	Confidence *float64 `yaml:"confidence,omitempty"`
	Source     string   `yaml:"source,omitempty"`

	Status string `yaml:"status,omitempty"`

	Rationale  string `yaml:"rationale,omitempty"`
	Supersedes string `yaml:"supersedes,omitempty"`

	Priority string `yaml:"priority,omitempty"`
	Horizon  string `yaml:"horizon,omitempty"`

	Assignee string `yaml:"assignee,omitempty"`
	Deadline string `yaml:"deadline,omitempty"`

	Kind           string `yaml:"kind,omitempty"`
	ToolInvolved   string `yaml:"tool_involved,omitempty"`
	ErrorPattern   string `yaml:"error_pattern,omitempty"`
	Frequency      string `yaml:"frequency,omitempty"`
	Impact         string `yaml:"impact,omitempty"`
	Suggestion     string `yaml:"suggestion,omitempty"`
	UserCorrection bool   `yaml:"user_correction,omitempty"`
}

func toFrontmatter(it *Item) frontmatter {
	return frontmatter{
		ID:             it.ID,
		Title:          it.Title,
		CreatedAt:      it.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:      it.UpdatedAt.UTC().Format(timeLayout),
		Type:           string(it.Category),
		Tags:           it.Tags,
		Confidence:     it.Confidence,
		Source:         it.Source,
		Status:         it.Status,
		Rationale:      it.Rationale,
		Supersedes:     it.Supersedes,
		Priority:       it.Priority,
		Horizon:        it.Horizon,
		Assignee:       it.Assignee,
		Deadline:       it.Deadline,
		Kind:           it.Kind,
		ToolInvolved:   it.ToolInvolved,
		ErrorPattern:   it.ErrorPattern,
		Frequency:      it.Frequency,
		Impact:         it.Impact,
		Suggestion:     it.Suggestion,
		UserCorrection: it.UserCorrection,
	}
}

// serialize renders header + blank line + body, matching spec §6's
// "Markdown with a YAML-style header delimited by --- lines, body after a
// blank line".
func serialize(it *Item) ([]byte, error) {
	fm := toFrontmatter(it)
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("memory: marshal header: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(it.Content, "\n"))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// parse splits header from body and populates an Item (without Path or
// Category's directory membership, which the caller already knows).
func parse(data []byte) (*Item, error) {
	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		return nil, fmt.Errorf("memory: missing frontmatter delimiter")
	}
	rest := text[4:]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return nil, fmt.Errorf("memory: unterminated frontmatter")
	}
	headerText := rest[:end]
	body := rest[end+4:]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimRight(body, "\n")

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(headerText), &fm); err != nil {
		return nil, fmt.Errorf("memory: parse header: %w", err)
	}

	if fm.ID == "" || fm.Title == "" || fm.CreatedAt == "" || fm.UpdatedAt == "" || fm.Type == "" {
		return nil, fmt.Errorf("memory: missing required header field")
	}

	created, err := time.Parse(timeLayout, fm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("memory: parse created_at: %w", err)
	}
	updated, err := time.Parse(timeLayout, fm.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("memory: parse updated_at: %w", err)
	}

	cat := Category(fm.Type)
	if !cat.valid() {
		return nil, fmt.Errorf("memory: unknown category %q", fm.Type)
	}

	return &Item{
		ID:             fm.ID,
		Category:       cat,
		Title:          fm.Title,
		Content:        body,
		CreatedAt:      created.UTC(),
		UpdatedAt:      updated.UTC(),
		Tags:           fm.Tags,
		Confidence:     fm.Confidence,
		Source:         fm.Source,
		Status:         fm.Status,
		Rationale:      fm.Rationale,
		Supersedes:     fm.Supersedes,
		Priority:       fm.Priority,
		Horizon:        fm.Horizon,
		Assignee:       fm.Assignee,
		Deadline:       fm.Deadline,
		Kind:           fm.Kind,
		ToolInvolved:   fm.ToolInvolved,
		ErrorPattern:   fm.ErrorPattern,
		Frequency:      fm.Frequency,
		Impact:         fm.Impact,
		Suggestion:     fm.Suggestion,
		UserCorrection: fm.UserCorrection,
	}, nil
}
