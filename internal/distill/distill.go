// Package distill implements the Distillation Extractor (spec §4.5):
// LLM-based atomic knowledge extraction from a session snapshot into
// typed candidates, validated and committed through the Memory Store.
// Grounded directly on
// original_source/hermitcrab/agent/distillation.py (the AtomicCandidate
// schema and validation rules) and
// original_source/hermitcrab/agent/loop.py's _distill_session (prompt
// shape, outermost-brace JSON extraction, per-candidate commit).
package distill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	json5 "github.com/titanous/json5"

	"github.com/nextlevelbuilder/cogcore/internal/memory"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
)

const (
	maxTurnsConsidered = 50
	maxTurnContentChars = 500
	defaultAssignee      = "distilled"
)

// Candidate is a proposal extracted from a transcript — not authoritative
// until committed through the Memory Store (spec §3's Atomic Candidate).
type Candidate struct {
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`

	TaskStatus   string `json:"task_status"`
	TaskAssignee string `json:"task_assignee"`
	TaskDeadline string `json:"task_deadline"`
	TaskPriority string `json:"task_priority"`

	GoalStatus   string `json:"goal_status"`
	GoalPriority string `json:"goal_priority"`
	GoalHorizon  string `json:"goal_horizon"`

	DecisionStatus     string `json:"decision_status"`
	DecisionRationale  string `json:"decision_rationale"`
	DecisionSupersedes string `json:"decision_supersedes"`

	FactSource string `json:"fact_source"`
}

type extraction struct {
	Candidates []Candidate `json:"candidates"`
}

// Extractor calls a job-class-routed model to propose candidates and
// commits validated ones through the Memory Store.
type Extractor struct {
	provider providers.Provider
	memory   *memory.Store
	logger   *slog.Logger
}

func New(provider providers.Provider, store *memory.Store, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{provider: provider, memory: store, logger: logger}
}

// Run distills a session snapshot. Per spec §9's policy, the distillation
// job class has no fallback: if model is empty, distillation is skipped
// silently (local-only by policy, not a failure).
func (e *Extractor) Run(ctx context.Context, model string, snapshot sessions.Snapshot) {
	if len(snapshot.Messages) == 0 {
		return
	}
	if model == "" {
		e.logger.Debug("distill: skipped, no model configured", "session", snapshot.Key)
		return
	}

	prompt := buildPrompt(snapshot.Messages)
	resp, err := e.provider.Chat(ctx, providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   2048,
	})
	if err != nil {
		e.logger.Warn("distill: LLM call failed", "session", snapshot.Key, "error", err)
		return
	}

	candidates, err := extractCandidates(resp.Content)
	if err != nil {
		e.logger.Warn("distill: response not valid JSON", "session", snapshot.Key, "error", err)
		return
	}

	committed := 0
	for _, c := range candidates {
		if errs := c.validate(); len(errs) > 0 {
			e.logger.Warn("distill: candidate validation failed", "title", c.Title, "errors", errs)
			continue
		}
		if err := e.commit(c); err != nil {
			e.logger.Warn("distill: commit failed", "title", c.Title, "error", err)
			continue
		}
		committed++
	}
	if committed > 0 {
		e.logger.Info("distill: complete", "session", snapshot.Key, "candidates", committed)
	} else {
		e.logger.Debug("distill: no valid candidates", "session", snapshot.Key)
	}
}

func buildPrompt(turns []sessions.Turn) string {
	var b strings.Builder
	b.WriteString("Extract atomic knowledge candidates from this agent session.\n\n")
	b.WriteString("Look for:\n")
	b.WriteString("- FACTS: User preferences, project context, established truths\n")
	b.WriteString("- DECISIONS: Architectural choices, trade-offs, locked decisions\n")
	b.WriteString("- GOALS: Objectives, outcomes the user wants to achieve\n")
	b.WriteString("- TASKS: Action items, todos, things to do\n")
	b.WriteString("- REFLECTIONS: Insights, patterns, observations about the work\n\n")
	b.WriteString("Session content:\n")

	count := len(turns)
	if count > maxTurnsConsidered {
		count = maxTurnsConsidered
	}
	for _, t := range turns[:count] {
		content := t.Content
		if len(content) > maxTurnContentChars {
			content = content[:maxTurnContentChars]
		}
		switch t.Role {
		case sessions.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", content)
		case sessions.RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", content)
		}
	}

	b.WriteString("\n\nReturn candidates as a JSON object with a 'candidates' array.\n")
	b.WriteString("Each candidate must have: type, title, content.\n")
	b.WriteString("Optional: confidence (0-1), tags, and type-specific fields.\n")
	b.WriteString("Be conservative - only extract clear, atomic knowledge.")
	return b.String()
}

// extractCandidates locates the outermost {...} span in the response and
// parses it with a tolerant JSON5 decoder (spec §4.5 protocol).
func extractCandidates(content string) ([]Candidate, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("distill: no JSON object found in response")
	}
	var result extraction
	if err := json5.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return nil, err
	}
	return result.Candidates, nil
}

func (c *Candidate) validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Content) == "" {
		errs = append(errs, "content is required")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		errs = append(errs, "confidence must be between 0.0 and 1.0")
	}
	switch c.Type {
	case "task":
		if strings.TrimSpace(c.TaskAssignee) == "" {
			errs = append(errs, "task assignee is required")
		}
	case "decision":
		if c.DecisionSupersedes != "" && c.DecisionRationale == "" {
			errs = append(errs, "rationale required when superseding another decision")
		}
	}
	return errs
}

func (e *Extractor) commit(c Candidate) error {
	var conf *float64
	if c.Confidence != 0 {
		v := c.Confidence
		conf = &v
	}

	switch c.Type {
	case "fact":
		_, err := e.memory.WriteFact(c.Title, c.Content, c.Tags, conf, c.FactSource)
		return err
	case "decision":
		status := c.DecisionStatus
		if status == "" {
			status = memory.DecisionActive
		}
		_, err := e.memory.WriteDecision(c.Title, c.Content, c.Tags, status, c.DecisionRationale, c.DecisionSupersedes)
		return err
	case "goal":
		status := c.GoalStatus
		if status == "" {
			status = memory.GoalActive
		}
		_, err := e.memory.WriteGoal(c.Title, c.Content, c.Tags, status, c.GoalPriority, c.GoalHorizon)
		return err
	case "task":
		assignee := c.TaskAssignee
		if assignee == "" {
			assignee = defaultAssignee
		}
		status := c.TaskStatus
		if status == "" {
			status = memory.TaskOpen
		}
		_, err := e.memory.WriteTask(c.Title, c.Content, c.Tags, assignee, status, c.TaskDeadline, c.TaskPriority)
		return err
	case "reflection":
		_, err := e.memory.WriteReflection(c.Title, c.Content, c.Tags, memory.ReflectionInsight, "", "", "", "", "", false)
		return err
	default:
		return fmt.Errorf("distill: unknown candidate type %q", c.Type)
	}
}
