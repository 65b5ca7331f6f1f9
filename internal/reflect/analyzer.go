// Package reflect implements the Reflection Analyzer and Bootstrap
// Promoter that close the self-improvement loop (spec §4.6). The analyzer
// is grounded directly on
// original_source/hermitcrab/agent/loop.py's _extract_tool_errors,
// _extract_user_corrections, _find_repeated_tool_calls, and
// _extract_uncertainty_markers — deterministic substring heuristics, no
// LLM. The promoter is grounded on
// original_source/hermitcrab/agent/reflection.py's ReflectionPromoter.
package reflect

import (
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/cogcore/internal/memory"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
)

const repeatedToolThreshold = 3

var toolErrorIndicators = []string{"error:", "failed", "exception", "traceback"}

var correctionPatterns = []string{"no,", "that's wrong", "i meant", "actually,", "not ", "wrong"}

var uncertaintyPatterns = []string{
	"i'm not sure", "i don't know", "might be", "could be",
	"possibly", "perhaps", "i think", "i believe", "uncertain",
}

// Finding is a reflection candidate produced by deterministic analysis —
// proposal only, validated before it is committed through the Memory
// Store's WriteReflection.
type Finding struct {
	Kind           string
	Title          string
	Content        string
	Tags           []string
	ToolInvolved   string
	ErrorPattern   string
	Frequency      string
	Impact         string
	Suggestion     string
	UserCorrection bool
}

// Validate enforces spec §4.6's type-specific required fields: mistakes
// require an error pattern, patterns require a frequency. Kept as specified
// and deliberately unrefined (spec §9 open question 5) — the substring
// heuristics below always populate these fields, so validation here mostly
// protects LLM-sourced findings from other callers.
func (f Finding) Validate() []string {
	var errs []string
	if strings.TrimSpace(f.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(f.Content) == "" {
		errs = append(errs, "content is required")
	}
	if f.Kind == memory.ReflectionMistake && f.ErrorPattern == "" {
		errs = append(errs, "error pattern required for mistakes")
	}
	if f.Kind == memory.ReflectionPattern && f.Frequency == "" {
		errs = append(errs, "frequency required for patterns")
	}
	return errs
}

// AnalyzeSession scans a session snapshot for mistakes, uncertainty,
// repeated tool usage, and (if enough mistakes accumulate) an improvement
// suggestion.
func AnalyzeSession(snapshot sessions.Snapshot) []Finding {
	turns := snapshot.Messages
	var findings []Finding

	findings = append(findings, extractToolErrors(turns)...)
	findings = append(findings, extractUserCorrections(turns)...)
	findings = append(findings, findRepeatedToolCalls(turns)...)
	findings = append(findings, extractUncertaintyMarkers(turns)...)

	mistakes := 0
	for _, f := range findings {
		if f.Kind == memory.ReflectionMistake {
			mistakes++
		}
	}
	if mistakes >= 2 {
		findings = append(findings, Finding{
			Kind:       memory.ReflectionImprovement,
			Title:      "Multiple failures detected",
			Content:    fmt.Sprintf("Session had %d mistakes - review error handling", mistakes),
			Impact:     "high",
			Suggestion: "Improve error recovery or add validation",
		})
	}
	return findings
}

func extractToolErrors(turns []sessions.Turn) []Finding {
	var findings []Finding
	for _, t := range turns {
		if t.Role != sessions.RoleTool {
			continue
		}
		lower := strings.ToLower(t.Content)
		hit := false
		for _, indicator := range toolErrorIndicators {
			if strings.Contains(lower, indicator) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		impact := "medium"
		if strings.Contains(lower, "error") {
			impact = "high"
		}
		errPattern := t.Content
		if len(errPattern) > 100 {
			errPattern = errPattern[:100]
		}
		findings = append(findings, Finding{
			Kind:         memory.ReflectionMistake,
			Title:        fmt.Sprintf("Tool failure: %s", t.ToolName),
			Content:      fmt.Sprintf("Tool %s failed with: %s", t.ToolName, truncate(t.Content, 200)),
			ToolInvolved: t.ToolName,
			ErrorPattern: errPattern,
			Impact:       impact,
		})
	}
	return findings
}

func extractUserCorrections(turns []sessions.Turn) []Finding {
	var findings []Finding
	for _, t := range turns {
		if t.Role != sessions.RoleUser {
			continue
		}
		lower := strings.ToLower(t.Content)
		for _, pattern := range correctionPatterns {
			if strings.Contains(lower, pattern) {
				findings = append(findings, Finding{
					Kind:           memory.ReflectionMistake,
					Title:          "User correction required",
					Content:        fmt.Sprintf("User corrected agent: %s", truncate(t.Content, 200)),
					UserCorrection: true,
					ErrorPattern:   "user correction",
					Suggestion:     "Review context before responding",
				})
				break
			}
		}
	}
	return findings
}

func findRepeatedToolCalls(turns []sessions.Turn) []Finding {
	counts := make(map[string]int)
	for _, t := range turns {
		if t.Role == sessions.RoleTool {
			counts[t.ToolName]++
		}
	}
	var findings []Finding
	for tool, count := range counts {
		if count >= repeatedToolThreshold {
			findings = append(findings, Finding{
				Kind:         memory.ReflectionPattern,
				Title:        fmt.Sprintf("Repeated tool usage: %s", tool),
				Content:      fmt.Sprintf("Tool %s called %d times in session", tool, count),
				ToolInvolved: tool,
				Frequency:    fmt.Sprintf("%d times in one session", count),
				Impact:       "medium",
				Suggestion:   "Consider caching or batching requests",
			})
		}
	}
	return findings
}

func extractUncertaintyMarkers(turns []sessions.Turn) []Finding {
	var findings []Finding
	for _, t := range turns {
		if t.Role != sessions.RoleAssistant {
			continue
		}
		lower := strings.ToLower(t.Content)
		for _, pattern := range uncertaintyPatterns {
			if strings.Contains(lower, pattern) {
				findings = append(findings, Finding{
					Kind:       memory.ReflectionUncertainty,
					Title:      "Uncertainty in general",
					Content:    fmt.Sprintf("Agent expressed uncertainty: %s", truncate(t.Content, 200)),
					Suggestion: "Consider adding knowledge or clarifying questions",
				})
				break
			}
		}
	}
	return findings
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
