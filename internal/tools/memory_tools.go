package tools

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/cogcore/internal/memory"
)

// Typed memory tools, one per category, wrapping the Memory Store's typed
// writes (spec §4.7: "typed memory tools ... wrap the Memory Store's typed
// writes; their parameter schemas encode the category rules"). Grounded on
// original_source/hermitcrab/agent/tools/memory.py's
// WriteFactTool/WriteDecisionTool/WriteGoalTool/WriteTaskTool/
// WriteReflectionTool, with the status enums and required fields ported to
// this store's actual lifecycle rules (spec §4.1) rather than the
// Python's.

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// WriteFactTool saves a long-term fact.
type WriteFactTool struct {
	memory *memory.Store
}

func NewWriteFactTool(store *memory.Store) *WriteFactTool { return &WriteFactTool{memory: store} }

func (t *WriteFactTool) Name() string { return "write_fact" }
func (t *WriteFactTool) Description() string {
	return "Save a long-term fact to memory (user preferences, established truths, project context)"
}
func (t *WriteFactTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":      map[string]interface{}{"type": "string", "description": "Short descriptive title for this fact"},
			"content":    map[string]interface{}{"type": "string", "description": "The fact content"},
			"tags":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Optional tags for categorization"},
			"confidence": map[string]interface{}{"type": "number", "description": "Confidence level (0.0-1.0)"},
			"source":     map[string]interface{}{"type": "string", "description": "Source of the fact (e.g., 'user statement', 'web search')"},
		},
		"required": []string{"title", "content"},
	}
}
func (t *WriteFactTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	var confidence *float64
	if v, ok := args["confidence"].(float64); ok {
		confidence = &v
	}
	item, err := t.memory.WriteFact(stringArg(args, "title"), stringArg(args, "content"), stringSlice(args["tags"]), confidence, stringArg(args, "source"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Fact saved: %s (%s)", item.Title, item.ID), nil
}

// WriteDecisionTool saves a decision.
type WriteDecisionTool struct {
	memory *memory.Store
}

func NewWriteDecisionTool(store *memory.Store) *WriteDecisionTool {
	return &WriteDecisionTool{memory: store}
}

func (t *WriteDecisionTool) Name() string { return "write_decision" }
func (t *WriteDecisionTool) Description() string {
	return "Save a decision to memory (architectural choices, trade-offs, locked decisions). Decisions never mutate: to revise one, supersede it with a new item."
}
func (t *WriteDecisionTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":      map[string]interface{}{"type": "string", "description": "Short descriptive title"},
			"content":    map[string]interface{}{"type": "string", "description": "Decision content"},
			"tags":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Optional tags"},
			"status":     map[string]interface{}{"type": "string", "enum": []string{memory.DecisionActive, memory.DecisionSuperseded}, "description": "Decision status"},
			"rationale":  map[string]interface{}{"type": "string", "description": "Reasoning behind the decision; required when supersedes is set"},
			"supersedes": map[string]interface{}{"type": "string", "description": "ID of the decision this supersedes"},
		},
		"required": []string{"title", "content"},
	}
}
func (t *WriteDecisionTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	item, err := t.memory.WriteDecision(stringArg(args, "title"), stringArg(args, "content"), stringSlice(args["tags"]), stringArg(args, "status"), stringArg(args, "rationale"), stringArg(args, "supersedes"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Decision saved: %s (%s)", item.Title, item.ID), nil
}

// WriteGoalTool saves a goal.
type WriteGoalTool struct {
	memory *memory.Store
}

func NewWriteGoalTool(store *memory.Store) *WriteGoalTool { return &WriteGoalTool{memory: store} }

func (t *WriteGoalTool) Name() string { return "write_goal" }
func (t *WriteGoalTool) Description() string {
	return "Save a goal to memory (objectives, outcomes the user wants to achieve)"
}
func (t *WriteGoalTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":    map[string]interface{}{"type": "string", "description": "Short descriptive title"},
			"content":  map[string]interface{}{"type": "string", "description": "Goal content"},
			"tags":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Optional tags"},
			"status":   map[string]interface{}{"type": "string", "enum": []string{memory.GoalActive, memory.GoalAchieved, memory.GoalAbandoned}, "description": "Goal status"},
			"priority": map[string]interface{}{"type": "string", "description": "Goal priority"},
			"horizon":  map[string]interface{}{"type": "string", "description": "Time horizon for the goal (e.g. 'this quarter')"},
		},
		"required": []string{"title", "content"},
	}
}
func (t *WriteGoalTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	item, err := t.memory.WriteGoal(stringArg(args, "title"), stringArg(args, "content"), stringSlice(args["tags"]), stringArg(args, "status"), stringArg(args, "priority"), stringArg(args, "horizon"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Goal saved: %s (%s)", item.Title, item.ID), nil
}

// WriteTaskTool saves a task.
type WriteTaskTool struct {
	memory *memory.Store
}

func NewWriteTaskTool(store *memory.Store) *WriteTaskTool { return &WriteTaskTool{memory: store} }

func (t *WriteTaskTool) Name() string { return "write_task" }
func (t *WriteTaskTool) Description() string {
	return "Save a task to memory (action items, todos, things to do)"
}
func (t *WriteTaskTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":    map[string]interface{}{"type": "string", "description": "Short descriptive title"},
			"content":  map[string]interface{}{"type": "string", "description": "Task content"},
			"assignee": map[string]interface{}{"type": "string", "description": "Who is responsible for this task (required)"},
			"tags":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Optional tags"},
			"status":   map[string]interface{}{"type": "string", "enum": []string{memory.TaskOpen, memory.TaskInProgress, memory.TaskDone, memory.TaskDeferred}, "description": "Task status"},
			"deadline": map[string]interface{}{"type": "string", "description": "Task deadline (e.g., '2026-03-01', 'next week')"},
			"priority": map[string]interface{}{"type": "string", "description": "Task priority"},
		},
		"required": []string{"title", "content", "assignee"},
	}
}
func (t *WriteTaskTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	item, err := t.memory.WriteTask(stringArg(args, "title"), stringArg(args, "content"), stringSlice(args["tags"]), stringArg(args, "assignee"), stringArg(args, "status"), stringArg(args, "deadline"), stringArg(args, "priority"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task saved: %s (assigned to %s)", item.Title, item.Assignee), nil
}

// WriteReflectionTool saves a reflection. Free-form at the tool layer;
// spec §4.1 makes reflections append-only and the store enforces that on
// update/delete, not on create.
type WriteReflectionTool struct {
	memory *memory.Store
}

func NewWriteReflectionTool(store *memory.Store) *WriteReflectionTool {
	return &WriteReflectionTool{memory: store}
}

func (t *WriteReflectionTool) Name() string { return "write_reflection" }
func (t *WriteReflectionTool) Description() string {
	return "Save a reflection to memory (meta-observations, patterns, insights). Reflections are append-only: never mutated, never deleted."
}
func (t *WriteReflectionTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":   map[string]interface{}{"type": "string", "description": "Short descriptive title"},
			"content": map[string]interface{}{"type": "string", "description": "Reflection content"},
			"tags":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Optional tags"},
			"kind":    map[string]interface{}{"type": "string", "enum": []string{memory.ReflectionMistake, memory.ReflectionUncertainty, memory.ReflectionPattern, memory.ReflectionImprovement, memory.ReflectionInsight}, "description": "Reflection kind"},
		},
		"required": []string{"title", "content"},
	}
}
func (t *WriteReflectionTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	kind := stringArg(args, "kind")
	if kind == "" {
		kind = memory.ReflectionInsight
	}
	item, err := t.memory.WriteReflection(stringArg(args, "title"), stringArg(args, "content"), stringSlice(args["tags"]), kind, "", "", "", "", "", false)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Reflection saved: %s (%s)", item.Title, item.ID), nil
}

// SearchMemoryTool exposes the Memory Store's cross-category keyword
// search (spec §4.1) to the model.
type SearchMemoryTool struct {
	memory *memory.Store
}

func NewSearchMemoryTool(store *memory.Store) *SearchMemoryTool {
	return &SearchMemoryTool{memory: store}
}

func (t *SearchMemoryTool) Name() string { return "search_memory" }
func (t *SearchMemoryTool) Description() string {
	return "Search all memory categories for a keyword substring match over filename, title, tags, and content"
}
func (t *SearchMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "description": "Keyword to search for"},
			"limit": map[string]interface{}{"type": "integer", "description": "Maximum number of results (0 = unlimited)"},
		},
		"required": []string{"query"},
	}
}
func (t *SearchMemoryTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	limit := 0
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}
	items, err := t.memory.Search(stringArg(args, "query"), nil, limit)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "No matching memory items found.", nil
	}
	out := ""
	for _, it := range items {
		out += fmt.Sprintf("- [%s] %s (%s)\n", it.Category, it.Title, it.ID)
	}
	return out, nil
}
