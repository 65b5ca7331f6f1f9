// Package memory implements the category-typed, file-per-item durable
// knowledge store (spec §4.1). Every functional rule here is grounded in
// original_source/hermitcrab/agent/memory.py, ported into Go's typed-variant
// idiom per spec §9's redesign note on closed sets.
package memory

import "time"

// Category is one of the five fixed knowledge kinds the store recognizes.
type Category string

const (
	CategoryFact       Category = "fact"
	CategoryDecision   Category = "decision"
	CategoryGoal       Category = "goal"
	CategoryTask       Category = "task"
	CategoryReflection Category = "reflection"
)

// categoryOrder is the registry order used for Search's cross-category scan
// and for BuildContext's section ordering.
var categoryOrder = []Category{
	CategoryFact, CategoryDecision, CategoryGoal, CategoryTask, CategoryReflection,
}

// dir returns the on-disk directory name for a category (spec §6 layout).
func (c Category) dir() string {
	switch c {
	case CategoryFact:
		return "facts"
	case CategoryDecision:
		return "decisions"
	case CategoryGoal:
		return "goals"
	case CategoryTask:
		return "tasks"
	case CategoryReflection:
		return "reflections"
	default:
		return string(c)
	}
}

func (c Category) valid() bool {
	switch c {
	case CategoryFact, CategoryDecision, CategoryGoal, CategoryTask, CategoryReflection:
		return true
	}
	return false
}

// Task status constants (spec §4.1 state machine).
const (
	TaskOpen       = "open"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
	TaskDeferred   = "deferred"
)

// validTaskTransitions encodes the allowed graph. An out-of-graph
// transition is logged but not rejected (spec §9 open question 1, kept as
// a documented gap).
var validTaskTransitions = map[string][]string{
	TaskOpen:       {TaskInProgress, TaskDone, TaskDeferred},
	TaskInProgress: {TaskDone, TaskDeferred},
	TaskDeferred:   {TaskOpen, TaskInProgress},
	TaskDone:       {},
}

// Goal status constants.
const (
	GoalActive    = "active"
	GoalAchieved  = "achieved"
	GoalAbandoned = "abandoned"
)

// Decision status constants.
const (
	DecisionActive     = "active"
	DecisionSuperseded = "superseded"
)

// Reflection kind constants.
const (
	ReflectionMistake     = "mistake"
	ReflectionUncertainty = "uncertainty"
	ReflectionPattern     = "pattern"
	ReflectionImprovement = "improvement"
	ReflectionInsight     = "insight"
)

// Item is an atomic, file-backed memory record (spec §3).
type Item struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags,omitempty"`

	// fact
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source,omitempty"`

	// decision / goal / task (Status means different enums per category)
	Status string `json:"status,omitempty"`

	// decision
	Rationale  string `json:"rationale,omitempty"`
	Supersedes string `json:"supersedes,omitempty"`

	// goal
	Priority string `json:"priority,omitempty"`
	Horizon  string `json:"horizon,omitempty"`

	// task
	Assignee string `json:"assignee,omitempty"`
	Deadline string `json:"deadline,omitempty"`

	// reflection
	Kind           string `json:"kind,omitempty"`
	ToolInvolved   string `json:"tool_involved,omitempty"`
	ErrorPattern   string `json:"error_pattern,omitempty"`
	Frequency      string `json:"frequency,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Suggestion     string `json:"suggestion,omitempty"`
	UserCorrection bool   `json:"user_correction,omitempty"`

	// Path is the absolute file path; not part of the serialized header,
	// populated on read/write for archive/update/delete operations.
	Path string `json:"-"`
}

// timeLayout is the durable on-disk timestamp convention: hyphenated, not
// standard ISO 8601. Preserved exactly per spec §6 and §9 open question 4.
const timeLayout = "2006-01-02T15-04-05"
