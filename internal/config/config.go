// Package config loads the configuration surface the cognition core
// actually consumes (spec §6): the workspace path, the primary and
// per-job-class model ids, the loop's iteration/token/temperature/
// memory-window knobs, the session inactivity timeout, the reflection
// promotion policy, and the progress/tool-hint notification flags. All
// other keys an embedding application might carry (channel credentials,
// provider API keys, sandbox policy) are that embedder's concern, not
// the core's.
//
// Grounded on the teacher's internal/config/config.go (struct shape,
// env-override texture, JSON5 file format) and config_load.go
// (Default()+Load(path)+applyEnvOverrides), narrowed to the core's
// smaller surface.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/titanous/json5"
)

// JobClass names one of the five job classes spec §4.4's routing table
// defines (interactive_response, journal_synthesis, distillation,
// reflection, summarisation), each with its own fallback policy.
type JobClass string

const (
	// JobClassInteractive routes Phase B generation. Always the primary
	// model, never overridden by a per-job entry (spec §4.4 table).
	JobClassInteractive JobClass = "interactive_response"
	// JobClassJournal routes journal synthesis (spec §4.4 Phase E, §4.3).
	JobClassJournal JobClass = "journal_synthesis"
	// JobClassDistill routes atomic extraction. No fallback: if unset,
	// distillation is skipped entirely (spec §4.4/§9 — local-only by
	// policy so extraction can never silently escalate to a remote model).
	JobClassDistill JobClass = "distillation"
	// JobClassReflect routes both the reflection meta-analysis gate and
	// the bootstrap promoter that follows it (spec §4.4's "reflection
	// model is set" gates both steps; §4.6 promotion has no class of its
	// own in the spec's table).
	JobClassReflect JobClass = "reflection"
	// JobClassSummarize routes content-compression calls, e.g. folding
	// conversation turns pushed out of the history window into a single
	// carried-forward summary (spec §4.4 table: "content compression").
	JobClassSummarize JobClass = "summarisation"
)

// AllJobClasses lists every job class the loop routes, in a stable
// order for iteration (e.g. by cmd/cogctl's config-dump subcommand).
var AllJobClasses = []JobClass{JobClassInteractive, JobClassJournal, JobClassDistill, JobClassReflect, JobClassSummarize}

// ReflectionPromotionConfig controls how the Bootstrap Promoter behaves
// after the Reflection Analyzer produces findings (spec §4.6).
type ReflectionPromotionConfig struct {
	AutoPromote  bool     `json:"auto_promote"`
	NotifyUser   bool     `json:"notify_user"`
	TargetFiles  []string `json:"target_files,omitempty"`
	MaxFileLines int      `json:"max_file_lines"`
}

// Config is the configuration surface the core consumes (spec §6).
type Config struct {
	Workspace string `json:"workspace"`

	// PrimaryModel is used whenever a job class has no dedicated
	// override in JobModels.
	PrimaryModel string `json:"primary_model"`

	// JobModels maps a job class to a dedicated model id. An unset
	// entry falls back to PrimaryModel, except for "distill" — spec
	// §4.5/§9 makes distillation's model choice explicit with no
	// silent fallback.
	JobModels map[JobClass]string `json:"job_models,omitempty"`

	MaxIterations int     `json:"max_iterations"`
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float64 `json:"temperature"`
	MemoryWindow  int     `json:"memory_window"`

	InactivityTimeoutSeconds int `json:"inactivity_timeout_seconds"`

	ReflectionPromotion ReflectionPromotionConfig `json:"reflection_promotion"`

	SendProgress  bool `json:"send_progress"`
	SendToolHints bool `json:"send_tool_hints"`

	mu sync.RWMutex
}

// Default returns a Config with the spec's documented defaults (spec
// §6: inactivity_timeout_seconds default 1800).
func Default() *Config {
	return &Config{
		Workspace:                "~/.cogcore/workspace",
		PrimaryModel:             "claude-sonnet-4-5-20250929",
		JobModels:                map[JobClass]string{},
		MaxIterations:            40,
		MaxTokens:                8192,
		Temperature:              0.7,
		MemoryWindow:             20,
		InactivityTimeoutSeconds: 1800,
		ReflectionPromotion: ReflectionPromotionConfig{
			AutoPromote:  false,
			NotifyUser:   true,
			TargetFiles:  []string{"AGENTS.md", "SOUL.md"},
			MaxFileLines: 500,
		},
		SendProgress:  true,
		SendToolHints: false,
	}
}

// Load reads config from a JSON5 file (comments and trailing commas
// allowed, matching the teacher's config format), then overlays
// environment variables. A missing file is not an error: Load returns
// the env-overlaid defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.JobModels == nil {
		cfg.JobModels = map[JobClass]string{}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("COGCORE_WORKSPACE"); v != "" {
		c.Workspace = v
	}
	if v := os.Getenv("COGCORE_PRIMARY_MODEL"); v != "" {
		c.PrimaryModel = v
	}
	if v := os.Getenv("COGCORE_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxIterations = n
		}
	}
	if v := os.Getenv("COGCORE_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("COGCORE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.Temperature = f
		}
	}
	if v := os.Getenv("COGCORE_INACTIVITY_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.InactivityTimeoutSeconds = n
		}
	}
	for _, jc := range AllJobClasses {
		key := "COGCORE_MODEL_" + string(jc)
		if v := os.Getenv(upperJobClassEnv(key)); v != "" {
			c.JobModels[jc] = v
		}
	}
}

func upperJobClassEnv(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		b := key[i]
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		out[i] = b
	}
	return string(out)
}

// ModelFor resolves the effective model id for a job class per spec
// §4.4's fallback table: interactive_response always uses the primary
// model (a per-job override is ignored); distillation has no fallback
// at all (an unset entry means "skip", never silently borrow primary);
// every other class falls back to PrimaryModel when unset.
func (c *Config) ModelFor(jc JobClass) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if jc == JobClassInteractive {
		return c.PrimaryModel
	}
	if m, ok := c.JobModels[jc]; ok && m != "" {
		return m
	}
	if jc == JobClassDistill {
		return ""
	}
	return c.PrimaryModel
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}

// WorkspacePath returns the expanded workspace path.
func (c *Config) WorkspacePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Workspace)
}
