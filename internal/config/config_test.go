package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if cfg.InactivityTimeoutSeconds != 1800 {
		t.Fatalf("expected default inactivity timeout 1800, got %d", cfg.InactivityTimeoutSeconds)
	}
	if cfg.MaxIterations <= 0 {
		t.Fatalf("expected a positive default max_iterations")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PrimaryModel == "" {
		t.Fatal("expected a default primary model")
	}
}

func TestLoadParsesJSON5File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	content := `{
  // trailing comments and commas are fine in json5
  workspace: "/tmp/ws",
  primary_model: "claude-opus-4-6",
  max_iterations: 55,
  inactivity_timeout_seconds: 600,
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "/tmp/ws" {
		t.Fatalf("expected workspace override, got %q", cfg.Workspace)
	}
	if cfg.PrimaryModel != "claude-opus-4-6" {
		t.Fatalf("expected primary model override, got %q", cfg.PrimaryModel)
	}
	if cfg.MaxIterations != 55 {
		t.Fatalf("expected max_iterations override, got %d", cfg.MaxIterations)
	}
	if cfg.InactivityTimeoutSeconds != 600 {
		t.Fatalf("expected inactivity timeout override, got %d", cfg.InactivityTimeoutSeconds)
	}
}

func TestModelForFallsBackToPrimaryExceptDistill(t *testing.T) {
	cfg := Default()
	cfg.PrimaryModel = "primary-model"

	if got := cfg.ModelFor(JobClassJournal); got != "primary-model" {
		t.Fatalf("expected journal to fall back to primary model, got %q", got)
	}
	if got := cfg.ModelFor(JobClassDistill); got != "" {
		t.Fatalf("expected distill to have no fallback, got %q", got)
	}

	cfg.JobModels[JobClassDistill] = "distill-model"
	if got := cfg.ModelFor(JobClassDistill); got != "distill-model" {
		t.Fatalf("expected explicit distill model, got %q", got)
	}
}

func TestModelForInteractiveIgnoresOverride(t *testing.T) {
	cfg := Default()
	cfg.PrimaryModel = "primary-model"
	cfg.JobModels[JobClassInteractive] = "should-be-ignored"

	if got := cfg.ModelFor(JobClassInteractive); got != "primary-model" {
		t.Fatalf("expected interactive_response to always use primary model, got %q", got)
	}
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	t.Setenv("COGCORE_WORKSPACE", "/from/env")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "/from/env" {
		t.Fatalf("expected env override, got %q", cfg.Workspace)
	}
}

func TestExpandHomeReplacesLeadingTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	got := ExpandHome("~/workspace")
	want := home + "/workspace"
	if got != want {
		t.Fatalf("ExpandHome(~/workspace) = %q, want %q", got, want)
	}
}
