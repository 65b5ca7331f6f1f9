package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureWorkspaceFilesSeedsAllFour(t *testing.T) {
	dir := t.TempDir()
	created, err := EnsureWorkspaceFiles(dir, nil)
	if err != nil {
		t.Fatalf("EnsureWorkspaceFiles: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("expected 4 files created, got %d: %v", len(created), created)
	}
	for _, name := range []string{AgentsFile, SoulFile, IdentityFile, ToolsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
}

func TestEnsureWorkspaceFilesDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	if _, err := EnsureWorkspaceFiles(dir, nil); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	custom := []byte("custom content")
	if err := os.WriteFile(filepath.Join(dir, AgentsFile), custom, 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	created, err := EnsureWorkspaceFiles(dir, nil)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no files re-created, got %v", created)
	}
	data, err := os.ReadFile(filepath.Join(dir, AgentsFile))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "custom content" {
		t.Fatalf("expected custom content preserved, got %q", data)
	}
}
