// Package bootstrap seeds the four instruction files every workspace needs
// (spec §6): AGENTS.md, SOUL.md, IDENTITY.md, TOOLS.md. Grounded on the
// teacher's embed.FS templating approach in
// internal/bootstrap/seed.go, trimmed from its six-file set to the four the
// spec names — the Bootstrap Promoter in internal/reflect edits these same
// files later in the agent's lifetime.
package bootstrap

import (
	"embed"
	"log/slog"
	"os"
	"path/filepath"
)

// Instruction file names, the spec §6 closed set.
const (
	AgentsFile   = "AGENTS.md"
	SoulFile     = "SOUL.md"
	IdentityFile = "IDENTITY.md"
	ToolsFile    = "TOOLS.md"
)

//go:embed templates/*.md
var templateFS embed.FS

var templateFiles = []string{AgentsFile, SoulFile, IdentityFile, ToolsFile}

// ReadTemplate returns the content of an embedded template file.
func ReadTemplate(name string) (string, error) {
	content, err := templateFS.ReadFile(filepath.Join("templates", name))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// EnsureWorkspaceFiles seeds the instruction files into a workspace
// directory, writing only files that don't already exist. Returns the list
// of files that were created.
func EnsureWorkspaceFiles(workspaceDir string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		return nil, err
	}

	var created []string
	for _, name := range templateFiles {
		ok, err := seedTemplate(workspaceDir, name)
		if err != nil {
			logger.Warn("bootstrap: failed to seed template", "file", name, "error", err)
			continue
		}
		if ok {
			created = append(created, name)
		}
	}
	return created, nil
}

// seedTemplate writes a template file to the workspace if it doesn't
// exist. Returns true if the file was created, false if it already exists.
func seedTemplate(workspaceDir, name string) (bool, error) {
	dstPath := filepath.Join(workspaceDir, name)

	f, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	content, err := templateFS.ReadFile(filepath.Join("templates", name))
	if err != nil {
		os.Remove(dstPath)
		return false, err
	}
	if _, err := f.Write(content); err != nil {
		return false, err
	}
	return true, nil
}
