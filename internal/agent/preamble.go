package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/cogcore/internal/bootstrap"
)

func readWorkspaceFile(workspace, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(workspace, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildSystemPreamble concatenates the instruction files (spec §6) with
// the Memory Store's rendered context (spec §4.1) into the system
// message Phase B prepends to every turn. Missing instruction files are
// skipped rather than treated as an error — a fresh workspace may not
// have been seeded yet.
func (l *Loop) buildSystemPreamble() string {
	var b strings.Builder
	b.WriteString("You are a long-running personal cognition core. Use your memory tools to record durable facts, decisions, goals, tasks, and reflections as they come up.\n\n")

	workspace := l.cfg.WorkspacePath()
	for _, name := range []string{bootstrap.IdentityFile, bootstrap.SoulFile, bootstrap.AgentsFile, bootstrap.ToolsFile} {
		content, err := readWorkspaceFile(workspace, name)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", name, strings.TrimSpace(content))
	}

	if l.memory != nil {
		if memCtx, err := l.memory.BuildContext(); err == nil && strings.TrimSpace(memCtx) != "" {
			b.WriteString("## Memory\n\n")
			b.WriteString(memCtx)
			b.WriteString("\n")
		}
	}

	return strings.TrimSpace(b.String())
}
