package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/cogcore/internal/config"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
)

// maybeSummarizeOverflow folds the turns pushed out of the memory_window
// into a single carried-forward summary, grounded in the teacher's
// buildMessages "[Previous conversation summary]" injection
// (internal/agent/loop_history.go). This is the summarisation job class's
// one concrete home (spec §4.4 table: "content compression"); it is
// strictly additive — Phase B's windowed history still carries the recent
// turns verbatim, this only recovers context from the turns that would
// otherwise be silently dropped. If no summarisation model is configured,
// or there is nothing to summarize, it returns "" and Phase B proceeds
// exactly as before.
func (l *Loop) maybeSummarizeOverflow(ctx context.Context, sessionKey string) string {
	model := l.cfg.ModelFor(config.JobClassSummarize)
	if model == "" || l.provider == nil {
		return ""
	}

	window := l.cfg.MemoryWindow
	if window <= 0 {
		return ""
	}
	full := l.sessions.Snapshot(sessionKey).Messages
	if len(full) <= window {
		return ""
	}
	overflow := full[:len(full)-window]

	var b strings.Builder
	b.WriteString("Summarize the following earlier conversation turns into a short paragraph of durable context. Keep names, decisions, and open threads; drop small talk.\n\n")
	for _, t := range overflow {
		if t.Role != sessions.RoleUser && t.Role != sessions.RoleAssistant {
			continue
		}
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Role, truncateForPrompt(t.Content, 500))
	}

	resp, err := l.provider.Chat(ctx, providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: b.String()}},
		Model:       model,
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		l.logger.Debug("agent: history summarization skipped", "session", sessionKey, "error", err)
		return ""
	}
	return resp.Content
}
