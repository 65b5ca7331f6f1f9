package agent

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/cogcore/internal/config"
	"github.com/nextlevelbuilder/cogcore/internal/coreerrors"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
	"github.com/nextlevelbuilder/cogcore/internal/reflect"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
)

// backgroundFanoutLimit bounds how many of the three session-end cognition
// tasks run at once; three is already the maximum, so this mainly
// documents intent (spec §4.4 Phase E: "run concurrently with each
// other").
const backgroundFanoutLimit = 3

func timeNowUTC() time.Time { return time.Now().UTC() }

// Session-end reasons (spec §4.4 Phase D).
const (
	reasonExplicit = "explicit"
	reasonTimeout  = "timeout"
)

// scheduleSessionEnd runs the session-end orchestration (spec §4.4 ×
// §4.5 × §4.6): fire-and-forget journal synthesis, distillation (if a
// model is configured), and reflection + bootstrap promotion (if a
// promoter is configured) — all working from the immutable snapshot
// taken at schedule time, never from the live session.
func (l *Loop) scheduleSessionEnd(ctx context.Context, snapshot sessions.Snapshot, reason string) {
	if len(snapshot.Messages) == 0 {
		return
	}

	// The outer bgtask.Go call is the fire-and-forget handle the foreground
	// loop tracks (spec §9 redesign note); inside it, the three cognition
	// tasks fan out concurrently via an errgroup.Group, each one's error
	// already downgraded to a log line by its own runner — errgroup here
	// exists to bound and structure the fan-out, not to propagate failure.
	l.bg.Go(ctx, "session_end:"+reason, func(taskCtx context.Context) error {
		// Plain errgroup.Group, deliberately not errgroup.WithContext: one
		// task's failure must never cancel its siblings (spec §5 — "multiple
		// background tasks for the same session may run concurrently with
		// each other" with independent, non-propagating failure per §7).
		var g errgroup.Group
		g.SetLimit(backgroundFanoutLimit)

		g.Go(func() error {
			return l.runJournalSynthesis(taskCtx, snapshot, reason)
		})

		if l.distiller != nil {
			model := l.cfg.ModelFor(config.JobClassDistill)
			if model != "" {
				g.Go(func() error {
					l.distiller.Run(taskCtx, model, snapshot)
					return nil
				})
			} else {
				l.logger.Debug("agent: distillation skipped, no model configured", "session", snapshot.Key)
			}
		}

		if model := l.cfg.ModelFor(config.JobClassReflect); model != "" {
			g.Go(func() error {
				return l.runReflectionAndPromotion(taskCtx, snapshot)
			})
		} else {
			l.logger.Debug("agent: reflection skipped, no model configured", "session", snapshot.Key)
		}

		return g.Wait()
	})
}

// runJournalSynthesis generates a narrative summary of the session and
// appends it to today's journal entry (spec §4.3, §4.4). On model
// failure it falls back to a deterministic summary rather than losing
// the day's entry entirely (spec §7's documented ModelFailure fallback
// for journal_synthesis).
func (l *Loop) runJournalSynthesis(ctx context.Context, snapshot sessions.Snapshot, reason string) error {
	if l.journal == nil {
		return nil
	}

	content := l.synthesizeJournalEntry(ctx, snapshot)
	if strings.TrimSpace(content) == "" {
		return nil
	}

	_, err := l.journal.WriteEntry(content, []string{snapshot.Key}, []string{"session-end:" + reason}, timeNowUTC())
	return err
}

func (l *Loop) synthesizeJournalEntry(ctx context.Context, snapshot sessions.Snapshot) string {
	model := l.cfg.ModelFor(config.JobClassJournal)
	if model == "" || l.provider == nil {
		return deterministicJournalSummary(snapshot)
	}

	_, end := l.trace.StartBackgroundTask(ctx, "journal_synthesis")
	defer func() { end("", nil, nil) }()

	resp, err := l.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{{
			Role:    "user",
			Content: buildJournalPrompt(snapshot),
		}},
		Model:       model,
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		failure := coreerrors.NewModelFailure("journal_synthesis", err)
		l.logger.Warn("agent: journal synthesis model failed, using deterministic summary", "session", snapshot.Key, "error", failure)
		return deterministicJournalSummary(snapshot)
	}
	return resp.Content
}

func buildJournalPrompt(snapshot sessions.Snapshot) string {
	var b strings.Builder
	b.WriteString("Write a brief first-person journal entry summarizing what happened in this session. Focus on what was accomplished, decided, or learned. Keep it to a few sentences.\n\n")
	for _, t := range snapshot.Messages {
		if t.Role != sessions.RoleUser && t.Role != sessions.RoleAssistant {
			continue
		}
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(truncateForPrompt(t.Content, 500))
		b.WriteString("\n")
	}
	return b.String()
}

// deterministicJournalSummary is the spec §7 fallback path when the
// journal synthesis model is unconfigured or fails: a plain turn count,
// no narrative generation.
func deterministicJournalSummary(snapshot sessions.Snapshot) string {
	userTurns, assistantTurns := 0, 0
	for _, t := range snapshot.Messages {
		switch t.Role {
		case sessions.RoleUser:
			userTurns++
		case sessions.RoleAssistant:
			assistantTurns++
		}
	}
	if userTurns == 0 && assistantTurns == 0 {
		return ""
	}
	return "Session ended. " + strconv.Itoa(userTurns) + " user message(s), " + strconv.Itoa(assistantTurns) + " assistant response(s)."
}

// runReflectionAndPromotion runs the deterministic Reflection Analyzer
// and, if a promoter is configured and auto_promote is set, the LLM-
// driven Bootstrap Promoter (spec §4.6).
func (l *Loop) runReflectionAndPromotion(ctx context.Context, snapshot sessions.Snapshot) error {
	findings := reflect.AnalyzeSession(snapshot)
	if len(findings) == 0 {
		return nil
	}

	if l.memory != nil {
		for _, f := range findings {
			if errs := f.Validate(); len(errs) > 0 {
				l.logger.Warn("agent: reflection finding failed validation", "title", f.Title, "errors", errs)
				continue
			}
			if _, err := l.memory.WriteReflection(f.Title, f.Content, f.Tags, f.Kind, f.ToolInvolved, f.ErrorPattern, f.Frequency, f.Impact, f.Suggestion, f.UserCorrection); err != nil {
				l.logger.Warn("agent: failed to commit reflection", "title", f.Title, "error", err)
			}
		}
	}

	if l.promoter == nil || !l.cfg.ReflectionPromotion.AutoPromote {
		return nil
	}

	var notify func(string) error
	if l.notifyUser != nil && l.cfg.ReflectionPromotion.NotifyUser {
		sessionKey := snapshot.Key
		notify = func(msg string) error { return l.notifyUser(sessionKey, msg) }
	}

	_, err := l.promoter.PromoteReflections(ctx, findings, notify)
	return err
}

func truncateForPrompt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

