// Package agent implements the phased agent loop that is the backbone of
// the cognition core (spec §4.4): Phase A intake, Phase B interactive
// response with tool iteration, Phase C persist, Phase D end-of-session
// detection, Phase E non-blocking background cognition.
//
// Grounded on the teacher's internal/agent/loop.go (Loop struct shape,
// LoopConfig/NewLoop constructor texture, tool-iteration goroutine
// pattern, sanitized "/help"-style static-text short-circuit) restructured
// around the five explicit phase functions spec §4.4 demands, and on
// original_source/hermitcrab/agent/loop.py's _process_message (phase-
// commented turn processor), _run_agent_loop (iteration budget + canned
// budget-exhausted message), and _on_session_end/_schedule_background
// (session-end orchestration, the JobClass fallback table).
package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nextlevelbuilder/cogcore/internal/bgtask"
	"github.com/nextlevelbuilder/cogcore/internal/bus"
	"github.com/nextlevelbuilder/cogcore/internal/config"
	"github.com/nextlevelbuilder/cogcore/internal/distill"
	"github.com/nextlevelbuilder/cogcore/internal/journal"
	"github.com/nextlevelbuilder/cogcore/internal/memory"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
	"github.com/nextlevelbuilder/cogcore/internal/reflect"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
	"github.com/nextlevelbuilder/cogcore/internal/telemetry"
	"github.com/nextlevelbuilder/cogcore/internal/tools"
)

// messageID extracts an optional message id from an inbound message's
// metadata, for context-bearing tools (spec §4.7).
func messageID(msg bus.InboundMessage) string {
	if msg.Metadata == nil {
		return ""
	}
	return msg.Metadata["message_id"]
}

const helpText = "Commands:\n/new - start a new session\n/help - show this message\nAnything else is sent to the assistant."

// ProgressEvent is an optional hint emitted during Phase B (assistant
// partial content, a tool about to run). Emission is gated by the
// config's SendProgress/SendToolHints flags (spec §4.4 invariants).
type ProgressEvent struct {
	SessionKey string
	Kind       string // "tool_call" or "partial"
	Detail     string
}

// ProgressFunc receives progress hints; nil disables emission entirely.
type ProgressFunc func(ProgressEvent)

// Loop is the phased agent loop for one cognition core instance.
type Loop struct {
	provider providers.Provider
	cfg      *config.Config

	sessions *sessions.Manager
	memory   *memory.Store
	journal  *journal.Store
	tools    *tools.Registry

	distiller *distill.Extractor
	promoter  *reflect.Promoter

	bg     *bgtask.Tracker
	trace  *telemetry.Tracer
	logger *slog.Logger

	onProgress ProgressFunc
	notifyUser func(sessionKey, content string) error
}

// Deps bundles every collaborator the Loop needs. Fields left nil are
// treated as "feature disabled": a nil promoter skips bootstrap
// promotion, a nil notifyUser skips the promoter's notification step.
type Deps struct {
	Provider providers.Provider
	Config   *config.Config

	Sessions *sessions.Manager
	Memory   *memory.Store
	Journal  *journal.Store
	Tools    *tools.Registry

	Distiller *distill.Extractor
	Promoter  *reflect.Promoter

	BG     *bgtask.Tracker
	Trace  *telemetry.Tracer
	Logger *slog.Logger

	OnProgress ProgressFunc
	NotifyUser func(sessionKey, content string) error
}

// NewLoop constructs a Loop from Deps, applying the same "construct
// missing collaborators with safe defaults" texture the teacher's
// NewLoop uses for MaxIterations/ContextWindow.
func NewLoop(d Deps) *Loop {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.BG == nil {
		d.BG = bgtask.NewTracker(d.Logger)
	}
	if d.Trace == nil {
		d.Trace = telemetry.New()
	}
	if d.Config == nil {
		d.Config = config.Default()
	}
	return &Loop{
		provider:   d.Provider,
		cfg:        d.Config,
		sessions:   d.Sessions,
		memory:     d.Memory,
		journal:    d.Journal,
		tools:      d.Tools,
		distiller:  d.Distiller,
		promoter:   d.Promoter,
		bg:         d.BG,
		trace:      d.Trace,
		logger:     d.Logger,
		onProgress: d.OnProgress,
		notifyUser: d.NotifyUser,
	}
}

// emitProgress fires a progress hint if a handler is wired and the
// relevant policy flag is enabled.
func (l *Loop) emitProgress(ev ProgressEvent) {
	if l.onProgress == nil {
		return
	}
	switch ev.Kind {
	case "tool_call":
		if !l.cfg.SendToolHints {
			return
		}
	default:
		if !l.cfg.SendProgress {
			return
		}
	}
	l.onProgress(ev)
}

// ProcessMessage is the single entry point: it drives a message through
// every phase and returns the outbound response content.
func (l *Loop) ProcessMessage(ctx context.Context, msg bus.InboundMessage) (string, error) {
	ctx, endPhase := l.trace.StartPhase(ctx, "full_turn")
	defer func() { endPhase("", nil, nil) }()

	sessionKey := msg.SessionKey()
	content := strings.TrimSpace(msg.Content)

	// Context-bearing tools (message-emission, subagent-spawn) need the
	// current channel/chat id/message id before Phase B so their effects
	// route correctly (spec §4.7).
	ctx = tools.WithTurnContext(ctx, msg.Channel, msg.ChatID, messageID(msg))

	// Phase A — Intake.
	if handled, response := l.phaseA(ctx, sessionKey, content); handled {
		// Phase D still runs after a slash command: a `/new` already
		// scheduled its own session-end in phaseA, but other sessions
		// may also have timed out in the meantime.
		l.phaseD(ctx, "")
		return response, nil
	}

	l.sessions.GetOrCreate(sessionKey)
	l.sessions.Touch(sessionKey)

	// Phase B — Interactive response.
	ctxB, endB := l.trace.StartPhase(ctx, "interactive_response")
	newTurns, finalContent := l.phaseB(ctxB, sessionKey, content)
	endB(finalContent, nil, nil)

	// Phase C — Persist.
	l.phaseC(sessionKey, newTurns)

	// Phase D — End-of-session detection (timeouts only; `/new` already
	// handled its own end in Phase A).
	l.phaseD(ctx, "")

	return finalContent, nil
}

// phaseA handles slash commands deterministically, without invoking the
// model. It returns handled=true when the message was fully answered
// here (the caller must not proceed to Phase B).
func (l *Loop) phaseA(ctx context.Context, sessionKey, content string) (handled bool, response string) {
	_, end := l.trace.StartPhase(ctx, "intake")
	defer func() { end(response, nil, nil) }()

	switch content {
	case "/new":
		l.sessions.GetOrCreate(sessionKey)
		snapshot := l.sessions.Snapshot(sessionKey)
		l.sessions.Reset(sessionKey)
		if err := l.sessions.Save(sessionKey); err != nil {
			l.logger.Warn("agent: failed to persist reset session", "session", sessionKey, "error", err)
		}
		l.sessions.Invalidate(sessionKey)
		l.scheduleSessionEnd(ctx, snapshot, reasonExplicit)
		return true, "New session started."
	case "/help":
		return true, helpText
	default:
		l.sessions.GetOrCreate(sessionKey)
		l.sessions.Touch(sessionKey)
		return false, ""
	}
}

// phaseD scans the activity-timer map for sessions that have exceeded
// the inactivity threshold and schedules a background session-end for
// each (spec §4.4 Phase D). excludeKey, if non-empty, is skipped — used
// when the caller already ended that session explicitly in Phase A.
func (l *Loop) phaseD(ctx context.Context, excludeKey string) {
	_, end := l.trace.StartPhase(ctx, "timeout_scan")
	defer func() { end("", nil, nil) }()

	timeout := time.Duration(l.cfg.InactivityTimeoutSeconds) * time.Second
	_ = timeout // inactivity threshold lives inside sessions.Manager; kept here for doc clarity

	now := time.Now().UTC()
	for _, key := range l.sessions.ScanTimedOut(now) {
		if key == excludeKey {
			continue
		}
		snapshot := l.sessions.Snapshot(key)
		l.sessions.Invalidate(key)
		l.scheduleSessionEnd(ctx, snapshot, reasonTimeout)
	}
}
