package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nextlevelbuilder/cogcore/internal/bus"
	"github.com/nextlevelbuilder/cogcore/internal/config"
	"github.com/nextlevelbuilder/cogcore/internal/journal"
	"github.com/nextlevelbuilder/cogcore/internal/memory"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
	"github.com/nextlevelbuilder/cogcore/internal/tools"
)

// scriptedProvider replays one ChatResponse per call, in order, so tests
// can script multi-iteration tool loops deterministically.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []providers.ChatResponse
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls >= len(p.responses) {
		return &providers.ChatResponse{Content: "done", FinishReason: "stop"}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return &resp, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, req providers.ChatRequest, onChunk func(providers.StreamChunk)) (*providers.ChatResponse, error) {
	return p.Chat(ctx, req)
}

func (p *scriptedProvider) DefaultModel() string { return "test-model" }
func (p *scriptedProvider) Name() string         { return "test-provider" }

func newTestLoop(t *testing.T, provider *scriptedProvider) (*Loop, *sessions.Manager) {
	t.Helper()
	dir := t.TempDir()

	mgr := sessions.NewManager(dir+"/sessions", 30*time.Minute)
	memStore, err := memory.New(dir, slog.Default())
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	journalStore, err := journal.New(dir, slog.Default())
	if err != nil {
		t.Fatalf("journal.New: %v", err)
	}

	registry := tools.NewRegistry(slog.Default())
	registry.Register(tools.NewWriteFactTool(memStore))

	cfg := config.Default()
	cfg.MaxIterations = 5

	loop := NewLoop(Deps{
		Provider: provider,
		Config:   cfg,
		Sessions: mgr,
		Memory:   memStore,
		Journal:  journalStore,
		Tools:    registry,
		Logger:   slog.Default(),
	})
	return loop, mgr
}

func TestBasicTurnAppendsExactlyTwoNewTurns(t *testing.T) {
	provider := &scriptedProvider{responses: []providers.ChatResponse{
		{Content: "hello", FinishReason: "stop"},
	}}
	loop, mgr := newTestLoop(t, provider)

	resp, err := loop.ProcessMessage(context.Background(), bus.InboundMessage{Channel: "cli", ChatID: "c1", Content: "hi"})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp != "hello" {
		t.Fatalf("expected %q, got %q", "hello", resp)
	}

	session := mgr.GetOrCreate("cli:c1")
	if len(session.Messages) != 2 {
		t.Fatalf("expected 2 new turns, got %d", len(session.Messages))
	}
	if session.Messages[0].Role != sessions.RoleUser || session.Messages[1].Role != sessions.RoleAssistant {
		t.Fatalf("unexpected turn roles: %+v", session.Messages)
	}
}

func TestToolIterationAppendsFourTurns(t *testing.T) {
	provider := &scriptedProvider{responses: []providers.ChatResponse{
		{
			Content:      "",
			FinishReason: "tool_calls",
			ToolCalls: []providers.ToolCall{
				{ID: "t1", Name: "write_fact", Arguments: map[string]interface{}{"title": "X", "content": "Y"}},
			},
		},
		{Content: "found: result", FinishReason: "stop"},
	}}
	loop, mgr := newTestLoop(t, provider)

	resp, err := loop.ProcessMessage(context.Background(), bus.InboundMessage{Channel: "cli", ChatID: "c1", Content: "search X"})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp != "found: result" {
		t.Fatalf("unexpected final content: %q", resp)
	}

	session := mgr.GetOrCreate("cli:c1")
	if len(session.Messages) != 4 {
		t.Fatalf("expected 4 new turns, got %d: %+v", len(session.Messages), session.Messages)
	}
	if session.Messages[2].Role != sessions.RoleTool || session.Messages[2].ToolName != "write_fact" {
		t.Fatalf("expected tool turn at index 2, got %+v", session.Messages[2])
	}
}

func TestExplicitNewClearsSessionAndSchedulesEnd(t *testing.T) {
	provider := &scriptedProvider{responses: []providers.ChatResponse{
		{Content: "hello", FinishReason: "stop"},
	}}
	loop, mgr := newTestLoop(t, provider)

	if _, err := loop.ProcessMessage(context.Background(), bus.InboundMessage{Channel: "cli", ChatID: "c1", Content: "hi"}); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	resp, err := loop.ProcessMessage(context.Background(), bus.InboundMessage{Channel: "cli", ChatID: "c1", Content: "/new"})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp, "New session started") {
		t.Fatalf("unexpected /new response: %q", resp)
	}

	session := mgr.GetOrCreate("cli:c1")
	if len(session.Messages) != 0 {
		t.Fatalf("expected cleared session, got %d messages", len(session.Messages))
	}

	loop.bg.Wait()
}

func TestHelpCommandReturnsStaticText(t *testing.T) {
	loop, _ := newTestLoop(t, &scriptedProvider{})
	resp, err := loop.ProcessMessage(context.Background(), bus.InboundMessage{Channel: "cli", ChatID: "c1", Content: "/help"})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp, "Commands:") {
		t.Fatalf("expected help text, got %q", resp)
	}
}

func TestBudgetExhaustedWithZeroMaxIterations(t *testing.T) {
	provider := &scriptedProvider{}
	loop, mgr := newTestLoop(t, provider)
	loop.cfg.MaxIterations = 0

	resp, err := loop.ProcessMessage(context.Background(), bus.InboundMessage{Channel: "cli", ChatID: "c1", Content: "hi"})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp != budgetExhaustedMessage {
		t.Fatalf("expected budget-exhausted message, got %q", resp)
	}
	if provider.calls != 0 {
		t.Fatalf("expected zero model calls, got %d", provider.calls)
	}

	session := mgr.GetOrCreate("cli:c1")
	if len(session.Messages) != 2 {
		t.Fatalf("expected the user turn plus the canned assistant turn persisted, got %d", len(session.Messages))
	}
	if session.Messages[1].Role != sessions.RoleAssistant || session.Messages[1].Content != budgetExhaustedMessage {
		t.Fatalf("expected budget-exhausted assistant turn, got %+v", session.Messages[1])
	}
}
