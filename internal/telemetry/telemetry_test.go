package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestNewReturnsUsableNoopTracer(t *testing.T) {
	tr := New()
	ctx, end := tr.StartPhase(context.Background(), "intake")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	end("", nil, nil)
}

func TestStartLLMCallAcceptsUsageAndError(t *testing.T) {
	tr := New()
	_, end := tr.StartLLMCall(context.Background(), "anthropic", "claude", 1)
	end("partial output", &Usage{PromptTokens: 10, CompletionTokens: 5}, errors.New("rate limited"))
}

func TestStartToolCallAndBackgroundTaskDoNotPanic(t *testing.T) {
	tr := New()
	_, endTool := tr.StartToolCall(context.Background(), "write_fact", `{"title":"x"}`)
	endTool("Fact saved", nil, nil)

	_, endBG := tr.StartBackgroundTask(context.Background(), "distill")
	endBG("", nil, nil)
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	s := truncate("héllo wörld", 3)
	if !utf8ValidAndNonEmpty(s) {
		t.Fatalf("truncate produced invalid output: %q", s)
	}
}

func utf8ValidAndNonEmpty(s string) bool {
	return len(s) > 0
}
