// Package telemetry wraps the agent loop's phase/tool/LLM call spans in
// real OpenTelemetry tracing, no-op by default until a tracer provider is
// configured (spec §4.4's phases and §4.7's tool-call boundary are the
// natural span boundaries; nothing in the spec requires telemetry, so it
// stays optional and cheap when unused).
//
// Grounded on the teacher's internal/agent/loop_tracing.go (span-per-phase,
// span-per-tool-call, span-per-LLM-call shape, parent/child nesting,
// truncated input/output previews) translated from its custom Postgres-
// backed tracing.Collector onto the real go.opentelemetry.io/otel API the
// teacher already depends on, since a DB-backed span store is out of
// scope here.
package telemetry

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/nextlevelbuilder/cogcore/internal/telemetry"

// Tracer issues spans for the phased loop. A zero-value Tracer (obtained
// via NewNoop) uses otel's global no-op provider, so tracing is safe to
// call unconditionally and costs nothing until a real provider is
// registered with otel.SetTracerProvider.
type Tracer struct {
	tracer trace.Tracer
}

// New wraps the currently registered global TracerProvider. Call this
// after otel.SetTracerProvider during startup (e.g. from cmd/cogctl) to
// pick up a real exporter; call it before that to get the no-op tracer.
func New() *Tracer {
	return &Tracer{tracer: otel.Tracer(instrumentationName)}
}

// StartPhase opens a span covering one phase of the agent loop (spec
// §4.4's Phase A-E). The caller must call the returned EndFunc.
func (t *Tracer) StartPhase(ctx context.Context, phase string) (context.Context, EndFunc) {
	ctx, span := t.tracer.Start(ctx, "phase."+phase, trace.WithAttributes(
		attribute.String("cogcore.phase", phase),
	))
	return ctx, endFuncFor(span)
}

// StartLLMCall opens a span for one provider chat completion call.
func (t *Tracer) StartLLMCall(ctx context.Context, provider, model string, iteration int) (context.Context, EndFunc) {
	ctx, span := t.tracer.Start(ctx, "llm_call", trace.WithAttributes(
		attribute.String("cogcore.provider", provider),
		attribute.String("cogcore.model", model),
		attribute.Int("cogcore.iteration", iteration),
	))
	return ctx, endFuncFor(span)
}

// StartToolCall opens a span for one tool execution.
func (t *Tracer) StartToolCall(ctx context.Context, toolName string, input string) (context.Context, EndFunc) {
	ctx, span := t.tracer.Start(ctx, "tool_call", trace.WithAttributes(
		attribute.String("cogcore.tool", toolName),
		attribute.String("cogcore.input_preview", truncate(input, 500)),
	))
	return ctx, endFuncFor(span)
}

// StartBackgroundTask opens a span for one fire-and-forget task scheduled
// from Phase E (journal synthesis, distillation, reflection+promotion).
func (t *Tracer) StartBackgroundTask(ctx context.Context, name string) (context.Context, EndFunc) {
	ctx, span := t.tracer.Start(ctx, "bgtask."+name, trace.WithAttributes(
		attribute.String("cogcore.bgtask", name),
	))
	return ctx, endFuncFor(span)
}

// EndFunc finalizes a span, optionally recording usage/output metadata
// and an error. Pass nil for err on success.
type EndFunc func(outputPreview string, usage *Usage, err error)

// Usage mirrors the token accounting fields worth attaching to a span;
// it intentionally carries fewer fields than providers.Usage since
// cache-token breakdowns aren't useful outside the provider boundary.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

func endFuncFor(span trace.Span) EndFunc {
	return func(outputPreview string, usage *Usage, err error) {
		defer span.End()
		if outputPreview != "" {
			span.SetAttributes(attribute.String("cogcore.output_preview", truncate(outputPreview, 500)))
		}
		if usage != nil {
			span.SetAttributes(
				attribute.Int("cogcore.prompt_tokens", usage.PromptTokens),
				attribute.Int("cogcore.completion_tokens", usage.CompletionTokens),
			)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
}

func truncate(s string, maxLen int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
