package agent

import (
	"context"

	"github.com/nextlevelbuilder/cogcore/internal/coreerrors"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
	"github.com/nextlevelbuilder/cogcore/internal/telemetry"
)

const budgetExhaustedMessage = "I wasn't able to finish this within the allotted tool-call budget. Here's what I have so far."

// phaseB runs the tool-iteration loop (spec §4.4 Phase B): build the LLM
// input from the system preamble, the last N historical turns, and the
// current user turn; call the model for up to max_iterations, executing
// any requested tool calls sequentially between calls. It returns the
// new turns produced this phase (for Phase C to persist) and the final
// response content.
func (l *Loop) phaseB(ctx context.Context, sessionKey, userContent string) ([]sessions.Turn, string) {
	history := l.sessions.GetHistory(sessionKey, l.cfg.MemoryWindow)

	userTurn := providers.Message{Role: sessions.RoleUser, Content: userContent}

	messages := make([]providers.Message, 0, len(history)+3)
	messages = append(messages, providers.Message{Role: sessions.RoleSystem, Content: l.buildSystemPreamble()})
	if summary := l.maybeSummarizeOverflow(ctx, sessionKey); summary != "" {
		messages = append(messages, providers.Message{Role: sessions.RoleUser, Content: "[Previous conversation summary]\n" + summary})
		messages = append(messages, providers.Message{Role: sessions.RoleAssistant, Content: "Understood, I have that context from earlier in this conversation."})
	}
	messages = append(messages, history...)
	messages = append(messages, userTurn)

	newTurns := []sessions.Turn{userTurn}

	var toolDefs []providers.ToolDefinition
	if l.tools != nil {
		toolDefs = l.tools.ProviderDefs()
	}

	if l.cfg.MaxIterations <= 0 {
		l.logger.Warn("agent: budget exhausted", "session", sessionKey, "error", coreerrors.NewBudgetExhausted(l.cfg.MaxIterations))
		newTurns = append(newTurns, sessions.Turn{Role: sessions.RoleAssistant, Content: budgetExhaustedMessage})
		return newTurns, budgetExhaustedMessage
	}

	for iteration := 1; iteration <= l.cfg.MaxIterations; iteration++ {
		ctxLLM, endLLM := l.trace.StartLLMCall(ctx, l.provider.Name(), l.cfg.PrimaryModel, iteration)

		resp, err := l.provider.Chat(ctxLLM, providers.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Model:       l.cfg.PrimaryModel,
			Temperature: l.cfg.Temperature,
			MaxTokens:   l.cfg.MaxTokens,
		})
		if err != nil {
			endLLM("", nil, err)
			l.logger.Warn("agent: interactive LLM call failed", "session", sessionKey, "iteration", iteration, "error", coreerrors.NewModelFailure("interactive_response", err))
			return newTurns, "I ran into a problem talking to the model. Please try again."
		}

		var usage *telemetry.Usage
		if resp.Usage != nil {
			usage = &telemetry.Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens}
		}
		endLLM(resp.Content, usage, nil)

		if len(resp.ToolCalls) == 0 {
			newTurns = append(newTurns, sessions.Turn{Role: sessions.RoleAssistant, Content: resp.Content})
			return newTurns, resp.Content
		}

		assistantTurn := providers.Message{
			Role:      sessions.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		messages = append(messages, assistantTurn)
		newTurns = append(newTurns, assistantTurn)

		for _, call := range resp.ToolCalls {
			l.emitProgress(ProgressEvent{SessionKey: sessionKey, Kind: "tool_call", Detail: call.Name})

			_, endTool := l.trace.StartToolCall(ctx, call.Name, "")
			var result string
			if l.tools != nil {
				result = l.tools.Call(ctx, call.Name, call.Arguments)
			} else {
				result = "error: no tool registry configured"
			}
			endTool(result, nil, nil)

			toolTurn := providers.Message{
				Role:       sessions.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			}
			messages = append(messages, toolTurn)
			newTurns = append(newTurns, toolTurn)
		}
	}

	l.logger.Warn("agent: budget exhausted", "session", sessionKey, "error", coreerrors.NewBudgetExhausted(l.cfg.MaxIterations))
	newTurns = append(newTurns, sessions.Turn{Role: sessions.RoleAssistant, Content: budgetExhaustedMessage})
	return newTurns, budgetExhaustedMessage
}

// phaseC persists the new turns produced in Phase B and resets the
// activity timer (spec §4.4 Phase C). Only the turns Phase B actually
// produced are appended — reused history is never re-written.
func (l *Loop) phaseC(sessionKey string, newTurns []sessions.Turn) {
	if err := l.sessions.AppendTurns(sessionKey, newTurns); err != nil {
		l.logger.Error("agent: failed to persist session", "session", sessionKey, "error", err)
	}
}
