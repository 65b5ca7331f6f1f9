package tools

import (
	"context"
	"fmt"
)

// MessageSender is the effect a MessageEmissionTool routes through; its
// concrete implementation (publishing onto the outbound side of the
// Message Bus) is a channel-adapter concern out of core scope (spec §1).
// The core only owns the tool contract and the context-routing policy.
type MessageSender func(ctx context.Context, channel, chatID, content string) error

// MessageEmissionTool lets the model push a proactive message to the
// current chat outside the normal response path. It is context-bearing:
// before Phase B the agent loop injects the current channel/chat id/
// message id via WithTurnContext so the tool routes to the right
// destination without the model needing to name it (spec §4.7).
type MessageEmissionTool struct {
	send MessageSender
}

func NewMessageEmissionTool(send MessageSender) *MessageEmissionTool {
	return &MessageEmissionTool{send: send}
}

func (t *MessageEmissionTool) Name() string { return "send_message" }
func (t *MessageEmissionTool) Description() string {
	return "Send a message into the current chat immediately, outside the normal turn response (e.g. a progress update)"
}
func (t *MessageEmissionTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content": map[string]interface{}{"type": "string", "description": "Message content to send"},
		},
		"required": []string{"content"},
	}
}
func (t *MessageEmissionTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	if t.send == nil {
		return "", fmt.Errorf("message sender not configured")
	}
	content := stringArg(args, "content")
	if content == "" {
		return "", fmt.Errorf("content is required")
	}
	channel := ChannelFromContext(ctx)
	chatID := ChatIDFromContext(ctx)
	if channel == "" || chatID == "" {
		return "", fmt.Errorf("no turn context available for routing")
	}
	if err := t.send(ctx, channel, chatID, content); err != nil {
		return "", err
	}
	return "Message sent.", nil
}

// SubagentSpawner launches a nested agent run; the concrete execution
// (another Loop.Run invocation, a separate session, resource limits) is
// the embedder's concern — this tool owns only the contract and the
// context-routing policy, matching spec §4.7's "context-bearing" note.
type SubagentSpawner func(ctx context.Context, channel, chatID, task string) (string, error)

// SubagentSpawnTool lets the model delegate a sub-task to a nested agent
// run scoped to the same channel/chat.
type SubagentSpawnTool struct {
	spawn SubagentSpawner
}

func NewSubagentSpawnTool(spawn SubagentSpawner) *SubagentSpawnTool {
	return &SubagentSpawnTool{spawn: spawn}
}

func (t *SubagentSpawnTool) Name() string { return "spawn_subagent" }
func (t *SubagentSpawnTool) Description() string {
	return "Delegate a bounded sub-task to a nested agent run and return its result"
}
func (t *SubagentSpawnTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{"type": "string", "description": "The sub-task to delegate"},
		},
		"required": []string{"task"},
	}
}
func (t *SubagentSpawnTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	if t.spawn == nil {
		return "", fmt.Errorf("subagent spawner not configured")
	}
	task := stringArg(args, "task")
	if task == "" {
		return "", fmt.Errorf("task is required")
	}
	channel := ChannelFromContext(ctx)
	chatID := ChatIDFromContext(ctx)
	result, err := t.spawn(ctx, channel, chatID, task)
	if err != nil {
		return "", err
	}
	return result, nil
}
