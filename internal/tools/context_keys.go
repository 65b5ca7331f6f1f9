package tools

import "context"

// Context keys for the per-turn routing information that context-bearing
// tools (message-emission, subagent-spawn) need before Phase B: channel,
// chat id, and optional message id (spec §4.7). Expressed as context
// values rather than mutable setter fields on tool instances, so a shared
// Registry built once at startup stays safe to call from concurrent
// foreground and background turns — grounded on the teacher's
// internal/tools/context_keys.go pattern.
type contextKey string

const (
	keyChannel   contextKey = "cogcore_channel"
	keyChatID    contextKey = "cogcore_chat_id"
	keyMessageID contextKey = "cogcore_message_id"
)

// WithTurnContext attaches the current turn's channel, chat id, and
// optional message id to ctx. The agent loop calls this before Phase B so
// context-bearing tools can route their effects correctly.
func WithTurnContext(ctx context.Context, channel, chatID, messageID string) context.Context {
	ctx = context.WithValue(ctx, keyChannel, channel)
	ctx = context.WithValue(ctx, keyChatID, chatID)
	if messageID != "" {
		ctx = context.WithValue(ctx, keyMessageID, messageID)
	}
	return ctx
}

// ChannelFromContext returns the channel set by WithTurnContext, or "".
func ChannelFromContext(ctx context.Context) string {
	v, _ := ctx.Value(keyChannel).(string)
	return v
}

// ChatIDFromContext returns the chat id set by WithTurnContext, or "".
func ChatIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(keyChatID).(string)
	return v
}

// MessageIDFromContext returns the optional message id set by
// WithTurnContext, or "".
func MessageIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(keyMessageID).(string)
	return v
}
