// Package sessions implements the Session Store and Session Activity Timer:
// turn-ordered message logs keyed by {channel}:{chat_id}, persisted to disk
// one file per session, plus last-activity tracking that drives end-of-
// session detection. Grounded in internal/sessions/manager.go's atomic-save
// and in-memory map approach, trimmed to the narrower contract this core
// needs (get_or_create, save, invalidate, get_history).
package sessions

import (
	"time"

	"github.com/nextlevelbuilder/cogcore/internal/providers"
)

// Role values for a Turn (spec §3).
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// Turn is one ordered record in a session's message log. It is the same
// shape the provider transport speaks (providers.Message), so a turn can be
// appended straight from a ChatResponse without copying fields — the
// teacher's sessions.Manager stores provider messages directly for the
// same reason.
type Turn = providers.Message

// Session holds the full ordered turn history for one conversation key.
// Created on first message; mutated only by the agent loop's Phase C;
// destroyed only by explicit reset, which clears Messages in place while
// preserving Key identity (spec §3).
type Session struct {
	Key      string    `json:"key"`
	Messages []Turn    `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// Snapshot is an immutable, detached copy of a session's messages taken at
// schedule time. Background cognition tasks read only Snapshot values,
// never the live Session, so that a foreground `/new` clearing the session
// mid-flight cannot alias or corrupt in-flight background work (spec §4.4
// redesign: explicit immutable value carrying {key, messages}).
type Snapshot struct {
	Key      string
	Messages []Turn
}

// toolOutputCap is the character cap tool-role content is truncated to
// before persistence (spec §4.2).
const toolOutputCap = 500

const truncatedSuffix = "... (truncated)"

func truncateToolContent(content string) string {
	if len(content) <= toolOutputCap {
		return content
	}
	return content[:toolOutputCap] + truncatedSuffix
}
