// Package tools implements the Tool Registry & Contract (spec §4.7): a
// uniform name/description/schema/execute capability surface, a registry
// that produces the LLM-facing schema catalog and dispatches calls by
// name, the typed memory tools (one per category), the context-bearing
// message-emission and subagent-spawn tools, and an MCP bridge so an
// externally hosted tool can satisfy the same contract.
//
// Grounded on the teacher's internal/tools package: Tool shape
// (Name/Description/Parameters/Execute) taken from internal/tools/shell.go's
// ExecTool, the Result type from internal/tools/result.go (trimmed of
// tracing-only Usage/Provider/Model fields the spec's plain-string tool
// contract doesn't need), and context-key injection from
// internal/tools/context_keys.go.
package tools

import "context"

// Tool is the uniform capability surface every tool exposes (spec §4.7).
// Expressed as an interface rather than a base type per spec §9's redesign
// note ("polymorphic over the capability, not an inheritance hierarchy").
type Tool interface {
	// Name is the identifier the LLM uses to call this tool.
	Name() string

	// Description is the human-readable summary shown to the model.
	Description() string

	// Parameters is a JSON-Schema-shaped description of the tool's
	// arguments, in the exact map shape providers.ToolFunctionSchema.Parameters
	// expects.
	Parameters() map[string]interface{}

	// Execute runs the tool and returns its result as a string — every
	// tool result is stringified for inclusion in the transcript (spec
	// §4.7). A non-nil error is reified as a coreerrors.ToolError by the
	// registry, never propagated to the caller.
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}
