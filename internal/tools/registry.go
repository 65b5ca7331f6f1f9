package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/nextlevelbuilder/cogcore/internal/coreerrors"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
)

// Registry holds a name→tool map, built once at startup (spec §5's shared-
// state note: "the tool registry is built once at startup; tool instances
// may hold per-turn context set on the foreground path before Phase B").
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{tools: make(map[string]Tool), logger: logger}
}

// Register adds (or replaces) a tool by name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns a registered tool by name, or (nil, false) if unknown.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns every registered tool name, sorted for deterministic
// catalog ordering.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderDefs renders the registered tools as the JSON-Schema catalog the
// LLM transport consumes (spec §4.7: "produces the schema catalog for the
// LLM").
func (r *Registry) ProviderDefs() []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]providers.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Call dispatches a tool call by name with keyword arguments already
// parsed from the model's JSON arguments (the provider transport resolves
// the raw JSON-as-string-with-repair-fallback parsing documented in spec
// §4.4, since that lives at the LLM transport boundary — out of core
// scope per spec §1). Unknown tool names return a diagnostic string and
// Execute errors are reified as coreerrors.ToolError content; Call never
// returns an error to the agent loop (spec §4.7, §7).
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) string {
	t, ok := r.Get(name)
	if !ok {
		r.logger.Warn("tools: unknown tool requested", "tool", name)
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		toolErr := coreerrors.NewToolError(name, err)
		r.logger.Warn("tools: execute failed", "tool", name, "error", err)
		return toolErr.Error()
	}
	return result
}
