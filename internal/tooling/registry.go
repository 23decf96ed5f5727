package tooling

import (
	"encoding/json"
	"fmt"
	"sort"

	"autosar-mcp/internal/domain"
	"autosar-mcp/internal/faults"
)

// ToolRegistry holds SchemaTool implementations keyed by name. The MCP server
// enumerates it at startup and the dispatcher looks tools up per call. It is
// filled before serving and only read afterwards.
type ToolRegistry struct {
	tools map[string]SchemaTool
}

// NewToolRegistry returns an empty, ready-to-use registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]SchemaTool)}
}

// Register adds a tool. Returns an error if the tool is nil or a tool with the
// same name is already registered.
func (r *ToolRegistry) Register(tool SchemaTool) error {
	if tool == nil {
		return fmt.Errorf("tool must not be nil")
	}
	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns the tool with the given name. Unknown names are validation
// errors since they come from the caller.
func (r *ToolRegistry) Get(name string) (SchemaTool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, faults.Validation("unknown tool: %q", name)
	}
	return tool, nil
}

// List returns all registered tools sorted by name.
func (r *ToolRegistry) List() []SchemaTool {
	out := make([]SchemaTool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Definitions returns domain.ToolDefinition for every registered tool, sorted
// by name.
func (r *ToolRegistry) Definitions() []domain.ToolDefinition {
	tools := r.List()
	out := make([]domain.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		out = append(out, domain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: json.RawMessage(t.Definition()),
		})
	}
	return out
}
