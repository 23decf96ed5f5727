package tooling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"autosar-mcp/internal/domain"
	"autosar-mcp/internal/faults"
)

// SchemaTool is a tool whose input is described by a JSON Schema generated from
// a Go struct via invopop/jsonschema. The MCP server advertises Definition()
// to clients and the dispatcher routes calls to Call().
type SchemaTool interface {
	// Name returns the unique tool name (e.g. "create_port").
	Name() string
	// Description returns a human-readable description for the client.
	Description() string
	// Definition returns the JSON Schema string for the tool's input struct.
	Definition() string
	// Call executes the tool with the given JSON arguments.
	// Implementations must validate args against the schema before execution.
	Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error)
}

// typedTool adapts a typed function to SchemaTool. The schema is reflected
// from In and compiled once.
type typedTool[In, Out any] struct {
	name        string
	description string
	definition  string
	schema      *jsonschema.Schema
	fn          func(context.Context, In) (Out, error)
}

// NewTool builds a SchemaTool around fn. Arguments are validated against the
// schema of In, decoded into In and the result becomes ToolResult.Data.
func NewTool[In, Out any](name, description string, fn func(context.Context, In) (Out, error)) (SchemaTool, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %q: handler must not be nil", name)
	}
	var zero In
	def := GenerateSchema(zero)
	if def == "" {
		return nil, fmt.Errorf("tool %q: schema generation failed", name)
	}
	schema, err := CompileSchema(name+".json", def)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	return &typedTool[In, Out]{
		name:        name,
		description: description,
		definition:  def,
		schema:      schema,
		fn:          fn,
	}, nil
}

func (t *typedTool[In, Out]) Name() string        { return t.name }
func (t *typedTool[In, Out]) Description() string { return t.description }
func (t *typedTool[In, Out]) Definition() string  { return t.definition }

// Call treats empty or null arguments as an empty object. Schema and decoding
// failures are validation errors; handler errors pass through unchanged.
func (t *typedTool[In, Out]) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if trimmed := bytes.TrimSpace(args); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		args = json.RawMessage("{}")
	}
	if err := validate(t.schema, args); err != nil {
		return nil, faults.Validation("%s: %v", t.name, err)
	}
	var in In
	if err := unmarshalFunc(args, &in); err != nil {
		return nil, faults.Validation("%s: failed to parse input: %v", t.name, err)
	}
	out, err := t.fn(ctx, in)
	if err != nil {
		return nil, err
	}
	return &domain.ToolResult{Data: out}, nil
}
