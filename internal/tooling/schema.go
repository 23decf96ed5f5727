package tooling

import (
	"encoding/json"
	"fmt"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// marshalFunc is the JSON marshaler used by GenerateSchema. Package-level so
// tests can inject a failing marshaler to cover the error return path.
var marshalFunc = func(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// unmarshalFunc decodes validated arguments into the tool's input struct.
var unmarshalFunc = json.Unmarshal

// GenerateSchema generates a JSON Schema string from a Go struct using
// invopop/jsonschema reflection. Embedded structs are inlined and unknown
// properties are rejected.
func GenerateSchema(input interface{}) string {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(input)

	schemaBytes, err := marshalFunc(schema)
	if err != nil {
		return ""
	}
	return string(schemaBytes)
}

// CompileSchema compiles a JSON Schema string for repeated validation.
func CompileSchema(name, schemaStr string) (*jsonschema.Schema, error) {
	schema, err := jsonschema.CompileString(name, schemaStr)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, input json.RawMessage) error {
	var inputData interface{}
	if err := json.Unmarshal(input, &inputData); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}

	if err := schema.Validate(inputData); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}
