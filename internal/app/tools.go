package app

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// ToolSpec describes one capability the model may invoke. Parameters is a
// JSON Schema; it is compiled once when the spec enters a registry.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`

	compiled *jsonschema.Schema
}

// ToolRegistry holds the compiled tool specs known to the agent.
type ToolRegistry struct {
	specs map[string]*ToolSpec
	order []string
}

func NewToolRegistry(specs ...ToolSpec) (*ToolRegistry, error) {
	compiler := jsonschema.NewCompiler()
	reg := &ToolRegistry{specs: make(map[string]*ToolSpec, len(specs))}
	for i := range specs {
		spec := specs[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("tool spec %d has no name", i)
		}
		if _, dup := reg.specs[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate tool spec %q", spec.Name)
		}
		if len(spec.Parameters) > 0 {
			schema, err := compiler.Compile([]byte(spec.Parameters))
			if err != nil {
				return nil, fmt.Errorf("compile schema for tool %q: %w", spec.Name, err)
			}
			spec.compiled = schema
		}
		reg.specs[spec.Name] = &spec
		reg.order = append(reg.order, spec.Name)
	}
	return reg, nil
}

func (r *ToolRegistry) Lookup(name string) (*ToolSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Specs returns the registered specs in registration order, for handing to
// the model client.
func (r *ToolRegistry) Specs() []ToolSpec {
	out := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.specs[name])
	}
	return out
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal: %v", err))
	}
	return data
}

// DefaultToolSpecs returns the built-in tool surface. Execution lives behind
// the ToolRunner collaborator; these specs exist so the validator can check
// structure before anything is dispatched.
func DefaultToolSpecs() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "read_file",
			Description: "Read the contents of a file",
			Parameters: mustMarshal(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file to read",
					},
				},
				"required": []string{"path"},
			}),
		},
		{
			Name:        "write_file",
			Description: "Create or overwrite a file with the given content",
			Parameters: mustMarshal(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file to write",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Content to write to the file",
					},
				},
				"required": []string{"path", "content"},
			}),
		},
		{
			Name:        "edit_file",
			Description: "Edit a file by replacing old_text with new_text (exact match, approximate fallback)",
			Parameters: mustMarshal(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file to edit",
					},
					"old_text": map[string]interface{}{
						"type":        "string",
						"description": "Text to find and replace",
					},
					"new_text": map[string]interface{}{
						"type":        "string",
						"description": "Replacement text",
					},
				},
				"required": []string{"path", "old_text", "new_text"},
			}),
		},
		{
			Name:        "apply_patch",
			Description: "Apply a unified diff to a file",
			Parameters: mustMarshal(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file to patch",
					},
					"patch": map[string]interface{}{
						"type":        "string",
						"description": "Unified diff to apply",
					},
				},
				"required": []string{"path", "patch"},
			}),
		},
		{
			Name:        "list_dir",
			Description: "List files in a directory",
			Parameters: mustMarshal(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the directory",
					},
				},
			}),
		},
		{
			Name:        "exec",
			Description: "Execute a shell command and return its output",
			Parameters: mustMarshal(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"command": map[string]interface{}{
						"type":        "string",
						"description": "The shell command to execute",
					},
					"timeout": map[string]interface{}{
						"type":        "integer",
						"description": "Timeout in seconds (default: 30)",
					},
				},
				"required": []string{"command"},
			}),
		},
	}
}
