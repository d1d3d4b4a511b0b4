package app

import (
	"encoding/json"
	"fmt"
)

// ValidateToolCalls splits raw model-issued calls into dispatchable calls and
// rejections. A call is valid iff it carries a non-empty id, names a
// registered tool, and its arguments parse as a JSON object satisfying that
// tool's schema.
//
// Every rejection becomes an explicit validation-error ToolResult so the
// model sees a failure rather than a phantom success, and downstream code
// never receives a call with missing fields.
func ValidateToolCalls(calls []ToolCall, registry *ToolRegistry) ([]ToolCall, []ToolResult) {
	var valid []ToolCall
	var rejections []ToolResult

	for i, call := range calls {
		id := call.ID
		if id == "" {
			// Synthesize an id so the rejection can still be attributed.
			id = fmt.Sprintf("invalid_call_%d", i+1)
		}
		reject := func(reason string) {
			rejections = append(rejections, ToolResult{
				ToolCallID: id,
				Name:       call.Name,
				Success:    false,
				Error:      "validation error: " + reason,
			})
		}

		if call.ID == "" {
			reject("tool call has no id")
			continue
		}
		spec, known := registry.Lookup(call.Name)
		if !known {
			reject(fmt.Sprintf("unknown tool %q", call.Name))
			continue
		}

		args := map[string]interface{}{}
		if len(call.Arguments) > 0 {
			if err := json.Unmarshal(call.Arguments, &args); err != nil {
				reject(fmt.Sprintf("arguments are not a JSON object: %v", err))
				continue
			}
		}
		if spec.compiled != nil {
			result := spec.compiled.Validate(args)
			if !result.IsValid() {
				reject(fmt.Sprintf("arguments do not satisfy schema for %q: %s", call.Name, result.Error()))
				continue
			}
		}

		valid = append(valid, call)
	}

	return valid, rejections
}
