package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *ToolRegistry {
	t.Helper()
	registry, err := NewToolRegistry(DefaultToolSpecs()...)
	require.NoError(t, err)
	return registry
}

func TestValidateToolCallsPassesWellFormedCall(t *testing.T) {
	registry := testRegistry(t)
	calls := []ToolCall{
		{ID: "c1", Name: "read_file", Arguments: []byte(`{"path":"main.go"}`)},
		{ID: "c2", Name: "edit_file", Arguments: []byte(`{"path":"main.go","old_text":"a","new_text":"b"}`)},
	}

	valid, rejections := ValidateToolCalls(calls, registry)

	require.Empty(t, rejections)
	require.Len(t, valid, 2)
	assert.Equal(t, calls, valid)
}

func TestValidateToolCallsRejections(t *testing.T) {
	registry := testRegistry(t)

	cases := []struct {
		name   string
		call   ToolCall
		reason string
	}{
		{
			name:   "missing id",
			call:   ToolCall{Name: "read_file", Arguments: []byte(`{"path":"a.go"}`)},
			reason: "no id",
		},
		{
			name:   "unknown tool",
			call:   ToolCall{ID: "c1", Name: "launch_rocket", Arguments: []byte(`{}`)},
			reason: "unknown tool",
		},
		{
			name:   "arguments not json",
			call:   ToolCall{ID: "c2", Name: "read_file", Arguments: []byte(`path=a.go`)},
			reason: "not a JSON object",
		},
		{
			name:   "missing required field",
			call:   ToolCall{ID: "c3", Name: "read_file", Arguments: []byte(`{}`)},
			reason: "schema",
		},
		{
			name:   "wrong field type",
			call:   ToolCall{ID: "c4", Name: "exec", Arguments: []byte(`{"command":42}`)},
			reason: "schema",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			valid, rejections := ValidateToolCalls([]ToolCall{tc.call}, registry)

			assert.Empty(t, valid)
			require.Len(t, rejections, 1)
			rejection := rejections[0]
			assert.False(t, rejection.Success, "a rejection must never read as success")
			assert.True(t, strings.HasPrefix(rejection.Error, "validation error:"), "got %q", rejection.Error)
			assert.Contains(t, rejection.Error, tc.reason)
			assert.NotEmpty(t, rejection.ToolCallID)
		})
	}
}

func TestValidateToolCallsSynthesizesIDForAttribution(t *testing.T) {
	registry := testRegistry(t)

	_, rejections := ValidateToolCalls([]ToolCall{{Name: "read_file"}}, registry)

	require.Len(t, rejections, 1)
	assert.Equal(t, "invalid_call_1", rejections[0].ToolCallID)
}

func TestValidateToolCallsMixedBatchKeepsOrder(t *testing.T) {
	registry := testRegistry(t)
	calls := []ToolCall{
		{ID: "c1", Name: "list_dir", Arguments: []byte(`{"path":"."}`)},
		{ID: "c2", Name: "nope", Arguments: []byte(`{}`)},
		{ID: "c3", Name: "exec", Arguments: []byte(`{"command":"ls"}`)},
	}

	valid, rejections := ValidateToolCalls(calls, registry)

	require.Len(t, valid, 2)
	assert.Equal(t, "c1", valid[0].ID)
	assert.Equal(t, "c3", valid[1].ID)
	require.Len(t, rejections, 1)
	assert.Equal(t, "c2", rejections[0].ToolCallID)
}

func TestValidateToolCallsEmptyArgumentsCheckedAgainstSchema(t *testing.T) {
	registry := testRegistry(t)

	// list_dir has no required fields: empty arguments are fine.
	valid, rejections := ValidateToolCalls([]ToolCall{{ID: "c1", Name: "list_dir"}}, registry)
	assert.Len(t, valid, 1)
	assert.Empty(t, rejections)

	// read_file requires a path: empty arguments are not.
	valid, rejections = ValidateToolCalls([]ToolCall{{ID: "c2", Name: "read_file"}}, registry)
	assert.Empty(t, valid)
	assert.Len(t, rejections, 1)
}

func TestNewToolRegistryRejectsDuplicates(t *testing.T) {
	specs := DefaultToolSpecs()
	_, err := NewToolRegistry(append(specs, specs[0])...)
	require.Error(t, err)
}
