package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, client *MockModelClient, cfg Config) (*TurnRunner, *MockToolRunner) {
	t.Helper()
	registry, err := NewToolRegistry(DefaultToolSpecs()...)
	require.NoError(t, err)
	tools := &MockToolRunner{Outputs: map[string]string{"read_file": "package main\n"}}
	return &TurnRunner{
		Client:  client,
		Runner:  tools,
		Tools:   registry,
		Monitor: NewBudgetMonitor(cfg),
		Config:  cfg,
		Logger:  NewLogger(io.Discard),
	}, tools
}

func TestRunTurnDispatchesValidAndReportsInvalid(t *testing.T) {
	client := &MockModelClient{Replies: []ModelReply{{
		Content: "let me look",
		ToolCalls: []ToolCall{
			{ID: "c1", Name: "read_file", Arguments: []byte(`{"path":"main.go"}`)},
			{ID: "c2", Name: "read_file", Arguments: []byte(`{}`)}, // missing path
		},
	}}}
	runner, tools := newTestRunner(t, client, DefaultConfig())

	history := []Message{NewMessage(RoleSystem, "sys")}
	history, err := runner.RunTurn(context.Background(), history, "show me main.go")
	require.NoError(t, err)

	// system, user, assistant, rejection result, dispatched result.
	require.Len(t, history, 5)
	assert.Equal(t, RoleAssistant, history[2].Role)
	require.Len(t, history[2].ToolCalls, 2, "assistant keeps every issued call")

	rejection := history[3]
	assert.Equal(t, RoleTool, rejection.Role)
	assert.Equal(t, "c2", rejection.ToolCallID)
	assert.Contains(t, rejection.Content, "validation error")

	dispatched := history[4]
	assert.Equal(t, "c1", dispatched.ToolCallID)
	assert.Equal(t, "package main\n", dispatched.Content)

	require.Len(t, tools.Ran, 1, "only the valid call reaches the tool runner")
	assert.Equal(t, "c1", tools.Ran[0].ID)

	// Every issued call ended up answered: nothing is left in flight.
	assert.Empty(t, pendingToolCalls(history))
}

func TestRunTurnTruncatesBeforeSend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContextLimitTokens = 120
	cfg.AnchorRecent = 2

	client := &MockModelClient{}
	runner, _ := newTestRunner(t, client, cfg)

	history := []Message{NewMessage(RoleSystem, "sys")}
	for i := 0; i < 12; i++ {
		history = append(history, NewMessage(RoleUser, strings.Repeat("ab", 20)))
	}

	_, err := runner.RunTurn(context.Background(), history, "next question")
	require.NoError(t, err)

	require.NotNil(t, client.LastHistory)
	sent, _ := EstimateHistory(client.LastHistory)
	assert.LessOrEqual(t, sent, cfg.ContextLimitTokens)
	assert.Less(t, len(client.LastHistory), len(history)+1)
	assert.Equal(t, RoleSystem, client.LastHistory[0].Role)
	assert.Equal(t, 1, runner.Truncations)
}

func TestRunTurnRetriesOnceOnContextOverflow(t *testing.T) {
	client := &MockModelClient{
		Errs:    map[int]error{1: errors.New("maximum context length exceeded")},
		Replies: []ModelReply{{Content: "ok after retry"}},
	}
	runner, _ := newTestRunner(t, client, DefaultConfig())

	history, err := runner.RunTurn(context.Background(), []Message{NewMessage(RoleSystem, "sys")}, "hi")

	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls)
	assert.Equal(t, "ok after retry", history[len(history)-1].Content)
}

func TestRunTurnPropagatesNonOverflowErrors(t *testing.T) {
	client := &MockModelClient{
		Errs: map[int]error{1: errors.New("temporary network failure")},
	}
	runner, _ := newTestRunner(t, client, DefaultConfig())

	_, err := runner.RunTurn(context.Background(), []Message{NewMessage(RoleSystem, "sys")}, "hi")

	require.Error(t, err)
	assert.Equal(t, 1, client.Calls)
}

func TestRunTurnDoesNotMutateInput(t *testing.T) {
	client := &MockModelClient{}
	runner, _ := newTestRunner(t, client, DefaultConfig())

	history := []Message{NewMessage(RoleSystem, "sys")}
	snapshot := append([]Message(nil), history...)

	_, err := runner.RunTurn(context.Background(), history, "hi")
	require.NoError(t, err)
	assert.Equal(t, snapshot, history)
}

func TestIsContextOverflowError(t *testing.T) {
	cases := []struct {
		errText string
		want    bool
	}{
		{"prompt is too long for this model", true},
		{"maximum context length exceeded", true},
		{"input tokens exceed context window", true},
		{"context deadline exceeded", false},
		{"temporary network failure", false},
	}
	for _, tc := range cases {
		got := isContextOverflowError(errors.New(tc.errText))
		if got != tc.want {
			t.Fatalf("isContextOverflowError(%q) = %v, want %v", tc.errText, got, tc.want)
		}
	}
}
