package app

import (
	"context"
	"fmt"
	"time"
)

// MockModelClient replays scripted replies, for tests and --mock mode. Once
// the script is exhausted it answers with plain text and no tool calls, which
// ends the turn.
type MockModelClient struct {
	Replies []ModelReply
	Calls   int
	// Errs maps call number (1-based) to an error returned instead of a reply.
	Errs map[int]error

	// LastHistory records what the client was asked to send, so tests can
	// assert on the truncated view.
	LastHistory []Message
}

func (c *MockModelClient) Send(_ context.Context, history []Message, _ []ToolSpec) (ModelReply, error) {
	c.Calls++
	c.LastHistory = history
	if err, ok := c.Errs[c.Calls]; ok {
		return ModelReply{}, err
	}
	if len(c.Replies) == 0 {
		return ModelReply{Content: "done"}, nil
	}
	reply := c.Replies[0]
	c.Replies = c.Replies[1:]
	return reply, nil
}

// MockToolRunner answers every call from a canned output table, keyed by tool
// name. Unknown names still succeed with a generic acknowledgement; the mock
// exists to exercise the turn loop, not the tools.
type MockToolRunner struct {
	Outputs map[string]string
	Ran     []ToolCall
}

func (r *MockToolRunner) Run(_ context.Context, call ToolCall) ToolResult {
	start := time.Now()
	r.Ran = append(r.Ran, call)
	output, ok := r.Outputs[call.Name]
	if !ok {
		output = fmt.Sprintf("mock: %s ok", call.Name)
	}
	return ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Success:    true,
		Output:     output,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
