package app

import (
	"context"
	"strings"
)

// ModelReply is what the model client hands back for one send: free text plus
// zero or more tool invocations in model-returned order.
type ModelReply struct {
	Content   string
	ToolCalls []ToolCall
}

// ModelClient is the transport collaborator. Network handling, streaming and
// cancellation live on the other side of this interface.
type ModelClient interface {
	Send(ctx context.Context, history []Message, tools []ToolSpec) (ModelReply, error)
}

// ToolRunner executes one validated tool call. File and process I/O live on
// the other side of this interface.
type ToolRunner interface {
	Run(ctx context.Context, call ToolCall) ToolResult
}

// TurnRunner drives one conversational turn: budget check, truncation, model
// call, validation, sequential dispatch, append. One turn completes before
// the next input is accepted, and tool calls run in model-returned order
// since later calls may depend on files an earlier call modified.
type TurnRunner struct {
	Client  ModelClient
	Runner  ToolRunner
	Tools   *ToolRegistry
	Monitor BudgetMonitor
	Config  Config
	Logger  *Logger

	// Truncations counts how many times this runner rewrote history to fit
	// budget; the shell folds it into the session record.
	Truncations int
}

// RunTurn appends the user input, fits the history to budget, queries the
// model and dispatches any tool calls. It returns the extended history; the
// input slice is never mutated in place.
func (r *TurnRunner) RunTurn(ctx context.Context, history []Message, input string) ([]Message, error) {
	history = append(append([]Message(nil), history...), NewMessage(RoleUser, input))

	report := r.Monitor.Report(history)
	if r.Monitor.ShouldTruncate(report) {
		history = r.truncate(history, r.Config.ContextLimitTokens, report)
	}

	reply, err := r.Client.Send(ctx, history, r.Tools.Specs())
	if err != nil && isContextOverflowError(err) {
		// The estimate undershot the backend's count; cut deeper and retry once.
		report = r.Monitor.Report(history)
		history = r.truncate(history, r.Config.ContextLimitTokens/2, report)
		reply, err = r.Client.Send(ctx, history, r.Tools.Specs())
	}
	if err != nil {
		return history, err
	}

	// The assistant message keeps every call it issued, valid or not, so each
	// one can be answered by exactly one tool-role message.
	history = append(history, NewAssistantMessage(reply.Content, reply.ToolCalls))

	valid, rejections := ValidateToolCalls(reply.ToolCalls, r.Tools)
	for _, rejection := range rejections {
		r.Logger.Warn("tool call rejected", map[string]interface{}{
			"tool_call_id": rejection.ToolCallID,
			"tool":         rejection.Name,
			"error":        rejection.Error,
		})
		history = append(history, NewToolMessage(rejection))
	}
	for _, call := range valid {
		result := r.Runner.Run(ctx, call)
		history = append(history, NewToolMessage(result))
	}

	return history, nil
}

func (r *TurnRunner) truncate(history []Message, budget int, report BudgetReport) []Message {
	truncated, degraded := TruncateHistory(history, budget, r.Config.truncateOptions())
	r.Truncations++
	fields := map[string]interface{}{
		"before_tokens":    report.Total,
		"budget_tokens":    budget,
		"messages_before":  len(history),
		"messages_after":   len(truncated),
		"health":           report.Health,
		"pending_tool_ids": pendingToolCalls(history),
	}
	if degraded {
		r.Logger.Warn("history degraded: minimal retained context exceeded budget", fields)
	} else {
		r.Logger.Info("history truncated", fields)
	}
	return truncated
}

// isContextOverflowError recognizes backend complaints about the prompt not
// fitting the model's context window. "context deadline exceeded" is a
// cancellation, not an overflow.
func isContextOverflowError(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	if strings.Contains(text, "deadline") {
		return false
	}
	for _, marker := range []string{
		"prompt is too long",
		"maximum context length",
		"context length exceeded",
		"tokens exceed",
		"context window",
	} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
