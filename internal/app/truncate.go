package app

import "github.com/muesli/reflow/truncate"

const (
	defaultAnchorRecent    = 4
	defaultMaxFileContexts = 8
)

// TruncateOptions sizes the retention rules. Zero values fall back to the
// defaults; both knobs are surfaced in Config.
type TruncateOptions struct {
	// AnchorRecent is the number of most-recent messages always kept in full.
	AnchorRecent int
	// MaxFileContexts caps how many file-context entries survive truncation.
	MaxFileContexts int
}

func (o TruncateOptions) withDefaults() TruncateOptions {
	if o.AnchorRecent <= 0 {
		o.AnchorRecent = defaultAnchorRecent
	}
	if o.MaxFileContexts <= 0 {
		o.MaxFileContexts = defaultMaxFileContexts
	}
	return o
}

// historyUnit is the atomic retention unit: either a single message, or an
// assistant message with tool calls together with its tool-result messages,
// paired by call id. Units are kept or dropped whole.
type historyUnit struct {
	cost        int
	fileContext bool
	incomplete  bool
}

// TruncateHistory rewrites history to fit budgetTokens while keeping the
// structure the model relies on:
//
//  1. the leading system prompt is kept verbatim;
//  2. the most-recent anchor window is kept in full, extended backwards so a
//     tool-call/result exchange is never split;
//  3. file-context entries get first claim on the remaining budget,
//     most-recent-first up to MaxFileContexts;
//  4. the rest of the budget is filled newest-to-oldest with whole units, so
//     a retained tool result always has its issuing call retained too and a
//     retained call always has its results;
//  5. if the system prompt and anchor alone exceed the budget, message
//     content is clipped by length and degraded=true is returned.
//
// The input slice is never modified. When the history already fits it is
// returned unchanged.
func TruncateHistory(history []Message, budgetTokens int, opts TruncateOptions) ([]Message, bool) {
	if len(history) == 0 {
		return history, false
	}
	total, _ := EstimateHistory(history)
	if total <= budgetTokens {
		return history, false
	}
	opts = opts.withDefaults()

	start := 0
	var system *Message
	if history[0].Role == RoleSystem && history[0].FileContext == nil {
		system = &history[0]
		start = 1
	}

	anchorStart := len(history) - opts.AnchorRecent
	if anchorStart < start {
		anchorStart = start
	}
	// Never let the anchor open on a tool result; pull the issuing assistant
	// message in as well.
	for anchorStart > start && history[anchorStart].Role == RoleTool {
		anchorStart--
	}
	anchor := history[anchorStart:]
	middle := history[start:anchorStart]

	used := 0
	if system != nil {
		used += EstimateMessage(*system)
	}
	for _, msg := range anchor {
		used += EstimateMessage(msg)
	}
	if used > budgetTokens {
		return degradeHistory(system, anchor, budgetTokens), true
	}

	resolved := toolResultIDs(history)
	units, unitIdx := buildUnits(middle, resolved)

	fileContexts := 0
	for _, msg := range anchor {
		if msg.FileContext != nil {
			fileContexts++
		}
	}

	remaining := budgetTokens - used
	keep := make([]bool, len(units))
	// File-context entries outrank ordinary history: they get first claim on
	// the remaining budget, newest-first, until the cap is hit.
	for i := len(units) - 1; i >= 0; i-- {
		u := units[i]
		if !u.fileContext || u.incomplete {
			continue
		}
		if fileContexts >= opts.MaxFileContexts || u.cost > remaining {
			continue
		}
		keep[i] = true
		remaining -= u.cost
		fileContexts++
	}
	for i := len(units) - 1; i >= 0; i-- {
		u := units[i]
		if keep[i] || u.incomplete || u.fileContext {
			continue
		}
		if u.cost > remaining {
			continue
		}
		keep[i] = true
		remaining -= u.cost
	}

	out := make([]Message, 0, len(history))
	if system != nil {
		out = append(out, *system)
	}
	for i, msg := range middle {
		if keep[unitIdx[i]] {
			out = append(out, msg)
		}
	}
	out = append(out, anchor...)
	return out, false
}

// buildUnits groups the middle region into retention units and maps each
// message index to its unit. A tool result joins the unit of its issuing
// assistant message by call id, even when other messages landed in between.
func buildUnits(middle []Message, resolved map[string]bool) ([]historyUnit, []int) {
	var units []historyUnit
	unitIdx := make([]int, len(middle))
	callUnit := make(map[string]int)

	for i, msg := range middle {
		switch {
		case msg.Role == RoleAssistant && len(msg.ToolCalls) > 0:
			unit := historyUnit{}
			for _, call := range msg.ToolCalls {
				callUnit[call.ID] = len(units)
				if !resolved[call.ID] {
					// In-flight call: the exchange is incomplete and must not
					// appear in a truncated view.
					unit.incomplete = true
				}
			}
			unitIdx[i] = len(units)
			units = append(units, unit)

		case msg.Role == RoleTool:
			if u, ok := callUnit[msg.ToolCallID]; ok {
				unitIdx[i] = u
				continue
			}
			// Result of a call outside this region; dropping it keeps every
			// retained tool message paired.
			unitIdx[i] = len(units)
			units = append(units, historyUnit{incomplete: true})

		default:
			unitIdx[i] = len(units)
			units = append(units, historyUnit{fileContext: msg.FileContext != nil})
		}
	}
	for i, msg := range middle {
		units[unitIdx[i]].cost += EstimateMessage(msg)
	}
	return units, unitIdx
}

// degradeHistory is the last resort: even the system prompt plus the anchor
// window exceed the budget, so clip message content by length rather than
// fail the turn. The anchor is clipped oldest-first; the system prompt is
// touched only when nothing else is left to cut.
func degradeHistory(system *Message, anchor []Message, budgetTokens int) []Message {
	out := make([]Message, 0, len(anchor)+1)
	if system != nil {
		out = append(out, *system)
	}
	out = append(out, anchor...)

	total := 0
	for _, msg := range out {
		total += EstimateMessage(msg)
	}
	over := total - budgetTokens

	order := make([]int, 0, len(out))
	first := 0
	if system != nil {
		first = 1
	}
	for i := first; i < len(out); i++ {
		order = append(order, i)
	}
	if system != nil {
		order = append(order, 0)
	}

	for _, idx := range order {
		if over <= 0 {
			break
		}
		contentTokens := EstimateTokens(out[idx].Content)
		if contentTokens == 0 {
			continue
		}
		cut := contentTokens
		if over < cut {
			cut = over
		}
		keepTokens := contentTokens - cut
		clipped := out[idx]
		// Invert the runes/2 bound (the binding one for ASCII-ish text), with
		// slack for the ellipsis tail.
		allowed := keepTokens*2 - 4
		if allowed <= 0 {
			clipped.Content = ""
		} else {
			clipped.Content = truncate.StringWithTail(out[idx].Content, uint(allowed), "…")
		}
		over -= contentTokens - EstimateTokens(clipped.Content)
		out[idx] = clipped
	}
	return out
}
