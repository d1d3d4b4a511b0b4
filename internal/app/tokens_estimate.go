package app

import "unicode/utf8"

// Per-message framing overhead in tokens. Real wire formats spend a handful
// of tokens on role markers and message separators; tool messages carry the
// call id and name on top.
const (
	messageFramingTokens = 4
	toolFramingTokens    = 6
)

// EstimateTokens returns a conservative estimate of token count for a piece of text.
//
// We intentionally over-estimate a bit so truncation triggers early rather than late.
// This is not a tokenizer; it is only used for safety thresholds.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Most BPE tokenizers end up around ~3-4 chars/token for English-ish text.
	// Using bytes/3 is a decent conservative bound, and we also bound by runes/2
	// to avoid undercounting for mostly-ASCII short tokens.
	b := len(text)
	r := utf8.RuneCountInString(text)
	byBytes := b / 3
	byRunes := r / 2
	if byBytes < byRunes {
		return byRunes
	}
	return byBytes
}

// EstimateMessage estimates the wire cost of a single message, framing
// included. Always positive, so appending any message grows the total.
func EstimateMessage(msg Message) int {
	framing := messageFramingTokens
	if msg.Role == RoleTool {
		framing = toolFramingTokens
	}
	total := framing + EstimateTokens(msg.Content)
	for _, call := range msg.ToolCalls {
		total += 2 + EstimateTokens(call.Name) + EstimateTokens(string(call.Arguments))
	}
	return total
}

// EstimateHistory estimates the whole history and breaks the total down per role.
func EstimateHistory(history []Message) (int, map[string]int) {
	perRole := make(map[string]int, 4)
	total := 0
	for _, msg := range history {
		n := EstimateMessage(msg)
		total += n
		perRole[msg.Role] += n
	}
	return total, perRole
}
