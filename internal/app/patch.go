package app

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAmbiguousMatch means the original snippet occurs more than once and
	// the engine refuses to guess which occurrence was meant.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrNoMatchFound means neither an exact nor an acceptable approximate
	// location for the original snippet exists.
	ErrNoMatchFound = errors.New("no match found")
)

// PatchResult carries the rewritten content. Approximate is set when the
// replacement landed via the fuzzy matcher rather than an exact occurrence,
// so callers can log or ask for confirmation before persisting.
type PatchResult struct {
	Content     string
	Approximate bool
	Score       float64
}

// ApplySnippetPatch replaces oldSnippet with newSnippet in content.
//
// An exact, case-sensitive occurrence always wins: exactly one occurrence is
// replaced, two or more fail with ErrAmbiguousMatch and the content is left
// untouched. Only when no exact occurrence exists and fuzzyEnabled is set
// does the snippet matcher look for an approximate region; its best match is
// used iff it scores at least minScore. Persistence is the caller's job;
// this never touches storage.
func ApplySnippetPatch(content, oldSnippet, newSnippet string, fuzzyEnabled bool, minScore float64) (PatchResult, error) {
	if oldSnippet == "" {
		return PatchResult{}, fmt.Errorf("%w: empty original snippet", ErrNoMatchFound)
	}

	if idx := strings.Index(content, oldSnippet); idx >= 0 {
		// Search from idx+1 so overlapping occurrences count too.
		if strings.Index(content[idx+1:], oldSnippet) >= 0 {
			return PatchResult{}, fmt.Errorf("%w: snippet occurs more than once, provide more surrounding context", ErrAmbiguousMatch)
		}
		return PatchResult{
			Content: content[:idx] + newSnippet + content[idx+len(oldSnippet):],
			Score:   1,
		}, nil
	}

	if fuzzyEnabled {
		if m, ok := bestSnippetMatch(content, oldSnippet, minScore); ok {
			return PatchResult{
				Content:     content[:m.start] + newSnippet + content[m.end:],
				Approximate: true,
				Score:       m.score,
			}, nil
		}
	}

	return PatchResult{}, fmt.Errorf("%w: snippet not present in target content", ErrNoMatchFound)
}
