package app

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// diffHunk is one "@@ -a,b +c,d @@" block of a unified diff.
type diffHunk struct {
	oldStart int
	oldCount int
	body     []string
}

var hunkHeaderRE = regexp.MustCompile(`^@@\s+\-(\d+)(?:,(\d+))?\s+\+(\d+)(?:,(\d+))?\s+@@`)

const noNewlineMarker = `\ No newline at end of file`

// parseDiffHunks extracts the hunks from a unified diff, ignoring file
// headers and other metadata lines.
func parseDiffHunks(patch string) ([]diffHunk, error) {
	lines := strings.Split(strings.ReplaceAll(patch, "\r\n", "\n"), "\n")

	var hunks []diffHunk
	current := -1
	for _, line := range lines {
		if m := hunkHeaderRE.FindStringSubmatch(line); len(m) > 0 {
			oldStart, _ := strconv.Atoi(m[1])
			oldCount := 1
			if m[2] != "" {
				oldCount, _ = strconv.Atoi(m[2])
			}
			hunks = append(hunks, diffHunk{oldStart: oldStart, oldCount: oldCount})
			current = len(hunks) - 1
			continue
		}
		if current < 0 || line == "" {
			continue
		}
		switch line[0] {
		case ' ', '+', '-', '\\':
			hunks[current].body = append(hunks[current].body, line)
		}
	}

	if len(hunks) == 0 {
		return nil, fmt.Errorf("no unified diff hunks found")
	}
	return hunks, nil
}

// applyDiffHunk splices one hunk into fileLines at the given offset and
// returns the updated lines, the line-count delta, and the EOF-newline
// directive carried by the hunk (nil when the hunk says nothing about it).
func applyDiffHunk(fileLines []string, h diffHunk, offset int) ([]string, int, *bool, error) {
	if h.oldStart <= 0 {
		return nil, 0, nil, fmt.Errorf("invalid hunk header: oldStart=%d", h.oldStart)
	}
	idx := (h.oldStart - 1) + offset
	if idx < 0 || idx > len(fileLines) {
		return nil, 0, nil, fmt.Errorf("hunk out of range: oldStart=%d (idx=%d) len=%d", h.oldStart, idx, len(fileLines))
	}

	var eofNoNewline *bool
	pos := idx
	var replacement []string
	for i, bodyLine := range h.body {
		markerNext := i+1 < len(h.body) && strings.HasPrefix(h.body[i+1], noNewlineMarker)
		text := bodyLine[1:]
		switch bodyLine[0] {
		case ' ':
			if pos >= len(fileLines) || fileLines[pos] != text {
				return nil, 0, nil, fmt.Errorf("patch context mismatch at line %d", pos+1)
			}
			replacement = append(replacement, fileLines[pos])
			pos++
			if markerNext {
				v := true
				eofNoNewline = &v
			}
		case '-':
			if pos >= len(fileLines) || fileLines[pos] != text {
				return nil, 0, nil, fmt.Errorf("patch delete mismatch at line %d", pos+1)
			}
			pos++
			if markerNext {
				v := false
				eofNoNewline = &v
			}
		case '+':
			replacement = append(replacement, text)
			if markerNext {
				v := true
				eofNoNewline = &v
			} else if eofNoNewline != nil {
				// The marker applied to a removed line; the new side restores
				// the trailing newline.
				v := false
				eofNoNewline = &v
			}
		case '\\':
			// The marker line itself; handled via lookahead.
		default:
			return nil, 0, nil, fmt.Errorf("unexpected patch line prefix: %q", string(bodyLine[0]))
		}
	}

	consumed := pos - idx
	if h.oldCount > 0 && consumed != h.oldCount {
		return nil, 0, nil, fmt.Errorf("hunk count mismatch: expected %d old lines, consumed %d", h.oldCount, consumed)
	}

	updated := make([]string, 0, len(fileLines)-consumed+len(replacement))
	updated = append(updated, fileLines[:idx]...)
	updated = append(updated, replacement...)
	updated = append(updated, fileLines[pos:]...)
	return updated, len(replacement) - consumed, eofNoNewline, nil
}

// ApplyUnifiedPatch applies a unified diff to oldContent and returns the new
// content. Like ApplySnippetPatch it never writes storage; a context or count
// mismatch is returned as an error with the content untouched.
func ApplyUnifiedPatch(oldContent string, patch string) (string, error) {
	oldContent = strings.ReplaceAll(oldContent, "\r\n", "\n")
	hadTrailingNewline := strings.HasSuffix(oldContent, "\n")
	oldContent = strings.TrimSuffix(oldContent, "\n")

	var fileLines []string
	if oldContent != "" || hadTrailingNewline {
		fileLines = strings.Split(oldContent, "\n")
	}

	hunks, err := parseDiffHunks(patch)
	if err != nil {
		return "", err
	}

	offset := 0
	var eofNoNewline *bool
	for _, h := range hunks {
		var delta int
		var directive *bool
		fileLines, delta, directive, err = applyDiffHunk(fileLines, h, offset)
		if err != nil {
			return "", err
		}
		offset += delta
		if directive != nil {
			eofNoNewline = directive
		}
	}

	out := strings.Join(fileLines, "\n")
	switch {
	case eofNoNewline != nil && !*eofNoNewline:
		out += "\n"
	case eofNoNewline == nil && hadTrailingNewline:
		out += "\n"
	}
	return out, nil
}
