package app

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// Weights for path-mode scoring. A near-miss on the basename ("confg.py" for
// "config.py") matters far more than where the file sits in the tree.
const (
	basenameWeight = 0.7
	fullPathWeight = 0.3
)

// snippetScanMaxWindows bounds the sliding-window scan so a huge file cannot
// turn one patch attempt into a quadratic search. The scan is an
// approximation, not an exhaustive search.
const snippetScanMaxWindows = 2000

// similarity returns a normalized edit similarity in [0,1]; 1 means equal.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

type PathMatch struct {
	Path  string
	Score float64
}

// ResolvePath finds the candidate path most similar to query. Basename
// similarity dominates, ties go to the shallower path, and nothing below
// minScore is ever suggested. A candidate scoring exactly minScore is
// accepted.
func ResolvePath(query string, rootDir string, candidates []string, minScore float64) (PathMatch, bool) {
	if query == "" || len(candidates) == 0 {
		return PathMatch{}, false
	}
	queryBase := filepath.Base(query)

	// Subsequence prefilter keeps the scoring loop off obviously unrelated
	// candidates; when it matches nothing (e.g. transposed letters) fall back
	// to scoring everything.
	pool := candidates
	basenames := make([]string, len(candidates))
	for i, c := range candidates {
		basenames[i] = filepath.Base(c)
	}
	if matches := fuzzy.Find(queryBase, basenames); len(matches) > 0 {
		pool = make([]string, 0, len(matches))
		for _, m := range matches {
			pool = append(pool, candidates[m.Index])
		}
	}

	best := PathMatch{Score: -1}
	bestDepth := 0
	for _, candidate := range pool {
		score := basenameWeight*similarity(queryBase, filepath.Base(candidate)) +
			fullPathWeight*similarity(query, candidate)
		depth := pathDepth(candidate, rootDir)
		if score > best.Score || (score == best.Score && depth < bestDepth) {
			best = PathMatch{Path: candidate, Score: score}
			bestDepth = depth
		}
	}
	if best.Score < minScore {
		return PathMatch{}, false
	}
	return best, true
}

func pathDepth(path, rootDir string) int {
	if rootDir != "" {
		if rel, err := filepath.Rel(rootDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return strings.Count(filepath.ToSlash(path), "/")
}

type snippetMatch struct {
	start int
	end   int
	score float64
}

// bestSnippetMatch scans content for the region most similar to query using
// line-based windows near the query's line count. The scan strides when the
// file is large, trading exactness for a bounded cost.
func bestSnippetMatch(content, query string, minScore float64) (snippetMatch, bool) {
	if query == "" || content == "" {
		return snippetMatch{}, false
	}

	lines := strings.SplitAfter(content, "\n")
	if last := len(lines) - 1; last >= 0 && lines[last] == "" {
		lines = lines[:last]
	}
	offsets := make([]int, len(lines)+1)
	for i, line := range lines {
		offsets[i+1] = offsets[i] + len(line)
	}

	trimmedQuery := strings.TrimSuffix(query, "\n")
	queryLines := strings.Count(trimmedQuery, "\n") + 1
	sizes := []int{queryLines}
	if queryLines > 1 {
		sizes = append(sizes, queryLines-1)
	}
	sizes = append(sizes, queryLines+1)

	stride := 1
	if work := len(lines) * len(sizes); work > snippetScanMaxWindows {
		stride = work/snippetScanMaxWindows + 1
	}
	best := snippetMatch{score: -1}
	for _, size := range sizes {
		if size <= 0 || size > len(lines) {
			continue
		}
		for start := 0; start+size <= len(lines); start += stride {
			window := content[offsets[start]:offsets[start+size]]
			score := similarity(strings.TrimSuffix(window, "\n"), trimmedQuery)
			if score > best.score {
				best = snippetMatch{start: offsets[start], end: offsets[start+size], score: score}
			}
		}
	}
	if best.score < minScore {
		return snippetMatch{}, false
	}
	return best, true
}
