// ABOUTME: Message normalization and similarity scoring for repeat detection.
// ABOUTME: Strips legacy color codes and compares messages by Levenshtein distance.

package filter

import (
	"regexp"
	"strings"
)

var (
	ampCodeRe    = regexp.MustCompile(`(?i)&[0-9a-fk-orx]`)
	sectionRe    = regexp.MustCompile(`(?i)§[0-9a-fk-orx]`)
	ampHexRe     = regexp.MustCompile(`(?i)&#[0-9a-f]{6}`)
	bareHexRe    = regexp.MustCompile(`(?i)#[0-9a-f]{6}`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize reduces a raw chat message to a canonical form for repeat
// comparison: lowercased, legacy color codes stripped, punctuation collapsed
// to single spaces, whitespace runs collapsed, trimmed.
func Normalize(input string) string {
	lower := strings.ToLower(input)
	lower = ampCodeRe.ReplaceAllString(lower, "")
	lower = sectionRe.ReplaceAllString(lower, "")
	lower = ampHexRe.ReplaceAllString(lower, "")
	lower = bareHexRe.ReplaceAllString(lower, "")
	lower = nonAlnumRe.ReplaceAllString(lower, " ")
	lower = whitespaceRe.ReplaceAllString(lower, " ")
	return strings.TrimSpace(lower)
}

// similarity returns 1 - editDistance/maxLen in [0,1]. Equal strings score
// 1.0; an empty operand scores 0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes the classic single-character-edit distance using the
// two-row dynamic programming formulation.
func levenshtein(a, b string) int {
	n, m := len(a), len(b)
	prev := make([]int, m+1)
	curr := make([]int, m+1)

	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		ca := a[i-1]
		for j := 1; j <= m; j++ {
			cost := 1
			if ca == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[m]
}
