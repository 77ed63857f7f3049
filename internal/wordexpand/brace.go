package wordexpand

import (
	"strconv"
	"strings"
)

// ExpandBraces implements spec.md §4's brace-expansion helper: an adjacent
// syntactic step, not part of word evaluation. It accepts nested
// "{a,b,{c,d}}" alternatives and "{m..n}" ranges where both endpoints share
// the integer or single-character shape; anything else inside a
// single-element, non-range "{...}" is passed through unwrapped rather than
// expanded — per spec.md §8's own pinned example, `"{1..10x}"` produces
// `"1..10x"`, not the braces kept intact.
//
// The result order is deterministic: left-to-right textual appearance, never
// map/dict iteration order (spec.md §7 calls this out explicitly).
func ExpandBraces(s string) []string {
	open, close, ok := findBraceSpan(s)
	if !ok {
		return []string{s}
	}

	prefix := s[:open]
	middle := s[open+1 : close]
	suffix := s[close+1:]

	parts := splitTopLevel(middle)

	var altResults []string
	if len(parts) > 1 {
		for _, p := range parts {
			altResults = append(altResults, ExpandBraces(p)...)
		}
	} else {
		if values, ok := expandRange(parts[0]); ok {
			altResults = values
		} else {
			altResults = ExpandBraces(parts[0])
		}
	}

	suffixResults := ExpandBraces(suffix)

	results := make([]string, 0, len(altResults)*len(suffixResults))
	for _, a := range altResults {
		for _, s2 := range suffixResults {
			results = append(results, prefix+a+s2)
		}
	}
	return results
}

// findBraceSpan locates the first top-level "{...}" pair in s. An unmatched
// "{" (no corresponding "}") means s has no brace construct to expand at
// all, reported via ok=false.
func findBraceSpan(s string) (open, close int, ok bool) {
	open = strings.IndexByte(s, '{')
	if open < 0 {
		return 0, 0, false
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return open, i, true
			}
		}
	}
	return 0, 0, false
}

// splitTopLevel splits s on commas that aren't nested inside a brace pair.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// expandRange recognizes "m..n" where m and n are both integers, or both
// single characters, and produces the inclusive sequence between them
// (descending when m > n). Anything else — mismatched shapes, a missing
// "..", a non-integer trailing suffix like "10x" — is reported as not a
// range at all.
func expandRange(s string) ([]string, bool) {
	sep := strings.Index(s, "..")
	if sep < 0 {
		return nil, false
	}
	lo, hi := s[:sep], s[sep+2:]

	if loN, err1 := strconv.Atoi(lo); err1 == nil {
		if hiN, err2 := strconv.Atoi(hi); err2 == nil {
			return intRange(loN, hiN), true
		}
		return nil, false
	}

	if len(lo) == 1 && len(hi) == 1 {
		return charRange(lo[0], hi[0]), true
	}

	return nil, false
}

func intRange(lo, hi int) []string {
	var out []string
	if lo <= hi {
		for i := lo; i <= hi; i++ {
			out = append(out, strconv.Itoa(i))
		}
	} else {
		for i := lo; i >= hi; i-- {
			out = append(out, strconv.Itoa(i))
		}
	}
	return out
}

func charRange(lo, hi byte) []string {
	var out []string
	if lo <= hi {
		for c := lo; c <= hi; c++ {
			out = append(out, string(rune(c)))
		}
	} else {
		for c := lo; c >= hi; c-- {
			out = append(out, string(rune(c)))
			if c == 0 {
				break
			}
		}
	}
	return out
}
