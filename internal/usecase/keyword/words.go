package keyword

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// wordMatcher finds case-insensitive whole-word occurrences of a term.
// Word characters are Unicode letters, digits and '_', so "café" and
// "Rivière" have boundaries where a reader expects them.
type wordMatcher struct {
	re *regexp.Regexp
}

func wholeWord(term string) wordMatcher {
	return wordMatcher{re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))}
}

// findAll returns the byte offsets of every non-overlapping whole-word match.
// A candidate that fails the boundary test resumes the scan one rune later,
// so an embedded occurrence never hides a real one that follows it.
func (m wordMatcher) findAll(s string) [][2]int {
	var out [][2]int
	for pos := 0; pos <= len(s); {
		loc := m.re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && boundary(s, start) && boundary(s, end) {
			out = append(out, [2]int{start, end})
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		if size == 0 {
			break
		}
		pos = start + size
	}
	return out
}

func (m wordMatcher) matchString(s string) bool {
	return len(m.findAll(s)) > 0
}

// boundary reports whether offset i sits between a word and a non-word rune.
func boundary(s string, i int) bool {
	var before, after bool
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
