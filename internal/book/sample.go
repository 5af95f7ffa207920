package book

import (
	"regexp"
	"strings"
)

// SampleToRegexp converts a shell-like sample into regular expression syntax:
// '*' matches any run of characters, '?' any single character, '[...]' is kept
// as a character class, and literal '+', '(', ')', '|' are escaped.
// A backslash keeps the next character as is.
func SampleToRegexp(sample string) string {
	var b strings.Builder
	escaped := false
	for _, r := range sample {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			b.WriteRune(r)
			escaped = true
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '+', '(', ')', '|':
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CompileSample builds the case-insensitive multi-line matcher for a sample.
func CompileSample(sample string) (*regexp.Regexp, error) {
	rex, err := regexp.Compile("(?im)" + SampleToRegexp(sample))
	if err != nil {
		return nil, newError(ScopeAddressBook, ErrBadPattern, "error sample in metasymbols")
	}
	return rex, nil
}
