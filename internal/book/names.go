package book

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// One to three words of letters, each possibly holding inner apostrophes or
// hyphens, separated by single spaces. Left unanchored so that the offending
// prefix or suffix can be reported.
var namePattern = regexp.MustCompile(
	`\pL(?:[\pL'-]*\pL)?(?: \pL(?:[\pL'-]*\pL)?){0,2}`)

// NormalizeName trims the name and collapses inner whitespace runs to one space.
func NormalizeName(name string) string {
	return collapseSpaces(name)
}

// VerifyName checks a normalized name against the person name grammar.
func VerifyName(name string) error {
	loc := namePattern.FindStringIndex(name)
	if loc == nil {
		return newError(ScopeAddressBook, ErrInvalidName, "incorrect name '%s'", name)
	}
	if loc[0] != 0 {
		return newError(ScopeAddressBook, ErrInvalidName, "extra symbol(s) '%s' in the start", name[:loc[0]])
	}
	if loc[1] != len(name) {
		return newError(ScopeAddressBook, ErrInvalidName, "extra symbol(s) '%s' in the end", name[loc[1]:])
	}
	return nil
}

// IsSimilar is a fuzzy comparison of two normalized names.
//
// Words are paired greedily: equal words consume each other, a word containing
// another consumes the contained one. The names are similar when all words of
// at least one side were consumed, so a superset of words still matches.
// The relation is not transitive.
func IsSimilar(name1, name2 string) bool {
	words1 := strings.Split(strings.ToLower(name1), " ")
	words2 := strings.Split(strings.ToLower(name2), " ")
	used1 := make([]bool, len(words1))
	used2 := make([]bool, len(words2))

	for i, w1 := range words1 {
		for j, w2 := range words2 {
			if used2[j] {
				continue
			}
			if w1 == w2 {
				used1[i], used2[j] = true, true
				break
			}
			if strings.Contains(w1, w2) {
				used2[j] = true
				continue
			}
			if strings.Contains(w2, w1) {
				used1[i] = true
				break
			}
		}
	}
	return allTrue(used1) || allTrue(used2)
}

func allTrue(flags []bool) bool {
	for _, f := range flags {
		if !f {
			return false
		}
	}
	return true
}

// EqualByCombination reports whether two normalized names have the same length
// and every word of name1 occurs, ignoring case, among the words of name2.
func EqualByCombination(name1, name2 string) bool {
	if utf8.RuneCountInString(name1) != utf8.RuneCountInString(name2) {
		return false
	}
	words2 := strings.Split(strings.ToLower(name2), " ")
	for _, w1 := range strings.Split(strings.ToLower(name1), " ") {
		found := false
		for _, w2 := range words2 {
			if w1 == w2 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
