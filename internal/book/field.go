package book

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/tartampluch/notabene/internal/config"
)

// Kind identifies a field variant.
type Kind int

const (
	KindPhone Kind = iota
	KindBirthday
	KindAddress
	KindComment
)

// kindSpec is the per-variant behavior table.
type kindSpec struct {
	title  string
	order  int
	unique bool
	// normalize must be pure and idempotent.
	normalize func(raw string) string
	// verify receives a normalized value.
	verify func(value string) error
	report func(value string, now time.Time) string
}

var kindSpecs = map[Kind]kindSpec{
	KindPhone: {
		title:     config.TitlePhone,
		order:     config.OrderPhone,
		normalize: normalizePhone,
		verify:    verifyPhone,
		report:    plainReport,
	},
	KindBirthday: {
		title:     config.TitleBirthday,
		order:     config.OrderBirthday,
		unique:    true,
		normalize: normalizeBirthday,
		verify:    verifyBirthday,
		report:    birthdayReport,
	},
	KindAddress: {
		title:     config.TitleAddress,
		order:     config.OrderAddress,
		normalize: collapseSpaces,
		verify:    acceptAny,
		report:    plainReport,
	},
	KindComment: {
		title:     config.TitleComment,
		order:     config.OrderComment,
		normalize: func(raw string) string { return raw },
		verify:    acceptAny,
		report:    plainReport,
	},
}

// registryOrder is the order in which titles are offered to the command layer.
var registryOrder = []Kind{KindPhone, KindBirthday, KindAddress, KindComment}

// LookupKind finds a kind by its title, ignoring case.
func LookupKind(title string) (Kind, bool) {
	for _, k := range registryOrder {
		if strings.EqualFold(kindSpecs[k].title, title) {
			return k, true
		}
	}
	return 0, false
}

func (k Kind) Title() string  { return kindSpecs[k].title }
func (k Kind) Order() int     { return kindSpecs[k].order }
func (k Kind) IsUnique() bool { return kindSpecs[k].unique }
func (k Kind) String() string { return k.Title() }

// Normalize applies the kind's normalization to raw.
func (k Kind) Normalize(raw string) string {
	return kindSpecs[k].normalize(raw)
}

// Field is one typed value of a Record.
type Field struct {
	kind  Kind
	value string
}

// NewField builds a field of the given kind. An empty raw value produces an
// empty field without validation; any other value must pass verification.
func NewField(kind Kind, raw string) (*Field, error) {
	spec := kindSpecs[kind]
	f := &Field{kind: kind, value: spec.normalize(raw)}
	if raw == "" {
		return f, nil
	}
	if err := spec.verify(f.value); err != nil {
		return nil, err
	}
	return f, nil
}

// NewBirthday builds a Birthday field from a native date.
func NewBirthday(t time.Time) *Field {
	return &Field{kind: KindBirthday, value: t.Format(config.BirthdayLayout)}
}

// Set normalizes and verifies raw, then stores it.
// The field is left untouched when verification fails.
func (f *Field) Set(raw string) error {
	spec := kindSpecs[f.kind]
	value := spec.normalize(raw)
	if err := spec.verify(value); err != nil {
		return err
	}
	f.value = value
	return nil
}

func (f *Field) Kind() Kind     { return f.kind }
func (f *Field) Value() string  { return f.value }
func (f *Field) Title() string  { return f.kind.Title() }
func (f *Field) Order() int     { return f.kind.Order() }
func (f *Field) IsUnique() bool { return f.kind.IsUnique() }
func (f *Field) String() string { return f.value }

// Equal compares the field with a raw value. Phones compare by digit
// containment, every other kind by case-insensitive normalized text.
func (f *Field) Equal(raw string) bool {
	if f.kind == KindPhone {
		return phoneDigitsOverlap(f.value, raw)
	}
	return strings.EqualFold(f.value, f.kind.Normalize(raw))
}

// IsSimilar reports whether raw loosely designates this field's value.
func (f *Field) IsSimilar(raw string) bool {
	return f.Equal(raw)
}

// Report renders the value for display.
func (f *Field) Report(now time.Time) string {
	return kindSpecs[f.kind].report(f.value, now)
}

// BirthDate parses a Birthday field. ok is false for other kinds and for an empty birthday.
func (f *Field) BirthDate() (t time.Time, ok bool) {
	if f.kind != KindBirthday || f.value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(config.BirthdayLayout, f.value)
	return t, err == nil
}

// DaysToBirthday returns the days left until the next occurrence of the birthday.
func (f *Field) DaysToBirthday(now time.Time) (int, bool) {
	t, ok := f.BirthDate()
	if !ok {
		return 0, false
	}
	return DaysUntil(now, t), true
}

// -----------------------------------------------------------------------------
// Phone
// -----------------------------------------------------------------------------

// Optional country code, optional area code (bare or in parens), then three
// groups of 1-3 digits joined by optional hyphens.
var phonePattern = regexp.MustCompile(
	`(?:\+\d{1,3})?\s*(?:\(\d{2,5}\)|\d{2,5})?` +
		`\s*\d{1,3}(?:\s*-)?\s*\d{1,3}(?:\s*-)?\s*\d{1,3}`)

var phoneHyphenSpaces = strings.NewReplacer(" - ", "-", " -", "-", "- ", "-")

func normalizePhone(raw string) string {
	return phoneHyphenSpaces.Replace(collapseSpaces(raw))
}

func verifyPhone(phone string) error {
	loc := phonePattern.FindStringIndex(phone)
	if loc == nil {
		return newError(ScopePhone, ErrValidation, "incorrect number '%s'", phone)
	}
	if loc[0] != 0 {
		return newError(ScopePhone, ErrValidation, "extra symbol(s) '%s' in the start", phone[:loc[0]])
	}
	if loc[1] != len(phone) {
		return newError(ScopePhone, ErrValidation, "extra symbol(s) '%s' in the end", phone[loc[1]:])
	}
	if len(phoneDigits(phone)) < config.MinPhoneDigits {
		return newError(ScopePhone, ErrValidation, "number '%s' is very short to be correct", phone)
	}
	return nil
}

func phoneDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// phoneDigitsOverlap reports whether the digits of one number contain the other's.
// A side without digits never matches.
func phoneDigitsOverlap(a, b string) bool {
	da, db := phoneDigits(a), phoneDigits(b)
	if da == "" || db == "" {
		return false
	}
	return strings.Contains(da, db) || strings.Contains(db, da)
}

// -----------------------------------------------------------------------------
// Birthday
// -----------------------------------------------------------------------------

func parseBirthday(s string) (time.Time, error) {
	t, err := time.Parse(config.BirthdayLong, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(config.BirthdayShort, s)
}

// normalizeBirthday drops all whitespace and rewrites parsable dates as dd.mm.yyyy.
// Unparsable input is returned stripped so that verification can reject it.
func normalizeBirthday(raw string) string {
	s := strings.Join(strings.Fields(raw), "")
	if s == "" {
		return ""
	}
	t, err := parseBirthday(s)
	if err != nil {
		return s
	}
	return t.Format(config.BirthdayLayout)
}

func verifyBirthday(value string) error {
	if value == "" {
		return nil
	}
	if len(value) > config.MaxBirthdayLen {
		return newError(ScopeBirthday, ErrValidation, "wrong value '%s'", value)
	}
	if _, err := time.Parse(config.BirthdayLayout, value); err != nil {
		return newError(ScopeBirthday, ErrValidation, "wrong value '%s'", value)
	}
	return nil
}

func birthdayReport(value string, now time.Time) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(config.BirthdayLayout, value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%s (+%d days left)", value, DaysUntil(now, t))
}

// -----------------------------------------------------------------------------
// Shared helpers
// -----------------------------------------------------------------------------

func collapseSpaces(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func acceptAny(string) error { return nil }

func plainReport(value string, _ time.Time) string { return value }
