package book

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/tartampluch/notabene/internal/config"
)

// Pair is a (title, value) couple as it appears in commands and storage.
type Pair struct {
	Title string
	Value string
}

// Record is the set of fields attached to one name.
// Fields keep their insertion order; display and addressing by occurrence
// number always use ascending field order.
type Record struct {
	fields []*Field
}

// NewRecord builds a record from pairs with the Add contract.
func NewRecord(pairs []Pair) (*Record, error) {
	r := &Record{}
	if err := r.Add(pairs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Add constructs and appends a field for each pair.
// Pairs are applied one by one: when a pair fails, the ones before it stay applied.
func (r *Record) Add(pairs ...Pair) error {
	for _, p := range pairs {
		kind, ok := LookupKind(p.Title)
		if !ok {
			return newError(ScopeRecord, ErrUnknownFieldKind, "no such field '%s'", p.Title)
		}
		f, err := NewField(kind, p.Value)
		if err != nil {
			return err
		}
		if kind.IsUnique() && r.has(kind) {
			return newError(ScopeRecord, ErrDuplicateUniqueField,
				"field %s already exist and must be unique", kind.Title())
		}
		r.fields = append(r.fields, f)
	}
	return nil
}

func (r *Record) has(kind Kind) bool {
	return slices.ContainsFunc(r.fields, func(f *Field) bool { return f.kind == kind })
}

// Sorted returns the fields by ascending order; ties keep insertion order.
func (r *Record) Sorted() []*Field {
	sorted := slices.Clone(r.fields)
	slices.SortStableFunc(sorted, func(a, b *Field) int { return cmp.Compare(a.Order(), b.Order()) })
	return sorted
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Fields returns the fields of the given kind in display order.
func (r *Record) Fields(kind Kind) []*Field {
	var out []*Field
	for _, f := range r.Sorted() {
		if f.kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Change overwrites the n-th (1-based, display order) field titled title.
// Fewer matches than n is a silent no-op; n < 1 addresses the first match.
func (r *Record) Change(title, value string, n int) error {
	if title == "" {
		return newError(ScopeRecord, ErrMissingArgument, "to change field title is required")
	}
	if value == "" {
		return newError(ScopeRecord, ErrMissingArgument, "to change a new parameter is required")
	}
	n = max(n, config.DefaultOccurNum)
	for _, f := range r.Sorted() {
		if !strings.EqualFold(f.Title(), title) {
			continue
		}
		n--
		if n == 0 {
			return f.Set(value)
		}
	}
	return nil
}

// Delete removes fields. Addressing modes:
//   - value only: every field equal to value, whatever its title;
//   - title only: the n-th (1-based, display order) field with that title;
//   - title and value: every field with that title equal to value.
//
// Nothing matching is not an error.
func (r *Record) Delete(title, value string, n int) {
	switch {
	case title == "":
		if value == "" {
			return
		}
		r.fields = slices.DeleteFunc(r.fields, func(f *Field) bool { return f.Equal(value) })
	case value == "":
		n = max(n, config.DefaultOccurNum)
		for _, f := range r.Sorted() {
			if !strings.EqualFold(f.Title(), title) {
				continue
			}
			n--
			if n == 0 {
				r.fields = slices.DeleteFunc(r.fields, func(x *Field) bool { return x == f })
				return
			}
		}
	default:
		r.fields = slices.DeleteFunc(r.fields, func(f *Field) bool {
			return strings.EqualFold(f.Title(), title) && f.Equal(value)
		})
	}
}

// Pairs returns the record content in insertion order.
func (r *Record) Pairs() []Pair {
	pairs := make([]Pair, 0, len(r.fields))
	for _, f := range r.fields {
		pairs = append(pairs, Pair{Title: f.Title(), Value: f.Value()})
	}
	return pairs
}

// Report renders one "<indent><Title>: <value>" line per field in display order.
// An empty record renders as the empty string.
func (r *Record) Report(indent int, now time.Time) string {
	if len(r.fields) == 0 {
		return ""
	}
	pad := strings.Repeat(" ", indent)
	lines := make([]string, 0, len(r.fields))
	for _, f := range r.Sorted() {
		lines = append(lines, pad+f.Title()+": "+f.Report(now))
	}
	return strings.Join(lines, "\n")
}
