package book

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Entry is a serializable record: a name and its field pairs.
type Entry struct {
	Name  string
	Pairs []Pair
}

// AddressBook is a name-keyed collection of records.
// Names keep the order in which they were first stored.
// It is not safe for concurrent use.
type AddressBook struct {
	Clock Clock

	records  map[string]*Record
	names    []string
	modified bool
}

// New returns an empty, unmodified address book.
func New(clock Clock) *AddressBook {
	if clock == nil {
		clock = RealClock{}
	}
	return &AddressBook{
		Clock:   clock,
		records: make(map[string]*Record),
	}
}

// Load builds an unmodified address book from persisted entries.
func Load(clock Clock, entries []Entry) (*AddressBook, error) {
	ab := New(clock)
	if err := ab.SetAll(entries); err != nil {
		return nil, err
	}
	ab.modified = false
	return ab, nil
}

// SetAll replaces the whole content. On error the book is left unchanged.
func (ab *AddressBook) SetAll(entries []Entry) error {
	records := make(map[string]*Record, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name, err := checkedName(e.Name)
		if err != nil {
			return err
		}
		rec, err := NewRecord(e.Pairs)
		if err != nil {
			return err
		}
		if _, dup := records[name]; !dup {
			names = append(names, name)
		}
		records[name] = rec
	}
	ab.records = records
	ab.names = names
	ab.modified = true
	return nil
}

func checkedName(name string) (string, error) {
	name = NormalizeName(name)
	if err := VerifyName(name); err != nil {
		return "", err
	}
	return name, nil
}

// SetFromPairs creates or replaces the record stored under name.
// It returns the normalized name.
func (ab *AddressBook) SetFromPairs(name string, pairs []Pair) (string, error) {
	name, err := checkedName(name)
	if err != nil {
		return "", err
	}
	rec, err := NewRecord(pairs)
	if err != nil {
		return "", err
	}
	ab.put(name, rec)
	return name, nil
}

// SetFromRecord stores rec under name. It returns the normalized name.
func (ab *AddressBook) SetFromRecord(name string, rec *Record) (string, error) {
	name, err := checkedName(name)
	if err != nil {
		return "", err
	}
	if rec == nil {
		rec = &Record{}
	}
	ab.put(name, rec)
	return name, nil
}

func (ab *AddressBook) put(name string, rec *Record) {
	if _, ok := ab.records[name]; !ok {
		ab.names = append(ab.names, name)
	}
	ab.records[name] = rec
	ab.modified = true
}

// RenameTo moves the record stored under oldName to newName and returns the
// normalized new name. Reordering the words of a name is always allowed;
// otherwise newName must not equal another name by word combination.
func (ab *AddressBook) RenameTo(oldName, newName string) (string, error) {
	rec, ok := ab.records[oldName]
	if !ok {
		return "", newError(ScopeAddressBook, ErrUnknownName, "no such name '%s'", oldName)
	}
	newName, err := checkedName(newName)
	if err != nil {
		return "", err
	}
	if newName == oldName {
		return oldName, nil
	}
	if ab.Has(newName) || !EqualByCombination(oldName, newName) && ab.IsAnyEqualByCombination(newName) {
		return "", newError(ScopeAddressBook, ErrNameCollision, "name %s already exist", newName)
	}
	ab.remove(oldName)
	ab.put(newName, rec)
	return newName, nil
}

// Get returns the record stored under name.
func (ab *AddressBook) Get(name string) (*Record, bool) {
	rec, ok := ab.records[name]
	return rec, ok
}

// Has reports whether name is a key of the book.
func (ab *AddressBook) Has(name string) bool {
	_, ok := ab.records[name]
	return ok
}

// Delete removes the record stored under name.
func (ab *AddressBook) Delete(name string) bool {
	if !ab.remove(name) {
		return false
	}
	ab.modified = true
	return true
}

func (ab *AddressBook) remove(name string) bool {
	if _, ok := ab.records[name]; !ok {
		return false
	}
	delete(ab.records, name)
	ab.names = slices.DeleteFunc(ab.names, func(n string) bool { return n == name })
	return true
}

// Names returns all names in storage order.
func (ab *AddressBook) Names() []string {
	return slices.Clone(ab.names)
}

// Len returns the number of records.
func (ab *AddressBook) Len() int {
	return len(ab.names)
}

// IsModified reports whether the book changed since it was loaded or saved.
func (ab *AddressBook) IsModified() bool {
	return ab.modified
}

// MarkModified flags the book as changed. Used after in-place record edits.
func (ab *AddressBook) MarkModified() {
	ab.modified = true
}

// MarkSaved clears the modified flag.
func (ab *AddressBook) MarkSaved() {
	ab.modified = false
}

// GetSimilar returns the names similar to name, in storage order.
func (ab *AddressBook) GetSimilar(name string) []string {
	name = NormalizeName(name)
	var out []string
	for _, key := range ab.names {
		if IsSimilar(key, name) {
			out = append(out, key)
		}
	}
	return out
}

// IsAnyEqualByCombination reports whether some stored name equals name by word combination.
func (ab *AddressBook) IsAnyEqualByCombination(name string) bool {
	name = NormalizeName(name)
	return slices.ContainsFunc(ab.names, func(key string) bool {
		return EqualByCombination(key, name)
	})
}

// Report renders the records of names (all of them when names is nil),
// numbering them from start. Unknown names are skipped.
//
//	#1 Name: Ivan Petrov
//	   Phone: 777-77-77
func (ab *AddressBook) Report(names []string, start int) string {
	if names == nil {
		names = ab.names
	}
	now := ab.now()
	width := len(strconv.Itoa(len(names) + start - 1))
	indent := width + len("# ")

	blocks := make([]string, 0, len(names))
	for i, name := range names {
		rec, ok := ab.records[name]
		if !ok {
			continue
		}
		block := fmt.Sprintf("#%*d Name: %s", width, start+i, name)
		if body := rec.Report(indent, now); body != "" {
			block += "\n" + body
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

// IterBySample yields the names (all of them when names is nil) whose
// rendered report matches sample. Each name is rendered with its position in
// names as index. The sequence re-scans the book every time it is ranged over.
func (ab *AddressBook) IterBySample(sample string, names []string) (iter.Seq[string], error) {
	rex, err := CompileSample(sample)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		scope := names
		if scope == nil {
			scope = ab.Names()
		}
		for i, name := range scope {
			if !ab.Has(name) {
				continue
			}
			if rex.MatchString(ab.Report([]string{name}, i+1)) && !yield(name) {
				return
			}
		}
	}, nil
}

// Entries returns the content in storage order, pairs in insertion order.
func (ab *AddressBook) Entries() []Entry {
	entries := make([]Entry, 0, len(ab.names))
	for _, name := range ab.names {
		entries = append(entries, Entry{Name: name, Pairs: ab.records[name].Pairs()})
	}
	return entries
}

func (ab *AddressBook) now() time.Time {
	return ab.Clock.Now()
}
