// Package session holds the selection state layered over an address book.
//
// MATCH-SET is the candidate list produced by All and Show. MATCH-SUBSET is
// its refinement produced by Search and is the scope of every add, change and
// delete operation.
package session

import (
	"log/slog"
	"slices"

	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/config"
)

// Session is the state of one interactive run.
type Session struct {
	Book *book.AddressBook

	matchSet    []string
	matchSubset []string
}

// New starts a session with every name selected.
func New(ab *book.AddressBook) *Session {
	s := &Session{Book: ab}
	s.All()
	return s
}

// MatchSet returns the current MATCH-SET, dropping names no longer in the book.
func (s *Session) MatchSet() []string {
	s.matchSet = s.existing(s.matchSet)
	return slices.Clone(s.matchSet)
}

// MatchSubset returns the current MATCH-SUBSET, restricted to MATCH-SET and
// to names still in the book.
func (s *Session) MatchSubset() []string {
	set := s.MatchSet()
	s.matchSubset = slices.DeleteFunc(s.existing(s.matchSubset), func(n string) bool {
		return !slices.Contains(set, n)
	})
	return slices.Clone(s.matchSubset)
}

// Counts returns the sizes of the book, MATCH-SET and MATCH-SUBSET.
func (s *Session) Counts() (total, set, subset int) {
	return s.Book.Len(), len(s.MatchSet()), len(s.MatchSubset())
}

func (s *Session) existing(names []string) []string {
	return slices.DeleteFunc(slices.Clone(names), func(n string) bool { return !s.Book.Has(n) })
}

func (s *Session) reselect(set, subset []string) {
	s.matchSet = set
	s.matchSubset = subset
	slog.Debug(config.MsgCommand,
		config.LogKeyComponent, config.CompSession,
		config.LogKeyMatchSet, len(set),
		config.LogKeySubset, len(subset))
}

// All selects every name.
func (s *Session) All() {
	names := s.Book.Names()
	s.reselect(names, slices.Clone(names))
}

// Show selects by criterion and returns the report of the new MATCH-SET.
// A criterion that is a valid phone number selects records holding a similar
// phone; anything else selects similar names.
func (s *Session) Show(criterion string) string {
	var set []string
	if phone, err := book.NewField(book.KindPhone, criterion); err == nil && criterion != "" {
		for _, name := range s.Book.Names() {
			rec, _ := s.Book.Get(name)
			if slices.ContainsFunc(rec.Fields(book.KindPhone), func(f *book.Field) bool {
				return f.IsSimilar(phone.Value())
			}) {
				set = append(set, name)
			}
		}
	} else {
		set = s.Book.GetSimilar(criterion)
	}
	s.reselect(set, slices.Clone(set))
	return s.Book.Report(set, 1)
}

// Search refines MATCH-SET into MATCH-SUBSET with a wildcard sample.
func (s *Session) Search(sample string) error {
	set := s.MatchSet()
	if set == nil {
		set = []string{}
	}
	seq, err := s.Book.IterBySample(sample, set)
	if err != nil {
		return err
	}
	s.matchSubset = slices.Collect(seq)
	return nil
}

// SubsetBlocks renders each MATCH-SUBSET record numbered by its MATCH-SET position.
func (s *Session) SubsetBlocks() []string {
	set := s.MatchSet()
	subset := s.MatchSubset()
	blocks := make([]string, 0, len(subset))
	for _, name := range subset {
		blocks = append(blocks, s.Book.Report([]string{name}, slices.Index(set, name)+1))
	}
	return blocks
}

// AddField adds a field to every MATCH-SUBSET record.
// Records processed before a failing one keep the new field.
func (s *Session) AddField(title, value string) error {
	for _, name := range s.MatchSubset() {
		rec, _ := s.Book.Get(name)
		if err := rec.Add(book.Pair{Title: title, Value: value}); err != nil {
			return err
		}
		s.Book.MarkModified()
	}
	return nil
}

// AddRecord creates an empty record and makes it the only selected name.
func (s *Session) AddRecord(name string) (string, error) {
	if s.Book.IsAnyEqualByCombination(name) {
		return "", &book.Error{
			Scope:  book.ScopeAddressBook,
			Kind:   book.ErrNameCollision,
			Reason: "name '" + book.NormalizeName(name) + "' already exists",
		}
	}
	name, err := s.Book.SetFromPairs(name, nil)
	if err != nil {
		return "", err
	}
	s.reselect([]string{name}, []string{name})
	return name, nil
}

// ChangeField changes the n-th field titled title in every MATCH-SUBSET record.
func (s *Session) ChangeField(title string, n int, value string) error {
	for _, name := range s.MatchSubset() {
		rec, _ := s.Book.Get(name)
		if err := rec.Change(title, value, n); err != nil {
			return err
		}
		s.Book.MarkModified()
	}
	return nil
}

// Rename renames the single MATCH-SUBSET record.
func (s *Session) Rename(newName string) (string, error) {
	if book.NormalizeName(newName) == "" {
		return "", &book.Error{Scope: book.ScopeChange, Kind: book.ErrMissingArgument, Reason: "name is required"}
	}
	subset := s.MatchSubset()
	if len(subset) != 1 {
		return "", &book.Error{Scope: book.ScopeChange, Kind: book.ErrAmbiguousTarget, Reason: "select only one record to rename"}
	}
	old := subset[0]
	name, err := s.Book.RenameTo(old, newName)
	if err != nil || name == old {
		return name, err
	}
	set := slices.DeleteFunc(s.MatchSet(), func(n string) bool { return n == old })
	if !slices.Contains(set, name) {
		set = append(set, name)
	}
	s.reselect(set, []string{name})
	return name, nil
}

// DeleteField deletes fields of every MATCH-SUBSET record.
func (s *Session) DeleteField(title string, n int, value string) {
	for _, name := range s.MatchSubset() {
		rec, _ := s.Book.Get(name)
		rec.Delete(title, value, n)
		s.Book.MarkModified()
	}
}

// DeleteRecords deletes every MATCH-SUBSET record and selects the rest of MATCH-SET.
func (s *Session) DeleteRecords() int {
	return s.deleteWhere(func(string) bool { return true })
}

// DeleteSimilar deletes the MATCH-SUBSET records whose name is similar to name.
func (s *Session) DeleteSimilar(name string) int {
	name = book.NormalizeName(name)
	return s.deleteWhere(func(n string) bool { return book.IsSimilar(n, name) })
}

func (s *Session) deleteWhere(match func(string) bool) int {
	deleted := 0
	for _, name := range s.MatchSubset() {
		if match(name) && s.Book.Delete(name) {
			deleted++
		}
	}
	set := s.MatchSet()
	s.reselect(set, slices.Clone(set))
	return deleted
}
