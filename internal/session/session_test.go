package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/session"
)

type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	ab, err := book.Load(MockClock{CurrentTime: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}, []book.Entry{
		{Name: "Ivan Petrov", Pairs: []book.Pair{{Title: "Phone", Value: "777-77-99"}}},
		{Name: "Ivan Sydorenko", Pairs: []book.Pair{{Title: "Phone", Value: "557-12-34"}}},
		{Name: "Olena Kovalenko", Pairs: []book.Pair{{Title: "Phone", Value: "777-12-34"}}},
	})
	require.NoError(t, err)
	return session.New(ab)
}

func TestAll_SelectsEverything(t *testing.T) {
	s := newSession(t)
	s.Show("Olena")
	s.All()

	total, set, subset := s.Counts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, set)
	assert.Equal(t, 3, subset)
	assert.Equal(t, s.MatchSet(), s.MatchSubset())
}

func TestShow_ByName(t *testing.T) {
	s := newSession(t)
	report := s.Show("ivan")

	assert.Equal(t, []string{"Ivan Petrov", "Ivan Sydorenko"}, s.MatchSet())
	assert.Equal(t, s.MatchSet(), s.MatchSubset())
	assert.Contains(t, report, "#1 Name: Ivan Petrov")
	assert.Contains(t, report, "#2 Name: Ivan Sydorenko")
}

func TestShow_ByPhone(t *testing.T) {
	s := newSession(t)
	s.Show("12-34-5")
	assert.Empty(t, s.MatchSet())

	s.Show("12-34")
	assert.Empty(t, s.MatchSet(), "too short to be a phone, looked up as a name")

	s.Show("777-12-34")
	assert.Equal(t, []string{"Olena Kovalenko"}, s.MatchSet())

	s.Show("7-12-34")
	assert.Equal(t, []string{"Ivan Sydorenko", "Olena Kovalenko"}, s.MatchSet())
}

func TestSearch_RefinesMatchSet(t *testing.T) {
	s := newSession(t)
	s.Show("Ivan")

	require.NoError(t, s.Search("557*"))
	assert.Equal(t, []string{"Ivan Sydorenko"}, s.MatchSubset())
	assert.Len(t, s.MatchSet(), 2, "search leaves MATCH-SET alone")

	// Olena is outside MATCH-SET.
	require.NoError(t, s.Search("Olena"))
	assert.Empty(t, s.MatchSubset())
}

func TestSearch_NoMatchMakesMutationsNoOps(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Search("no such thing"))
	assert.Empty(t, s.MatchSubset())

	require.NoError(t, s.ChangeField("Phone", 1, "111-11-11"))
	s.DeleteField("Phone", 1, "")
	assert.Equal(t, 0, s.DeleteRecords())

	for _, name := range s.Book.Names() {
		rec, _ := s.Book.Get(name)
		assert.Equal(t, 1, rec.Len(), name)
	}
	assert.False(t, s.Book.IsModified())
}

func TestSearch_BadPattern(t *testing.T) {
	s := newSession(t)
	assert.ErrorIs(t, s.Search("[oops"), book.ErrBadPattern)
}

func TestAddField_ActsOnSubset(t *testing.T) {
	s := newSession(t)
	s.Show("Ivan")
	require.NoError(t, s.Search("Petrov"))

	require.NoError(t, s.AddField("Comment", "colleague"))
	rec, _ := s.Book.Get("Ivan Petrov")
	assert.Equal(t, 2, rec.Len())
	other, _ := s.Book.Get("Ivan Sydorenko")
	assert.Equal(t, 1, other.Len())
	assert.True(t, s.Book.IsModified())
}

func TestAddRecord(t *testing.T) {
	s := newSession(t)
	name, err := s.AddRecord("  Taras  Shevchenko ")
	require.NoError(t, err)
	assert.Equal(t, "Taras Shevchenko", name)
	assert.Equal(t, []string{name}, s.MatchSet())
	assert.Equal(t, []string{name}, s.MatchSubset())

	_, err = s.AddRecord("Petrov Ivan")
	assert.ErrorIs(t, err, book.ErrNameCollision)

	_, err = s.AddRecord("Agent 007")
	assert.ErrorIs(t, err, book.ErrInvalidName)
}

func TestRename(t *testing.T) {
	s := newSession(t)

	_, err := s.Rename("Taras")
	assert.ErrorIs(t, err, book.ErrAmbiguousTarget)

	_, err = s.Rename("  ")
	assert.ErrorIs(t, err, book.ErrMissingArgument)

	s.Show("Olena")
	name, err := s.Rename("Olena Shevchenko")
	require.NoError(t, err)
	assert.Equal(t, "Olena Shevchenko", name)
	assert.Equal(t, []string{"Olena Shevchenko"}, s.MatchSubset())
	assert.False(t, s.Book.Has("Olena Kovalenko"))
}

func TestRename_ToReorderedNameOfAnotherRecord(t *testing.T) {
	ab, err := book.Load(MockClock{CurrentTime: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}, []book.Entry{
		{Name: "Ivan Petrov", Pairs: []book.Pair{{Title: "Phone", Value: "111-11-11"}}},
		{Name: "Petrov Ivan", Pairs: []book.Pair{{Title: "Phone", Value: "222-22-22"}}},
	})
	require.NoError(t, err)
	s := session.New(ab)
	s.All()
	require.NoError(t, s.Search("*111*"))
	require.Equal(t, []string{"Ivan Petrov"}, s.MatchSubset())

	_, err = s.Rename("Petrov Ivan")
	assert.ErrorIs(t, err, book.ErrNameCollision)

	total, set, subset := s.Counts()
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, set)
	assert.Equal(t, 1, subset)
	assert.Equal(t, []book.Entry{
		{Name: "Ivan Petrov", Pairs: []book.Pair{{Title: "Phone", Value: "111-11-11"}}},
		{Name: "Petrov Ivan", Pairs: []book.Pair{{Title: "Phone", Value: "222-22-22"}}},
	}, ab.Entries())
	assert.False(t, ab.IsModified())
}

func TestSearch_EmptyMatchSet(t *testing.T) {
	s := newSession(t)
	s.Show("zzz")
	require.Empty(t, s.MatchSet())

	require.NoError(t, s.Search("*"))
	assert.Empty(t, s.MatchSubset())

	total, set, subset := s.Counts()
	assert.Equal(t, 3, total)
	assert.Zero(t, set)
	assert.Zero(t, subset)

	// Nothing is selected, so a field change touches no record.
	require.NoError(t, s.AddField("Comment", "everyone"))
	assert.False(t, s.Book.IsModified())
}

func TestDeleteRecords(t *testing.T) {
	s := newSession(t)
	s.Show("Ivan")
	require.NoError(t, s.Search("Petrov"))

	assert.Equal(t, 1, s.DeleteRecords())
	assert.Equal(t, []string{"Ivan Sydorenko"}, s.MatchSet())
	assert.Equal(t, s.MatchSet(), s.MatchSubset())
	assert.Equal(t, 2, s.Book.Len())
}

func TestDeleteSimilar(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, 1, s.DeleteSimilar("sydorenko"))
	assert.Equal(t, []string{"Ivan Petrov", "Olena Kovalenko"}, s.MatchSet())
}

func TestSubsetBlocks_NumberedByMatchSet(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Search("Olena"))

	blocks := s.SubsetBlocks()
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0], "#3 Name: Olena Kovalenko")
}
