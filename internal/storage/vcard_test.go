package storage_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/config"
	"github.com/tartampluch/notabene/internal/storage"
)

func TestExportVCard(t *testing.T) {
	var buf bytes.Buffer
	err := storage.ExportVCard(&buf, []book.Entry{
		{Name: "Ivan Ivanovych Petrov", Pairs: []book.Pair{
			{Title: "Phone", Value: "777-77-77"},
			{Title: "Birthday", Value: "16.06.1990"},
			{Title: "Address", Value: "Lviv"},
			{Title: "Comment", Value: "friend"},
		}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCARD")
	assert.Contains(t, out, "VERSION:"+config.VCardVersion)
	assert.Contains(t, out, "FN:Ivan Ivanovych Petrov")
	assert.Contains(t, out, "N:Petrov;Ivan;Ivanovych;;")
	assert.Contains(t, out, "TEL:777-77-77")
	assert.Contains(t, out, "BDAY:19900616")
	assert.Contains(t, out, "NOTE:friend")
	assert.Contains(t, out, "UID:urn:uuid:"+storage.ContactUID("Ivan Ivanovych Petrov"))
}

func TestContactUID_Deterministic(t *testing.T) {
	assert.Equal(t, storage.ContactUID("Ivan"), storage.ContactUID("Ivan"))
	assert.NotEqual(t, storage.ContactUID("Ivan"), storage.ContactUID("Olena"))
}

func TestVCard_RoundTrip(t *testing.T) {
	entries := []book.Entry{
		{Name: "Ivan Petrov", Pairs: []book.Pair{
			{Title: "Phone", Value: "777-77-77"},
			{Title: "Phone", Value: "+38 (044) 123-45-67"},
			{Title: "Birthday", Value: "29.02.2000"},
			{Title: "Address", Value: "Lviv"},
			{Title: "Comment", Value: "friend"},
		}},
		{Name: "Olena"},
	}

	var buf bytes.Buffer
	require.NoError(t, storage.ExportVCard(&buf, entries))

	got, err := storage.ImportVCard(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ivan Petrov", got[0].Name)
	assert.ElementsMatch(t, entries[0].Pairs, got[0].Pairs)
	assert.Equal(t, "Olena", got[1].Name)
	assert.Empty(t, got[1].Pairs)
}

func TestImportVCard_SkipsInvalid(t *testing.T) {
	input := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:R2D2",
		"TEL:777-77-77",
		"END:VCARD",
		"BEGIN:VCARD",
		"VERSION:3.0",
		"N:Kovalenko;Olena;;;",
		"TEL:not a phone",
		"TEL:555-12-34",
		"BDAY:--0616",
		"END:VCARD",
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:Taras",
		"BDAY:1814-03-09",
		"END:VCARD",
		"",
	}, "\r\n")

	got, err := storage.ImportVCard(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Olena Kovalenko", got[0].Name)
	assert.Equal(t, []book.Pair{{Title: "Phone", Value: "555-12-34"}}, got[0].Pairs)

	assert.Equal(t, "Taras", got[1].Name)
	assert.Equal(t, []book.Pair{{Title: "Birthday", Value: "09.03.1814"}}, got[1].Pairs)
}

func TestImportVCard_Empty(t *testing.T) {
	got, err := storage.ImportVCard(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestImportVCard_BrokenStream(t *testing.T) {
	_, err := storage.ImportVCard(brokenReader{})
	assert.ErrorContains(t, err, config.ErrVCardParse)
	assert.ErrorContains(t, err, "connection reset")
}
