package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/notabene/internal/config"
	"github.com/tartampluch/notabene/internal/storage"
)

const seededBook = `{
  "Ivan Petrov": [
    ["Phone", "777-77-99"],
    ["Birthday", "16.06.1990"]
  ]
}`

const importedCards = "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Olena Kovalenko\r\nTEL:777-12-34\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:4.0\r\nFN:R2D2\r\nEND:VCARD\r\n"

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// execute runs the CLI against an isolated home, cache and settings directory.
func execute(t *testing.T, dataFile string, args ...string) (string, error) {
	t.Helper()
	return executeApp(t, &app{}, dataFile, args...)
}

func executeApp(t *testing.T, a *app, dataFile string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)
	t.Setenv("HOME", dir)
	t.Cleanup(a.close)

	cmd := newRootCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--"+config.FlagFile, dataFile))
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.abo")
	require.NoError(t, os.WriteFile(path, []byte(seededBook), config.FilePermUserRW))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", config.CmdUseVersion)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, config.AppName+" version "+config.Version))
}

func TestExportCmd(t *testing.T) {
	path := seed(t)

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, path, config.CmdUseExport)
		require.NoError(t, err)
		assert.Contains(t, out, `"Ivan Petrov": [`)
		assert.Contains(t, out, `"777-77-99"`)
	})

	t.Run("vcf to file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "book.vcf")
		_, err := execute(t, path, config.CmdUseExport, "--"+config.FlagFormat, config.ExportFormatVCF, "-o", target)
		require.NoError(t, err)

		content, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(content), "FN:Ivan Petrov")
		assert.Contains(t, string(content), "BDAY:19900616")
	})

	t.Run("ics", func(t *testing.T) {
		out, err := execute(t, path, config.CmdUseExport, "--"+config.FlagFormat, config.ExportFormatICS)
		require.NoError(t, err)
		assert.Contains(t, out, "BEGIN:VCALENDAR")
		assert.Contains(t, out, "Ivan Petrov")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, path, config.CmdUseExport, "--"+config.FlagFormat, "xml")
		assert.ErrorContains(t, err, config.ErrUnknownFormat)
	})
}

func TestImportCmd(t *testing.T) {
	path := seed(t)
	cards := filepath.Join(t.TempDir(), "contacts.vcf")
	require.NoError(t, os.WriteFile(cards, []byte(importedCards), config.FilePermUserRW))

	out, err := execute(t, path, "import", cards)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 contact(s)")

	entries, err := storage.LoadJSON(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Ivan Petrov", entries[0].Name)
	assert.Equal(t, "Olena Kovalenko", entries[1].Name)
}

func TestImportCmd_MissingSource(t *testing.T) {
	_, err := execute(t, seed(t), "import", filepath.Join(t.TempDir(), "absent.vcf"))
	assert.ErrorContains(t, err, config.ErrOpenSource)
}

func TestBirthdaysCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.abo")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "Ivan Petrov": [["Phone", "777-77-99"], ["Birthday", "16.06.1990"]],
  "Taras Shevchenko": [["Birthday", "01.01.1980"]],
  "Olena Kovalenko": [["Birthday", "15.06.2000"]],
  "Petro": []
}`), config.FilePermUserRW))
	clock := MockClock{CurrentTime: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}

	t.Run("all", func(t *testing.T) {
		out, err := executeApp(t, &app{clock: clock}, path, config.CmdUseBdays)
		require.NoError(t, err)
		assert.Equal(t, "15.06.2025  Olena Kovalenko turns 25 in 0 day(s)\n"+
			"16.06.2025  Ivan Petrov turns 35 in 1 day(s)\n"+
			"01.01.2026  Taras Shevchenko turns 46 in 200 day(s)\n"+
			"Birthdays today: 1\n", out)
	})

	t.Run("within days", func(t *testing.T) {
		out, err := executeApp(t, &app{clock: clock}, path, config.CmdUseBdays, "--"+config.FlagDays, "7")
		require.NoError(t, err)
		assert.Contains(t, out, "Ivan Petrov turns 35 in 1 day(s)")
		assert.NotContains(t, out, "Taras Shevchenko")
		assert.Contains(t, out, "Birthdays today: 1")
	})

	t.Run("no birthdays", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.abo")
		require.NoError(t, os.WriteFile(empty, []byte(`{"Petro": []}`), config.FilePermUserRW))

		out, err := executeApp(t, &app{clock: clock}, empty, config.CmdUseBdays)
		require.NoError(t, err)
		assert.Equal(t, "Birthdays today: 0\n", out)
	})
}
