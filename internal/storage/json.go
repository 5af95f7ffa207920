// Package storage persists the address book on disk and converts it to and
// from vCard.
//
// The JSON file is one object keyed by person name. Each value is a list of
// [title, value] pairs:
//
//	{
//	  "Ivan Petrov": [
//	    [
//	      "Phone",
//	      "777-77-77"
//	    ]
//	  ]
//	}
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/config"
)

const jsonIndent = "  "

// LoadJSON reads the address book file at path.
// A missing file yields an empty book. Object key order is preserved.
func LoadJSON(path string) ([]book.Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info(config.MsgBookMissing,
			config.LogKeyComponent, config.CompStorage,
			config.LogKeyFile, path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrBookLoad, err)
	}

	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrBookDecode, err)
	}

	slog.Info(config.MsgBookLoaded,
		config.LogKeyComponent, config.CompStorage,
		config.LogKeyFile, path,
		config.LogKeyTotal, len(entries))
	return entries, nil
}

// decodeEntries walks the top-level object token by token so that the
// entries come back in file order.
func decodeEntries(data []byte) ([]book.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var entries []book.Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var raw [][]string
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("record %q: %w", name, err)
		}
		pairs := make([]book.Pair, 0, len(raw))
		for _, p := range raw {
			if len(p) != 2 {
				return nil, fmt.Errorf("record %q: pair %v is not [title, value]", name, p)
			}
			pairs = append(pairs, book.Pair{Title: p[0], Value: p[1]})
		}
		entries = append(entries, book.Entry{Name: name, Pairs: pairs})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return entries, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// SaveJSON writes entries to path atomically.
// Pairs of each record are ordered by title, descending; pairs with the same
// title keep their relative order.
func SaveJSON(path string, entries []book.Entry) error {
	data, err := EncodeJSON(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrBookSave, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%s: %w", config.ErrBookSave, err)
	}

	slog.Info(config.MsgBookSaved,
		config.LogKeyComponent, config.CompStorage,
		config.LogKeyFile, path,
		config.LogKeyTotal, len(entries),
		config.LogKeySizeBytes, len(data))
	return nil
}

// EncodeJSON renders entries in the address book file format.
func EncodeJSON(entries []book.Entry) ([]byte, error) {
	var compact bytes.Buffer
	enc := json.NewEncoder(&compact)
	enc.SetEscapeHTML(false)

	compact.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			compact.WriteByte(',')
		}
		if err := enc.Encode(e.Name); err != nil {
			return nil, err
		}
		compact.WriteByte(':')
		if err := enc.Encode(sortedPairs(e.Pairs)); err != nil {
			return nil, err
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", jsonIndent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func sortedPairs(pairs []book.Pair) [][]string {
	sorted := slices.Clone(pairs)
	slices.SortStableFunc(sorted, func(a, b book.Pair) int {
		return strings.Compare(b.Title, a.Title)
	})
	out := make([][]string, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, []string{p.Title, p.Value})
	}
	return out
}

// writeFileAtomic writes data to a temp file next to path and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(config.FilePermUserRW); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
