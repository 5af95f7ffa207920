package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/google/uuid"
	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/config"
)

var uidNamespace = uuid.MustParse(config.UIDNamespace)

// ContactUID returns the stable identifier of a contact name.
func ContactUID(name string) string {
	return uuid.NewSHA1(uidNamespace, []byte(name)).String()
}

// ExportVCard writes one vCard 4.0 per entry.
func ExportVCard(w io.Writer, entries []book.Entry) error {
	enc := vcard.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(entryToCard(e)); err != nil {
			return fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
	}
	slog.Debug(config.MsgCardsExported,
		config.LogKeyComponent, config.CompStorage,
		config.LogKeyCount, len(entries))
	return nil
}

func entryToCard(e book.Entry) vcard.Card {
	card := make(vcard.Card)
	card.SetValue(vcard.FieldUID, config.URNUUIDPrefix+ContactUID(e.Name))
	card.SetValue(vcard.FieldFormattedName, e.Name)
	card.SetName(splitName(e.Name))

	for _, p := range e.Pairs {
		kind, ok := book.LookupKind(p.Title)
		if !ok || p.Value == "" {
			continue
		}
		switch kind {
		case book.KindPhone:
			card.AddValue(vcard.FieldTelephone, p.Value)
		case book.KindBirthday:
			if t, err := time.Parse(config.BirthdayLayout, p.Value); err == nil {
				card.SetValue(vcard.FieldBirthday, t.Format(config.DateFormatFullBasic))
			}
		case book.KindAddress:
			card.AddAddress(&vcard.Address{StreetAddress: p.Value})
		case book.KindComment:
			card.AddValue(vcard.FieldNote, p.Value)
		}
	}

	vcard.ToV4(card)
	return card
}

// splitName maps "Given [Additional] Family" onto the structured N property.
func splitName(name string) *vcard.Name {
	words := strings.Fields(name)
	n := &vcard.Name{}
	switch len(words) {
	case 0:
	case 1:
		n.GivenName = words[0]
	default:
		n.GivenName = words[0]
		n.FamilyName = words[len(words)-1]
		n.AdditionalName = strings.Join(words[1:len(words)-1], " ")
	}
	return n
}

// ImportVCard reads cards from r and converts them to entries.
// Malformed cards, cards without a valid person name and property values the
// book rejects are skipped with a warning.
func ImportVCard(r io.Reader) ([]book.Entry, error) {
	decoder := vcard.NewDecoder(r)
	var entries []book.Entry
	failures := 0

	for {
		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A broken stream keeps failing at the same spot.
			if failures++; failures >= config.MaxCardFailures {
				return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
			}
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompStorage,
				config.LogKeyError, err)
			continue
		}
		failures = 0

		e, ok := cardToEntry(card)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}

	slog.Info(config.MsgCardsImported,
		config.LogKeyComponent, config.CompStorage,
		config.LogKeyCount, len(entries))
	return entries, nil
}

func cardToEntry(card vcard.Card) (book.Entry, bool) {
	// Name Strategy: FN (Formatted) > N (Structured)
	name := book.NormalizeName(card.Value(vcard.FieldFormattedName))
	if name == "" {
		if n := card.Name(); n != nil {
			name = book.NormalizeName(strings.Join([]string{n.GivenName, n.AdditionalName, n.FamilyName}, " "))
		}
	}
	if err := book.VerifyName(name); err != nil {
		slog.Warn(config.MsgSkippedName,
			config.LogKeyComponent, config.CompStorage,
			config.LogKeyName, name,
			config.LogKeyError, err)
		return book.Entry{}, false
	}

	var pairs []book.Pair
	add := func(kind book.Kind, value string) {
		if _, err := book.NewField(kind, value); err != nil || value == "" {
			slog.Warn(config.MsgSkippedField,
				config.LogKeyComponent, config.CompStorage,
				config.LogKeyName, name,
				config.LogKeyValue, value)
			return
		}
		pairs = append(pairs, book.Pair{Title: kind.Title(), Value: value})
	}

	for _, tel := range card.Values(vcard.FieldTelephone) {
		add(book.KindPhone, strings.TrimPrefix(tel, "tel:"))
	}
	for _, adr := range card.Addresses() {
		add(book.KindAddress, formatAddress(adr))
	}
	if bday := card.Value(vcard.FieldBirthday); bday != "" {
		if t, err := parseDate(bday); err == nil {
			add(book.KindBirthday, t.Format(config.BirthdayLayout))
		} else {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompStorage,
				config.LogKeyName, name,
				config.LogKeyValue, bday)
		}
	}
	for _, note := range card.Values(vcard.FieldNote) {
		add(book.KindComment, note)
	}

	return book.Entry{Name: name, Pairs: pairs}, true
}

func formatAddress(adr *vcard.Address) string {
	var parts []string
	for _, p := range []string{
		adr.PostOfficeBox, adr.ExtendedAddress, adr.StreetAddress,
		adr.Locality, adr.Region, adr.PostalCode, adr.Country,
	} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// parseDate handles the vCard date formats that carry a year.
func parseDate(value string) (time.Time, error) {
	formats := []string{
		config.DateFormatFullBasic,
		config.DateFormatFullDash,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New(config.ErrDateParse)
}
