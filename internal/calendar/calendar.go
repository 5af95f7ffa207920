// Package calendar turns the birthdays of an address book into an iCalendar feed.
package calendar

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/config"
	"github.com/tartampluch/notabene/internal/storage"
)

// Contact is a lightweight birthday record for listings.
type Contact struct {
	// UID is stable across runs for the same name.
	UID string

	Name        string
	DateOfBirth time.Time

	// NextOccurrence is the next birthday, today included.
	NextOccurrence time.Time

	// AgeNext is the age the person turns at NextOccurrence.
	AgeNext int

	// DaysLeft is 0 on the birthday itself.
	DaysLeft int
}

// Generator builds the birthday feed.
type Generator struct {
	Clock book.Clock

	// FormatSummary renders the event title. Age 0 is the day of birth.
	// Nil falls back to config.FormatSummary and config.FormatSummaryAge.
	FormatSummary func(name string, age int) string

	// ReminderTrigger is an ISO 8601 duration for a DISPLAY alarm. Empty means no alarm.
	ReminderTrigger string
}

type stats struct{ processed, withBday, today int }

// Generate returns the iCalendar document, the contacts that have a birthday
// sorted by next occurrence, and the number of birthdays today.
func (g *Generator) Generate(ctx context.Context, entries []book.Entry) ([]byte, []Contact, int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	// Birthdays follow the local calendar date; only the stamp is UTC.
	now := g.Clock.Now()
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	var st stats
	var contacts []Contact

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}
		st.processed++

		birthDate, ok := birthDateOf(e)
		if !ok {
			continue
		}
		st.withBday++

		uidBase := storage.ContactUID(e.Name)
		next := book.NextOccurrence(now, birthDate)
		contacts = append(contacts, Contact{
			UID:            uidBase,
			Name:           e.Name,
			DateOfBirth:    birthDate,
			NextOccurrence: next,
			AgeNext:        next.Year() - birthDate.Year(),
			DaysLeft:       book.DaysUntil(now, birthDate),
		})

		events, isToday := g.createEvents(e.Name, birthDate, now, uidBase)
		if isToday {
			st.today++
			slog.Info(config.MsgBdayToday,
				config.LogKeyComponent, config.CompCalendar,
				config.LogKeyName, e.Name,
				config.LogKeyDOB, birthDate.Format(config.BirthdayLayout))
		}
		for _, ev := range events {
			ev.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, ev.Component)
		}
	}

	slices.SortStableFunc(contacts, func(a, b Contact) int {
		return a.NextOccurrence.Compare(b.NextOccurrence)
	})

	// A calendar without events is still served as a valid VCALENDAR.
	if len(cal.Children) == 0 {
		g.logSuccess(st)
		return []byte(config.StubVCalendar), contacts, 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	g.logSuccess(st)
	return buf.Bytes(), contacts, st.today, nil
}

func birthDateOf(e book.Entry) (time.Time, bool) {
	for _, p := range e.Pairs {
		if kind, ok := book.LookupKind(p.Title); !ok || kind != book.KindBirthday {
			continue
		}
		f, err := book.NewField(book.KindBirthday, p.Value)
		if err != nil {
			return time.Time{}, false
		}
		return f.BirthDate()
	}
	return time.Time{}, false
}

func (g *Generator) logSuccess(st stats) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompCalendar,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, st.processed),
			slog.Int(config.LogKeyFound, st.withBday),
			slog.Int(config.LogKeyToday, st.today),
		),
	)
}

// createEvents generates events for the previous, current and next year,
// never before the year of birth.
func (g *Generator) createEvents(name string, birthDate, now time.Time, uidBase string) ([]*ical.Event, bool) {
	currentYear := now.Year()
	loc := now.Location()
	todayYear, todayMonth, todayDay := now.Date()

	var events []*ical.Event
	isToday := false

	for _, y := range []int{currentYear - 1, currentYear, currentYear + 1} {
		if y < birthDate.Year() {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, y, config.ICalDomain))

		summary := g.summary(name, y-birthDate.Year())
		event.Props.SetText(config.PropSummary, summary)

		// Feb 29 becomes Mar 1 in non-leap years.
		eventDate := time.Date(y, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, loc)
		if y == todayYear && eventDate.Month() == todayMonth && eventDate.Day() == todayDay {
			isToday = true
		}

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(eventDate)
		event.Props.Set(dtStartProp)

		if g.ReminderTrigger != "" {
			addAlarm(event, g.ReminderTrigger, summary)
		}
		events = append(events, event)
	}
	return events, isToday
}

func (g *Generator) summary(name string, age int) string {
	if g.FormatSummary != nil {
		return g.FormatSummary(name, age)
	}
	if age == 0 {
		return fmt.Sprintf(config.FormatSummary, name)
	}
	return fmt.Sprintf(config.FormatSummaryAge, name, age)
}

// addAlarm appends a DISPLAY alarm to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDesc, description)

	// Set the raw value to avoid a VALUE=TEXT parameter.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
