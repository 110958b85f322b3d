package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/borgmon/wake-breaker/pkg/errs"
	"github.com/google/uuid"
)

// weekMillis is one 7-day period in epoch milliseconds. Week indices are
// counted from the Unix epoch, so week boundaries fall on UTC Thursdays.
const weekMillis = 7 * 24 * 60 * 60 * 1000

// dateLayout is the ISO calendar date form used for excluded dates.
const dateLayout = "2006-01-02"

// Alarm is a user-defined recurring alarm.
type Alarm struct {
	ID             string   `json:"id,omitempty"` // stable UUID, assigned at creation
	Time           string   `json:"time"`         // "HH:MM", 24-hour, local wall clock
	RepeatDays     []string `json:"repeatDays"`   // full weekday names, deduplicated
	Enabled        bool     `json:"enabled"`
	AlternateWeeks bool     `json:"alternateWeeks"`
	StartWeek      *int64   `json:"startWeek"`     // non-nil iff AlternateWeeks
	ExcludedDates  []string `json:"excludedDates"` // "YYYY-MM-DD", local calendar dates
}

// WeekIndex returns the floored epoch week index of t.
func WeekIndex(t time.Time) int64 {
	ms := t.UnixMilli()
	week := ms / weekMillis
	if ms < 0 && ms%weekMillis != 0 {
		week--
	}
	return week
}

// parseClock parses a "HH:MM" wall-clock string.
func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errs.Errorf(errs.Invalid, "malformed time %q", s)
	}
	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errs.Errorf(errs.Invalid, "hour out of range in %q", s)
	}
	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errs.Errorf(errs.Invalid, "minute out of range in %q", s)
	}
	return hour, minute, nil
}

// CanonicalWeekday maps s onto a full English weekday name, ignoring case
// and surrounding whitespace.
func CanonicalWeekday(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d.String(), true
		}
	}
	return "", false
}

// Clock returns the alarm's parsed hour and minute.
func (a *Alarm) Clock() (hour, minute int, err error) {
	return parseClock(a.Time)
}

// Normalize validates a candidate alarm and rewrites it into canonical form:
// zero-padded time, deduplicated canonical weekday names, deduplicated valid
// calendar dates, and a StartWeek present exactly when AlternateWeeks is on.
// Callers must not admit an alarm that fails Normalize into the store.
func (a *Alarm) Normalize() error {
	hour, minute, err := parseClock(a.Time)
	if err != nil {
		return err
	}
	a.Time = fmt.Sprintf("%02d:%02d", hour, minute)

	days := make([]string, 0, len(a.RepeatDays))
	seenDays := make(map[string]bool)
	for _, d := range a.RepeatDays {
		name, ok := CanonicalWeekday(d)
		if !ok {
			return errs.Errorf(errs.Invalid, "unknown weekday %q", d)
		}
		if !seenDays[name] {
			days = append(days, name)
			seenDays[name] = true
		}
	}
	a.RepeatDays = days

	dates := make([]string, 0, len(a.ExcludedDates))
	seenDates := make(map[string]bool)
	for _, d := range a.ExcludedDates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return errs.Errorf(errs.Invalid, "invalid excluded date %q", d)
		}
		date := t.Format(dateLayout)
		if !seenDates[date] {
			dates = append(dates, date)
			seenDates[date] = true
		}
	}
	a.ExcludedDates = dates

	if a.AlternateWeeks {
		if a.StartWeek == nil {
			return errs.Errorf(errs.Invalid, "alternate-week alarm missing start week")
		}
	} else {
		a.StartWeek = nil
	}
	return nil
}

// Sanitize coerces a loaded or about-to-be-persisted alarm into a
// well-typed shape without rejecting it: nil slices become empty, a stray
// StartWeek is dropped, a missing one is anchored to the current week, and
// a missing ID is assigned. Unlike Normalize it never fails; records from
// old or hand-edited blobs stay usable.
func (a *Alarm) Sanitize() {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.RepeatDays == nil {
		a.RepeatDays = []string{}
	}
	if a.ExcludedDates == nil {
		a.ExcludedDates = []string{}
	}
	if a.AlternateWeeks {
		if a.StartWeek == nil {
			week := WeekIndex(time.Now())
			a.StartWeek = &week
		}
	} else {
		a.StartWeek = nil
	}
}

// DueAt reports whether the alarm should fire at the given instant. It is a
// pure function of its inputs. Conditions are checked in order and the first
// failing one wins: enabled, excluded date, alternate-week parity, weekday,
// exact hour:minute equality. There is no grace window; if a poll lands past
// the minute boundary the occurrence is missed, which is the intended
// minute-granularity behavior.
func (a *Alarm) DueAt(now time.Time) bool {
	if !a.Enabled {
		return false
	}

	today := now.Format(dateLayout)
	for _, d := range a.ExcludedDates {
		if d == today {
			return false
		}
	}

	if a.AlternateWeeks {
		if a.StartWeek == nil {
			return false
		}
		delta := WeekIndex(now) - *a.StartWeek
		// Floor-based modulo so a StartWeek in the future (negative delta)
		// keeps the same parity sequence.
		if ((delta%2)+2)%2 != 0 {
			return false
		}
	}

	weekday := now.Weekday().String()
	matched := false
	for _, d := range a.RepeatDays {
		if d == weekday {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	hour, minute, err := a.Clock()
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

// DaysLabel renders the repeat days as abbreviated names for list rows and
// the tray menu, e.g. "Mon, Tue, Fri".
func (a *Alarm) DaysLabel() string {
	if len(a.RepeatDays) == 0 {
		return "never"
	}
	short := make([]string, 0, len(a.RepeatDays))
	for _, d := range a.RepeatDays {
		if len(d) > 3 {
			d = d[:3]
		}
		short = append(short, d)
	}
	return strings.Join(short, ", ")
}
