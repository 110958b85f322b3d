package calendar

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/borgmon/wake-breaker/pkg/models"
)

const dateLayout = "2006-01-02"

// FetchExclusions downloads an iCal holiday feed and returns the calendar
// dates its events cover, as sorted "YYYY-MM-DD" strings ready to merge into
// an alarm's excluded dates.
func FetchExclusions(source models.HolidaySource) ([]string, error) {
	resp, err := http.Get(source.URL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	bodyStr := string(body)
	if err := validateICalFormat(bodyStr); err != nil {
		return nil, err
	}

	dates, err := ParseExclusions(strings.NewReader(bodyStr))
	if err != nil {
		return nil, err
	}

	log.Printf("Fetched %d holiday dates from %s", len(dates), source.Name)
	return dates, nil
}

// ParseExclusions decodes an iCalendar stream and collects the local dates
// spanned by its VEVENT components. Multi-day events contribute one date per
// day; DTEND is exclusive per RFC 5545.
func ParseExclusions(r io.Reader) ([]string, error) {
	decoder := ical.NewDecoder(r)
	seen := make(map[string]bool)
	dates := []string{}

	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			for _, date := range eventDates(comp) {
				if !seen[date] {
					seen[date] = true
					dates = append(dates, date)
				}
			}
		}
	}

	sort.Strings(dates)
	return dates, nil
}

func eventDates(comp *ical.Component) []string {
	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return nil
	}
	start, err := parseDateTimeProperty(startProp)
	if err != nil {
		log.Printf("Skipping event with unparseable DTSTART: %v", err)
		return nil
	}

	end := start
	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		if t, err := parseDateTimeProperty(endProp); err == nil && t.After(start) {
			// DTEND marks the instant the event is over, so step back
			// inside the last covered day.
			end = t.Add(-time.Nanosecond)
		}
	}

	dates := []string{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format(dateLayout))
	}
	return dates
}

func parseDateTimeProperty(prop *ical.Prop) (time.Time, error) {
	// Standard DateTime handling first, then raw-value fallbacks for feeds
	// that omit VALUE=DATE parameters.
	if t, err := prop.DateTime(time.Local); err == nil {
		return t.In(time.Local), nil
	}

	value := prop.Value
	formats := []string{
		"20060102",            // date only: YYYYMMDD
		"20060102T150405",     // basic format: YYYYMMDDTHHMMSS
		"20060102T150405Z",    // UTC format
		time.RFC3339,          // standard RFC3339
		"2006-01-02T15:04:05", // ISO 8601 without timezone
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", value)
}

func validateICalFormat(bodyStr string) error {
	// Check if response is HTML instead of iCalendar
	upperBody := strings.ToUpper(strings.TrimSpace(bodyStr))
	if strings.HasPrefix(upperBody, "<!DOCTYPE") || strings.HasPrefix(upperBody, "<HTML") {
		return fmt.Errorf("received HTML instead of iCalendar data - check if URL requires authentication")
	}

	if !strings.HasPrefix(strings.TrimSpace(bodyStr), "BEGIN:VCALENDAR") {
		previewLen := 100
		if len(bodyStr) < previewLen {
			previewLen = len(bodyStr)
		}
		return fmt.Errorf("invalid iCalendar format - expected BEGIN:VCALENDAR, got: %s",
			strings.TrimSpace(bodyStr[:previewLen]))
	}

	return nil
}
