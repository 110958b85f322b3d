package calendar

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/wake-breaker/pkg/models"
)

const holidayFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:newyear@test\r\n" +
	"SUMMARY:New Year's Day\r\n" +
	"DTSTART;VALUE=DATE:20260101\r\n" +
	"DTEND;VALUE=DATE:20260102\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:easter@test\r\n" +
	"SUMMARY:Easter Weekend\r\n" +
	"DTSTART;VALUE=DATE:20260403\r\n" +
	"DTEND;VALUE=DATE:20260407\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseExclusionsCollectsEventDates(t *testing.T) {
	dates, err := ParseExclusions(strings.NewReader(holidayFeed))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2026-01-01",
		"2026-04-03", "2026-04-04", "2026-04-05", "2026-04-06",
	}, dates)
}

func TestParseExclusionsDeduplicatesOverlap(t *testing.T) {
	feed := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20261224\r\n" +
		"DTEND;VALUE=DATE:20261227\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20261225\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	dates, err := ParseExclusions(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-12-24", "2026-12-25", "2026-12-26"}, dates)
}

func TestParseExclusionsSkipsEventsWithoutStart(t *testing.T) {
	feed := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"SUMMARY:floating holiday\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	dates, err := ParseExclusions(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestValidateICalFormat(t *testing.T) {
	assert.NoError(t, validateICalFormat(holidayFeed))
	assert.Error(t, validateICalFormat("<!DOCTYPE html><html></html>"))
	assert.Error(t, validateICalFormat("not a calendar"))
}

func TestFetchExclusions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(holidayFeed))
	}))
	defer srv.Close()

	dates, err := FetchExclusions(models.HolidaySource{ID: "test", Name: "Test holidays", URL: srv.URL})
	require.NoError(t, err)
	assert.Len(t, dates, 5)
	assert.Contains(t, dates, "2026-01-01")
}

func TestFetchExclusionsRejectsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html><body>login</body></html>"))
	}))
	defer srv.Close()

	_, err := FetchExclusions(models.HolidaySource{ID: "test", Name: "Test", URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")
}
