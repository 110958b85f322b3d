package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-08-24 is a Monday.
var monday0730 = time.Date(2026, 8, 24, 7, 30, 0, 0, time.UTC)

func weekPtr(w int64) *int64 { return &w }

func TestAlarmDueAt(t *testing.T) {
	base := Alarm{
		Time:       "07:30",
		RepeatDays: []string{"Monday"},
		Enabled:    true,
	}

	tests := []struct {
		name  string
		alarm Alarm
		now   time.Time
		want  bool
	}{{
		name:  "matching weekday and minute",
		alarm: base,
		now:   monday0730,
		want:  true,
	}, {
		name:  "seconds within the matching minute still fire",
		alarm: base,
		now:   monday0730.Add(42 * time.Second),
		want:  true,
	}, {
		name:  "one minute late misses",
		alarm: base,
		now:   monday0730.Add(time.Minute),
		want:  false,
	}, {
		name:  "wrong weekday",
		alarm: base,
		now:   monday0730.Add(24 * time.Hour), // Tuesday 07:30
		want:  false,
	}, {
		name: "disabled alarm never fires",
		alarm: Alarm{
			Time:       "07:30",
			RepeatDays: []string{"Monday"},
			Enabled:    false,
		},
		now:  monday0730,
		want: false,
	}, {
		name: "excluded date suppresses an otherwise due alarm",
		alarm: Alarm{
			Time:          "07:30",
			RepeatDays:    []string{"Monday"},
			Enabled:       true,
			ExcludedDates: []string{"2026-08-24"},
		},
		now:  monday0730,
		want: false,
	}, {
		name: "empty repeat days never fires",
		alarm: Alarm{
			Time:       "07:30",
			RepeatDays: []string{},
			Enabled:    true,
		},
		now:  monday0730,
		want: false,
	}, {
		name: "malformed time never fires",
		alarm: Alarm{
			Time:       "seven thirty",
			RepeatDays: []string{"Monday"},
			Enabled:    true,
		},
		now:  monday0730,
		want: false,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.alarm.DueAt(tt.now))
		})
	}
}

func TestAlarmDueAtAlternateWeeks(t *testing.T) {
	week := WeekIndex(monday0730)

	tests := []struct {
		name      string
		startWeek int64
		want      bool
	}{
		{"start week itself", week, true},
		{"one week after start", week - 1, false},
		{"two weeks after start", week - 2, true},
		{"three weeks after start", week - 3, false},
		{"start week one week in the future", week + 1, false},
		{"start week two weeks in the future", week + 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alarm := Alarm{
				Time:           "07:30",
				RepeatDays:     []string{"Monday"},
				Enabled:        true,
				AlternateWeeks: true,
				StartWeek:      weekPtr(tt.startWeek),
			}
			assert.Equal(t, tt.want, alarm.DueAt(monday0730))
		})
	}

	t.Run("alternate weeks without a start week never fires", func(t *testing.T) {
		alarm := Alarm{
			Time:           "07:30",
			RepeatDays:     []string{"Monday"},
			Enabled:        true,
			AlternateWeeks: true,
		}
		assert.False(t, alarm.DueAt(monday0730))
	})
}

func TestWeekIndex(t *testing.T) {
	assert.Equal(t, int64(0), WeekIndex(time.UnixMilli(0)))
	assert.Equal(t, int64(0), WeekIndex(time.UnixMilli(weekMillis-1)))
	assert.Equal(t, int64(1), WeekIndex(time.UnixMilli(weekMillis)))
	// Floor division, not truncation, before the epoch.
	assert.Equal(t, int64(-1), WeekIndex(time.UnixMilli(-1)))
	assert.Equal(t, int64(-1), WeekIndex(time.UnixMilli(-weekMillis)))
	assert.Equal(t, int64(-2), WeekIndex(time.UnixMilli(-weekMillis-1)))
}

func TestAlarmNormalize(t *testing.T) {
	t.Run("canonicalizes a valid candidate", func(t *testing.T) {
		alarm := Alarm{
			Time:           "7:5",
			RepeatDays:     []string{"monday", "MONDAY", "friday"},
			Enabled:        true,
			AlternateWeeks: false,
			StartWeek:      weekPtr(123),
			ExcludedDates:  []string{"2026-12-25", "2026-12-25", "2027-01-01"},
		}
		require.NoError(t, alarm.Normalize())
		assert.Equal(t, "07:05", alarm.Time)
		assert.Equal(t, []string{"Monday", "Friday"}, alarm.RepeatDays)
		assert.Equal(t, []string{"2026-12-25", "2027-01-01"}, alarm.ExcludedDates)
		assert.Nil(t, alarm.StartWeek, "StartWeek must be dropped when AlternateWeeks is off")
	})

	t.Run("keeps StartWeek when alternating", func(t *testing.T) {
		alarm := Alarm{
			Time:           "07:30",
			AlternateWeeks: true,
			StartWeek:      weekPtr(2955),
		}
		require.NoError(t, alarm.Normalize())
		require.NotNil(t, alarm.StartWeek)
		assert.Equal(t, int64(2955), *alarm.StartWeek)
	})

	invalid := []struct {
		name  string
		alarm Alarm
	}{
		{"missing colon", Alarm{Time: "0730"}},
		{"hour out of range", Alarm{Time: "24:00"}},
		{"minute out of range", Alarm{Time: "07:60"}},
		{"non-numeric time", Alarm{Time: "ab:cd"}},
		{"unknown weekday", Alarm{Time: "07:30", RepeatDays: []string{"Funday"}}},
		{"impossible calendar date", Alarm{Time: "07:30", ExcludedDates: []string{"2026-02-30"}}},
		{"malformed date", Alarm{Time: "07:30", ExcludedDates: []string{"25-12-2026"}}},
		{"alternating without a start week", Alarm{Time: "07:30", AlternateWeeks: true}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.alarm.Normalize())
		})
	}
}

func TestAlarmRoundTrip(t *testing.T) {
	alarm := Alarm{
		ID:             "a-1",
		Time:           "6:05",
		RepeatDays:     []string{"sunday", "Sunday", "Wednesday"},
		Enabled:        true,
		AlternateWeeks: true,
		StartWeek:      weekPtr(2955),
		ExcludedDates:  []string{"2026-01-01"},
	}
	require.NoError(t, alarm.Normalize())

	data, err := json.Marshal(alarm)
	require.NoError(t, err)

	var decoded Alarm
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, alarm, decoded)
}

func TestAlarmSanitize(t *testing.T) {
	alarm := Alarm{Time: "07:30", StartWeek: weekPtr(99)}
	alarm.Sanitize()

	assert.NotEmpty(t, alarm.ID)
	assert.NotNil(t, alarm.RepeatDays)
	assert.NotNil(t, alarm.ExcludedDates)
	assert.Nil(t, alarm.StartWeek)

	// Sanitize never invents an ID twice.
	id := alarm.ID
	alarm.Sanitize()
	assert.Equal(t, id, alarm.ID)
}

func TestAlarmSanitizeAnchorsAlternateWeeks(t *testing.T) {
	alarm := Alarm{Time: "07:30", AlternateWeeks: true}
	alarm.Sanitize()

	require.NotNil(t, alarm.StartWeek)
	assert.Equal(t, WeekIndex(time.Now()), *alarm.StartWeek)

	// An anchor that is already set stays put.
	alarm.StartWeek = weekPtr(99)
	alarm.Sanitize()
	require.NotNil(t, alarm.StartWeek)
	assert.Equal(t, int64(99), *alarm.StartWeek)
}

func TestDaysLabel(t *testing.T) {
	alarm := Alarm{RepeatDays: []string{"Monday", "Friday"}}
	assert.Equal(t, "Mon, Fri", alarm.DaysLabel())
	assert.Equal(t, "never", (&Alarm{}).DaysLabel())
}
