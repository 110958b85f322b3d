package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/wake-breaker/pkg/calendar"
	"github.com/borgmon/wake-breaker/pkg/models"
)

var weekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (aw *AlarmsWindow) showAddAlarmDialog() {
	timeEntry := widget.NewEntry()
	timeEntry.SetPlaceHolder("07:30")

	dayChecks := make([]*widget.Check, len(weekdayNames))
	dayRow := container.NewHBox()
	for i, name := range weekdayNames {
		dayChecks[i] = widget.NewCheck(name[:3], nil)
		dayRow.Add(dayChecks[i])
	}

	alternateCheck := widget.NewCheck("Every other week, starting this week", nil)

	excludedEntry := widget.NewMultiLineEntry()
	excludedEntry.SetPlaceHolder("2026-12-25\none date per line")
	excludedEntry.SetMinRowsVisible(3)

	importButton := widget.NewButton("Import Holidays", func() {
		aw.importHolidays(excludedEntry)
	})
	if len(aw.holidaySources) == 0 {
		importButton.Disable()
	}

	items := []*widget.FormItem{
		widget.NewFormItem("Time (HH:MM)", timeEntry),
		widget.NewFormItem("Repeat on", dayRow),
		widget.NewFormItem("", alternateCheck),
		widget.NewFormItem("Skip dates", container.NewVBox(excludedEntry, importButton)),
	}

	dialog.ShowForm("Add Alarm", "Create", "Cancel", items, func(confirmed bool) {
		if !confirmed {
			return
		}

		repeatDays := []string{}
		for i, check := range dayChecks {
			if check.Checked {
				repeatDays = append(repeatDays, weekdayNames[i])
			}
		}

		alarm := models.Alarm{
			Time:           timeEntry.Text,
			RepeatDays:     repeatDays,
			Enabled:        true,
			AlternateWeeks: alternateCheck.Checked,
			ExcludedDates:  splitDates(excludedEntry.Text),
		}

		added, err := aw.engine.AddAlarm(alarm, time.Now())
		if err != nil {
			dialog.ShowError(err, aw.window)
			return
		}

		log.Printf("Added alarm %s (%s)", added.Time, added.DaysLabel())
		aw.refreshAlarms()
	}, aw.window)
}

// importHolidays fetches every configured holiday feed and appends the
// resulting dates to the excluded-dates entry.
func (aw *AlarmsWindow) importHolidays(entry *widget.Entry) {
	sources := append([]models.HolidaySource{}, aw.holidaySources...)

	go func() {
		dates := []string{}
		var lastErr error
		for _, source := range sources {
			if !source.Validate() {
				continue
			}
			fetched, err := calendar.FetchExclusions(source)
			if err != nil {
				log.Printf("Error fetching holiday source '%s' (%s): %v", source.Name, source.URL, err)
				lastErr = err
				continue
			}
			dates = append(dates, fetched...)
		}

		fyne.Do(func() {
			if len(dates) == 0 {
				if lastErr != nil {
					dialog.ShowError(fmt.Errorf("holiday import failed: %w", lastErr), aw.window)
				} else {
					dialog.ShowInformation("Import Holidays", "No holiday dates found.", aw.window)
				}
				return
			}

			existing := splitDates(entry.Text)
			seen := make(map[string]bool, len(existing))
			for _, date := range existing {
				seen[date] = true
			}
			added := 0
			for _, date := range dates {
				if !seen[date] {
					seen[date] = true
					existing = append(existing, date)
					added++
				}
			}

			entry.SetText(strings.Join(existing, "\n"))
			dialog.ShowInformation("Import Holidays",
				fmt.Sprintf("Imported %d holiday dates.", added), aw.window)
		})
	}()
}

// splitDates parses a newline or comma separated date list, dropping blanks.
func splitDates(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ','
	})
	dates := []string{}
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			dates = append(dates, trimmed)
		}
	}
	return dates
}

func (wb *WakeBreaker) showAddAlarmDialog() {
	wb.showAlarmsWindow().showAddAlarmDialog()
}
