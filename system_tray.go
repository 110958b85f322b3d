package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"github.com/borgmon/wake-breaker/pkg/ringer"
)

func (wb *WakeBreaker) setupSystemTray() {
	wb.updateSystemTrayMenu()
}

func (wb *WakeBreaker) updateSystemTrayMenu() {
	desk, ok := wb.app.(desktop.App)
	if !ok {
		return
	}

	menuItems := []*fyne.MenuItem{}

	// Enabled alarms section at the top
	enabled := wb.enabledAlarmLines(5)
	header := fyne.NewMenuItem(fmt.Sprintf("%d alarms enabled", wb.engine.EnabledCount()), nil)
	header.Disabled = true
	menuItems = append(menuItems, header)

	for _, line := range enabled {
		item := fyne.NewMenuItem(line, nil)
		item.Disabled = true
		menuItems = append(menuItems, item)
	}

	menuItems = append(menuItems, fyne.NewMenuItemSeparator())

	// Show a stop entry while a session is ringing
	if state, session := wb.engine.RingState(); state == ringer.StateRinging && session != nil {
		stopItem := fyne.NewMenuItem(fmt.Sprintf("Ringing %s - Stop", session.Alarm.Time), func() {
			wb.engine.StopRinging()
		})
		menuItems = append(menuItems, stopItem, fyne.NewMenuItemSeparator())
	}

	menuItems = append(menuItems,
		fyne.NewMenuItem("Add Alarm", func() {
			wb.showAddAlarmDialog()
		}),
		fyne.NewMenuItem("Alarms & Settings", func() {
			wb.showAlarmsWindow()
		}),
	)

	menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	menuItems = append(menuItems, fyne.NewMenuItem("Quit", func() {
		wb.quit()
	}))

	menu := fyne.NewMenu("Wake Breaker", menuItems...)
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(theme.HistoryIcon())
}

// enabledAlarmLines renders up to limit enabled alarms for the tray menu.
func (wb *WakeBreaker) enabledAlarmLines(limit int) []string {
	lines := []string{}
	for _, alarm := range wb.engine.Alarms() {
		if !alarm.Enabled {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s - %s", alarm.Time, truncateString(alarm.DaysLabel(), 35)))
		if len(lines) >= limit {
			break
		}
	}
	return lines
}

// truncateString truncates a string to maxLen characters, adding "..." if needed
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
