package main

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/wake-breaker/pkg/engine"
	"github.com/borgmon/wake-breaker/pkg/models"
)

// AlarmsWindow is the management UI: the alarm list plus application
// settings, in tabs.
type AlarmsWindow struct {
	window fyne.Window
	app    fyne.App
	engine *engine.Engine
	config *models.Config

	onSave    func(*models.Config)
	onChanged func()

	alarms    []models.Alarm
	alarmList *widget.List

	autoStartCheck  *widget.Check
	pollEntry       *widget.Entry
	timeoutEntry    *widget.Entry
	holdEntry       *widget.Entry
	soundEntry      *widget.Entry
	holidaySources  []models.HolidaySource
	holidayList     *widget.List
	selectedHoliday int
}

func NewAlarmsWindow(app fyne.App, eng *engine.Engine, config *models.Config, onSave func(*models.Config), onChanged func()) *AlarmsWindow {
	aw := &AlarmsWindow{
		app:             app,
		engine:          eng,
		config:          config,
		onSave:          onSave,
		onChanged:       onChanged,
		selectedHoliday: -1,
	}
	aw.holidaySources = append(aw.holidaySources, config.HolidaySources...)

	aw.window = app.NewWindow("Wake Breaker")
	aw.window.Resize(fyne.NewSize(560, 480))

	tabs := container.NewAppTabs(
		container.NewTabItem("Alarms", aw.buildAlarmsTab()),
		container.NewTabItem("Settings", aw.buildSettingsTab()),
	)
	aw.window.SetContent(tabs)

	return aw
}

func (aw *AlarmsWindow) Show() {
	aw.window.Show()
}

func (aw *AlarmsWindow) refreshAlarms() {
	aw.alarms = aw.engine.Alarms()
	aw.alarmList.Refresh()
	if aw.onChanged != nil {
		aw.onChanged()
	}
}

func (aw *AlarmsWindow) buildAlarmsTab() fyne.CanvasObject {
	aw.alarms = aw.engine.Alarms()

	aw.alarmList = widget.NewList(
		func() int {
			return len(aw.alarms)
		},
		func() fyne.CanvasObject {
			check := widget.NewCheck("", nil)
			label := widget.NewLabel("template")
			remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
			return container.NewBorder(nil, nil, check, remove, label)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= len(aw.alarms) {
				return
			}
			alarm := aw.alarms[i]
			row := o.(*fyne.Container)
			check := row.Objects[1].(*widget.Check)
			label := row.Objects[0].(*widget.Label)
			remove := row.Objects[2].(*widget.Button)

			check.OnChanged = nil
			check.SetChecked(alarm.Enabled)
			check.OnChanged = func(bool) {
				aw.engine.ToggleAlarmByID(alarm.ID)
				aw.refreshAlarms()
			}

			label.SetText(alarmSummary(alarm))

			remove.OnTapped = func() {
				aw.engine.DeleteAlarmByID(alarm.ID)
				aw.refreshAlarms()
			}
		})

	addButton := widget.NewButtonWithIcon("Add Alarm", theme.ContentAddIcon(), func() {
		aw.showAddAlarmDialog()
	})

	return container.NewBorder(
		container.NewPadded(addButton),
		nil, nil, nil,
		aw.alarmList,
	)
}

// alarmSummary renders one alarm for the list.
func alarmSummary(alarm models.Alarm) string {
	text := fmt.Sprintf("%s   %s", alarm.Time, alarm.DaysLabel())
	if alarm.AlternateWeeks {
		text += "   (every other week)"
	}
	if n := len(alarm.ExcludedDates); n > 0 {
		text += fmt.Sprintf("   [%d excluded]", n)
	}
	return text
}

func (aw *AlarmsWindow) buildSettingsTab() fyne.CanvasObject {
	aw.autoStartCheck = widget.NewCheck("Launch on system boot", nil)
	aw.autoStartCheck.SetChecked(aw.config.AutoStart)

	aw.pollEntry = widget.NewEntry()
	aw.pollEntry.SetText(strconv.Itoa(aw.config.PollIntervalSec))

	aw.timeoutEntry = widget.NewEntry()
	aw.timeoutEntry.SetText(strconv.Itoa(aw.config.RingTimeoutSec))

	aw.holdEntry = widget.NewEntry()
	aw.holdEntry.SetText(strconv.Itoa(aw.config.HoldTimeSeconds))

	aw.soundEntry = widget.NewEntry()
	aw.soundEntry.SetPlaceHolder("built-in tone")
	aw.soundEntry.SetText(aw.config.SoundFile)

	form := container.New(layout.NewFormLayout(),
		widget.NewLabel("Auto Start:"), aw.autoStartCheck,
		widget.NewLabel("Check interval (seconds):"), aw.pollEntry,
		widget.NewLabel("Ring timeout (seconds):"), aw.timeoutEntry,
		widget.NewLabel("Stop hold time (seconds):"), aw.holdEntry,
		widget.NewLabel("Alarm sound (WAV path):"), aw.soundEntry,
	)

	saveButton := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() {
		aw.save()
	})
	saveButton.Importance = widget.HighImportance

	content := container.NewVBox(
		form,
		widget.NewSeparator(),
		widget.NewLabel("Holiday calendars (iCal feeds for excluded dates):"),
		aw.buildHolidaySourcesSection(),
		widget.NewSeparator(),
		container.NewHBox(layout.NewSpacer(), saveButton),
	)

	return container.NewPadded(container.NewVScroll(content))
}

func (aw *AlarmsWindow) buildHolidaySourcesSection() fyne.CanvasObject {
	aw.holidayList = widget.NewList(
		func() int {
			return len(aw.holidaySources)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("template")
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= len(aw.holidaySources) {
				return
			}
			source := aw.holidaySources[i]
			o.(*widget.Label).SetText(fmt.Sprintf("%s - %s", source.Name, source.URL))
		})
	aw.holidayList.OnSelected = func(id widget.ListItemID) {
		aw.selectedHoliday = id
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Name")
	urlEntry := widget.NewEntry()
	urlEntry.SetPlaceHolder("https://example.com/holidays.ics")

	addButton := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		source := models.HolidaySource{
			ID:   fmt.Sprintf("holiday-%d", len(aw.holidaySources)+1),
			Name: nameEntry.Text,
			URL:  urlEntry.Text,
		}
		if !source.Validate() {
			dialog.ShowError(fmt.Errorf("holiday source needs both a name and a URL"), aw.window)
			return
		}
		aw.holidaySources = append(aw.holidaySources, source)
		nameEntry.SetText("")
		urlEntry.SetText("")
		aw.holidayList.Refresh()
	})

	removeButton := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), func() {
		if aw.selectedHoliday < 0 || aw.selectedHoliday >= len(aw.holidaySources) {
			return
		}
		aw.holidaySources = append(aw.holidaySources[:aw.selectedHoliday], aw.holidaySources[aw.selectedHoliday+1:]...)
		aw.selectedHoliday = -1
		aw.holidayList.UnselectAll()
		aw.holidayList.Refresh()
	})

	listScroll := container.NewScroll(aw.holidayList)
	listScroll.SetMinSize(fyne.NewSize(0, 120))

	controls := container.NewBorder(nil, nil, nil,
		container.NewHBox(addButton, removeButton),
		container.NewGridWithColumns(2, nameEntry, urlEntry),
	)

	return container.NewVBox(listScroll, controls)
}

func (aw *AlarmsWindow) save() {
	pollSec, err := strconv.Atoi(aw.pollEntry.Text)
	if err != nil || pollSec <= 0 {
		dialog.ShowError(fmt.Errorf("check interval must be a positive number of seconds"), aw.window)
		return
	}
	timeoutSec, err := strconv.Atoi(aw.timeoutEntry.Text)
	if err != nil || timeoutSec <= 0 {
		dialog.ShowError(fmt.Errorf("ring timeout must be a positive number of seconds"), aw.window)
		return
	}
	holdSec, err := strconv.Atoi(aw.holdEntry.Text)
	if err != nil || holdSec <= 0 {
		dialog.ShowError(fmt.Errorf("hold time must be a positive number of seconds"), aw.window)
		return
	}

	newConfig := &models.Config{
		AutoStart:       aw.autoStartCheck.Checked,
		PollIntervalSec: pollSec,
		RingTimeoutSec:  timeoutSec,
		HoldTimeSeconds: holdSec,
		SoundFile:       aw.soundEntry.Text,
		HolidaySources:  aw.holidaySources,
	}

	aw.config = newConfig
	if aw.onSave != nil {
		aw.onSave(newConfig)
	}
}

func (wb *WakeBreaker) showAlarmsWindow() *AlarmsWindow {
	// Bring the existing window forward instead of stacking a second one
	if wb.alarmsWindow != nil {
		wb.alarmsWindow.window.RequestFocus()
		wb.alarmsWindow.window.Show()
		return wb.alarmsWindow
	}

	wb.alarmsWindow = NewAlarmsWindow(wb.app, wb.engine, wb.config,
		func(newConfig *models.Config) {
			wb.applyConfig(newConfig)
		},
		func() {
			wb.updateSystemTrayMenu()
		},
	)
	wb.alarmsWindow.window.SetOnClosed(func() {
		wb.alarmsWindow = nil
	})

	wb.alarmsWindow.Show()
	return wb.alarmsWindow
}
