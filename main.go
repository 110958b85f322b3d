package main

import (
	"context"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/borgmon/wake-breaker/pkg/engine"
	"github.com/borgmon/wake-breaker/pkg/models"
	"github.com/borgmon/wake-breaker/pkg/platform"
	"github.com/borgmon/wake-breaker/pkg/poller"
	"github.com/borgmon/wake-breaker/pkg/ringer"
	"github.com/borgmon/wake-breaker/pkg/store"
)

type WakeBreaker struct {
	app          fyne.App
	config       *models.Config
	configStore  *store.ConfigStore
	alarms       *store.AlarmStore
	ring         *ringer.Ringer
	engine       *engine.Engine
	poll         *poller.Poller
	player       *alarmPlayer
	ringWindow   *RingWindow
	alarmsWindow *AlarmsWindow
}

func main() {
	wb := &WakeBreaker{
		app: app.NewWithID("io.github.borgmon.wake-breaker"),
	}

	if err := wb.initialize(); err != nil {
		log.Fatal(err)
	}

	wb.run()
}

func (wb *WakeBreaker) initialize() error {
	wb.configStore = store.NewConfigStore(wb.app)
	wb.config = wb.configStore.Load()

	// Sync autostart state with config on startup
	if err := setupAutostart(wb.config.AutoStart); err != nil {
		log.Printf("Warning: failed to setup autostart: %v", err)
	}

	wb.configStore.Save(wb.config)

	wb.alarms = store.NewAlarmStore(store.NewPreferencesBlob(wb.app))
	alarms := wb.alarms.Load()
	log.Printf("Loaded %d alarms", len(alarms))

	wb.ringWindow = NewRingWindow(wb.app, wb.config)
	wb.player = newAlarmPlayer(wb.config)
	wb.ring = ringer.New(ringer.Dispatcher{
		Notifier: &fyneNotifier{app: wb.app},
		Player:   wb.player,
		Vibrator: desktopVibrator{},
		Prompter: wb.ringWindow,
	}, wb.config.RingTimeout())
	wb.engine = engine.New(wb.alarms, wb.ring)

	// Keep the tray menu in step with the ringing session
	wb.engine.SubscribeRinging(func(change ringer.Change) {
		fyne.Do(func() {
			wb.updateSystemTrayMenu()
		})
	})

	wb.setupSystemTray()
	wb.startAlarmChecker()

	return nil
}

func (wb *WakeBreaker) run() {
	wb.app.Lifecycle().SetOnStarted(func() {
		platform.SetActivationPolicy()
	})
	wb.app.Run()
}

// startAlarmChecker starts the poll scheduler: one due-check pass
// immediately, then one every poll interval.
func (wb *WakeBreaker) startAlarmChecker() {
	wb.poll = poller.New(wb.config.PollInterval(), func(now time.Time) {
		wb.engine.Check(now)
	})
	wb.poll.Run(context.Background())
}

func (wb *WakeBreaker) restartAlarmChecker() {
	if wb.poll != nil {
		wb.poll.Interrupt()
	}
	wb.startAlarmChecker()
}

// applyConfig persists an edited configuration and rewires everything that
// depends on it.
func (wb *WakeBreaker) applyConfig(newConfig *models.Config) {
	wb.config = newConfig
	wb.configStore.Save(wb.config)

	if err := setupAutostart(wb.config.AutoStart); err != nil {
		log.Printf("Warning: failed to setup autostart: %v", err)
	}

	wb.ring.SetTimeout(wb.config.RingTimeout())
	wb.ringWindow.SetConfig(wb.config)
	wb.player.SetConfig(wb.config)
	wb.restartAlarmChecker()
	wb.updateSystemTrayMenu()
}

func (wb *WakeBreaker) quit() {
	if wb.poll != nil {
		wb.poll.Interrupt()
	}
	wb.engine.Shutdown()
	wb.app.Quit()
}
