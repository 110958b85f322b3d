package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.design/x/hotkey"

	"github.com/borgmon/wake-breaker/pkg/models"
	"github.com/borgmon/wake-breaker/pkg/platform"
	"github.com/borgmon/wake-breaker/pkg/ringer"
)

// RingWindow presents a fullscreen acknowledgment prompt for a ringing
// session. The only way through it is holding the stop button; Cmd+Q is
// swallowed while it is up and the window pulls itself back to the front if
// focus drifts away.
type RingWindow struct {
	app fyne.App

	mu         sync.Mutex
	config     *models.Config
	window     fyne.Window
	sessionID  string
	cmdQHotkey *hotkey.Hotkey
}

func NewRingWindow(app fyne.App, config *models.Config) *RingWindow {
	return &RingWindow{app: app, config: config}
}

// SetConfig swaps the configuration used for subsequent prompts.
func (rw *RingWindow) SetConfig(config *models.Config) {
	rw.mu.Lock()
	rw.config = config
	rw.mu.Unlock()
}

// Present shows the prompt for a session. Any previous prompt is replaced.
func (rw *RingWindow) Present(session ringer.Session, onStop func()) {
	rw.Dismiss()

	rw.mu.Lock()
	config := rw.config
	rw.sessionID = session.ID
	rw.mu.Unlock()

	stopMonitoring := make(chan struct{})

	fyne.Do(func() {
		window := rw.app.NewWindow("Wake Up")
		window.SetFullScreen(true)
		window.SetContent(rw.buildUI(session, config, onStop))

		window.SetOnClosed(func() {
			rw.teardown(session.ID, stopMonitoring)
		})

		rw.mu.Lock()
		// Present may race with its own Dismiss when the session is
		// superseded immediately; only install the window if this
		// session is still the one being prompted for.
		if rw.sessionID != session.ID {
			rw.mu.Unlock()
			window.Close()
			return
		}
		rw.window = window
		rw.mu.Unlock()

		rw.registerCmdQPrevention()
		rw.monitorFocus(stopMonitoring)

		window.Show()
	})
}

// Dismiss closes the active prompt, if any. Safe to call from any goroutine
// and when no prompt is up.
func (rw *RingWindow) Dismiss() {
	rw.mu.Lock()
	window := rw.window
	rw.window = nil
	rw.sessionID = ""
	hk := rw.cmdQHotkey
	rw.cmdQHotkey = nil
	rw.mu.Unlock()

	if hk != nil {
		hk.Unregister()
	}
	if window != nil {
		fyne.Do(func() {
			window.Close()
		})
	}
}

// teardown runs when a prompt window closes: it ends that window's focus
// monitoring and releases whatever the prompt still holds.
func (rw *RingWindow) teardown(sessionID string, stopMonitoring chan struct{}) {
	close(stopMonitoring)

	rw.mu.Lock()
	if rw.sessionID != sessionID {
		rw.mu.Unlock()
		return
	}
	rw.window = nil
	rw.sessionID = ""
	hk := rw.cmdQHotkey
	rw.cmdQHotkey = nil
	rw.mu.Unlock()

	if hk != nil {
		hk.Unregister()
	}
}

func (rw *RingWindow) buildUI(session ringer.Session, config *models.Config, onStop func()) fyne.CanvasObject {
	title := canvas.NewText("⏰ Wake Up!", nil)
	title.TextSize = 48
	title.Alignment = fyne.TextAlignCenter

	clock := canvas.NewText(session.Alarm.Time, nil)
	clock.TextSize = 96
	clock.Alignment = fyne.TextAlignCenter

	days := widget.NewLabel("Repeats: " + session.Alarm.DaysLabel())
	days.Alignment = fyne.TextAlignCenter

	holdSeconds := config.HoldTimeSeconds
	if holdSeconds <= 0 {
		holdSeconds = 3
	}
	stopButton := NewHoldButton(
		fmt.Sprintf("Stop (Hold %ds)", holdSeconds),
		time.Duration(holdSeconds)*time.Second,
		func() {
			log.Printf("Alarm %s stopped", session.Alarm.Time)
			onStop()
		},
	)

	content := container.NewVBox(
		container.NewPadded(title),
		container.NewPadded(clock),
		days,
		widget.NewSeparator(),
		container.NewCenter(stopButton),
	)

	return container.NewPadded(container.NewCenter(content))
}

func (rw *RingWindow) registerCmdQPrevention() {
	go func() {
		hk := hotkey.New([]hotkey.Modifier{hotkey.ModCmd}, hotkey.KeyQ)
		if err := hk.Register(); err != nil {
			log.Printf("Failed to register Cmd+Q hotkey prevention: %v", err)
			return
		}

		rw.mu.Lock()
		rw.cmdQHotkey = hk
		rw.mu.Unlock()

		// Consume Cmd+Q events so the app cannot be quit around the prompt
		for range hk.Keydown() {
			log.Println("Cmd+Q blocked - hold the stop button to end the alarm")
		}
	}()
}

// monitorFocus keeps the prompt in front while it is up: if the app loses
// focus the hotkey is released so other apps keep their shortcuts, then the
// window is pulled back and the hotkey re-armed.
func (rw *RingWindow) monitorFocus(stop chan struct{}) {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		wasFocused := true
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				isFocused := platform.IsAppActive()

				if wasFocused && !isFocused {
					rw.mu.Lock()
					hk := rw.cmdQHotkey
					rw.cmdQHotkey = nil
					rw.mu.Unlock()
					if hk != nil {
						log.Println("Prompt lost focus - unregistering Cmd+Q hotkey")
						hk.Unregister()
					}
				} else if !wasFocused && isFocused {
					rw.mu.Lock()
					rearm := rw.sessionID != "" && rw.cmdQHotkey == nil
					rw.mu.Unlock()
					if rearm {
						rw.registerCmdQPrevention()
					}
				}

				if !isFocused {
					platform.ActivateApp()
					rw.mu.Lock()
					window := rw.window
					rw.mu.Unlock()
					if window != nil {
						fyne.Do(func() {
							window.Show()
						})
					}
				}

				wasFocused = isFocused
			}
		}
	}()
}
