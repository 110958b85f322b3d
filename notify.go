package main

import (
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/borgmon/wake-breaker/pkg/audio"
	"github.com/borgmon/wake-breaker/pkg/models"
	"github.com/borgmon/wake-breaker/pkg/ringer"
)

// fyneNotifier posts local notifications through the Fyne app.
type fyneNotifier struct {
	app fyne.App
}

func (n *fyneNotifier) Notify(title, body string) {
	n.app.SendNotification(fyne.NewNotification(title, body))
}

// alarmPlayer starts looped alarm audio, using the configured WAV file when
// one is set and falling back to the built-in tone.
type alarmPlayer struct {
	mu     sync.Mutex
	config *models.Config
}

func newAlarmPlayer(config *models.Config) *alarmPlayer {
	return &alarmPlayer{config: config}
}

// SetConfig swaps the configuration used for subsequent sessions.
func (p *alarmPlayer) SetConfig(config *models.Config) {
	p.mu.Lock()
	p.config = config
	p.mu.Unlock()
}

func (p *alarmPlayer) PlayLoop() (ringer.Playback, error) {
	playback, err := p.sound().Play()
	if err != nil {
		return nil, err
	}
	return playback, nil
}

func (p *alarmPlayer) sound() *audio.Sound {
	p.mu.Lock()
	soundFile := p.config.SoundFile
	p.mu.Unlock()

	if soundFile != "" {
		sound, err := audio.LoadFile(soundFile)
		if err == nil {
			return sound
		}
		log.Printf("Failed to load sound file %s, using built-in tone: %v", soundFile, err)
	}
	return audio.DefaultTone()
}

// desktopVibrator satisfies the vibration contract on hardware without a
// vibration motor.
type desktopVibrator struct{}

func (desktopVibrator) StartPattern(pattern []time.Duration, repeat bool) error {
	return nil
}

func (desktopVibrator) Cancel() {
}
