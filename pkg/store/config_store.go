package store

import (
	"encoding/json"

	"fyne.io/fyne/v2"

	"github.com/borgmon/wake-breaker/pkg/models"
)

// ConfigStore handles configuration persistence using Fyne preferences
type ConfigStore struct {
	app fyne.App
}

// NewConfigStore creates a new ConfigStore instance
func NewConfigStore(app fyne.App) *ConfigStore {
	return &ConfigStore{app: app}
}

// Load loads configuration from preferences
func (cs *ConfigStore) Load() *models.Config {
	prefs := cs.app.Preferences()

	config := &models.Config{
		AutoStart:       prefs.BoolWithFallback("auto_start", false),
		PollIntervalSec: prefs.IntWithFallback("poll_interval_seconds", 60),
		RingTimeoutSec:  prefs.IntWithFallback("ring_timeout_seconds", 60),
		HoldTimeSeconds: prefs.IntWithFallback("hold_time_seconds", 3),
		SoundFile:       prefs.StringWithFallback("sound_file", ""),
	}

	// Load holiday sources from JSON string
	sourcesJSON := prefs.String("holiday_sources")
	if sourcesJSON != "" {
		if err := json.Unmarshal([]byte(sourcesJSON), &config.HolidaySources); err != nil {
			config.HolidaySources = []models.HolidaySource{}
		}
	} else {
		config.HolidaySources = []models.HolidaySource{}
	}

	return config
}

// Save saves configuration to preferences
func (cs *ConfigStore) Save(config *models.Config) {
	prefs := cs.app.Preferences()

	prefs.SetBool("auto_start", config.AutoStart)
	prefs.SetInt("poll_interval_seconds", config.PollIntervalSec)
	prefs.SetInt("ring_timeout_seconds", config.RingTimeoutSec)
	prefs.SetInt("hold_time_seconds", config.HoldTimeSeconds)
	prefs.SetString("sound_file", config.SoundFile)

	// Save holiday sources as JSON string
	if sourcesJSON, err := json.Marshal(config.HolidaySources); err == nil {
		prefs.SetString("holiday_sources", string(sourcesJSON))
	}
}
