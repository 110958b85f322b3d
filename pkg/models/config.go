package models

import "time"

// Config holds application configuration
type Config struct {
	AutoStart       bool            `json:"auto_start"`
	PollIntervalSec int             `json:"poll_interval_seconds"` // due-check cadence
	RingTimeoutSec  int             `json:"ring_timeout_seconds"`  // auto-stop for a ringing session
	HoldTimeSeconds int             `json:"hold_time_seconds"`     // stop-button hold time
	SoundFile       string          `json:"sound_file"`            // optional WAV path, empty = built-in tone
	HolidaySources  []HolidaySource `json:"holiday_sources"`       // iCal feeds for excluded-date import
}

// HolidaySource represents a named iCal feed whose all-day events can be
// imported as excluded dates.
type HolidaySource struct {
	ID   string `json:"id"`   // Unique identifier
	Name string `json:"name"` // Display name
	URL  string `json:"url"`  // iCal URL
}

// PollInterval returns the due-check cadence, falling back to one minute.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.PollIntervalSec) * time.Second
}

// RingTimeout returns how long a ringing session may run before it is
// stopped automatically, falling back to one minute.
func (c *Config) RingTimeout() time.Duration {
	if c.RingTimeoutSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.RingTimeoutSec) * time.Second
}

// Validate checks if the holiday source has required fields
func (s *HolidaySource) Validate() bool {
	return s.Name != "" && s.URL != ""
}
