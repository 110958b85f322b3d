package engine

import (
	"log"
	"time"

	"github.com/borgmon/wake-breaker/pkg/models"
	"github.com/borgmon/wake-breaker/pkg/ringer"
	"github.com/borgmon/wake-breaker/pkg/store"
)

// Engine ties the alarm store, the due-check evaluator and the firing state
// machine together behind the interface the UI layer consumes. It owns no
// timers; the poll scheduler calls Check on its cadence.
type Engine struct {
	store  *store.AlarmStore
	ringer *ringer.Ringer
}

func New(alarms *store.AlarmStore, ring *ringer.Ringer) *Engine {
	return &Engine{store: alarms, ringer: ring}
}

// Load hydrates the alarm list from the persisted blob.
func (e *Engine) Load() []models.Alarm {
	return e.store.Load()
}

// Alarms returns all alarms in creation order.
func (e *Engine) Alarms() []models.Alarm {
	return e.store.All()
}

// EnabledCount returns how many alarms are currently enabled.
func (e *Engine) EnabledCount() int {
	n := 0
	for _, alarm := range e.store.All() {
		if alarm.Enabled {
			n++
		}
	}
	return n
}

// AddAlarm validates and admits a candidate alarm. An alternating alarm
// without a start week is anchored to the week containing now, which makes
// the creation week an "on" week.
func (e *Engine) AddAlarm(candidate models.Alarm, now time.Time) (models.Alarm, error) {
	if candidate.AlternateWeeks && candidate.StartWeek == nil {
		week := models.WeekIndex(now)
		candidate.StartWeek = &week
	}
	return e.store.Add(candidate)
}

// ToggleAlarm flips every alarm matching the "HH:MM" time key and returns
// how many flipped. Alarms sharing a time are indistinguishable here.
func (e *Engine) ToggleAlarm(timeKey string) int {
	return e.store.ToggleTime(timeKey)
}

// ToggleAlarmByID flips one alarm addressed by its stable ID.
func (e *Engine) ToggleAlarmByID(id string) bool {
	return e.store.ToggleByID(id)
}

// DeleteAlarm removes the alarm at the given position in creation order.
func (e *Engine) DeleteAlarm(index int) error {
	return e.store.Remove(index)
}

// DeleteAlarmByID removes one alarm addressed by its stable ID.
func (e *Engine) DeleteAlarmByID(id string) bool {
	return e.store.RemoveByID(id)
}

// Check evaluates every stored alarm against now, in store order, and rings
// each due one. With several alarms due in the same pass each ring
// supersedes the previous, so the last due alarm ends up holding the
// ringing channel. Returns the number of alarms that rang.
func (e *Engine) Check(now time.Time) int {
	rang := 0
	for _, alarm := range e.store.All() {
		if alarm.DueAt(now) {
			log.Printf("Alarm %s due at %s", alarm.Time, now.Format("2006-01-02 15:04"))
			e.ringer.Ring(alarm)
			rang++
		}
	}
	return rang
}

// StopRinging ends the active ringing session, if any.
func (e *Engine) StopRinging() {
	e.ringer.Stop()
}

// RingState returns the firing machine's state and, while ringing, the
// session snapshot.
func (e *Engine) RingState() (ringer.State, *ringer.Session) {
	return e.ringer.State()
}

// SubscribeRinging registers a callback for ringing-session state changes,
// for rendering stop buttons and banners.
func (e *Engine) SubscribeRinging(fn func(ringer.Change)) {
	e.ringer.Subscribe(fn)
}

// Shutdown stops any active ringing session and waits for pending durable
// writes. The poll scheduler is canceled by its own context.
func (e *Engine) Shutdown() {
	e.ringer.Stop()
	e.store.Flush()
}
