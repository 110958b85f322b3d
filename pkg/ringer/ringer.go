package ringer

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/borgmon/wake-breaker/pkg/models"
)

// State of the firing machine.
type State string

const (
	StateIdle    State = "Idle"
	StateRinging State = "Ringing"
)

// VibrationPattern is the wait/vibrate sequence played while ringing.
var VibrationPattern = []time.Duration{
	0,
	250 * time.Millisecond,
	250 * time.Millisecond,
	250 * time.Millisecond,
}

// Notifier posts an immediate local notification. Fire-and-forget.
type Notifier interface {
	Notify(title, body string)
}

// Playback is a handle to running looped audio.
type Playback interface {
	// Stop halts playback and releases the audio resource. Idempotent.
	Stop()
}

// Player starts looped alarm audio.
type Player interface {
	PlayLoop() (Playback, error)
}

// Vibrator drives the device vibration motor, if there is one.
type Vibrator interface {
	StartPattern(pattern []time.Duration, repeat bool) error
	Cancel()
}

// Prompter presents the blocking acknowledgment prompt whose only action
// stops the session.
type Prompter interface {
	Present(session Session, onStop func())
	Dismiss()
}

// Dispatcher groups the device collaborators a ringing session drives. All
// side effects of the state machine flow through here, so the machine is
// testable with fakes.
type Dispatcher struct {
	Notifier Notifier
	Player   Player
	Vibrator Vibrator
	Prompter Prompter
}

// Session describes one ringing episode.
type Session struct {
	ID        string
	Alarm     models.Alarm
	StartedAt time.Time
}

// Change is delivered to subscribers on every state transition. Session is
// nil when the machine returns to Idle.
type Change struct {
	State   State
	Session *Session
}

// session is the internal mutable counterpart of Session.
type session struct {
	Session
	playback Playback
	timer    *time.Timer
	stopped  bool
}

// Ringer is the firing state machine. At most one ringing session exists at
// any instant; starting a new one first stops the previous session, so the
// last due alarm wins and earlier wake effects are superseded, not queued.
type Ringer struct {
	// Now is the clock used for session start stamps. Swappable in tests.
	Now func() time.Time

	dispatch Dispatcher
	timeout  time.Duration

	mu      sync.Mutex
	current *session
	subs    []func(Change)
}

// New creates a Ringer with the given collaborators and auto-stop timeout.
func New(dispatch Dispatcher, timeout time.Duration) *Ringer {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Ringer{
		Now:      time.Now,
		dispatch: dispatch,
		timeout:  timeout,
	}
}

// SetTimeout changes the auto-stop timeout for subsequent sessions. The
// active session keeps the timeout it started with.
func (r *Ringer) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = timeout
}

// Subscribe registers a callback for state changes. Callbacks run outside
// the machine's lock and must not assume a particular goroutine.
func (r *Ringer) Subscribe(fn func(Change)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// State returns the current state and, while ringing, a session snapshot.
func (r *Ringer) State() (State, *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return StateIdle, nil
	}
	snap := r.current.Session
	return StateRinging, &snap
}

// Ring starts a ringing session for the alarm: notification, repeating
// vibration, looped audio, auto-stop timer, acknowledgment prompt. An
// active session is stopped first.
func (r *Ringer) Ring(alarm models.Alarm) Session {
	r.mu.Lock()

	if r.current != nil {
		log.Printf("Superseding ringing session for alarm %s", r.current.Alarm.Time)
		r.cleanupLocked(r.current)
	}

	sess := &session{
		Session: Session{
			ID:        uuid.New().String(),
			Alarm:     alarm,
			StartedAt: r.Now(),
		},
	}
	r.current = sess

	r.dispatch.Notifier.Notify("⏰ Wake Up!", "It's "+alarm.Time)

	if err := r.dispatch.Vibrator.StartPattern(VibrationPattern, true); err != nil {
		log.Printf("Failed to start vibration: %v", err)
	}

	playback, err := r.dispatch.Player.PlayLoop()
	if err != nil {
		// Keep the session anyway: the prompt and timeout still apply, so
		// the machine can never sit silently stuck in Ringing.
		log.Printf("Failed to start alarm audio: %v", err)
	} else {
		sess.playback = playback
	}

	sess.timer = time.AfterFunc(r.timeout, func() { r.stopSession(sess) })

	snap := sess.Session
	subs := append([]func(Change){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(Change{State: StateRinging, Session: &snap})
	}

	// A subscriber may have stopped or superseded the session already;
	// don't raise a prompt for a dead session.
	r.mu.Lock()
	active := !sess.stopped
	r.mu.Unlock()
	if active {
		r.dispatch.Prompter.Present(snap, func() { r.stopSession(sess) })
	}
	return snap
}

// Stop ends the active session, if any. Stopping with no active session is
// a no-op.
func (r *Ringer) Stop() {
	r.mu.Lock()
	sess := r.current
	if sess == nil {
		r.mu.Unlock()
		return
	}
	r.cleanupLocked(sess)
	subs := append([]func(Change){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(Change{State: StateIdle})
	}
}

// stopSession ends one specific session. Used by the auto-stop timer and
// the prompt callback, either of which may fire after the session was
// already superseded.
func (r *Ringer) stopSession(sess *session) {
	r.mu.Lock()
	if sess.stopped {
		r.mu.Unlock()
		return
	}
	r.cleanupLocked(sess)
	subs := append([]func(Change){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(Change{State: StateIdle})
	}
}

// cleanupLocked releases everything a session holds. The same path runs on
// user stop, timeout, and supersede. Callers must hold r.mu.
func (r *Ringer) cleanupLocked(sess *session) {
	if sess.stopped {
		return
	}
	sess.stopped = true

	if sess.timer != nil {
		sess.timer.Stop()
	}
	if sess.playback != nil {
		sess.playback.Stop()
	}
	r.dispatch.Vibrator.Cancel()
	r.dispatch.Prompter.Dismiss()

	if r.current == sess {
		r.current = nil
	}
}
