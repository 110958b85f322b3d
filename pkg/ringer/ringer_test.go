package ringer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/wake-breaker/pkg/models"
)

type fakeNotifier struct {
	mu    sync.Mutex
	notes []string
}

func (n *fakeNotifier) Notify(title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, title+"|"+body)
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.notes...)
}

type fakePlayback struct {
	mu    sync.Mutex
	stops int
}

func (p *fakePlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *fakePlayback) stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops > 0
}

type fakePlayer struct {
	mu        sync.Mutex
	fail      bool
	playbacks []*fakePlayback
}

func (p *fakePlayer) PlayLoop() (Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, errors.New("no audio device")
	}
	pb := &fakePlayback{}
	p.playbacks = append(p.playbacks, pb)
	return pb, nil
}

func (p *fakePlayer) playing() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, pb := range p.playbacks {
		if !pb.stopped() {
			n++
		}
	}
	return n
}

type fakeVibrator struct {
	mu       sync.Mutex
	starts   int
	cancels  int
	patterns [][]time.Duration
	repeats  []bool
}

func (v *fakeVibrator) StartPattern(pattern []time.Duration, repeat bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.starts++
	v.patterns = append(v.patterns, pattern)
	v.repeats = append(v.repeats, repeat)
	return nil
}

func (v *fakeVibrator) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancels++
}

type fakePrompter struct {
	mu        sync.Mutex
	presented []Session
	dismissed int
	onStop    func()
}

func (p *fakePrompter) Present(session Session, onStop func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presented = append(p.presented, session)
	p.onStop = onStop
}

func (p *fakePrompter) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dismissed++
}

func (p *fakePrompter) stop() {
	p.mu.Lock()
	fn := p.onStop
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fixture struct {
	ringer   *Ringer
	notifier *fakeNotifier
	player   *fakePlayer
	vibrator *fakeVibrator
	prompter *fakePrompter
}

func newFixture(timeout time.Duration) *fixture {
	f := &fixture{
		notifier: &fakeNotifier{},
		player:   &fakePlayer{},
		vibrator: &fakeVibrator{},
		prompter: &fakePrompter{},
	}
	f.ringer = New(Dispatcher{
		Notifier: f.notifier,
		Player:   f.player,
		Vibrator: f.vibrator,
		Prompter: f.prompter,
	}, timeout)
	return f
}

func testAlarm(clock string) models.Alarm {
	return models.Alarm{ID: "a-" + clock, Time: clock, Enabled: true}
}

func TestRingStartsSession(t *testing.T) {
	f := newFixture(time.Minute)

	sess := f.ringer.Ring(testAlarm("07:30"))
	assert.NotEmpty(t, sess.ID)

	state, current := f.ringer.State()
	assert.Equal(t, StateRinging, state)
	require.NotNil(t, current)
	assert.Equal(t, sess.ID, current.ID)

	assert.Equal(t, []string{"⏰ Wake Up!|It's 07:30"}, f.notifier.all())
	assert.Equal(t, 1, f.vibrator.starts)
	require.Len(t, f.vibrator.patterns, 1)
	assert.Equal(t, []time.Duration{0, 250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}, f.vibrator.patterns[0])
	assert.Equal(t, []bool{true}, f.vibrator.repeats)
	assert.Equal(t, 1, f.player.playing())
	require.Len(t, f.prompter.presented, 1)
	assert.Equal(t, "07:30", f.prompter.presented[0].Alarm.Time)
}

func TestRingSupersedesActiveSession(t *testing.T) {
	f := newFixture(time.Minute)

	first := f.ringer.Ring(testAlarm("07:30"))
	second := f.ringer.Ring(testAlarm("07:31"))

	// The earlier session's audio is stopped before the new one starts
	// playing; at no point do two sessions hold the audio channel.
	assert.True(t, f.player.playbacks[0].stopped())
	assert.Equal(t, 1, f.player.playing())
	assert.GreaterOrEqual(t, f.vibrator.cancels, 1)

	state, current := f.ringer.State()
	assert.Equal(t, StateRinging, state)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
	assert.NotEqual(t, first.ID, current.ID)
}

func TestStopIsIdempotent(t *testing.T) {
	f := newFixture(time.Minute)

	// No active session: no-op, no panic.
	f.ringer.Stop()

	f.ringer.Ring(testAlarm("07:30"))
	f.ringer.Stop()
	f.ringer.Stop()

	state, _ := f.ringer.State()
	assert.Equal(t, StateIdle, state)
	assert.Equal(t, 1, f.player.playbacks[0].stops)
	assert.Equal(t, 1, f.vibrator.cancels)
}

func TestPromptStopEndsSession(t *testing.T) {
	f := newFixture(time.Minute)

	f.ringer.Ring(testAlarm("07:30"))
	f.prompter.stop()

	state, _ := f.ringer.State()
	assert.Equal(t, StateIdle, state)
	assert.Equal(t, 0, f.player.playing())

	// The prompt callback outliving the session stays harmless.
	f.prompter.stop()
	assert.Equal(t, 1, f.player.playbacks[0].stops)
}

func TestTimeoutStopsSession(t *testing.T) {
	f := newFixture(20 * time.Millisecond)

	f.ringer.Ring(testAlarm("07:30"))

	assert.Eventually(t, func() bool {
		state, _ := f.ringer.State()
		return state == StateIdle
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.player.playing())
}

func TestAudioFailureDoesNotWedgeSession(t *testing.T) {
	f := newFixture(time.Minute)
	f.player.fail = true

	f.ringer.Ring(testAlarm("07:30"))
	state, _ := f.ringer.State()
	assert.Equal(t, StateRinging, state)

	f.ringer.Stop()
	state, _ = f.ringer.State()
	assert.Equal(t, StateIdle, state)
}

func TestSubscribersSeeTransitions(t *testing.T) {
	f := newFixture(time.Minute)

	var mu sync.Mutex
	var seen []State
	f.ringer.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c.State)
	})

	f.ringer.Ring(testAlarm("07:30"))
	f.ringer.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateRinging, StateIdle}, seen)
}
