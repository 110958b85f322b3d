package store

import (
	"encoding/json"
	"log"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/borgmon/wake-breaker/pkg/errs"
	"github.com/borgmon/wake-breaker/pkg/models"
)

// alarmsKey is the blob key holding the serialized alarm list.
const alarmsKey = "alarms"

// Blob is the key-value store the alarm list is mirrored into. The store
// treats it as an external collaborator and never lets its failures escape.
type Blob interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// PreferencesBlob adapts Fyne preferences to the Blob interface.
type PreferencesBlob struct {
	prefs fyne.Preferences
}

func NewPreferencesBlob(app fyne.App) *PreferencesBlob {
	return &PreferencesBlob{prefs: app.Preferences()}
}

func (b *PreferencesBlob) Get(key string) (string, error) {
	return b.prefs.String(key), nil
}

func (b *PreferencesBlob) Set(key, value string) error {
	b.prefs.SetString(key, value)
	return nil
}

// AlarmStore owns the canonical alarm list, in creation order. Mutations
// update memory synchronously and mirror the full serialized list into the
// blob store in the background; the in-memory list is always authoritative.
type AlarmStore struct {
	mu     sync.RWMutex
	blob   Blob
	alarms []*models.Alarm

	writes   sync.WaitGroup
	writeMu  sync.Mutex
	writeGen uint64 // generation of the newest snapshot handed off
	wroteGen uint64 // generation of the newest snapshot actually written
}

func NewAlarmStore(blob Blob) *AlarmStore {
	return &AlarmStore{blob: blob}
}

// Load reads the persisted alarm list. It never fails: a read or decode
// error is logged, the corrupt blob is replaced with an empty list, and an
// empty list is returned.
func (s *AlarmStore) Load() []models.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.blob.Get(alarmsKey)
	if err != nil {
		log.Printf("Failed to read alarms, starting empty: %v", err)
		s.alarms = nil
		s.persistLocked()
		return []models.Alarm{}
	}

	var decoded []*models.Alarm
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			log.Printf("Discarding corrupt alarm blob: %v", err)
			s.alarms = nil
			s.persistLocked()
			return []models.Alarm{}
		}
	}

	assignedIDs := false
	for _, alarm := range decoded {
		hadID := alarm.ID != ""
		alarm.Sanitize()
		if !hadID {
			assignedIDs = true
		}
	}
	s.alarms = decoded

	// Blobs written before IDs existed get them assigned once and saved.
	if assignedIDs {
		s.persistLocked()
	}

	return s.allLocked()
}

// All returns the alarms in creation order. Callers get copies.
func (s *AlarmStore) All() []models.Alarm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLocked()
}

func (s *AlarmStore) allLocked() []models.Alarm {
	out := make([]models.Alarm, 0, len(s.alarms))
	for _, alarm := range s.alarms {
		out = append(out, *alarm)
	}
	return out
}

// Add validates and admits a candidate alarm. The candidate is normalized,
// given a stable ID if it lacks one, and appended in creation order.
func (s *AlarmStore) Add(alarm models.Alarm) (models.Alarm, error) {
	if err := alarm.Normalize(); err != nil {
		return models.Alarm{}, err
	}
	alarm.Sanitize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = append(s.alarms, &alarm)
	s.persistLocked()
	return alarm, nil
}

// Remove deletes the alarm at the given position in creation order.
func (s *AlarmStore) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.alarms) {
		return errs.Errorf(errs.Invalid, "no alarm at index %d", index)
	}
	s.alarms = append(s.alarms[:index], s.alarms[index+1:]...)
	s.persistLocked()
	return nil
}

// RemoveByID deletes the alarm with the given ID, reporting whether one
// was found.
func (s *AlarmStore) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, alarm := range s.alarms {
		if alarm.ID == id {
			s.alarms = append(s.alarms[:i], s.alarms[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}

// Toggle flips the enabled flag of every alarm the predicate matches and
// returns how many were flipped.
func (s *AlarmStore) Toggle(match func(models.Alarm) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	toggled := 0
	for _, alarm := range s.alarms {
		if match(*alarm) {
			alarm.Enabled = !alarm.Enabled
			toggled++
		}
	}
	if toggled > 0 {
		s.persistLocked()
	}
	return toggled
}

// ToggleTime flips every alarm sharing the given "HH:MM" time key. Two
// alarms with the same time are indistinguishable here and both flip; use
// ToggleByID to address one of them.
func (s *AlarmStore) ToggleTime(timeKey string) int {
	return s.Toggle(func(a models.Alarm) bool { return a.Time == timeKey })
}

// ToggleByID flips the alarm with the given ID, reporting whether one was
// found.
func (s *AlarmStore) ToggleByID(id string) bool {
	return s.Toggle(func(a models.Alarm) bool { return a.ID == id }) > 0
}

// Flush blocks until all background writes handed off so far have landed.
func (s *AlarmStore) Flush() {
	s.writes.Wait()
}

// persistLocked snapshots the list and hands it to a background write.
// Callers must hold s.mu. Each alarm is sanitized first so the persisted
// form is always well-typed even if the in-memory form was momentarily
// loose.
func (s *AlarmStore) persistLocked() {
	for _, alarm := range s.alarms {
		alarm.Sanitize()
	}

	data, err := json.Marshal(s.alarms)
	if err != nil {
		// Alarm fields are all plain JSON types; getting here means a bug,
		// but the durable mirror must never hold partial data.
		log.Printf("Failed to encode alarms: %v", err)
		data = []byte("[]")
	}
	if s.alarms == nil {
		data = []byte("[]")
	}

	s.writeGen++
	gen := s.writeGen

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		s.writeBlob(gen, string(data))
	}()
}

func (s *AlarmStore) writeBlob(gen uint64, data string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// A newer snapshot already landed; this one is stale.
	if gen <= s.wroteGen {
		return
	}
	s.wroteGen = gen

	if err := s.blob.Set(alarmsKey, data); err != nil {
		log.Printf("Failed to persist alarms: %v", err)
		// Leave a valid empty list behind rather than a torn write.
		if err := s.blob.Set(alarmsKey, "[]"); err != nil {
			log.Printf("Fallback save failed: %v", err)
		}
	}
}
