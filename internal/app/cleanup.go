package app

import (
	"sync"
	"time"

	"github.com/okulov/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Janitor reclaims room records some time after they empty out. Scheduling is
// a pure debounce: re-arming replaces the pending timer, so a burst of
// join/leave on one room yields at most one deletion check.
type Janitor struct {
	rooms *Registry
	delay time.Duration

	mu     sync.Mutex
	timers map[domain.RoomID]*time.Timer
}

func NewJanitor(rooms *Registry, delay time.Duration) *Janitor {
	return &Janitor{
		rooms:  rooms,
		delay:  delay,
		timers: make(map[domain.RoomID]*time.Timer),
	}
}

// Schedule arms (or re-arms) the delayed reclamation check for a room.
func (j *Janitor) Schedule(id domain.RoomID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if t, ok := j.timers[id]; ok {
		t.Stop()
	}
	j.timers[id] = time.AfterFunc(j.delay, func() { j.reap(id) })
}

// Cancel disarms a pending reclamation, e.g. when a session is admitted to
// the room before the delay elapses.
func (j *Janitor) Cancel(id domain.RoomID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if t, ok := j.timers[id]; ok {
		t.Stop()
		delete(j.timers, id)
	}
}

// Pending reports whether a reclamation is armed for the room.
func (j *Janitor) Pending(id domain.RoomID) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.timers[id]
	return ok
}

func (j *Janitor) reap(id domain.RoomID) {
	j.mu.Lock()
	delete(j.timers, id)
	j.mu.Unlock()

	if j.rooms.RemoveIfEmpty(id) {
		log.Info().Str("module", "app.janitor").Str("room", string(id)).Msg("idle room reclaimed")
	}
}
