package app

import (
	"sort"
	"sync"

	"github.com/okulov/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room holds one room's admitted member set and host pointer. All membership
// and host mutations for a room happen under its mutex; operations on
// different rooms proceed in parallel.
type Room struct {
	ID domain.RoomID

	mu      sync.Mutex
	members map[domain.SessionID]struct{}
	host    domain.SessionID
	// gone is set once the registry drops the room. A joiner that raced the
	// reaper must re-fetch instead of mutating an orphaned record.
	gone bool
}

func newRoom(id domain.RoomID) *Room {
	return &Room{ID: id, members: make(map[domain.SessionID]struct{})}
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) Host() domain.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Members returns the admitted sessions sorted by id.
func (r *Room) Members() []domain.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked()
}

func (r *Room) membersLocked() []domain.SessionID {
	out := make([]domain.SessionID, 0, len(r.members))
	for sid := range r.members {
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// nextHostLocked picks the lexicographically smallest member. Any choice is
// valid as long as it is a current member; smallest keeps handover
// deterministic.
func (r *Room) nextHostLocked() domain.SessionID {
	var next domain.SessionID
	for sid := range r.members {
		if next == "" || sid < next {
			next = sid
		}
	}
	return next
}

// Registry maps room ids to live rooms. Room records are created on first
// use and removed only by the cleanup scheduler once empty.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*Room)}
}

func (reg *Registry) GetOrCreate(id domain.RoomID) *Room {
	reg.mu.RLock()
	room, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if ok {
		return room
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room, ok = reg.rooms[id]; ok {
		return room
	}
	room = newRoom(id)
	reg.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

func (reg *Registry) Get(id domain.RoomID) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// RemoveIfEmpty drops the room record when it still has no members. Both the
// registry and room locks are held so a concurrent join either lands before
// the check or observes the gone flag.
func (reg *Registry) RemoveIfEmpty(id domain.RoomID) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[id]
	if !ok {
		return false
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if len(room.members) > 0 {
		return false
	}
	room.gone = true
	room.host = ""
	delete(reg.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room removed")
	return true
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
