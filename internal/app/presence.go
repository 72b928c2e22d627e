package app

import (
	"sync"

	"github.com/okulov/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// PresenceTable maps every session currently associated with a room (pending
// or admitted) to its entry. At most one entry per session.
type PresenceTable struct {
	mu      sync.RWMutex
	entries map[domain.SessionID]domain.PresenceEntry
}

func NewPresenceTable() *PresenceTable {
	return &PresenceTable{entries: make(map[domain.SessionID]domain.PresenceEntry)}
}

func (p *PresenceTable) Set(sid domain.SessionID, entry domain.PresenceEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[sid] = entry
	log.Info().Str("module", "app.presence").Str("sid", string(sid)).Str("room", string(entry.Room)).Msg("presence set")
}

func (p *PresenceTable) Get(sid domain.SessionID) (domain.PresenceEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[sid]
	return e, ok
}

func (p *PresenceTable) Delete(sid domain.SessionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, sid)
	log.Info().Str("module", "app.presence").Str("sid", string(sid)).Msg("presence deleted")
}

// Name returns the display name for a session, or "" when it has no entry.
func (p *PresenceTable) Name(sid domain.SessionID) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entries[sid].DisplayName
}

func (p *PresenceTable) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
