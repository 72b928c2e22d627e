package domain

import "time"

type RoomID string

// PresenceEntry ties a session to the room it is in (pending or admitted).
// A session with no entry is in no room at all.
type PresenceEntry struct {
	Room        RoomID
	DisplayName string
	JoinedAt    time.Time
}
