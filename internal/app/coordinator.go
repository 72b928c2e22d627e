package app

import (
	"time"

	"github.com/okulov/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Coordinator owns room membership, the host-approval admission flow and
// point-to-point relay of negotiation payloads. It never blocks on delivery:
// notifications are handed to the Sender and state transitions commit
// regardless of delivery outcome.
type Coordinator struct {
	Presence *PresenceTable
	Rooms    *Registry
	Janitor  *Janitor
	Sender   Sender
}

func NewCoordinator(sender Sender, cleanupDelay time.Duration) *Coordinator {
	rooms := NewRegistry()
	return &Coordinator{
		Presence: NewPresenceTable(),
		Rooms:    rooms,
		Janitor:  NewJanitor(rooms, cleanupDelay),
		Sender:   sender,
	}
}

// Join drives the admission workflow for one session. An empty room admits
// the requester immediately and makes it host; otherwise the requester waits
// for the host's decision.
func (c *Coordinator) Join(sid domain.SessionID, roomID domain.RoomID, name string) {
	if entry, ok := c.Presence.Get(sid); ok {
		if entry.Room == roomID {
			log.Debug().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("duplicate join suppressed")
			return
		}
		// Switching rooms: depart the old one first.
		c.Leave(sid, entry.Room)
	}

	c.Presence.Set(sid, domain.PresenceEntry{
		Room:        roomID,
		DisplayName: name,
		JoinedAt:    time.Now(),
	})

	for {
		room := c.Rooms.GetOrCreate(roomID)
		room.mu.Lock()
		if room.gone {
			room.mu.Unlock()
			continue
		}

		if len(room.members) == 0 {
			room.host = sid
			c.admitLocked(room, sid, name)
			room.mu.Unlock()
			c.Janitor.Cancel(roomID)
			log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("joined empty room as host")
			return
		}

		host := room.host
		if host == "" {
			// Members present but no host recorded. This should not happen;
			// recover by promoting a member so the applicant is not stranded.
			host = room.nextHostLocked()
			room.host = host
			log.Warn().Str("module", "app.coordinator").Str("room", string(roomID)).Str("host", string(host)).Bool("invariant_violation", true).Msg("room had members but no host")
		}
		room.mu.Unlock()

		c.Sender.Send(sid, EvtWaitingForApproval, struct{}{})
		c.Sender.Send(host, EvtJoinRequest, UserRef{UserID: sid, UserName: name})
		log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Str("host", string(host)).Msg("pending approval")
		return
	}
}

// Approve admits a pending applicant. Only the room's current host may
// approve; anything else is dropped without a state change.
func (c *Coordinator) Approve(host, requester domain.SessionID, roomID domain.RoomID) {
	room, ok := c.Rooms.Get(roomID)
	if !ok {
		return
	}
	entry, ok := c.Presence.Get(requester)
	if !ok || entry.Room != roomID {
		return
	}

	room.mu.Lock()
	if room.host != host {
		room.mu.Unlock()
		log.Warn().Str("module", "app.coordinator").Str("sid", string(host)).Str("room", string(roomID)).Msg("admit from non-host dropped")
		return
	}
	if _, already := room.members[requester]; already {
		room.mu.Unlock()
		return
	}
	c.Sender.Send(requester, EvtJoinApproved, struct{}{})
	c.admitLocked(room, requester, entry.DisplayName)
	room.mu.Unlock()

	c.Janitor.Cancel(roomID)
	log.Info().Str("module", "app.coordinator").Str("sid", string(requester)).Str("room", string(roomID)).Msg("admitted by host")
}

// Reject turns a pending applicant away. Same authorization as Approve; the
// applicant's presence is erased without it ever joining membership.
func (c *Coordinator) Reject(host, requester domain.SessionID, roomID domain.RoomID) {
	room, ok := c.Rooms.Get(roomID)
	if !ok {
		return
	}
	entry, ok := c.Presence.Get(requester)
	if !ok || entry.Room != roomID {
		return
	}

	room.mu.Lock()
	authorized := room.host == host
	_, member := room.members[requester]
	room.mu.Unlock()
	if !authorized {
		log.Warn().Str("module", "app.coordinator").Str("sid", string(host)).Str("room", string(roomID)).Msg("reject from non-host dropped")
		return
	}
	if member {
		return
	}

	c.Sender.Send(requester, EvtJoinRejected, struct{}{})
	c.Presence.Delete(requester)
	log.Info().Str("module", "app.coordinator").Str("sid", string(requester)).Str("room", string(roomID)).Msg("rejected by host")
}

// admitLocked runs the shared admit procedure with room.mu held: snapshot
// existing members, add the requester, send the snapshot to the requester as
// one batch, then notify everyone else.
func (c *Coordinator) admitLocked(room *Room, sid domain.SessionID, name string) {
	existing := make([]UserRef, 0, len(room.members))
	for _, m := range room.membersLocked() {
		if m == sid {
			continue
		}
		existing = append(existing, UserRef{UserID: m, UserName: c.Presence.Name(m)})
	}

	room.members[sid] = struct{}{}

	if len(existing) > 0 {
		c.Sender.Send(sid, EvtExistingUsers, existing)
	}
	joined := UserRef{UserID: sid, UserName: name}
	for m := range room.members {
		if m == sid {
			continue
		}
		c.Sender.Send(m, EvtUserJoined, joined)
	}
}

// Relay forwards one negotiation payload to the destination session, tagged
// with the sender. No validation, no membership check, no rate limit; a
// vanished destination is a silent no-op.
func (c *Coordinator) Relay(kind string, from, to domain.SessionID, env SignalEnvelope) {
	env.From = from
	c.Sender.Send(to, kind, env)
}

// MediaToggle broadcasts a best-effort media on/off signal to the room,
// excluding the sender.
func (c *Coordinator) MediaToggle(sid domain.SessionID, roomID domain.RoomID, kind string, isOn bool) {
	c.broadcast(roomID, sid, EvtMediaStatus, MediaStatusPayload{UserID: sid, Kind: kind, IsOn: isOn})
}

// ScreenShare broadcasts screen-share state to the room, excluding the sender.
func (c *Coordinator) ScreenShare(sid domain.SessionID, roomID domain.RoomID, isSharing bool) {
	c.broadcast(roomID, sid, EvtParticipantScreen, ScreenSharePayload{
		UserID:    sid,
		UserName:  c.Presence.Name(sid),
		IsSharing: isSharing,
	})
}

func (c *Coordinator) broadcast(roomID domain.RoomID, exclude domain.SessionID, event string, payload any) {
	room, ok := c.Rooms.Get(roomID)
	if !ok {
		return
	}
	for _, m := range room.Members() {
		if m == exclude {
			continue
		}
		c.Sender.Send(m, event, payload)
	}
}

// Leave is the unified departure path for explicit leave-room requests and
// transport disconnects. A still-pending applicant only has presence to
// erase; a member's departure may hand the host role over and arms the
// janitor for the (possibly empty) room.
func (c *Coordinator) Leave(sid domain.SessionID, roomID domain.RoomID) {
	entry, ok := c.Presence.Get(sid)
	if !ok || entry.Room != roomID {
		return
	}

	room, found := c.Rooms.Get(roomID)
	if !found {
		c.Presence.Delete(sid)
		return
	}

	room.mu.Lock()
	_, wasMember := room.members[sid]
	delete(room.members, sid)
	var newHost domain.SessionID
	if room.host == sid {
		if len(room.members) > 0 {
			newHost = room.nextHostLocked()
		}
		room.host = newHost
	}
	remaining := room.membersLocked()
	room.mu.Unlock()

	if wasMember {
		left := UserRef{UserID: sid, UserName: entry.DisplayName}
		for _, m := range remaining {
			c.Sender.Send(m, EvtUserLeft, left)
		}
	}

	c.Presence.Delete(sid)

	if newHost != "" {
		c.Sender.Send(newHost, EvtHostAssigned, HostAssignedPayload{RoomID: roomID})
		log.Info().Str("module", "app.coordinator").Str("sid", string(newHost)).Str("room", string(roomID)).Msg("host handed over")
	}

	c.Janitor.Schedule(roomID)
	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Bool("was_member", wasMember).Msg("left room")
}

// Disconnect cleans up after the transport loses a session. The room is
// resolved through presence; a session that never joined has nothing to do.
func (c *Coordinator) Disconnect(sid domain.SessionID) {
	if entry, ok := c.Presence.Get(sid); ok {
		c.Leave(sid, entry.Room)
	}
}
