package app

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okulov/huddle/internal/domain"
)

type sentEvent struct {
	To      domain.SessionID
	Event   string
	Payload any
}

type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeSender) Send(sid domain.SessionID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{To: sid, Event: event, Payload: payload})
}

func (f *fakeSender) all() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeSender) forSession(sid domain.SessionID) []sentEvent {
	var out []sentEvent
	for _, e := range f.all() {
		if e.To == sid {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSender) count(sid domain.SessionID, event string) int {
	n := 0
	for _, e := range f.all() {
		if e.To == sid && e.Event == event {
			n++
		}
	}
	return n
}

func (f *fakeSender) last(sid domain.SessionID, event string) (sentEvent, bool) {
	var found sentEvent
	ok := false
	for _, e := range f.all() {
		if e.To == sid && e.Event == event {
			found = e
			ok = true
		}
	}
	return found, ok
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

func newTestCoordinator() (*Coordinator, *fakeSender) {
	sender := &fakeSender{}
	return NewCoordinator(sender, 50*time.Millisecond), sender
}

func TestJoinEmptyRoomBecomesHost(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")

	room, ok := c.Rooms.Get("room1")
	require.True(t, ok)
	assert.Equal(t, domain.SessionID("a"), room.Host())
	assert.Equal(t, []domain.SessionID{"a"}, room.Members())

	entry, ok := c.Presence.Get("a")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("room1"), entry.Room)
	assert.Equal(t, "Alice", entry.DisplayName)

	// First member has no peers: no existing-users batch, no user-joined.
	assert.Zero(t, sender.count("a", EvtExistingUsers))
	assert.Zero(t, sender.count("a", EvtUserJoined))
}

func TestJoinIdempotent(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	sender.reset()
	c.Join("a", "room1", "Alice")

	assert.Equal(t, 1, c.Presence.Len())
	room, _ := c.Rooms.Get("room1")
	assert.Equal(t, 1, room.MemberCount())
	assert.Empty(t, sender.all(), "duplicate join must produce no notifications")
}

func TestAdmissionRoundTrip(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")

	// B waits, A is asked.
	assert.Equal(t, 1, sender.count("b", EvtWaitingForApproval))
	req, ok := sender.last("a", EvtJoinRequest)
	require.True(t, ok)
	assert.Equal(t, UserRef{UserID: "b", UserName: "Bob"}, req.Payload)

	// Pending applicant is not a member yet.
	room, _ := c.Rooms.Get("room1")
	assert.Equal(t, []domain.SessionID{"a"}, room.Members())

	c.Approve("a", "b", "room1")

	assert.Equal(t, []domain.SessionID{"a", "b"}, room.Members())
	assert.Equal(t, 1, sender.count("b", EvtJoinApproved))

	existing, ok := sender.last("b", EvtExistingUsers)
	require.True(t, ok)
	assert.Equal(t, []UserRef{{UserID: "a", UserName: "Alice"}}, existing.Payload)

	joined, ok := sender.last("a", EvtUserJoined)
	require.True(t, ok)
	assert.Equal(t, UserRef{UserID: "b", UserName: "Bob"}, joined.Payload)
}

func TestUnauthorizedAdmit(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")
	c.Join("x", "room1", "Mallory")
	sender.reset()

	c.Approve("x", "b", "room1")

	room, _ := c.Rooms.Get("room1")
	assert.Equal(t, []domain.SessionID{"a"}, room.Members())
	assert.Empty(t, sender.all(), "non-host admit must produce no notifications")
}

func TestReject(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")

	// Non-host reject is dropped.
	c.Reject("b", "b", "room1")
	_, stillThere := c.Presence.Get("b")
	assert.True(t, stillThere)

	c.Reject("a", "b", "room1")

	assert.Equal(t, 1, sender.count("b", EvtJoinRejected))
	_, ok := c.Presence.Get("b")
	assert.False(t, ok, "rejected applicant must lose its presence entry")
	room, _ := c.Rooms.Get("room1")
	assert.Equal(t, []domain.SessionID{"a"}, room.Members())
}

func TestHostHandover(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")
	c.Approve("a", "b", "room1")
	sender.reset()

	c.Disconnect("a")

	room, _ := c.Rooms.Get("room1")
	assert.Equal(t, domain.SessionID("b"), room.Host())
	assert.Equal(t, []domain.SessionID{"b"}, room.Members())

	assigned, ok := sender.last("b", EvtHostAssigned)
	require.True(t, ok)
	assert.Equal(t, HostAssignedPayload{RoomID: "room1"}, assigned.Payload)

	left, ok := sender.last("b", EvtUserLeft)
	require.True(t, ok)
	assert.Equal(t, UserRef{UserID: "a", UserName: "Alice"}, left.Payload)
}

func TestHostFallbackWhenUnset(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	room, _ := c.Rooms.Get("room1")

	// Force the state the defensive path exists for: members without a host.
	room.mu.Lock()
	room.host = ""
	room.mu.Unlock()

	c.Join("b", "room1", "Bob")

	assert.Equal(t, domain.SessionID("a"), room.Host(), "fallback must promote a current member")
	assert.Equal(t, 1, sender.count("a", EvtJoinRequest))
}

func TestRelayTagsSender(t *testing.T) {
	c, sender := newTestCoordinator()

	offer := json.RawMessage(`{"sdp":"v=0"}`)
	c.Relay(EvtOffer, "a", "b", SignalEnvelope{UserName: "Alice", Offer: offer})

	e, ok := sender.last("b", EvtOffer)
	require.True(t, ok)
	env, isEnv := e.Payload.(SignalEnvelope)
	require.True(t, isEnv)
	assert.Equal(t, domain.SessionID("a"), env.From)
	assert.Equal(t, "Alice", env.UserName)
	assert.Equal(t, offer, env.Offer)
}

func TestRelayNeedsNoMembership(t *testing.T) {
	c, sender := newTestCoordinator()

	// Neither session exists anywhere; the coordinator still forwards.
	c.Relay(EvtICECandidate, "ghost", "nobody", SignalEnvelope{Candidate: json.RawMessage(`{}`)})
	assert.Equal(t, 1, sender.count("nobody", EvtICECandidate))
}

func TestMediaToggleBroadcast(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")
	c.Approve("a", "b", "room1")
	sender.reset()

	c.MediaToggle("a", "room1", "audio", false)

	assert.Zero(t, sender.count("a", EvtMediaStatus), "sender must be excluded")
	e, ok := sender.last("b", EvtMediaStatus)
	require.True(t, ok)
	assert.Equal(t, MediaStatusPayload{UserID: "a", Kind: "audio", IsOn: false}, e.Payload)
}

func TestScreenShareBroadcast(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")
	c.Approve("a", "b", "room1")
	sender.reset()

	c.ScreenShare("b", "room1", true)

	assert.Zero(t, sender.count("b", EvtParticipantScreen))
	e, ok := sender.last("a", EvtParticipantScreen)
	require.True(t, ok)
	assert.Equal(t, ScreenSharePayload{UserID: "b", UserName: "Bob", IsSharing: true}, e.Payload)
}

func TestRoomSwitchDepartsOldRoom(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")
	c.Approve("a", "b", "room1")
	sender.reset()

	c.Join("b", "room2", "Bob")

	room1, _ := c.Rooms.Get("room1")
	assert.Equal(t, []domain.SessionID{"a"}, room1.Members())
	assert.Equal(t, 1, sender.count("a", EvtUserLeft))

	room2, _ := c.Rooms.Get("room2")
	assert.Equal(t, domain.SessionID("b"), room2.Host())

	entry, ok := c.Presence.Get("b")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("room2"), entry.Room)
}

func TestPendingApplicantDisconnect(t *testing.T) {
	c, sender := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("b", "room1", "Bob")
	sender.reset()

	c.Disconnect("b")

	_, ok := c.Presence.Get("b")
	assert.False(t, ok)
	room, _ := c.Rooms.Get("room1")
	assert.Equal(t, []domain.SessionID{"a"}, room.Members())
	assert.Zero(t, sender.count("a", EvtUserLeft), "a pending applicant was never visible to the room")
}

func TestDisconnectUnknownSessionIsNoop(t *testing.T) {
	c, sender := newTestCoordinator()
	c.Disconnect("ghost")
	assert.Empty(t, sender.all())
	assert.Zero(t, c.Rooms.Len())
}

func TestMemberInAtMostOneRoom(t *testing.T) {
	c, _ := newTestCoordinator()

	c.Join("a", "room1", "Alice")
	c.Join("a", "room2", "Alice")

	room1, _ := c.Rooms.Get("room1")
	room2, _ := c.Rooms.Get("room2")
	assert.Empty(t, room1.Members())
	assert.Equal(t, []domain.SessionID{"a"}, room2.Members())
}
