package app

import (
	"encoding/json"

	"github.com/okulov/huddle/internal/domain"
)

// Inbound event names.
const (
	EvtJoinRoom     = "join-room"
	EvtAdmitUser    = "admit-user"
	EvtRejectUser   = "reject-user"
	EvtOffer        = "offer"
	EvtAnswer       = "answer"
	EvtICECandidate = "ice-candidate"
	EvtLeaveRoom    = "leave-room"
	EvtToggleMedia  = "toggle-media"
	EvtScreenShare  = "screen-share-status"
)

// Outbound event names.
const (
	EvtWaitingForApproval = "waiting-for-approval"
	EvtJoinRequest        = "join-request"
	EvtJoinApproved       = "join-approved"
	EvtJoinRejected       = "join-rejected"
	EvtExistingUsers      = "existing-users"
	EvtUserJoined         = "user-joined"
	EvtUserLeft           = "user-left"
	EvtHostAssigned       = "host-assigned"
	EvtMediaStatus        = "media-status-update"
	EvtParticipantScreen  = "participant-screen-share"
)

// UserRef is the {userId, userName} pair used by join/leave notifications
// and the existing-users snapshot.
type UserRef struct {
	UserID   domain.SessionID `json:"userId"`
	UserName string           `json:"userName"`
}

type HostAssignedPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type MediaStatusPayload struct {
	UserID domain.SessionID `json:"userId"`
	Kind   string           `json:"kind"`
	IsOn   bool             `json:"isOn"`
}

type ScreenSharePayload struct {
	UserID    domain.SessionID `json:"userId"`
	UserName  string           `json:"userName"`
	IsSharing bool             `json:"isSharing"`
}

// SignalEnvelope carries one opaque negotiation payload between two sessions.
// Exactly one of Offer/Answer/Candidate is set, matching the event name; the
// coordinator never looks inside.
type SignalEnvelope struct {
	From      domain.SessionID `json:"from,omitempty"`
	UserName  string           `json:"userName,omitempty"`
	Offer     json.RawMessage  `json:"offer,omitempty"`
	Answer    json.RawMessage  `json:"answer,omitempty"`
	Candidate json.RawMessage  `json:"candidate,omitempty"`
}

// Sender is the non-blocking hand-off to the transport layer. Delivery to a
// session that no longer exists must be a silent no-op; a failed or dropped
// send never fails the coordinator's own state transition.
type Sender interface {
	Send(sid domain.SessionID, event string, payload any)
}
