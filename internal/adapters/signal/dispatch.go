package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/okulov/huddle/internal/app"
	"github.com/okulov/huddle/internal/domain"
)

func (ctl *Controller) handleMessage(sid domain.SessionID, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		return
	}

	switch env.Event {
	case app.EvtJoinRoom:
		ctl.handleJoin(sid, env.Data)
	case app.EvtAdmitUser:
		ctl.handleAdmit(sid, env.Data)
	case app.EvtRejectUser:
		ctl.handleReject(sid, env.Data)
	case app.EvtOffer, app.EvtAnswer, app.EvtICECandidate:
		ctl.handleRelay(sid, env.Event, env.Data)
	case app.EvtLeaveRoom:
		ctl.handleLeave(sid, env.Data)
	case app.EvtToggleMedia:
		ctl.handleToggleMedia(sid, env.Data)
	case app.EvtScreenShare:
		ctl.handleScreenShare(sid, env.Data)
	case "ping":
		ctl.Send(sid, "pong", struct{}{})
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
	}
}

func (ctl *Controller) handleJoin(sid domain.SessionID, data []byte) {
	var p struct {
		RoomID   string `json:"roomId"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		ctl.Send(sid, "error", map[string]any{"error": "bad_payload"})
		return
	}
	if err := domain.ValidateDisplayName(p.UserName); err != nil {
		ctl.Send(sid, "error", map[string]any{"error": err.Error()})
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Str("name", p.UserName).Msg("join")
	ctl.Coord.Join(sid, domain.RoomID(p.RoomID), p.UserName)
}

func (ctl *Controller) handleAdmit(sid domain.SessionID, data []byte) {
	var p struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Msg("bad admit payload")
		return
	}
	ctl.Coord.Approve(sid, domain.SessionID(p.UserID), domain.RoomID(p.RoomID))
}

func (ctl *Controller) handleReject(sid domain.SessionID, data []byte) {
	var p struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Msg("bad reject payload")
		return
	}
	ctl.Coord.Reject(sid, domain.SessionID(p.UserID), domain.RoomID(p.RoomID))
}

// handleRelay forwards offer/answer/ice-candidate to the named destination.
// The negotiation payload stays opaque end to end.
func (ctl *Controller) handleRelay(sid domain.SessionID, kind string, data []byte) {
	var p struct {
		RoomID    string          `json:"roomId"`
		To        string          `json:"to"`
		UserName  string          `json:"userName"`
		Offer     json.RawMessage `json:"offer"`
		Answer    json.RawMessage `json:"answer"`
		Candidate json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Str("kind", kind).Msg("bad relay payload")
		return
	}
	ctl.Coord.Relay(kind, sid, domain.SessionID(p.To), app.SignalEnvelope{
		UserName:  p.UserName,
		Offer:     p.Offer,
		Answer:    p.Answer,
		Candidate: p.Candidate,
	})
}

func (ctl *Controller) handleLeave(sid domain.SessionID, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Msg("bad leave payload")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("leave")
	ctl.Coord.Leave(sid, domain.RoomID(p.RoomID))
}

func (ctl *Controller) handleToggleMedia(sid domain.SessionID, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
		Kind   string `json:"kind"`
		IsOn   bool   `json:"isOn"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Msg("bad toggle-media payload")
		return
	}
	if p.Kind != "audio" && p.Kind != "video" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("kind", p.Kind).Msg("unknown media kind")
		return
	}
	ctl.Coord.MediaToggle(sid, domain.RoomID(p.RoomID), p.Kind, p.IsOn)
}

func (ctl *Controller) handleScreenShare(sid domain.SessionID, data []byte) {
	var p struct {
		RoomID    string `json:"roomId"`
		IsSharing bool   `json:"isSharing"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Msg("bad screen-share payload")
		return
	}
	ctl.Coord.ScreenShare(sid, domain.RoomID(p.RoomID), p.IsSharing)
}
