package session

import (
	"errors"

	"github.com/ayaat/courtroom-backend/internal/trial"
	"github.com/ayaat/courtroom-backend/internal/types"
)

// route resolves each event's audience against the live client table and
// performs the sends. It runs inside the mailbox goroutine, so all frames for
// one mutation go out before the next inbound action is processed.
func (s *Session) route(events []trial.Event) {
	for _, ev := range events {
		msg := toServerMessage(ev)
		for _, connID := range s.resolve(ev.Audience) {
			s.sendTo(connID, msg)
		}
	}
}

func (s *Session) resolve(aud trial.Audience) []string {
	switch aud.Scope {
	case trial.AudEveryone:
		ids := make([]string, 0, len(s.clients))
		for id := range s.clients {
			ids = append(ids, id)
		}
		return ids

	case trial.AudParticipants:
		ids := make([]string, 0, s.state.Registry.Count())
		for _, p := range s.state.Registry.Ordered {
			ids = append(ids, p.ConnID)
		}
		return ids

	case trial.AudCoordinator:
		if s.state.CoordinatorID == "" {
			return nil
		}
		return []string{s.state.CoordinatorID}

	case trial.AudSeat:
		p := s.state.Registry.BySeat(aud.Seat)
		if p == nil {
			return nil
		}
		return []string{p.ConnID}

	case trial.AudConn:
		return []string{aud.ConnID}

	default:
		return nil
	}
}

func (s *Session) sendTo(connID string, msg types.ServerMessage) {
	ch, ok := s.clients[connID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
		// ok
	default:
		// Client is slow/full - drop them.
		close(ch)
		delete(s.clients, connID)
	}
}

func toServerMessage(ev trial.Event) types.ServerMessage {
	return types.ServerMessage{
		Type:           string(ev.Type),
		Phase:          ev.Phase,
		PhaseIndex:     ev.PhaseIndex,
		Seat:           ev.Seat,
		Name:           ev.Name,
		Role:           string(ev.Role),
		Remaining:      ev.Remaining,
		PhaseRemaining: ev.PhaseRemaining,
		Votes:          ev.Votes,
		Roster:         ev.Roster,
		Text:           ev.Text,
		Changed:        ev.Changed,
	}
}

func errorMessage(err error) types.ServerMessage {
	return types.ServerMessage{Type: "Error", Error: err.Error(), Code: errorCode(err)}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, trial.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, trial.ErrPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, trial.ErrCapacityReached):
		return "capacity_reached"
	case errors.Is(err, trial.ErrInvalidRecipient):
		return "invalid_recipient"
	case errors.Is(err, trial.ErrSessionEnded):
		return "session_ended"
	case errors.Is(err, trial.ErrMalformedRequest):
		return "malformed_request"
	default:
		return "internal"
	}
}
