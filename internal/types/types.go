package types

import "github.com/ayaat/courtroom-backend/internal/trial"

// ClientMessage is what a connected client sends over the websocket.
//
// Types:
//   Join:             name, passcode (coordinator credential, optional)
//   StartSession:     {}
//   AdvancePhase:     {}
//   StartTimer:       seconds
//   SubmitVote:       seat, value
//   DispatchEvidence: value (text or uploaded file URL), recipient ("all" or a seat number)
//   SendChat:         value
type ClientMessage struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Passcode  string `json:"passcode,omitempty"`
	Seat      int    `json:"seat,omitempty"`
	Value     string `json:"value,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Seconds   int    `json:"seconds,omitempty"`
}

// ServerMessage is the single outbound frame shape. Type mirrors the trial
// event names, plus "Error" for per-connection rejections.
type ServerMessage struct {
	Type           string              `json:"type"`
	Phase          string              `json:"phase,omitempty"`
	PhaseIndex     int                 `json:"phase_index"`
	Seat           int                 `json:"seat,omitempty"`
	Name           string              `json:"name,omitempty"`
	Role           string              `json:"role,omitempty"`
	Remaining      int                 `json:"remaining_sec,omitempty"`
	PhaseRemaining int                 `json:"phase_remaining_sec,omitempty"`
	Votes          []trial.VoteView    `json:"votes,omitempty"`
	Roster         []trial.RosterEntry `json:"roster,omitempty"`
	Text           string              `json:"text,omitempty"`
	Changed        bool                `json:"changed,omitempty"`
	Error          string              `json:"error,omitempty"`
	Code           string              `json:"code,omitempty"`
}
