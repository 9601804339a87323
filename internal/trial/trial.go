package trial

import (
	"errors"
	"fmt"
)

var ErrNotAuthorized = errors.New("not authorized")
var ErrPoolExhausted = errors.New("no more juror roles")
var ErrCapacityReached = errors.New("session is full")
var ErrInvalidRecipient = errors.New("no such seat")
var ErrSessionEnded = errors.New("session has ended")
var ErrMalformedRequest = errors.New("malformed request")
var ErrUnsupportedCommand = errors.New("unsupported command")

// Status is the coarse lifecycle position of the whole session.
type Status string

const (
	StatusAwaitingCoordinator  Status = "awaiting_coordinator"
	StatusAwaitingParticipants Status = "awaiting_participants"
	StatusInProgress           Status = "in_progress"
	StatusConcluded            Status = "concluded"
)

// Rules are the per-session knobs fixed at creation time.
type Rules struct {
	Passcode       string // coordinator credential, matched on join
	SessionSeconds int    // session-wide clock, 0 disables
}

// RecipientAll addresses evidence to every participant. Seats start at 1.
const RecipientAll = 0

// State is the whole authoritative session value. It is only ever read or
// mutated inside Apply, which the session actor calls from a single goroutine.
type State struct {
	CoordinatorID string
	Registry      Registry
	Pool          Pool
	Phases        Sequence
	SessionClock  Clock
	PhaseClock    Clock
	Done          bool
	Rules         Rules
}

func NewState(roles []RoleCount, phases []Phase, rules Rules) State {
	pool := NewPool(roles)
	return State{
		Registry: NewRegistry(pool.Initial),
		Pool:     pool,
		Phases:   NewSequence(phases),
		Rules:    rules,
	}
}

func (s *State) Status() Status {
	switch {
	case s.Done:
		return StatusConcluded
	case s.Phases.Index >= 0:
		return StatusInProgress
	case s.CoordinatorID != "":
		return StatusAwaitingParticipants
	default:
		return StatusAwaitingCoordinator
	}
}

type CommandType string

const (
	CmdJoin             CommandType = "Join"
	CmdStartSession     CommandType = "StartSession"
	CmdAdvancePhase     CommandType = "AdvancePhase"
	CmdStartTimer       CommandType = "StartTimer"
	CmdTick             CommandType = "Tick"
	CmdSubmitVote       CommandType = "SubmitVote"
	CmdDispatchEvidence CommandType = "DispatchEvidence"
	CmdSendChat         CommandType = "SendChat"
	CmdDisconnect       CommandType = "Disconnect"
)

type Command struct {
	Type      CommandType
	ConnID    string
	Name      string
	Passcode  string
	Seat      int
	Value     string // vote value, chat text, or evidence content/file ref
	Recipient int    // evidence target: RecipientAll or a seat number
	Seconds   int
}

type EventType string

const (
	EvtCoordinatorJoined EventType = "CoordinatorJoined"
	EvtParticipantJoined EventType = "ParticipantJoined"
	EvtRosterUpdated     EventType = "RosterUpdated"
	EvtSessionReady      EventType = "SessionReady"
	EvtPhaseChanged      EventType = "PhaseChanged"
	EvtTimerStarted      EventType = "TimerStarted"
	EvtTimeUpdate        EventType = "TimeUpdate"
	EvtVotesUpdated      EventType = "VotesUpdated"
	EvtEvidence          EventType = "Evidence"
	EvtChat              EventType = "Chat"
	EvtSessionEnded      EventType = "SessionEnded"
)

// AudienceScope selects who an event is addressed to. The router resolves it
// against the live client table; the core never touches connections.
type AudienceScope string

const (
	AudEveryone     AudienceScope = "everyone"     // participants + coordinator
	AudParticipants AudienceScope = "participants" // every seated juror
	AudCoordinator  AudienceScope = "coordinator"
	AudSeat         AudienceScope = "seat"
	AudConn         AudienceScope = "conn" // one specific connection (join replies)
)

type Audience struct {
	Scope  AudienceScope
	Seat   int
	ConnID string
}

func toEveryone() Audience          { return Audience{Scope: AudEveryone} }
func toParticipants() Audience      { return Audience{Scope: AudParticipants} }
func toCoordinator() Audience       { return Audience{Scope: AudCoordinator} }
func toSeat(seat int) Audience      { return Audience{Scope: AudSeat, Seat: seat} }
func toConn(connID string) Audience { return Audience{Scope: AudConn, ConnID: connID} }

// VoteView is one row of the flattened latest-vote-per-seat projection.
type VoteView struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RosterEntry is the coordinator's view of one seated participant.
type RosterEntry struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type Event struct {
	Type           EventType
	Audience       Audience
	Seat           int
	Name           string
	Role           Role
	Phase          string
	PhaseIndex     int
	Remaining      int
	PhaseRemaining int
	Votes          []VoteView
	Roster         []RosterEntry
	Text           string
	Changed        bool
}

// Apply runs one command against the session and returns the events to route.
// On error the state is unchanged and nothing is emitted; the caller reports
// the error to the originating connection only.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdJoin:
		return applyJoin(s, cmd)
	case CmdStartSession:
		return applyStartSession(s, cmd)
	case CmdAdvancePhase:
		return applyAdvancePhase(s, cmd)
	case CmdStartTimer:
		return applyStartTimer(s, cmd)
	case CmdTick:
		return applyTick(s)
	case CmdSubmitVote:
		return applySubmitVote(s, cmd)
	case CmdDispatchEvidence:
		return applyDispatchEvidence(s, cmd)
	case CmdSendChat:
		return applySendChat(s, cmd)
	case CmdDisconnect:
		return applyDisconnect(s, cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyJoin(s State, cmd Command) ([]Event, State, error) {
	if s.Done {
		return nil, s, ErrSessionEnded
	}
	if cmd.Name == "" {
		return nil, s, ErrMalformedRequest
	}
	// One connection, one identity: a retried Join from a conn that is
	// already the coordinator or already seated is rejected outright.
	if cmd.ConnID == s.CoordinatorID && s.CoordinatorID != "" {
		return nil, s, ErrMalformedRequest
	}
	if s.Registry.ByConn(cmd.ConnID) != nil {
		return nil, s, ErrMalformedRequest
	}

	if cmd.Passcode != "" && cmd.Passcode == s.Rules.Passcode {
		// Coordinator claim: exactly one may ever be bound at a time.
		if s.CoordinatorID != "" {
			return nil, s, ErrNotAuthorized
		}
		s.CoordinatorID = cmd.ConnID
		// The session clock starts as soon as the coordinator arrives.
		s.SessionClock.Start(s.Rules.SessionSeconds)
		ev := snapshotEvent(&s, EvtCoordinatorJoined, toConn(cmd.ConnID))
		ev.Roster = roster(&s)
		return []Event{ev}, s, nil
	}

	p, err := s.Registry.Admit(cmd.ConnID, cmd.Name, &s.Pool)
	if err != nil {
		return nil, s, err
	}

	joined := snapshotEvent(&s, EvtParticipantJoined, toConn(cmd.ConnID))
	joined.Seat = p.Seat
	joined.Name = p.Name
	joined.Role = p.Role

	events := []Event{joined, rosterEvent(&s)}
	if s.Registry.Count() == s.Registry.Capacity {
		events = append(events, Event{
			Type:     EvtSessionReady,
			Audience: toEveryone(),
			Text:     "Court is now in session!",
		})
	}
	return events, s, nil
}

func applyStartSession(s State, cmd Command) ([]Event, State, error) {
	if cmd.ConnID != s.CoordinatorID || s.CoordinatorID == "" {
		return nil, s, ErrNotAuthorized
	}
	if s.Done || s.Phases.Index >= 0 {
		// Already started (or over): coordinator no-op.
		return nil, s, nil
	}
	events := advanceOrConclude(&s)
	if s.SessionClock.Start(s.Rules.SessionSeconds) {
		events = append(events, timerStartedEvent(&s))
	}
	return events, s, nil
}

func applyAdvancePhase(s State, cmd Command) ([]Event, State, error) {
	if cmd.ConnID != s.CoordinatorID || s.CoordinatorID == "" {
		return nil, s, ErrNotAuthorized
	}
	if s.Done {
		return nil, s, nil
	}
	return advanceOrConclude(&s), s, nil
}

func applyStartTimer(s State, cmd Command) ([]Event, State, error) {
	if cmd.ConnID != s.CoordinatorID || s.CoordinatorID == "" {
		return nil, s, ErrNotAuthorized
	}
	if s.Done {
		return nil, s, nil
	}
	if cmd.Seconds <= 0 {
		return nil, s, ErrMalformedRequest
	}
	// Start is a no-op while a countdown is live; a second concurrent
	// countdown cannot exist.
	if !s.SessionClock.Start(cmd.Seconds) {
		return nil, s, nil
	}
	return []Event{timerStartedEvent(&s)}, s, nil
}

func applyTick(s State) ([]Event, State, error) {
	if s.Done {
		return nil, s, nil
	}

	sessionWasRunning := s.SessionClock.Running
	phaseWasRunning := s.PhaseClock.Running

	if s.SessionClock.Tick() {
		return conclude(&s, "Time is up! Court session ended."), s, nil
	}
	var events []Event
	if s.PhaseClock.Tick() {
		// Timed phase ran out: same path as the coordinator's explicit
		// advance, so both kinds of transition share one set of rules.
		events = append(events, advanceOrConclude(&s)...)
		if s.Done {
			return events, s, nil
		}
	}
	if sessionWasRunning || phaseWasRunning {
		events = append(events, Event{
			Type:           EvtTimeUpdate,
			Audience:       toEveryone(),
			Remaining:      s.SessionClock.Remaining(),
			PhaseRemaining: s.PhaseClock.Remaining(),
		})
	}
	return events, s, nil
}

func applySubmitVote(s State, cmd Command) ([]Event, State, error) {
	if s.Done {
		return nil, s, ErrSessionEnded
	}
	p := s.Registry.ByConn(cmd.ConnID)
	if p == nil {
		return nil, s, ErrNotAuthorized
	}
	// Votes are cast for the sender's own seat; a stale or forged seat number
	// does not resolve.
	if cmd.Seat != 0 && cmd.Seat != p.Seat {
		return nil, s, ErrInvalidRecipient
	}
	if cmd.Value == "" {
		return nil, s, ErrMalformedRequest
	}

	changed := len(p.VoteHistory) > 0 && p.VoteHistory[len(p.VoteHistory)-1] != cmd.Value
	p.VoteHistory = append(p.VoteHistory, cmd.Value)

	text := fmt.Sprintf("Juror %d (%s) voted: %s", p.Seat, p.Name, cmd.Value)
	if changed {
		text = fmt.Sprintf("Juror %d (%s) changed their vote: %s", p.Seat, p.Name, cmd.Value)
	}
	return []Event{{
		Type:     EvtVotesUpdated,
		Audience: toEveryone(),
		Seat:     p.Seat,
		Name:     p.Name,
		Votes:    voteProjection(&s),
		Text:     text,
		Changed:  changed,
	}}, s, nil
}

func applyDispatchEvidence(s State, cmd Command) ([]Event, State, error) {
	if cmd.ConnID != s.CoordinatorID || s.CoordinatorID == "" {
		return nil, s, ErrNotAuthorized
	}
	if s.Done {
		return nil, s, nil
	}
	if cmd.Value == "" {
		return nil, s, ErrMalformedRequest
	}

	if cmd.Recipient == RecipientAll {
		return []Event{{Type: EvtEvidence, Audience: toParticipants(), Text: cmd.Value}}, s, nil
	}
	// Evidence is a live broadcast, not a mailbox: a seat nobody holds right
	// now is dropped on the floor, never queued.
	if s.Registry.BySeat(cmd.Recipient) == nil {
		return nil, s, nil
	}
	return []Event{{
		Type:     EvtEvidence,
		Audience: toSeat(cmd.Recipient),
		Seat:     cmd.Recipient,
		Text:     cmd.Value,
	}}, s, nil
}

func applySendChat(s State, cmd Command) ([]Event, State, error) {
	if s.Done {
		return nil, s, ErrSessionEnded
	}
	if cmd.Value == "" {
		return nil, s, ErrMalformedRequest
	}

	ev := Event{Type: EvtChat, Audience: toEveryone(), Text: cmd.Value}
	switch {
	case cmd.ConnID == s.CoordinatorID && s.CoordinatorID != "":
		ev.Name = "coordinator"
	default:
		p := s.Registry.ByConn(cmd.ConnID)
		if p == nil {
			return nil, s, ErrNotAuthorized
		}
		ev.Seat = p.Seat
		ev.Name = p.Name
	}
	return []Event{ev}, s, nil
}

func applyDisconnect(s State, cmd Command) ([]Event, State, error) {
	if cmd.ConnID == s.CoordinatorID && s.CoordinatorID != "" {
		// Unbind only. A ticking clock that jurors can see must not stop just
		// because the coordinator dropped.
		s.CoordinatorID = ""
		return nil, s, nil
	}
	if s.Registry.Remove(cmd.ConnID, &s.Pool) == nil {
		return nil, s, nil
	}
	return []Event{rosterEvent(&s)}, s, nil
}

// advanceOrConclude moves to the next phase, or ends the session when the
// sequence is exhausted. Shared by the coordinator's explicit advance, the
// start command, and phase-clock expiry.
func advanceOrConclude(s *State) []Event {
	next, ok := s.Phases.Advance()
	if !ok {
		return conclude(s, "All phases complete. Court session ended.")
	}

	// Votes belong to the phase they were cast in.
	s.Registry.ClearVotes()
	s.PhaseClock.Stop()
	s.PhaseClock.Start(next.DurationSec)

	return []Event{{
		Type:           EvtPhaseChanged,
		Audience:       toEveryone(),
		Phase:          next.Name,
		PhaseIndex:     s.Phases.Index,
		PhaseRemaining: s.PhaseClock.Remaining(),
		Votes:          voteProjection(s),
	}}
}

func conclude(s *State, text string) []Event {
	if s.Done {
		return nil
	}
	s.Done = true
	s.SessionClock.Stop()
	s.PhaseClock.Stop()
	return []Event{{Type: EvtSessionEnded, Audience: toEveryone(), Text: text}}
}

func timerStartedEvent(s *State) Event {
	return Event{
		Type:      EvtTimerStarted,
		Audience:  toEveryone(),
		Remaining: s.SessionClock.Remaining(),
	}
}

func rosterEvent(s *State) Event {
	return Event{Type: EvtRosterUpdated, Audience: toCoordinator(), Roster: roster(s)}
}

// snapshotEvent carries the state a freshly joined connection needs to render:
// current phase, vote projection, and clock.
func snapshotEvent(s *State, t EventType, aud Audience) Event {
	ev := Event{
		Type:       t,
		Audience:   aud,
		PhaseIndex: s.Phases.Index,
		Remaining:  s.SessionClock.Remaining(),
		Votes:      voteProjection(s),
	}
	if phase, ok := s.Phases.Current(); ok {
		ev.Phase = phase.Name
	}
	return ev
}

func roster(s *State) []RosterEntry {
	entries := make([]RosterEntry, 0, s.Registry.Count())
	for _, p := range s.Registry.Ordered {
		entries = append(entries, RosterEntry{Seat: p.Seat, Name: p.Name, Role: p.Role})
	}
	return entries
}

// voteProjection flattens each seat's history to its latest value, in seat
// order. Seats that have not voted this phase are omitted.
func voteProjection(s *State) []VoteView {
	views := make([]VoteView, 0, s.Registry.Count())
	for _, p := range s.Registry.Ordered {
		if len(p.VoteHistory) == 0 {
			continue
		}
		views = append(views, VoteView{
			Seat:  p.Seat,
			Name:  p.Name,
			Value: p.VoteHistory[len(p.VoteHistory)-1],
		})
	}
	return views
}
