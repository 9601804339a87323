package session

import (
	"context"
	"time"

	"github.com/ayaat/courtroom-backend/internal/trial"
	"github.com/ayaat/courtroom-backend/internal/types"
	"go.uber.org/zap"
)

type Msg interface{ isSessionMsg() }

// Attach registers a connection's outbox so it can receive routed events.
// Attaching does not admit anyone; the client still has to send a Join
// command to get a seat (or bind as coordinator).
type Attach struct {
	ConnID string
	Outbox chan types.ServerMessage
}

func (Attach) isSessionMsg() {}

// Detach drops the connection and runs disconnect reconciliation (role back
// to the pool, coordinator unbind).
type Detach struct{ ConnID string }

func (Detach) isSessionMsg() {}

type FromClient struct {
	Cmd trial.Command
}

func (FromClient) isSessionMsg() {}

// Tick drives the clocks. The session runs its own once-per-second ticker;
// tests send Tick directly for determinism.
type Tick struct{}

func (Tick) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

// View is a race-free projection of the actor's state for tests.
type View struct {
	Status     trial.Status
	NumClients int
	PhaseIndex int
	Seats      int
	PoolSize   int
	Remaining  int
	Votes      []trial.VoteView
}

// Session serializes every mutation of one trial: inbound client commands,
// disconnects, and timer ticks all pass through a single mailbox goroutine,
// so read-modify-write of the trial state is never interleaved.
type Session struct {
	inbox      chan Msg
	state      trial.State
	clients    map[string]chan types.ServerMessage
	tickEvery  time.Duration
	onConclude func()
	log        *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewSession starts the actor. onConclude, if non-nil, fires once when the
// trial reaches its concluded state, after the closing broadcasts have been
// routed; the hub uses it to retire the session.
func NewSession(parent context.Context, initial trial.State, log *zap.Logger, onConclude func()) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:      make(chan Msg, 64),
		state:      initial,
		clients:    make(map[string]chan types.ServerMessage),
		tickEvery:  time.Second,
		onConclude: onConclude,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}

	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	ticking := true

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case <-ticker.C:
			s.apply(trial.Command{Type: trial.CmdTick})

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Attach:
				s.clients[msg.ConnID] = msg.Outbox

			case Detach:
				if ch, ok := s.clients[msg.ConnID]; ok {
					delete(s.clients, msg.ConnID)
					close(ch)
				}
				s.apply(trial.Command{Type: trial.CmdDisconnect, ConnID: msg.ConnID})

			case FromClient:
				s.apply(msg.Cmd)

			case Tick:
				s.apply(trial.Command{Type: trial.CmdTick})

			case GetState:
				msg.Reply <- s.view()

			case Shutdown:
				s.shutdown()
				return
			}
		}

		// A concluded session has nothing left to count down.
		if ticking && s.state.Status() == trial.StatusConcluded {
			ticker.Stop()
			ticking = false
			if s.onConclude != nil {
				s.onConclude()
			}
		}
	}
}

// apply runs one command through the pure core and routes the results. An
// error goes back to the originating connection only; state is untouched.
func (s *Session) apply(cmd trial.Command) {
	events, newState, err := trial.Apply(s.state, cmd)
	if err != nil {
		s.log.Debug("command rejected",
			zap.String("cmd", string(cmd.Type)),
			zap.String("conn", cmd.ConnID),
			zap.Error(err))
		s.sendTo(cmd.ConnID, errorMessage(err))
		return
	}
	s.state = newState
	s.route(events)
}

func (s *Session) view() View {
	return View{
		Status:     s.state.Status(),
		NumClients: len(s.clients),
		PhaseIndex: s.state.Phases.Index,
		Seats:      s.state.Registry.Count(),
		PoolSize:   s.state.Pool.Size(),
		Remaining:  s.state.SessionClock.Remaining(),
		Votes:      append([]trial.VoteView(nil), voteViews(&s.state)...),
	}
}

func voteViews(st *trial.State) []trial.VoteView {
	var views []trial.VoteView
	for _, p := range st.Registry.Ordered {
		if len(p.VoteHistory) == 0 {
			continue
		}
		views = append(views, trial.VoteView{Seat: p.Seat, Name: p.Name, Value: p.VoteHistory[len(p.VoteHistory)-1]})
	}
	return views
}

func (s *Session) shutdown() {
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}
