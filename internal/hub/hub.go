package hub

import (
	"context"

	"github.com/ayaat/courtroom-backend/internal/session"
	"github.com/ayaat/courtroom-backend/internal/trial"
	"go.uber.org/zap"
)

// DefaultCode is the session every client lands in when no code is given.
// The canonical deployment is a single courtroom; extra codes exist so
// sessions can be created and torn down independently.
const DefaultCode = "COURT1"

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Code  string
	Reply chan *session.Session
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

type EnsureSession struct {
	Code  string
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	newState func() trial.State
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewHub starts the hub actor. newState builds a fresh trial for each created
// session, so sessions never share pool, phase, or vote state.
func NewHub(parent context.Context, newState func() trial.State, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		newState: newState,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if sn := h.sessions[msg.Code]; sn != nil {
					msg.Reply <- sn
					break
				}
				msg.Reply <- h.create(msg.Code)

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case EnsureSession:
				if sn := h.sessions[msg.Code]; sn != nil {
					msg.Reply <- sn
					break
				}
				msg.Reply <- h.create(msg.Code)

			case RemoveSession:
				if sn := h.sessions[msg.Code]; sn != nil {
					sn.Inbox() <- session.Shutdown{}
				}
				delete(h.sessions, msg.Code)

			case ShutdownHub:
				for _, sn := range h.sessions {
					sn.Inbox() <- session.Shutdown{}
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}

// create starts a session that retires itself: when the trial concludes, the
// session asks the hub to remove it, and removal shuts the actor down.
func (h *Hub) create(code string) *session.Session {
	sn := session.NewSession(h.ctx, h.newState(), h.log.With(zap.String("session", code)), func() {
		h.inbox <- RemoveSession{Code: code}
	})
	h.sessions[code] = sn
	h.log.Info("session created", zap.String("session", code))
	return sn
}
