package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ayaat/courtroom-backend/internal/hub"
	"github.com/ayaat/courtroom-backend/internal/session"
	"github.com/ayaat/courtroom-backend/internal/trial"
	"github.com/ayaat/courtroom-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			code = hub.DefaultCode
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureSession{Code: code, Reply: reply}
		sn := <-reply
		if sn == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan types.ServerMessage, 16)
		connID := uuid.NewString()
		log.Info("client connected", zap.String("conn", connID), zap.String("session", code))

		sn.Inbox() <- session.Attach{ConnID: connID, Outbox: out}
		defer func() {
			sn.Inbox() <- session.Detach{ConnID: connID}
			log.Info("client disconnected", zap.String("conn", connID))
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (session.Detach in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"bad json","code":"malformed_request"}`))
				continue
			}

			cmd, ok := toCommand(cm, connID)
			if !ok {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"unknown type","code":"malformed_request"}`))
				continue
			}

			sn.Inbox() <- session.FromClient{Cmd: cmd}
		}
	}
}

func toCommand(m types.ClientMessage, connID string) (trial.Command, bool) {
	switch m.Type {
	case "Join":
		return trial.Command{Type: trial.CmdJoin, ConnID: connID, Name: m.Name, Passcode: m.Passcode}, true
	case "StartSession":
		return trial.Command{Type: trial.CmdStartSession, ConnID: connID}, true
	case "AdvancePhase":
		return trial.Command{Type: trial.CmdAdvancePhase, ConnID: connID}, true
	case "StartTimer":
		return trial.Command{Type: trial.CmdStartTimer, ConnID: connID, Seconds: m.Seconds}, true
	case "SubmitVote":
		return trial.Command{Type: trial.CmdSubmitVote, ConnID: connID, Seat: m.Seat, Value: m.Value}, true
	case "DispatchEvidence":
		recipient, ok := parseRecipient(m.Recipient)
		if !ok {
			return trial.Command{}, false
		}
		return trial.Command{Type: trial.CmdDispatchEvidence, ConnID: connID, Value: m.Value, Recipient: recipient}, true
	case "SendChat":
		return trial.Command{Type: trial.CmdSendChat, ConnID: connID, Value: m.Value}, true
	default:
		return trial.Command{}, false
	}
}

func parseRecipient(recipient string) (int, bool) {
	if recipient == "" || recipient == "all" {
		return trial.RecipientAll, true
	}
	seat, err := strconv.Atoi(recipient)
	if err != nil || seat < 1 {
		return 0, false
	}
	return seat, true
}
