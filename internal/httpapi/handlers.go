package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ayaat/courtroom-backend/internal/hub"
	"github.com/ayaat/courtroom-backend/internal/session"
	"github.com/ayaat/courtroom-backend/internal/storage"
	"go.uber.org/zap"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateSession mints a fresh courtroom under a new code. Most deployments
// only ever use the default session; this exists for running several trials
// side by side.
func CreateSession(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *session.Session, 1)
			h.Inbox() <- hub.GetSession{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			log.Warn("collision on code, regenerating", zap.String("code", c))
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureSession{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// Upload accepts an evidence file from the coordinator and returns its
// stable reference. Broadcasting that reference is NOT done here: the
// coordinator dispatches it as evidence over the websocket, so a slow disk
// write can never block the session's mutation path.
func Upload(store *storage.Store, passcode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if passcode == "" || r.Header.Get("X-Coordinator-Passcode") != passcode {
			http.Error(w, "coordinator credential required", http.StatusUnauthorized)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "no file uploaded", http.StatusBadRequest)
			return
		}
		defer file.Close()

		ref, err := store.Save(header.Filename, file)
		if err != nil {
			http.Error(w, "failed to store file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ref)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
