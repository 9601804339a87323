package httpapi

import (
	"net/http"

	"github.com/ayaat/courtroom-backend/internal/config"
	"github.com/ayaat/courtroom-backend/internal/hub"
	"github.com/ayaat/courtroom-backend/internal/storage"
	"github.com/ayaat/courtroom-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, store *storage.Store, cfg *config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/sessions", CreateSession(h, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))

	r.Post("/upload", Upload(store, cfg.CoordinatorPasscode))
	r.Handle("/uploads/*", store.Handler())

	if cfg.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))
	}
	return r
}
