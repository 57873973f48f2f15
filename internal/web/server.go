package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jaminalder/tictactoe-engine/internal/app"
)

// NewServer wires routes and returns an http.Handler. It installs the board
// fragment as the service's broadcast renderer.
func NewServer(logger *slog.Logger, s *app.Service) http.Handler {
	h := &handlers{logger: logger.With("component", "web"), svc: s, tpl: loadTemplates()}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Delete("/", h.remove)
		r.Post("/play", h.play)
		r.Post("/restart", h.restart)
		r.Get("/state", h.state)
		r.Get("/events", h.events)
	})
	return r
}
