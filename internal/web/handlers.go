package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tictactoe-engine/internal/app"
	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

type handlers struct {
	logger *slog.Logger
	svc    *app.Service
	tpl    *templates
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
	b, err := renderTemplate(h.tpl.board, "", newBoardView(gs, errMsg))
	if err != nil {
		h.logger.Error("failed to render board", "gameID", gs.ID, "error", err)
	}
	return b
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	b, err := renderTemplate(h.tpl.index, "base", nil)
	if err != nil {
		h.serverError(w, "index", err)
		return
	}
	writeHTML(w, b)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	mode := domain.TwoPlayer
	if v := r.FormValue("mode"); v != "" {
		m, err := domain.ParseMode(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}
	gs, err := h.svc.CreateGame(r.Context(), mode)
	if err != nil {
		h.serverError(w, "create", err)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r, "view")
	if !ok {
		return
	}
	data := pageData{ID: gs.ID, Board: newBoardView(*gs, "")}
	b, err := renderTemplate(h.tpl.game, "base", data)
	if err != nil {
		h.serverError(w, "view", err)
		return
	}
	writeHTML(w, b)
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cell, err := strconv.Atoi(r.FormValue("cell"))
	if err != nil {
		// handled by the engine as an out of bounds move
		cell = -1
	}
	out, gs, err := h.svc.Play(r.Context(), id, cell)
	if errors.Is(err, app.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, "play", err)
		return
	}
	var errMsg string
	if out.Kind == domain.Rejected {
		errMsg = rejectionMessage(out.Reason)
	}
	writeHTML(w, h.renderBoard(*gs, errMsg))
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r, "restart")
	if !ok {
		return
	}
	mode := gs.State.Mode
	if v := r.FormValue("mode"); v != "" {
		m, err := domain.ParseMode(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}
	gs, err := h.svc.Restart(r.Context(), gs.ID, mode)
	if errors.Is(err, app.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, "restart", err)
		return
	}
	writeHTML(w, h.renderBoard(*gs, ""))
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, app.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, "remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stateResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	State  domain.State `json:"state"`
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r, "state")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stateResponse{ID: gs.ID, Status: gs.Status(), State: gs.State}); err != nil {
		h.logger.Warn("failed to write state", "gameID", gs.ID, "error", err)
	}
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r, "events")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub := h.svc.Subscribe(ctx, gs.ID)
	defer unsub()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE event; every payload line gets its own data field.
func writeEvent(w io.Writer, name string, payload []byte) {
	_, _ = io.WriteString(w, "event: "+name+"\n")
	for _, line := range bytes.Split(bytes.TrimSpace(payload), []byte("\n")) {
		_, _ = io.WriteString(w, "data: ")
		_, _ = w.Write(line)
		_, _ = io.WriteString(w, "\n")
	}
	_, _ = io.WriteString(w, "\n")
}

// game loads the game named in the URL, answering 404 or 500 itself when it
// cannot.
func (h *handlers) game(w http.ResponseWriter, r *http.Request, method string) (*app.GameState, bool) {
	gs, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, app.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.serverError(w, method, err)
		return nil, false
	}
	return gs, true
}

func (h *handlers) serverError(w http.ResponseWriter, method string, err error) {
	h.logger.Error("request failed", "method", method, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func rejectionMessage(reason error) string {
	switch {
	case errors.Is(reason, domain.ErrOccupied):
		return "Cell is occupied"
	case errors.Is(reason, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(reason, domain.ErrGameOver):
		return "Game is over"
	case errors.Is(reason, domain.ErrComputerTurn):
		return "Wait for the computer"
	default:
		return "Invalid move"
	}
}

func writeHTML(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
