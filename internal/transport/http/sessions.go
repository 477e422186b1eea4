package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CatGallery/internal/app"
	"github.com/CatGallery/internal/domain"
	"github.com/gorilla/mux"
)

type sessionHandler struct {
	sessions *app.SessionManager
}

type sessionResponse struct {
	ID    string              `json:"id"`
	State domain.GalleryState `json:"state"`
}

type intentRequest struct {
	Intent string `json:"intent"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	w.Header().Set("Location", "/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID(), State: s.State()})
}

func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID(), State: s.State()})
}

func (h *sessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.sessions.Close(r.Context(), id); err != nil {
		if errors.Is(err, app.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.Error("Failed to close session", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandler) dispatch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	intent, err := domain.ParseIntent(req.Intent)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.Dispatch(intent)
	w.WriteHeader(http.StatusAccepted)
}

// events streams every published state as a server-sent "state" event until
// the client goes away or the session closes.
func (h *sessionHandler) events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	states, stop := s.Observe()
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			payload, err := json.Marshal(state)
			if err != nil {
				slog.Error("Failed to encode state", "session", s.ID(), "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *sessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	s, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return s, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
