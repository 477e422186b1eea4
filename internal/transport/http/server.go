package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CatGallery/internal/app"
	"github.com/CatGallery/pkg/config"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewHTTPServer(cfg *config.Config, sessions *app.SessionManager) *http.Server {
	return &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: NewRouter(sessions),
	}
}

func NewRouter(sessions *app.SessionManager) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintf(w, "OK"); err != nil {
			slog.Debug("Failed to write health response", "error", err)
		}
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	h := &sessionHandler{sessions: sessions}
	s := r.PathPrefix("/sessions").Subrouter()
	s.HandleFunc("", h.create).Methods(http.MethodPost)
	s.HandleFunc("/{id}", h.get).Methods(http.MethodGet)
	s.HandleFunc("/{id}", h.delete).Methods(http.MethodDelete)
	s.HandleFunc("/{id}/intents", h.dispatch).Methods(http.MethodPost)
	s.HandleFunc("/{id}/events", h.events).Methods(http.MethodGet)

	return r
}
