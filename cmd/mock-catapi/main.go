package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
)

const maxLimit = 100

type catImage struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// newHandler serves images/search with deterministic ids. Pages at or past
// pages return an empty list.
func newHandler(pages int) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/images/search", func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 1)
		if limit < 1 {
			limit = 1
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		page := queryInt(r, "page", 0)

		images := []catImage{}
		if page >= 0 && page < pages {
			for i := 0; i < limit; i++ {
				id := fmt.Sprintf("mock-%d-%d", page, i)
				images = append(images, catImage{
					ID:     id,
					URL:    "https://cdn2.thecatapi.com/images/" + id + ".jpg",
					Width:  640,
					Height: 480,
				})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(images); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}).Methods(http.MethodGet)
	return r
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func main() {
	pages := 5
	if v, err := strconv.Atoi(os.Getenv("MOCK_PAGES")); err == nil && v >= 0 {
		pages = v
	}
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "8081"
	}

	slog.Info("Mock cat api running", "port", port, "pages", pages)
	if err := http.ListenAndServe(":"+port, newHandler(pages)); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
