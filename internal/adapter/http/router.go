package http

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/metrics"
)

// Page files inside the public directory
const (
	ReceptionPage = "reception.html"
	StorePage     = "store.html"
	DisplayPage   = "display.html"
)

// NewRouter wires the three terminal pages, static assets and the websocket
// endpoint. The websocket is also reachable on "/" so a page can dial its own
// origin without a path.
func NewRouter(publicDir string, ws http.Handler, m *metrics.Metrics, logger logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware(logger), LoggingMiddleware(logger, m))

	r.Handle("/ws", ws).Name("ws")
	r.Handle("/", ws).HeadersRegexp("Upgrade", "(?i)^websocket$").Name("ws")

	r.HandleFunc("/health", health).Methods(http.MethodGet).Name("health")
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet).Name("metrics")

	r.Handle("/", page(publicDir, ReceptionPage)).Methods(http.MethodGet).Name("reception")
	r.Handle("/store", page(publicDir, StorePage)).Methods(http.MethodGet).Name("store")
	r.Handle("/display", page(publicDir, DisplayPage)).Methods(http.MethodGet).Name("display")

	static := http.FileServer(http.Dir(publicDir))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", static)).Name("static")
	// assets are also served at their bare file names, e.g. /store.js
	r.PathPrefix("/").Handler(static).Methods(http.MethodGet).Name("static")

	return r
}

func page(publicDir, name string) http.Handler {
	path := filepath.Join(publicDir, name)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	})
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
