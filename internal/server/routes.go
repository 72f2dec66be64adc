package server

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every route. Mutating routes sit behind requireToken.
func NewRouter(h *TaskHandler, authToken string, l *log.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLog(l))

	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", h.List).Methods(http.MethodGet)

	write := r.NewRoute().Subrouter()
	write.Use(requireToken(authToken))
	write.HandleFunc("/add", h.Add).Methods(http.MethodPost)
	write.HandleFunc("/toggle/{id:[0-9]+}", h.Toggle).Methods(http.MethodPost)
	write.HandleFunc("/delete/{id:[0-9]+}", h.Delete).Methods(http.MethodPost)
	return r
}
