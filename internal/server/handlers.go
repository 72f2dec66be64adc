package server

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Makepad-fr/chores/internal/domain"
	"github.com/Makepad-fr/chores/internal/model"
	"github.com/Makepad-fr/chores/internal/page"
	"github.com/Makepad-fr/chores/internal/service"
)

const createdAtLayout = "2006-01-02 15:04:05"

// TaskHandler serves the index page and the task endpoints.
type TaskHandler struct {
	svc     *service.TaskService
	variant page.Variant
	log     *log.Logger
}

func NewTaskHandler(svc *service.TaskService, variant page.Variant, l *log.Logger) *TaskHandler {
	if l == nil {
		l = log.Default()
	}
	return &TaskHandler{svc: svc, variant: variant, log: l}
}

type taskResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed int    `json:"completed"`
	CreatedAt string `json:"created_at"`
}

// Index handles GET /.
func (h *TaskHandler) Index(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	tasks := make([]model.Task, len(list))
	for i, t := range list {
		tasks[i] = toModel(t)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w, page.View{Action: "/add", Variant: h.variant, Tasks: tasks}); err != nil {
		h.log.Printf("render index: %v", err)
	}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]taskResponse, len(list))
	for i, t := range list {
		out[i] = taskResponse{
			ID:        t.ID,
			Title:     t.Title,
			Completed: model.Flag(t.Completed).Int(),
			CreatedAt: t.CreatedAt.UTC().Format(createdAtLayout),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Add handles POST /add with either a JSON body or a plain form post.
// Form posts are redirected back to the index, as a browser without
// scripts expects.
func (h *TaskHandler) Add(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSON(r)
	var title string
	if asJSON {
		var body struct {
			Title string `json:"title"`
		}
		// a malformed body counts as a missing title
		_ = json.NewDecoder(r.Body).Decode(&body)
		title = body.Title
	} else {
		title = r.FormValue("title")
	}

	t, err := h.svc.Create(r.Context(), title)
	if err != nil {
		if !asJSON {
			if !errors.Is(err, service.ErrTitleRequired) {
				h.log.Printf("add: %v", err)
			}
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		if errors.Is(err, service.ErrTitleRequired) {
			writeError(w, http.StatusBadRequest, "Title is required")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !asJSON {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"id":        t.ID,
		"title":     t.Title,
		"completed": 0,
	})
}

// Toggle handles POST /toggle/{id}.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Toggle(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"id":        id,
		"completed": model.Flag(t.Completed).Int(),
	})
}

// Delete handles POST /delete/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}

func toModel(t domain.Task) model.Task {
	return model.Task{
		ID:        model.TaskID(strconv.FormatInt(t.ID, 10)),
		Title:     t.Title,
		Completed: model.Flag(t.Completed),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
