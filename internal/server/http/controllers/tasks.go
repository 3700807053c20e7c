package controllers

import (
	"net/http"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/services/tasks"
)

// TasksController exposes the task details endpoints. It is only mounted
// when tasks are stored locally.
type TasksController struct {
	svc *tasks.Service
}

func NewTasksController(svc *tasks.Service) *TasksController {
	return &TasksController{svc: svc}
}

func (c *TasksController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/task-details", c.handleCollection)
	mux.HandleFunc("/v1/task-details/{id}", c.handleGet)
	mux.HandleFunc("/v1/task-details/{id}/metadata", c.handleMetadata)
}

// handleCollection creates a task on POST and lists tasks on GET (?limit=).
func (c *TasksController) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		c.handleCreate(w, r)
	case http.MethodGet:
		c.handleList(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (c *TasksController) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.svc.List(r.Context(), parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"tasks": list})
}

func (c *TasksController) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req recon.CreateReconTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	resp, err := c.svc.Create(r.Context(), req)
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSONStatus(w, http.StatusCreated, resp)
}

// handleGet returns the task summary, or the full task with ?full=true.
func (c *TasksController) handleGet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id := r.PathValue("id")
	if parseBool(r.URL.Query().Get("full")) {
		task, err := c.svc.Get(r.Context(), id)
		if err != nil {
			writeReconError(w, err, http.StatusNotFound)
			return
		}
		writeJSON(w, task)
		return
	}
	resp, err := c.svc.Summary(r.Context(), id)
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

func (c *TasksController) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	meta, err := c.svc.Metadata(r.Context(), r.PathValue("id"))
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, meta)
}
