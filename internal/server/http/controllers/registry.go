package controllers

import (
	"net/http"

	"github.com/nkasozi/reconciler-backend/internal/runtime"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	chunks  *ChunksController
	tasks   *TasksController
	queues  *QueuesController
}

// NewControllerRegistry builds the controllers the runtime's backends allow.
// Task routes are left out when tasks live in a remote service.
func NewControllerRegistry(rt *runtime.Runtime) *ControllerRegistry {
	r := &ControllerRegistry{
		general: NewGeneralController(rt),
		chunks:  NewChunksController(rt.Chunks()),
		queues:  NewQueuesController(rt.Queues()),
	}
	if rt.Tasks() != nil {
		r.tasks = NewTasksController(rt.Tasks())
	}
	return r
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.chunks.RegisterRoutes(mux)
	r.queues.RegisterRoutes(mux)
	if r.tasks != nil {
		r.tasks.RegisterRoutes(mux)
	}
}
