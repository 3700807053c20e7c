package controllers

import (
	"net/http"

	queuesvc "github.com/nkasozi/reconciler-backend/internal/services/queues"
)

// QueuesController is the consumer and admin surface of the embedded chunk
// queues. With a nil service every route answers 501.
type QueuesController struct {
	svc *queuesvc.Service
}

func NewQueuesController(svc *queuesvc.Service) *QueuesController {
	return &QueuesController{svc: svc}
}

func (c *QueuesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/queues/stats", c.guard(c.handleStats))
	mux.HandleFunc("/v1/queues/ready", c.guard(c.handleReady))
	mux.HandleFunc("/v1/queues/dlq", c.guard(c.handleDLQ))
	mux.HandleFunc("/v1/queues/dequeue", c.guard(c.handleDequeue))
	mux.HandleFunc("/v1/queues/complete", c.guard(c.handleComplete))
	mux.HandleFunc("/v1/queues/fail", c.guard(c.handleFail))
	mux.HandleFunc("/v1/queues/extend-lease", c.guard(c.handleExtend))
}

func (c *QueuesController) guard(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.svc == nil {
			writeError(w, http.StatusNotImplemented, "queue endpoints need the embedded queue backend")
			return
		}
		h(w, r)
	}
}

func (c *QueuesController) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	stats, err := c.svc.Stats(r.Context())
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"queues": stats})
}

// handleReady lists ready chunks: ?queue=&filter=<CEL>&limit=&chunks=true
func (c *QueuesController) handleReady(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	items, err := c.svc.Ready(r.Context(), q.Get("queue"), q.Get("filter"), parseLimit(q.Get("limit")), parseBool(q.Get("chunks")))
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"items": items})
}

func (c *QueuesController) handleDLQ(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	items, err := c.svc.DLQ(r.Context(), q.Get("queue"), parseLimit(q.Get("limit")))
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"items": items})
}

func (c *QueuesController) handleDequeue(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req dequeueReq
	if err := decodeBody(w, r, &req); err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	items, err := c.svc.Dequeue(r.Context(), req.Queue, req.Count, req.LeaseMs)
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"items": items})
}

func (c *QueuesController) handleComplete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req seqsReq
	if err := decodeBody(w, r, &req); err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	if err := c.svc.Complete(r.Context(), req.Queue, req.Seqs); err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeNoContent(w)
}

func (c *QueuesController) handleExtend(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req seqsReq
	if err := decodeBody(w, r, &req); err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	if err := c.svc.Extend(r.Context(), req.Queue, req.Seqs, req.LeaseMs); err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeNoContent(w)
}

func (c *QueuesController) handleFail(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req failReq
	if err := decodeBody(w, r, &req); err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	dead, err := c.svc.Fail(r.Context(), req.Queue, req.Seqs, req.RetryAfterMs, req.ToDLQ)
	if err != nil {
		writeReconError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]int{"dead_lettered": dead})
}
