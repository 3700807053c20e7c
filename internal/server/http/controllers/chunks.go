package controllers

import (
	"net/http"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/services/chunks"
)

// ChunksController accepts file chunk uploads.
type ChunksController struct {
	svc *chunks.Service
}

func NewChunksController(svc *chunks.Service) *ChunksController {
	return &ChunksController{svc: svc}
}

func (c *ChunksController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/file-chunks", c.handleUpload)
}

// handleUpload answers 201 {"file_chunk_id": ...}. Validation failures are
// 400; every other failure, an unknown task included, is 500.
func (c *ChunksController) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req recon.UploadChunkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeReconError(w, err, http.StatusInternalServerError)
		return
	}
	resp, err := c.svc.Upload(r.Context(), req)
	if err != nil {
		writeReconError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, resp)
}
