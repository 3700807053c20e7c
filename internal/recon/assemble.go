package recon

import (
	"time"

	"github.com/nkasozi/reconciler-backend/pkg/id"
)

// Assembler stamps prepared rows into a FileUploadChunk.
type Assembler struct {
	NewID func() string
	Now   func() time.Time
}

// NewAssembler returns an Assembler minting FILE-CHUNK ids from the wall clock.
func NewAssembler() *Assembler {
	return &Assembler{
		NewID: func() string { return id.New(id.FileChunkPrefix) },
		Now:   time.Now,
	}
}

// Assemble builds the chunk record. Created and modified share one instant.
func (a *Assembler) Assemble(req UploadChunkRequest, rows []ParsedRow) FileUploadChunk {
	ts := a.Now().Unix()
	return FileUploadChunk{
		ID:                  a.NewID(),
		UploadRequestID:     req.UploadRequestID,
		ChunkSequenceNumber: req.ChunkSequenceNumber,
		ChunkSource:         req.ChunkSource,
		ChunkRows:           rows,
		DateCreated:         ts,
		DateModified:        ts,
	}
}
