// Package transports provides the HTTP and gRPC transports used by the CLI.
package transports

import (
	"context"
	"fmt"

	"github.com/nkasozi/reconciler-backend/internal/recon"
)

// ChunksTransport uploads file chunks to a recon server.
type ChunksTransport interface {
	UploadChunk(ctx context.Context, req recon.UploadChunkRequest) (recon.UploadChunkResponse, error)
}

// APIError is a non-2xx answer from the HTTP API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}
