package transports

import (
	"context"

	reconv1 "github.com/nkasozi/reconciler-backend/api/recon/v1"
	"github.com/nkasozi/reconciler-backend/internal/recon"
	"google.golang.org/grpc"
)

// GrpcTransport implements ChunksTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli reconv1.FileChunksServiceClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(reconv1.NewFileChunksServiceClient(conn))
}

// UploadChunk sends one chunk through FileChunksService/UploadFileChunk.
func (t *GrpcTransport) UploadChunk(ctx context.Context, req recon.UploadChunkRequest) (recon.UploadChunkResponse, error) {
	var out recon.UploadChunkResponse
	in, err := reconv1.ToStruct(req)
	if err != nil {
		return out, err
	}
	err = t.withClient(ctx, func(cli reconv1.FileChunksServiceClient) error {
		resp, err := cli.UploadFileChunk(ctx, in)
		if err != nil {
			return err
		}
		return reconv1.FromStruct(resp, &out)
	})
	return out, err
}
