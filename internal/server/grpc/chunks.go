package grpcserver

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	reconv1 "github.com/nkasozi/reconciler-backend/api/recon/v1"
	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/services/chunks"
)

type chunksSvc struct {
	svc *chunks.Service
}

func (c *chunksSvc) UploadFileChunk(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req recon.UploadChunkRequest
	if err := reconv1.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument,
			recon.NewError(recon.KindBadClientRequest, "invalid request: %v", err).Error())
	}
	resp, err := c.svc.Upload(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := reconv1.ToStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps an error kind to a gRPC code; the message keeps the
// "<Kind> - [msg]" form.
func toStatus(err error) error {
	code := codes.Internal
	switch recon.KindOf(err) {
	case recon.KindBadClientRequest:
		code = codes.InvalidArgument
	case recon.KindConnectionError:
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}
