package client

import (
	"context"
	"encoding/json"
	"io"
	"os"

	transports "github.com/nkasozi/reconciler-backend/internal/cmd/client/transports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// grpcAddrFromEnv returns the gRPC server address from RECON_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("RECON_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPCContext dials the recon gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// chunksTransport picks the upload transport named by --transport.
func chunksTransport(name string, baseURL BaseURLFunc) (transports.ChunksTransport, error) {
	switch name {
	case "", "http":
		return transports.NewHTTPTransport(baseURL), nil
	case "grpc":
		return transports.NewGrpcTransport(dialGRPCContext), nil
	default:
		return nil, errInvalidFlag("--transport", "http|grpc")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
