// Package serverrun exposes the Run entrypoint used by the CLI to start the
// runtime with its gRPC and HTTP servers, handling lifecycle and shutdown.
//
// Example:
//
//	opts := serverrun.Options{DataDir: "./data", GRPCAddr: ":50051", HTTPAddr: ":8080", Config: config.Default()}
//	_ = serverrun.Run(ctx, opts)
package serverrun
