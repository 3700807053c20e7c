// Package grpcserver hosts the gRPC server: grpc.health.v1.Health and
// recon.v1.FileChunksService, delegating to the runtime's services.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := grpcserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
