// Package client provides the `recon` command-line client.
//
// The CLI talks to the recon HTTP and gRPC endpoints to upload file chunks,
// register reconciliation tasks and look at the chunk queues.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it
// defaults to http://127.0.0.1:8080 (RECON_HTTP). The gRPC address is read
// from the RECON_GRPC environment variable (default 127.0.0.1:50051).
//
// Usage
//
//	recon tasks create --file task.yaml
//	recon tasks get RECON-TASK-... --metadata
//	recon tasks list --limit 20
//
//	recon chunks upload --task RECON-TASK-... --source primary \
//	    --file bank.csv --chunk-size 500 --skip-header
//	recon chunks upload --task RECON-TASK-... --source comparison \
//	    --file ledger.csv --transport grpc
//
//	recon queues stats
//	recon queues ready --queue comparison --filter 'failed_rows > 0' --chunks
//	recon queues dlq --limit 10
//
// Notes
//
//   - chunks upload prints one JSON line per accepted chunk and stops at the
//     first rejected one; rerun with --start-seq to resume.
//   - queues commands need a server using the embedded queue backend.
package client
