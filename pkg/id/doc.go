// Package id mints the identifiers used across the reconciler.
//
// Two families exist:
//
//   - Sortable IDs: 16 bytes, big-endian [8 bytes unix ms][8 bytes sequence].
//     Byte order equals creation order within a process, which makes them
//     suitable as queue message ids and pebble key suffixes.
//   - Prefixed IDs: "<PREFIX>-<uuid v4>", e.g. FILE-CHUNK-2b1f..., used for
//     externally visible entities (file chunks, recon tasks, recon files).
//
// Usage
//
//	g := id.NewGenerator()
//	msgID := g.Next().String()          // 32 hex chars
//	chunkID := id.New(id.FileChunkPrefix) // FILE-CHUNK-<uuid>
package id
