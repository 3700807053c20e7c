package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	transports "github.com/nkasozi/reconciler-backend/internal/cmd/client/transports"
	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/spf13/cobra"
)

// NewChunksCommand constructs the `chunks` command group.
func NewChunksCommand(baseURL BaseURLFunc) *cobra.Command {
	chunksCmd := &cobra.Command{Use: "chunks", Short: "File chunk operations"}
	chunksCmd.AddCommand(newChunksUploadCommand(baseURL))
	return chunksCmd
}

// newChunksUploadCommand constructs the `chunks upload` subcommand.
func newChunksUploadCommand(baseURL BaseURLFunc) *cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Split a file into chunks of rows and upload them in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			task, _ := cmd.Flags().GetString("task")
			sourceName, _ := cmd.Flags().GetString("source")
			path, _ := cmd.Flags().GetString("file")
			size, _ := cmd.Flags().GetInt("chunk-size")
			startSeq, _ := cmd.Flags().GetInt64("start-seq")
			skipHeader, _ := cmd.Flags().GetBool("skip-header")
			transportName, _ := cmd.Flags().GetString("transport")

			if strings.TrimSpace(task) == "" {
				return fmt.Errorf("--task is required")
			}
			source, err := recon.ParseChunkSource(sourceName)
			if err != nil {
				return errInvalidFlag("--source", "primary|comparison")
			}
			if size <= 0 {
				return errInvalidFlag("--chunk-size", "a positive number of rows")
			}
			if startSeq < 1 {
				return errInvalidFlag("--start-seq", "a sequence number >= 1")
			}
			t, err := chunksTransport(transportName, baseURL)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			return uploadChunks(cmd.Context(), t, in, cmd.OutOrStdout(), uploadPlan{
				task:       task,
				source:     source,
				size:       size,
				startSeq:   startSeq,
				skipHeader: skipHeader,
			})
		},
	}
	uploadCmd.Flags().String("task", "", "Upload request (task) id")
	uploadCmd.Flags().String("source", "primary", "Chunk source: primary|comparison")
	uploadCmd.Flags().String("file", "-", "File to upload, - for stdin")
	uploadCmd.Flags().Int("chunk-size", 1000, "Rows per chunk")
	uploadCmd.Flags().Int64("start-seq", 1, "Sequence number of the first chunk")
	uploadCmd.Flags().Bool("skip-header", false, "Skip the first line of the file")
	uploadCmd.Flags().String("transport", "http", "Transport: http|grpc")
	return uploadCmd
}

type uploadPlan struct {
	task       string
	source     recon.ChunkSource
	size       int
	startSeq   int64
	skipHeader bool
}

// uploadChunks reads rows from in, uploads them size at a time and writes
// one JSON line per accepted chunk. Blank lines are not rows.
func uploadChunks(ctx context.Context, t transports.ChunksTransport, in io.Reader, out io.Writer, p uploadPlan) error {
	enc := json.NewEncoder(out)
	seq := p.startSeq
	rows := make([]string, 0, p.size)

	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		resp, err := t.UploadChunk(ctx, recon.UploadChunkRequest{
			UploadRequestID:     p.task,
			ChunkSequenceNumber: seq,
			ChunkSource:         p.source,
			ChunkRows:           rows,
		})
		if err != nil {
			return fmt.Errorf("chunk %d: %w", seq, err)
		}
		_ = enc.Encode(map[string]any{
			"chunk_sequence_number": seq,
			"rows":                  len(rows),
			"file_chunk_id":         resp.FileChunkID,
		})
		seq++
		rows = make([]string, 0, p.size)
		return nil
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	first := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if first {
			first = false
			if p.skipHeader {
				continue
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
		if len(rows) == p.size {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}
