package client

import (
	"net/http"
	"net/url"
	"strconv"

	transports "github.com/nkasozi/reconciler-backend/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewQueuesCommand constructs the `queues` command group. These commands need
// a server running the embedded queue backend.
func NewQueuesCommand(baseURL BaseURLFunc) *cobra.Command {
	queuesCmd := &cobra.Command{Use: "queues", Short: "Chunk queue inspection"}
	queuesCmd.AddCommand(
		newQueuesStatsCommand(baseURL),
		newQueuesListCommand(baseURL, "ready", "List ready chunks in dequeue order", "/v1/queues/ready"),
		newQueuesListCommand(baseURL, "dlq", "List dead-lettered chunks", "/v1/queues/dlq"),
	)
	return queuesCmd
}

func newQueuesStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ready, delayed, leased and DLQ counts per queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out any
			if err := transports.NewHTTPTransport(baseURL).Call(cmd.Context(), http.MethodGet, "/v1/queues/stats", nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newQueuesListCommand(baseURL BaseURLFunc, use, short, path string) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			limit, _ := cmd.Flags().GetInt("limit")
			q := url.Values{}
			if queue != "" {
				q.Set("queue", queue)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if f := cmd.Flags().Lookup("filter"); f != nil && f.Value.String() != "" {
				q.Set("filter", f.Value.String())
			}
			if withChunks, err := cmd.Flags().GetBool("chunks"); err == nil && withChunks {
				q.Set("chunks", "true")
			}
			target := path
			if len(q) > 0 {
				target += "?" + q.Encode()
			}
			var out any
			if err := transports.NewHTTPTransport(baseURL).Call(cmd.Context(), http.MethodGet, target, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	listCmd.Flags().String("queue", "", "Queue name (default: primary queue)")
	listCmd.Flags().Int("limit", 100, "Maximum items")
	if use == "ready" {
		listCmd.Flags().String("filter", "", "CEL filter over chunk headers, e.g. chunk_sequence_number > 10")
		listCmd.Flags().Bool("chunks", false, "Include chunk bodies")
	}
	return listCmd
}
