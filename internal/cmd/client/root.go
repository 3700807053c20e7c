package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the recon client.
// It registers the chunks, tasks and queues command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "recon",
		Short: "Recon client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands attaches the client command groups to an existing root.
func AddCommands(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(NewChunksCommand(baseURL))
	root.AddCommand(NewTasksCommand(baseURL))
	root.AddCommand(NewQueuesCommand(baseURL))
}

func errInvalidFlag(flag, allowed string) error {
	return fmt.Errorf("invalid %s; use %s", flag, allowed)
}
