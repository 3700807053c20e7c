package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	transports "github.com/nkasozi/reconciler-backend/internal/cmd/client/transports"
	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewTasksCommand constructs the `tasks` command group.
func NewTasksCommand(baseURL BaseURLFunc) *cobra.Command {
	tasksCmd := &cobra.Command{Use: "tasks", Short: "Reconciliation task operations"}
	tasksCmd.AddCommand(
		newTasksCreateCommand(baseURL),
		newTasksGetCommand(baseURL),
		newTasksListCommand(baseURL),
	)
	return tasksCmd
}

// newTasksCreateCommand constructs the `tasks create` subcommand.
func newTasksCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task from a JSON or YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			req, err := loadTaskRequest(path)
			if err != nil {
				return err
			}
			var out recon.ReconTaskResponseDetails
			if err := transports.NewHTTPTransport(baseURL).Call(cmd.Context(), http.MethodPost, "/v1/task-details", req, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	createCmd.Flags().String("file", "", "Task definition (.json, .yaml or .yml)")
	return createCmd
}

// newTasksGetCommand constructs the `tasks get` subcommand.
func newTasksGetCommand(baseURL BaseURLFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show a task summary, the full task or its pipeline metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			metadata, _ := cmd.Flags().GetBool("metadata")
			path := "/v1/task-details/" + url.PathEscape(args[0])
			switch {
			case metadata:
				path += "/metadata"
			case full:
				path += "?full=true"
			}
			var out any
			if err := transports.NewHTTPTransport(baseURL).Call(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	getCmd.Flags().Bool("full", false, "Show the stored task with file details")
	getCmd.Flags().Bool("metadata", false, "Show delimiters and comparison pairs")
	return getCmd
}

// newTasksListCommand constructs the `tasks list` subcommand.
func newTasksListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tasks ordered by id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			path := "/v1/task-details"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			var out any
			if err := transports.NewHTTPTransport(baseURL).Call(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	listCmd.Flags().Int("limit", 50, "Maximum tasks")
	return listCmd
}

// loadTaskRequest decodes a task file, choosing the decoder by extension.
func loadTaskRequest(path string) (recon.CreateReconTaskRequest, error) {
	var req recon.CreateReconTaskRequest
	b, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &req)
	default:
		err = json.Unmarshal(b, &req)
	}
	if err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}
