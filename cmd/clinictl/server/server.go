// Package server implements the clinictl server command group: backend
// liveness and monitoring status checks.
package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tochi12ob/clini/cmd/clinictl/cliutil"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Backend liveness and status checks",
}

// GetServerCmd returns the server command group.
func GetServerCmd() *cobra.Command {
	return serverCmd
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend liveness",
	Long: `Hit the backend's /health endpoint and report its answer.

Examples:
  clinictl server health
  clinictl server health --server-url https://clini-v7ur.onrender.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		client := cliutil.SetupClientFromViper(log)
		health, err := client.Health(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", client.ServerURL(), health.Status)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the backend's monitoring status",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		client := cliutil.SetupClientFromViper(log)
		status, err := client.ServerStatus(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status:    %s\n", status.Status)
		fmt.Fprintf(out, "service:   %s\n", status.Service)
		fmt.Fprintf(out, "timestamp: %s\n", status.Timestamp)
		return nil
	},
}

func init() {
	serverCmd.AddCommand(healthCmd)
	serverCmd.AddCommand(statusCmd)
}
