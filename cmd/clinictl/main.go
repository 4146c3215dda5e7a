// clinictl is the operator CLI for the Clinic AI Assistant backend:
// webhook-tool generation and auto-update, backend health checks,
// vendor connectivity diagnostics, webhook probing, and ElevenLabs
// tool registration.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tochi12ob/clini/cmd/clinictl/check"
	"github.com/tochi12ob/clini/cmd/clinictl/probecmd"
	"github.com/tochi12ob/clini/cmd/clinictl/registercmd"
	servercmd "github.com/tochi12ob/clini/cmd/clinictl/server"
	setupcmd "github.com/tochi12ob/clini/cmd/clinictl/setup"
	"github.com/tochi12ob/clini/setupclient"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "clinictl",
	Short: "Operator CLI for the Clinic AI Assistant backend",
	Long: `clinictl drives agent setup for clinics against the Clinic AI
Assistant backend.

Features:
- Generate and auto-update webhook tool configurations per clinic/EHR
- Check backend health and vendor connectivity (Athena, Epic, ElevenLabs)
- Probe generated webhook tools with synthetic requests
- Register webhook tools with ElevenLabs

Examples:
  # Generate the webhook tool config for a clinic on Athena
  clinictl setup generate-webhook-tools --clinic-id clinic_001 --ehr athena --creds-from-env

  # Probe every tool in a saved config
  clinictl probe --input tools.json

  # Verify backend and vendor connectivity
  clinictl server health
  clinictl check athena --creds-from-env`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile := viper.GetString("env-file"); envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
			return nil
		}
		// Load .env from the working directory if present.
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
			}
		}
		return nil
	},
}

var (
	serverURL string
	timeout   time.Duration
	logLevel  string
	logFormat string
	logFile   string
	envFile   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", setupclient.DefaultServerURL, "backend base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "duplicate logs to this file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before running")

	// Bind to viper so flags can also come from CLINI_* env vars.
	for _, name := range []string{"server-url", "timeout", "log-level", "log-format", "log-file", "env-file"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	viper.SetEnvPrefix("CLINI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(setupcmd.GetSetupCmd())
	rootCmd.AddCommand(servercmd.GetServerCmd())
	rootCmd.AddCommand(check.GetCheckCmd())
	rootCmd.AddCommand(probecmd.GetProbeCmd())
	rootCmd.AddCommand(registercmd.GetRegisterToolsCmd())
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the clinictl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "clinictl %s\n", Version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
