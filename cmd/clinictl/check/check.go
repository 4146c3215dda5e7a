// Package check implements the clinictl check command group: vendor
// connectivity diagnostics and environment configuration review.
package check

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tochi12ob/clini/ehr"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Vendor connectivity and configuration diagnostics",
}

// GetCheckCmd returns the check command group.
func GetCheckCmd() *cobra.Command {
	return checkCmd
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the relevant environment configuration, secrets masked",
	Long: `Print the configuration clinictl and the backend read from the
environment. Secrets are masked to their first 8 and last 4 characters.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "CLINI_SERVER_URL:     %s\n", viper.GetString("server-url"))
		printEnv(out, "ELEVENLABS_API_KEY", true)
		fmt.Fprintln(out)
		printEnv(out, "ATHENA_CLIENT_ID", false)
		printEnv(out, "ATHENA_CLIENT_SECRET", true)
		printEnv(out, "ATHENA_API_BASE_URL", false)
		printEnv(out, "ATHENA_PRACTICE_ID", false)
		fmt.Fprintln(out)
		printEnv(out, "EPIC_CLIENT_ID", false)
		printEnv(out, "EPIC_CLIENT_SECRET", true)
		printEnv(out, "EPIC_FHIR_BASE_URL", false)
		printEnv(out, "EPIC_REDIRECT_URI", false)
	},
}

func printEnv(out io.Writer, name string, secret bool) {
	value, ok := os.LookupEnv(name)
	switch {
	case !ok:
		fmt.Fprintf(out, "%-21s (not set)\n", name+":")
	case secret:
		fmt.Fprintf(out, "%-21s %s\n", name+":", ehr.MaskSecret(value))
	default:
		fmt.Fprintf(out, "%-21s %s\n", name+":", value)
	}
}

func init() {
	checkCmd.AddCommand(envCmd)
}
