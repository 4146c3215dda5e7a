// Package registercmd implements the clinictl register-tools command:
// push a generated webhook tool set to ElevenLabs, one POST per tool.
package registercmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tochi12ob/clini/cmd/clinictl/cliutil"
	"github.com/tochi12ob/clini/elevenlabs"
	"github.com/tochi12ob/clini/events"
	"github.com/tochi12ob/clini/toolschema"
)

var inputPath string

var registerCmd = &cobra.Command{
	Use:   "register-tools",
	Short: "Register webhook tools with ElevenLabs",
	Long: `Convert every webhook tool in a generated config into the
ElevenLabs registration format and POST it to the tools endpoint.

The API key comes from ELEVENLABS_API_KEY. Rejected tools are reported
and the run continues; the exit code is non-zero if any registration
failed.

Examples:
  clinictl register-tools --input tools.json
  clinictl setup generate-webhook-tools --clinic-id clinic_001 --ehr athena --creds-from-env \
    | clinictl register-tools --input -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		data, err := readInput(cmd, inputPath)
		if err != nil {
			return err
		}
		tools, err := toolschema.ExtractTools(data)
		if err != nil {
			return err
		}

		cfg, err := elevenlabs.FromEnv()
		if err != nil {
			return err
		}
		client, err := elevenlabs.NewClient(cfg, cliutil.RequestTimeout(), log)
		if err != nil {
			return err
		}

		emitter := events.NewEmitter()
		emitter.AddObserver(events.NewLogObserver(log))

		summary, err := client.RegisterAll(cmd.Context(), tools, emitter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, res := range summary.Results {
			if res.Registered {
				fmt.Fprintf(out, "ok   %-30s %s\n", res.Tool, res.ToolID)
			} else {
				fmt.Fprintf(out, "FAIL %-30s %s\n", res.Tool, res.Detail)
			}
		}
		fmt.Fprintf(out, "\n%d registered, %d failed in %s\n",
			summary.Registered, summary.Failed, summary.Duration.Round(time.Millisecond))

		if !summary.AllRegistered() {
			return fmt.Errorf("register-tools: %d of %d tools failed", summary.Failed, len(summary.Results))
		}
		return nil
	},
}

// GetRegisterToolsCmd returns the register-tools command.
func GetRegisterToolsCmd() *cobra.Command {
	return registerCmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("register-tools: read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("register-tools: read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	registerCmd.Flags().StringVar(&inputPath, "input", "", "tools JSON file, - for stdin (required)")
	_ = registerCmd.MarkFlagRequired("input")
}
