// Package probecmd implements the clinictl probe command: a smoke test
// that fires one synthetic request at every webhook tool in a config.
package probecmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tochi12ob/clini/cmd/clinictl/cliutil"
	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/events"
	"github.com/tochi12ob/clini/probe"
	"github.com/tochi12ob/clini/toolschema"
)

var (
	inputPath   string
	parallel    int
	toolTimeout time.Duration

	clinicID     string
	ehrVendor    string
	credsFromEnv bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Smoke-test every webhook tool in a generated config",
	Long: `Issue one synthetic request per webhook tool and report which of
them answer 2xx. Payloads carry only each tool's required fields;
oauth2-protected tools get a fresh client-credentials token first.

Tools come from --input (a file, or - for stdin), or are generated
fresh by the backend when --clinic-id and --ehr are given with
credentials in the environment.

Exactly one request goes out per tool per run. The exit code is
non-zero if any tool fails.

Examples:
  clinictl probe --input tools.json
  clinictl setup generate-webhook-tools --clinic-id clinic_001 --ehr athena --creds-from-env \
    | clinictl probe --input -
  clinictl probe --clinic-id clinic_001 --ehr athena --creds-from-env --parallel 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		tools, err := loadTools(cmd)
		if err != nil {
			return err
		}

		emitter := events.NewEmitter()
		emitter.AddObserver(events.NewLogObserver(log))

		runner := probe.NewRunner(probe.Options{
			Timeout:  toolTimeout,
			Parallel: parallel,
		}, emitter, log)

		summary, err := runner.Run(cmd.Context(), tools)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, res := range summary.Results {
			mark := "FAIL"
			if res.Passed {
				mark = "ok"
			}
			fmt.Fprintf(out, "%-4s %-30s %s %s", mark, res.Tool, res.Method, res.URL)
			if res.StatusCode != 0 {
				fmt.Fprintf(out, " [%d]", res.StatusCode)
			}
			fmt.Fprintln(out)
			if !res.Passed && res.Detail != "" {
				fmt.Fprintf(out, "     %s\n", res.Detail)
			}
		}
		fmt.Fprintf(out, "\n%d passed, %d failed in %s\n",
			summary.Passed, summary.Failed, summary.Duration.Round(time.Millisecond))

		if !summary.AllPassed() {
			return fmt.Errorf("probe: %d of %d tools failed", summary.Failed, len(summary.Results))
		}
		return nil
	},
}

// GetProbeCmd returns the probe command.
func GetProbeCmd() *cobra.Command {
	return probeCmd
}

// loadTools resolves the tool list from --input or a fresh generation.
func loadTools(cmd *cobra.Command) ([]toolschema.WebhookTool, error) {
	if inputPath != "" {
		data, err := readInput(cmd, inputPath)
		if err != nil {
			return nil, err
		}
		return toolschema.ExtractTools(data)
	}
	if clinicID == "" || ehrVendor == "" {
		return nil, fmt.Errorf("probe: pass --input, or --clinic-id and --ehr to generate a fresh config")
	}
	return generateTools(cmd)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("probe: read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("probe: read %s: %w", path, err)
	}
	return data, nil
}

// generateTools asks the backend for a fresh config. Credentials come
// from the environment only; per-flag creds belong to the setup command.
func generateTools(cmd *cobra.Command) ([]toolschema.WebhookTool, error) {
	vendor, err := ehr.ParseVendor(ehrVendor)
	if err != nil {
		return nil, err
	}
	if !credsFromEnv {
		return nil, fmt.Errorf("probe: generating a fresh config needs --creds-from-env")
	}

	req := &ehr.WebhookToolsRequest{ClinicID: clinicID, EHR: vendor}
	if vendor == ehr.VendorAthena || vendor == ehr.VendorBoth {
		if req.AthenaCreds, err = ehr.AthenaFromEnv(); err != nil {
			return nil, err
		}
	}
	if vendor == ehr.VendorEpic || vendor == ehr.VendorBoth {
		if req.EpicCreds, err = ehr.EpicFromEnv(); err != nil {
			return nil, err
		}
	}

	log := cliutil.LoggerFromViper()
	defer log.Close()
	client := cliutil.SetupClientFromViper(log)

	result, err := client.GenerateWebhookTools(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, fmt.Errorf("probe: generate webhook tools: server answered status %d", result.StatusCode)
	}
	return toolschema.ExtractTools(result.Raw)
}

func init() {
	probeCmd.Flags().StringVar(&inputPath, "input", "", "tools JSON file, - for stdin")
	probeCmd.Flags().IntVar(&parallel, "parallel", 1, "number of concurrent checks")
	probeCmd.Flags().DurationVar(&toolTimeout, "tool-timeout", probe.DefaultToolTimeout, "per-tool request timeout")
	probeCmd.Flags().StringVar(&clinicID, "clinic-id", "", "clinic id for fresh generation")
	probeCmd.Flags().StringVar(&ehrVendor, "ehr", "", "EHR vendor for fresh generation")
	probeCmd.Flags().BoolVar(&credsFromEnv, "creds-from-env", false, "load vendor credentials from ATHENA_*/EPIC_* env vars")
}
