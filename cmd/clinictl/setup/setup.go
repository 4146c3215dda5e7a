// Package setup implements the clinictl setup command group: webhook
// tool generation and auto-update against the backend's agent-setup
// API.
package setup

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tochi12ob/clini/cmd/clinictl/cliutil"
	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/setupclient"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Agent setup operations against the backend",
}

// GetSetupCmd returns the setup command group.
func GetSetupCmd() *cobra.Command {
	return setupCmd
}

var (
	clinicID     string
	ehrVendor    string
	credsFromEnv bool
	outFile      string

	athenaClientID     string
	athenaClientSecret string
	athenaAPIBaseURL   string
	athenaPracticeID   string

	epicClientID     string
	epicClientSecret string
	epicFHIRBaseURL  string
	epicRedirectURI  string
)

var generateCmd = &cobra.Command{
	Use:   "generate-webhook-tools",
	Short: "Generate the webhook tool configuration for a clinic",
	Long: `Generate the webhook tool configuration for one clinic/EHR pairing.

The backend's raw JSON response is echoed to stdout untouched, so the
output can be piped into a file and fed to probe or register-tools.
Exactly one request is sent; the exit code reflects the call outcome.

Examples:
  # Credentials from ATHENA_* env vars (or an --env-file)
  clinictl setup generate-webhook-tools --clinic-id clinic_001 --ehr athena --creds-from-env

  # Credentials on the command line, config saved for later probing
  clinictl setup generate-webhook-tools --clinic-id clinic_001 --ehr athena \
    --athena-client-id 0oay0ra7o9QjMriHJ297 \
    --athena-client-secret $ATHENA_CLIENT_SECRET \
    --athena-api-base-url https://api.preview.platform.athenahealth.com \
    --athena-practice-id 195900 \
    --out tools.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		req, err := buildRequest()
		if err != nil {
			return err
		}

		client := cliutil.SetupClientFromViper(log)
		result, err := client.GenerateWebhookTools(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, string(result.Raw))

		if outFile != "" {
			if err := os.WriteFile(outFile, result.Raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outFile, err)
			}
			log.Info("wrote webhook tool config", logger.String("path", outFile))
		}

		if !result.OK() {
			return fmt.Errorf("generate webhook tools: server answered status %d", result.StatusCode)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, vendorNote(req.EHR))
		return nil
	},
}

var autoUpdateCmd = &cobra.Command{
	Use:   "auto-update-tools",
	Short: "Regenerate webhook tools and push them into the live agent config",
	Long: `Regenerate the clinic's webhook tools and update the agent
configuration in one server-side step.

The backend's raw JSON response is echoed to stdout untouched. The exit
code reflects the call outcome.

Examples:
  clinictl setup auto-update-tools --clinic-id clinic_001 --ehr athena --creds-from-env`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		req, err := buildRequest()
		if err != nil {
			return err
		}

		client := cliutil.SetupClientFromViper(log)
		result, err := client.AutoUpdateTools(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, string(result.Raw))

		if !result.OK() {
			return fmt.Errorf("auto-update tools: server answered status %d", result.StatusCode)
		}

		if parsed, err := setupclient.ParseAutoUpdateResponse(result.Raw); err == nil {
			log.Info("agent config updated",
				logger.String("clinic_id", req.ClinicID),
				logger.Int("webhooks", len(parsed.Webhooks)))
		}
		return nil
	},
}

func init() {
	addRequestFlags(generateCmd)
	generateCmd.Flags().StringVar(&outFile, "out", "", "also write the raw response body to this file")
	addRequestFlags(autoUpdateCmd)

	setupCmd.AddCommand(generateCmd)
	setupCmd.AddCommand(autoUpdateCmd)
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&clinicID, "clinic-id", "", "clinic identifier (required)")
	cmd.Flags().StringVar(&ehrVendor, "ehr", "", "EHR vendor: athena, epic or both (required)")
	cmd.Flags().BoolVar(&credsFromEnv, "creds-from-env", false, "load vendor credentials from ATHENA_*/EPIC_* env vars")

	cmd.Flags().StringVar(&athenaClientID, "athena-client-id", "", "Athena OAuth client id")
	cmd.Flags().StringVar(&athenaClientSecret, "athena-client-secret", "", "Athena OAuth client secret")
	cmd.Flags().StringVar(&athenaAPIBaseURL, "athena-api-base-url", "", "Athena API base URL")
	cmd.Flags().StringVar(&athenaPracticeID, "athena-practice-id", "", "Athena practice id")

	cmd.Flags().StringVar(&epicClientID, "epic-client-id", "", "Epic OAuth client id")
	cmd.Flags().StringVar(&epicClientSecret, "epic-client-secret", "", "Epic OAuth client secret")
	cmd.Flags().StringVar(&epicFHIRBaseURL, "epic-fhir-base-url", "", "Epic FHIR base URL")
	cmd.Flags().StringVar(&epicRedirectURI, "epic-redirect-uri", "", "Epic OAuth redirect URI")

	_ = cmd.MarkFlagRequired("clinic-id")
	_ = cmd.MarkFlagRequired("ehr")
}

// buildRequest assembles the request body from flags or env. The creds
// bundle for the selected vendor must be complete; the other bundle
// stays null.
func buildRequest() (*ehr.WebhookToolsRequest, error) {
	vendor, err := ehr.ParseVendor(ehrVendor)
	if err != nil {
		return nil, err
	}

	req := &ehr.WebhookToolsRequest{ClinicID: clinicID, EHR: vendor}
	if vendor == ehr.VendorAthena || vendor == ehr.VendorBoth {
		creds, err := athenaCreds()
		if err != nil {
			return nil, err
		}
		req.AthenaCreds = creds
	}
	if vendor == ehr.VendorEpic || vendor == ehr.VendorBoth {
		creds, err := epicCreds()
		if err != nil {
			return nil, err
		}
		req.EpicCreds = creds
	}
	return req, nil
}

func athenaCreds() (*ehr.AthenaCredentials, error) {
	if credsFromEnv {
		return ehr.AthenaFromEnv()
	}
	creds := &ehr.AthenaCredentials{
		ClientID:     athenaClientID,
		ClientSecret: athenaClientSecret,
		APIBaseURL:   athenaAPIBaseURL,
		PracticeID:   athenaPracticeID,
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.APIBaseURL == "" {
		return nil, errors.New("athena credentials required: pass the --athena-* flags or --creds-from-env")
	}
	return creds, nil
}

func epicCreds() (*ehr.EpicCredentials, error) {
	if credsFromEnv {
		return ehr.EpicFromEnv()
	}
	creds := &ehr.EpicCredentials{
		ClientID:     epicClientID,
		ClientSecret: epicClientSecret,
		FHIRBaseURL:  epicFHIRBaseURL,
		RedirectURI:  epicRedirectURI,
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.FHIRBaseURL == "" {
		return nil, errors.New("epic credentials required: pass the --epic-* flags or --creds-from-env")
	}
	return creds, nil
}

// vendorNote mirrors the descriptive line the original setup example
// printed after a successful generation.
func vendorNote(vendor ehr.Vendor) string {
	switch vendor {
	case ehr.VendorEpic:
		return "This will return a conversation_config JSON with Epic FHIR webhook tools configured."
	case ehr.VendorBoth:
		return "This will return a conversation_config JSON with Athena Health and Epic FHIR webhook tools configured."
	default:
		return "This will return a conversation_config JSON with Athena Health webhook tools configured."
	}
}
