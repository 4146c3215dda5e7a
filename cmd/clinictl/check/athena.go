package check

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tochi12ob/clini/cmd/clinictl/cliutil"
	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/ehr/athena"
)

var (
	athenaClientID     string
	athenaClientSecret string
	athenaAPIBaseURL   string
	athenaPracticeID   string
	athenaFromEnv      bool
)

var athenaCmd = &cobra.Command{
	Use:   "athena",
	Short: "Check Athena Health API connectivity",
	Long: `Obtain an Athena access token and list the practice's providers.

A passing check proves the credentials, the API base URL and the
practice id all line up. The token is shown truncated.

Examples:
  clinictl check athena --creds-from-env
  clinictl check athena \
    --athena-client-id 0oay0ra7o9QjMriHJ297 \
    --athena-client-secret $ATHENA_CLIENT_SECRET \
    --athena-api-base-url https://api.preview.platform.athenahealth.com \
    --athena-practice-id 195900`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		creds, err := athenaCheckCreds()
		if err != nil {
			return err
		}

		client, err := athena.NewClient(cmd.Context(), creds, cliutil.RequestTimeout(), log)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		result, err := client.Verify(cmd.Context())
		if result != nil && result.TokenPrefix != "" {
			fmt.Fprintf(out, "access token:  %s\n", result.TokenPrefix)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "providers:     %d (practice %s)\n", result.ProviderCount, creds.PracticeID)
		fmt.Fprintln(out, "athena connectivity OK")
		return nil
	},
}

func athenaCheckCreds() (*ehr.AthenaCredentials, error) {
	if athenaFromEnv {
		return ehr.AthenaFromEnv()
	}
	creds := &ehr.AthenaCredentials{
		ClientID:     athenaClientID,
		ClientSecret: athenaClientSecret,
		APIBaseURL:   athenaAPIBaseURL,
		PracticeID:   athenaPracticeID,
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.APIBaseURL == "" {
		return nil, athena.ErrMissingCredentials
	}
	return creds, nil
}

func init() {
	athenaCmd.Flags().StringVar(&athenaClientID, "athena-client-id", "", "Athena OAuth client id")
	athenaCmd.Flags().StringVar(&athenaClientSecret, "athena-client-secret", "", "Athena OAuth client secret")
	athenaCmd.Flags().StringVar(&athenaAPIBaseURL, "athena-api-base-url", "", "Athena API base URL")
	athenaCmd.Flags().StringVar(&athenaPracticeID, "athena-practice-id", "", "Athena practice id")
	athenaCmd.Flags().BoolVar(&athenaFromEnv, "creds-from-env", false, "load credentials from ATHENA_* env vars")

	checkCmd.AddCommand(athenaCmd)
}
