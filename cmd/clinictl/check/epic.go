package check

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tochi12ob/clini/cmd/clinictl/cliutil"
	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/ehr/epic"
)

var (
	epicClientID     string
	epicClientSecret string
	epicFHIRBaseURL  string
	epicRedirectURI  string
	epicTokenFile    string
	epicExchangeCode string
	epicFromEnv      bool
)

var epicCmd = &cobra.Command{
	Use:   "epic",
	Short: "Check Epic FHIR connectivity",
	Long: `Check for a usable cached Epic token.

Epic issues user-context tokens through a browser authorization flow,
so this check never talks to Epic on its own. When no valid token is
cached it prints the authorize URL; open it, sign in, and pass the code
from the callback back via --exchange-code to complete the flow.

Examples:
  clinictl check epic --creds-from-env
  clinictl check epic --creds-from-env --exchange-code eyJhbGciOi...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		creds, err := epicCheckCreds()
		if err != nil {
			return err
		}

		client, err := epic.NewClient(creds, epicTokenFile, cliutil.RequestTimeout(), log)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if epicExchangeCode != "" {
			token, err := client.ExchangeCode(cmd.Context(), epicExchangeCode)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "token stored:  %s\n", client.TokenPath())
			fmt.Fprintf(out, "access token:  %s\n", ehr.TruncateToken(token.AccessToken))
			fmt.Fprintln(out, "epic connectivity OK")
			return nil
		}

		result, err := client.Verify()
		if err != nil {
			if errors.Is(err, epic.ErrNoToken) || errors.Is(err, epic.ErrTokenExpired) {
				fmt.Fprintf(out, "no usable token at %s\n\n", client.TokenPath())
				fmt.Fprintln(out, "Authorize in a browser, then rerun with --exchange-code <code>:")
				fmt.Fprintln(out, client.AuthURL(""))
			}
			return err
		}

		fmt.Fprintf(out, "access token:  %s (from %s)\n", result.TokenPrefix, result.TokenPath)
		fmt.Fprintln(out, "epic connectivity OK")
		return nil
	},
}

func epicCheckCreds() (*ehr.EpicCredentials, error) {
	if epicFromEnv {
		return ehr.EpicFromEnv()
	}
	creds := &ehr.EpicCredentials{
		ClientID:     epicClientID,
		ClientSecret: epicClientSecret,
		FHIRBaseURL:  epicFHIRBaseURL,
		RedirectURI:  epicRedirectURI,
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.FHIRBaseURL == "" {
		return nil, epic.ErrMissingCredentials
	}
	return creds, nil
}

func init() {
	epicCmd.Flags().StringVar(&epicClientID, "epic-client-id", "", "Epic OAuth client id")
	epicCmd.Flags().StringVar(&epicClientSecret, "epic-client-secret", "", "Epic OAuth client secret")
	epicCmd.Flags().StringVar(&epicFHIRBaseURL, "epic-fhir-base-url", "", "Epic FHIR base URL")
	epicCmd.Flags().StringVar(&epicRedirectURI, "epic-redirect-uri", "", "Epic OAuth redirect URI")
	epicCmd.Flags().StringVar(&epicTokenFile, "token-file", "", "path of the cached token file")
	epicCmd.Flags().StringVar(&epicExchangeCode, "exchange-code", "", "authorization code to exchange and store")
	epicCmd.Flags().BoolVar(&epicFromEnv, "creds-from-env", false, "load credentials from EPIC_* env vars")

	checkCmd.AddCommand(epicCmd)
}
