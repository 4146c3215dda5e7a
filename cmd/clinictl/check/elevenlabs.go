package check

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tochi12ob/clini/cmd/clinictl/cliutil"
	"github.com/tochi12ob/clini/elevenlabs"
	"github.com/tochi12ob/clini/logger"
)

var elevenlabsCmd = &cobra.Command{
	Use:   "elevenlabs",
	Short: "Check the ElevenLabs API key and list agents and voices",
	Long: `Validate the ELEVENLABS_API_KEY by fetching the account, then
summarize the conversational agents and voices it can reach.

Examples:
  clinictl check elevenlabs
  ELEVENLABS_API_KEY=sk_... clinictl check elevenlabs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliutil.LoggerFromViper()
		defer log.Close()

		cfg, err := elevenlabs.FromEnv()
		if err != nil {
			return err
		}
		client, err := elevenlabs.NewClient(cfg, cliutil.RequestTimeout(), log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		user, err := client.GetUser(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "account:    %s %s (tier %s, %d characters used)\n",
			user.FirstName, user.LastName, user.Subscription.Tier, user.Subscription.CharacterCount)

		agents, err := client.ListAgents(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "agents:     %d\n", len(agents))
		for _, agent := range agents {
			fmt.Fprintf(out, "  %s  %s\n", agent.AgentID, agent.Name)
		}

		voices, err := client.ListVoices(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "voices:     %d\n", len(voices))

		log.Info("elevenlabs key OK",
			logger.Int("agents", len(agents)),
			logger.Int("voices", len(voices)))
		fmt.Fprintln(out, "elevenlabs connectivity OK")
		return nil
	},
}

func init() {
	checkCmd.AddCommand(elevenlabsCmd)
}
