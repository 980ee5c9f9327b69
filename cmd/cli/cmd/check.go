package cmd

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flight_id]",
	Short: "Check the weather for a flight",
	Long: `Fetch current weather at the flight's departure airport and evaluate it against the
student's training-level minimums. An unsafe result cancels the flight.

With --latest, show the most recent stored check instead of running a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ok := remoteClient(cmd)
		if !ok {
			return nil
		}

		latest, _ := cmd.Flags().GetBool("latest")
		if latest {
			check, err := client.LatestWeatherCheck(args[0])
			if err != nil {
				return err
			}
			printStoredCheck(cmd, check)
			return nil
		}

		res, err := client.CheckWeather(args[0])
		if err != nil {
			return err
		}
		printCheck(cmd, res)
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("latest", false, "Show the latest stored check without fetching")
	rootCmd.AddCommand(checkCmd)
}
