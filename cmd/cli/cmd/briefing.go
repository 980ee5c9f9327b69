package cmd

import (
	"github.com/spf13/cobra"
)

var briefingCmd = &cobra.Command{
	Use:   "briefing [flight_id]",
	Short: "Show a weather briefing for a flight",
	Long: `Fetch and evaluate current weather for a flight without recording a check,
and list the most recent recorded checks. The flight's status is never changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ok := remoteClient(cmd)
		if !ok {
			return nil
		}

		b, err := client.WeatherBriefing(args[0])
		if err != nil {
			return err
		}
		printBriefing(cmd, b)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(briefingCmd)
}
