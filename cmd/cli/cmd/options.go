package cmd

import (
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options [flight_id]",
	Short: "Generate three reschedule options for a flight",
	Long: `Ask the suggestion generator for three replacement slots and open a reschedule
request. The student is emailed the options.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ok := remoteClient(cmd)
		if !ok {
			return nil
		}

		req, err := client.GenerateOptions(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("✓ Reschedule request created!\n\n")
		printRequest(cmd, req)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}
