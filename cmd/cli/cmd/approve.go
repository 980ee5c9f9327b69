package cmd

import (
	"github.com/spf13/cobra"
)

var approveCmd = &cobra.Command{
	Use:   "approve [request_id]",
	Short: "Approve or reject the student's choice as the instructor",
	Long: `Approve books the selected slot as a new flight and marks the original rescheduled.
Use --reject to decline; the student is notified and the request closes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ok := remoteClient(cmd)
		if !ok {
			return nil
		}

		reject, _ := cmd.Flags().GetBool("reject")
		res, err := client.Approve(args[0], !reject)
		if err != nil {
			return err
		}

		if res.NewFlight != nil {
			cmd.Printf("✓ Rescheduled!\nNew flight: %s\nStart: %s\n\n", res.NewFlight.ID, formatTime(res.NewFlight.ScheduledStart))
		} else {
			cmd.Printf("✗ Selection rejected\n\n")
		}
		printRequest(cmd, &res.Request)
		return nil
	},
}

func init() {
	approveCmd.Flags().Bool("reject", false, "Reject the selected option")
	rootCmd.AddCommand(approveCmd)
}
