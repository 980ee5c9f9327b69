package cmd

import (
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request [request_id]",
	Short: "Show a reschedule request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ok := remoteClient(cmd)
		if !ok {
			return nil
		}

		req, err := client.GetRequest(args[0])
		if err != nil {
			return err
		}
		printRequest(cmd, req)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)
}
