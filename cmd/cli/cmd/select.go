package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select [request_id] [option]",
	Short: "Choose one of a request's options as the student",
	Long: `Record the student's choice. Options are numbered 1 to 3 as shown by
"wxctl request". The instructor is then asked to approve.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		option, err := strconv.Atoi(args[1])
		if err != nil || option < 1 {
			return fmt.Errorf("option must be a positive number, got %q", args[1])
		}

		client, ok := remoteClient(cmd)
		if !ok {
			return nil
		}

		req, err := client.SelectOption(args[0], option-1)
		if err != nil {
			return err
		}
		cmd.Printf("✓ Option %d selected, awaiting instructor approval\n\n", option)
		printRequest(cmd, req)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
