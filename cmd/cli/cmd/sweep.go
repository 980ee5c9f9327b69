package cmd

import (
	"time"

	"flightwx/pkg/api"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one weather sweep over upcoming flights",
	Long: `Evaluate every scheduled flight departing within the sweep horizon, cancel the unsafe
ones and open reschedule requests for them.

By default the controller runs the sweep (POST /sweeps, scheduler or admin token).
With --once the sweep runs in this process against the configured database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		if !once {
			client, ok := remoteClient(cmd)
			if !ok {
				return nil
			}
			res, err := client.Sweep()
			if err != nil {
				return err
			}
			printSweep(cmd, res)
			return nil
		}

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Coordinator().RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		printSweep(cmd, &api.SweepResponse{
			Flights:    report.Flights,
			Checked:    report.Checked,
			Cancelled:  report.Cancelled,
			Requests:   report.Requests,
			Failures:   report.Failures,
			Expired:    report.Expired,
			DurationMS: report.Duration.Milliseconds(),
		})
		return nil
	},
}

func printSweep(cmd *cobra.Command, res *api.SweepResponse) {
	icon := statusIcon("SAFE")
	if res.Failures > 0 {
		icon = statusIcon("UNSAFE")
	}
	cmd.Printf("%s %sSweep Finished%s %s(%s)%s\n", icon, colorBold, colorReset,
		colorCyan, formatDuration(time.Duration(res.DurationMS)*time.Millisecond), colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sFlights:%s     %d\n", colorDim, colorReset, res.Flights)
	cmd.Printf("%sChecked:%s     %d\n", colorDim, colorReset, res.Checked)
	cmd.Printf("%sCancelled:%s   %d\n", colorDim, colorReset, res.Cancelled)
	cmd.Printf("%sRequests:%s    %d\n", colorDim, colorReset, res.Requests)
	cmd.Printf("%sExpired:%s     %d\n", colorDim, colorReset, res.Expired)
	if res.Failures > 0 {
		cmd.Printf("%sFailures:%s    %s%d%s\n", colorDim, colorReset, colorRed, res.Failures, colorReset)
	} else {
		cmd.Printf("%sFailures:%s    0\n", colorDim, colorReset)
	}
}

func init() {
	sweepCmd.Flags().Bool("once", false, "Run the sweep locally instead of on the controller")
	sweepCmd.Flags().BoolP("verbose", "v", false, "Log per-flight progress")
	addServerConfigFlag(sweepCmd)
	rootCmd.AddCommand(sweepCmd)
}
