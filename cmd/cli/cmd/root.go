package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wxctl",
	Short: "wxctl is a command line tool for the flightwx weather and reschedule service",
	Long: `wxctl is the command-line interface for flightwx.

flightwx checks the weather at each upcoming lesson's departure airport against
the student's training-level minimums, cancels unsafe flights and walks the student
and instructor through picking a replacement slot.

Common workflows:

  Check a flight now:
    wxctl check <flight-id>

  Generate three reschedule options for a cancelled flight:
    wxctl options <flight-id>

  Pick an option as the student, then approve as the instructor:
    wxctl select <request-id> 2
    wxctl approve <request-id>

  Run a sweep over all flights in the next 24 hours:
    wxctl sweep

Local commands (talk to the database directly):
    wxctl migrate
    wxctl seed --file fixtures.yaml
    wxctl sweep --once
    wxctl token --subject <id> --role instructor

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    WXCTL_URL      API endpoint (default: http://localhost:6161)
    WXCTL_TOKEN    Bearer token for authentication`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".wxctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".wxctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "WXCTL_VARNAME"
	viper.SetEnvPrefix("WXCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wxctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "flightwx controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}

// remoteClient returns a client for the configured controller, or prints why it cannot.
func remoteClient(cmd *cobra.Command) (*WxClient, bool) {
	token := viper.GetString("token")
	if token == "" {
		cmd.Println("API token not found. Please set it using the --token flag or the WXCTL_TOKEN environment variable")
		return nil, false
	}
	return NewWxClient(viper.GetString("url"), token), true
}
