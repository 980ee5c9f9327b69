package cmd

import (
	"flightwx/internal/app"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Apply all pending schema migrations to the database named by DATABASE_URL.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServerConfig(cmd)
		if err != nil {
			return err
		}

		s, err := app.OpenStore(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer s.Close()

		version, err := app.Migrate(s, commandLogger(cmd, cfg))
		if err != nil {
			return err
		}
		cmd.Printf("✓ Migrations applied (schema version %d)\n", version)
		return nil
	},
}

func init() {
	addServerConfigFlag(migrateCmd)
	rootCmd.AddCommand(migrateCmd)
}
