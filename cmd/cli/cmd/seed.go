package cmd

import (
	"fmt"
	"os"
	"time"

	"flightwx/internal/app"
	"flightwx/internal/seed"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load schools, students, instructors, aircraft and flights from a YAML fixture",
	Long: `Load a YAML fixture into the database named by DATABASE_URL.

Example fixture:
  schools:
    - key: austin
      name: Austin Flight Academy
      airport: KAUS
      timezone: America/Chicago
  students:
    - key: sam
      school: austin
      email: sam@example.com
      training_level: EARLY_STUDENT
      availability:
        monday: ["08:00-12:00"]
  ...
  flights:
    - school: austin
      student: sam
      instructor: jo
      aircraft: n123
      start_in: 6h
      duration: 90m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return fmt.Errorf("--file is required")
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		fixture, err := seed.Parse(f)
		if err != nil {
			return err
		}

		cfg, err := loadServerConfig(cmd)
		if err != nil {
			return err
		}
		s, err := app.OpenStore(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := seed.Load(cmd.Context(), s, fixture, time.Now().UTC())
		if err != nil {
			return err
		}
		cmd.Printf("✓ Seeded %d schools, %d students, %d instructors, %d aircraft, %d flights\n",
			res.Schools, res.Students, res.Instructors, res.Aircraft, res.Flights)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "", "Fixture file (required)")
	addServerConfigFlag(seedCmd)
	rootCmd.AddCommand(seedCmd)
}
