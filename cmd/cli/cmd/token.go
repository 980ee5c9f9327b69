package cmd

import (
	"fmt"
	"time"

	"flightwx/internal/auth"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for development",
	Long: `Sign a token with the controller's secret (auth.jwt_secret). The subject of a
student token must be the student's ID for "wxctl select" to accept it.

Example:
  wxctl token --secret dev-secret --subject 6f1c7a52-... --role student`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		subject, _ := flags.GetString("subject")
		roleName, _ := flags.GetString("role")
		ttl, _ := flags.GetDuration("ttl")

		if subject == "" {
			return fmt.Errorf("--subject is required")
		}
		role, err := auth.ParseRole(roleName)
		if err != nil {
			return err
		}

		signer, err := auth.NewSigner(viper.GetString("jwt_secret"))
		if err != nil {
			return err
		}
		token, err := signer.Issue(subject, role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	flags := tokenCmd.Flags()
	flags.String("subject", "", "Token subject, usually a student or instructor ID (required)")
	flags.String("role", string(auth.RoleAdmin), "student, instructor, admin or scheduler")
	flags.Duration("ttl", 24*time.Hour, "Token lifetime")
	flags.String("secret", "", "Signing secret (env: WXCTL_JWT_SECRET)")
	viper.BindPFlag("jwt_secret", flags.Lookup("secret"))

	rootCmd.AddCommand(tokenCmd)
}
