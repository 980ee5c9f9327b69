package cmd

import (
	"context"
	"io"
	"log/slog"

	"flightwx/internal/app"
	"flightwx/internal/config"
	"flightwx/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Local commands read the service configuration (flightwx.yaml, .env and the
// environment) rather than the CLI's own.
func addServerConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("server-config", "", "flightwx service config file (default: flightwx.yaml in current directory)")
}

func loadServerConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()
	path, _ := cmd.Flags().GetString("server-config")
	return config.Load(path)
}

func commandLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger.New(cfg.LogLevel)
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, commandLogger(cmd, cfg))
}
