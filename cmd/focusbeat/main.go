package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mtreharne/focusbeat/internal/client/api"
	"github.com/mtreharne/focusbeat/internal/config"
	"github.com/mtreharne/focusbeat/internal/version"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "focusbeat",
		Short:   "Biofeedback-aware focus timer",
		Version: version.Get(),
	}

	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(disconnectCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(syncCmd())

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}

func clientFromEnv() (*api.Client, config.Client, error) {
	cfg, err := config.ReadClient()
	if err != nil {
		return nil, config.Client{}, fmt.Errorf("reading client config: %w", err)
	}
	if cfg.UserID == "" {
		return nil, cfg, fmt.Errorf("FOCUSBEAT_USER_ID is not set")
	}
	return api.New(cfg.ServerURL, cfg.APIKey), cfg, nil
}
