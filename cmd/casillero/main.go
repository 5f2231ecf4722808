// Package main implements the casillero CLI for the batch classification passes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"casillero-backend/app"
	"casillero-backend/config"
	"casillero-backend/logging"

	"github.com/spf13/cobra"
)

var (
	// configPath is an optional YAML file layered under the environment
	configPath string
	// version information
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "casillero",
	Short: "Classify judicial rulings by outcome and subject matter",
	Long: `casillero runs the batch passes that keep the ruling store classified:
ingest the upstream listing, link stored PDFs, label outcomes, and label
subject matter through the vector index.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
}

// setup loads configuration and connects every shared dependency
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	return app.New(ctx, cfg, logger)
}

// withApp runs fn with a connected app and releases it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = a.Logger.Sync()
	}()
	return fn(ctx, a)
}

// printJSON writes v to w as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
