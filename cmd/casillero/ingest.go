package main

import (
	"context"
	"fmt"
	"os"

	"casillero-backend/app"
	"casillero-backend/models"

	"github.com/spf13/cobra"
)

var (
	listingFile  string
	snapshotFile string
	snapshotKey  string
)

func init() {
	ingestCmd.Flags().StringVar(&listingFile, "file", "", "read the listing from a local file instead of the newest stored listing")
	seedIndexCmd.Flags().StringVar(&snapshotFile, "file", "", "read the snapshot from a local file")
	seedIndexCmd.Flags().StringVar(&snapshotKey, "key", "", "storage key of the snapshot (defaults to seed.snapshot_key)")
	exportIndexCmd.Flags().StringVar(&snapshotKey, "key", "", "storage key to write the snapshot to (defaults to seed.snapshot_key)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(seedIndexCmd)
	rootCmd.AddCommand(exportIndexCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load new rulings from the newest upstream listing",
	Long: `Load new rulings and their judges from the newest listing in object storage.
Rulings already stored are skipped.

Examples:
  # Ingest the newest stored listing
  casillero ingest

  # Ingest a listing saved locally
  casillero ingest --file listing.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc := a.IngestService()
			if listingFile == "" {
				return printRun(cmd, func() (*models.Run, error) { return svc.Run(ctx) })
			}

			f, err := os.Open(listingFile)
			if err != nil {
				return fmt.Errorf("failed to open listing %s: %w", listingFile, err)
			}
			defer f.Close()
			return printRun(cmd, func() (*models.Run, error) { return svc.Ingest(ctx, f) })
		})
	},
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Link stored PDFs to rulings that have no storage pointer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return printRun(cmd, func() (*models.Run, error) { return a.RoutingService().Run(ctx) })
		})
	},
}

var seedIndexCmd = &cobra.Command{
	Use:   "seed-index",
	Short: "Import a labeled snapshot into the vector index",
	Long: `Import a snapshot of labeled subject embeddings into the vector index.
Entries already indexed are skipped, so an interrupted import can be re-run.

Examples:
  # Import the configured snapshot from object storage
  casillero seed-index

  # Import a snapshot saved locally
  casillero seed-index --file ini-chromadb.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc, err := a.SeedService(ctx)
			if err != nil {
				return err
			}
			if snapshotFile != "" {
				f, err := os.Open(snapshotFile)
				if err != nil {
					return fmt.Errorf("failed to open snapshot %s: %w", snapshotFile, err)
				}
				defer f.Close()
				return printRun(cmd, func() (*models.Run, error) { return svc.Import(ctx, f) })
			}

			key := snapshotKey
			if key == "" {
				key = a.Config.Seed.SnapshotKey
			}
			return printRun(cmd, func() (*models.Run, error) { return svc.ImportKey(ctx, key) })
		})
	},
}

var exportIndexCmd = &cobra.Command{
	Use:   "export-index",
	Short: "Write every vector index entry to a snapshot in object storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc, err := a.SeedService(ctx)
			if err != nil {
				return err
			}
			key := snapshotKey
			if key == "" {
				key = a.Config.Seed.SnapshotKey
			}
			n, err := svc.Export(ctx, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", n, key)
			return nil
		})
	},
}
