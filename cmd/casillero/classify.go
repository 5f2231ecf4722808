package main

import (
	"context"
	"fmt"

	"casillero-backend/app"
	"casillero-backend/models"

	"github.com/spf13/cobra"
)

var (
	documentID string
	persist    bool
)

func init() {
	for _, c := range []*cobra.Command{classifyOutcomeCmd, classifyMateriaCmd} {
		c.Flags().StringVar(&documentID, "id", "", "classify a single document instead of the whole working set")
		c.Flags().BoolVar(&persist, "persist", false, "with --id, write the label back to the store")
	}
	classifyCmd.AddCommand(classifyOutcomeCmd)
	classifyCmd.AddCommand(classifyMateriaCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(runCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Run a classification pass",
}

var classifyOutcomeCmd = &cobra.Command{
	Use:   "outcome",
	Short: "Label the procedural outcome of unclassified rulings",
	Long: `Label the procedural outcome of every ruling that has a PDF and no label yet.

Examples:
  # Classify the whole working set
  casillero classify outcome

  # Inspect one ruling without writing
  casillero classify outcome --id 12345

  # Classify one ruling and store the label
  casillero classify outcome --id 12345 --persist`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc := a.OutcomeService()
			if documentID == "" {
				return printRun(cmd, func() (*models.Run, error) { return svc.Run(ctx) })
			}

			decision, err := svc.ClassifyByID(ctx, documentID)
			if err != nil {
				return err
			}
			if persist {
				if err := a.Documents.SetOutcome(ctx, documentID, decision.Label); err != nil {
					return fmt.Errorf("failed to store outcome: %w", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), decision)
		})
	},
}

var classifyMateriaCmd = &cobra.Command{
	Use:   "materia",
	Short: "Label the subject matter of eligible rulings",
	Long: `Label the subject matter of every eligible ruling that is not indexed yet,
then add its subject embedding to the vector index.

Examples:
  # Classify the whole working set
  casillero classify materia

  # Inspect one ruling's neighbors without writing
  casillero classify materia --id 12345`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc, err := a.MateriaService(ctx)
			if err != nil {
				return err
			}
			if documentID == "" {
				return printRun(cmd, func() (*models.Run, error) { return svc.Run(ctx) })
			}

			result, err := svc.ClassifyByID(ctx, documentID)
			if err != nil {
				return err
			}
			if persist {
				if err := svc.Record(ctx, result); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the outcome pass followed by the subject-matter pass",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := printRun(cmd, func() (*models.Run, error) { return a.OutcomeService().Run(ctx) }); err != nil {
				return err
			}
			svc, err := a.MateriaService(ctx)
			if err != nil {
				return err
			}
			return printRun(cmd, func() (*models.Run, error) { return svc.Run(ctx) })
		})
	},
}

// printRun executes a pass and prints its summary, even when it failed
func printRun(cmd *cobra.Command, pass func() (*models.Run, error)) error {
	run, err := pass()
	if run != nil {
		if perr := printJSON(cmd.OutOrStdout(), run); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}
