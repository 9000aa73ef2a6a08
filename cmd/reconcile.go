package cmd

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bannercheck/internal/dimension"
	"bannercheck/internal/logger"
	"bannercheck/internal/pipeline"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [archive-or-folder]",
	Short: "Check banner presence and pixel sizes without reading text",
	Long: `Reconcile every locale folder against the reference locale.

For each image under the reference locale this reports whether the same relative
path exists in every other locale, and whether its pixel size equals the
reference image and the size declared in the file name times the scale.

No spreadsheet or credentials are needed.`,
	Example: `  # Presence and size report for a folder
  bannercheck reconcile ./banners

  # Compare against declared sizes at 3x, as CSV
  bannercheck reconcile banners.zip --basis declared --scale 3 -f csv -o sizes.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringP("reference", "r", "", "Reference locale folder (default: REFERENCE_LOCALE or en)")
	reconcileCmd.Flags().Int("scale", 0, "Multiplier from declared to real pixel size (default: SCALE_FACTOR or 2)")
	reconcileCmd.Flags().String("basis", "", "Size basis: reference or declared (default: SIZE_BASIS or reference)")
	addReportFlags(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger.SetRunID(runID)
	log := logger.WithComponent("reconcile")

	reference := stringFlag(cmd, "reference", appConfig.ReferenceLocale)
	scale, err := scaleFlag(cmd, appConfig.ScaleFactor)
	if err != nil {
		return err
	}
	basis, err := dimension.ParseBasis(stringFlag(cmd, "basis", string(appConfig.SizeBasis)))
	if err != nil {
		return err
	}

	inv, cleanup, err := openInventory(args[0], reference, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rep, err := pipeline.Run(ctx, pipeline.Input{Inventory: inv, RunID: runID}, pipeline.Options{
		Scale:    scale,
		Basis:    basis,
		SkipText: true,
	})
	if err != nil {
		return err
	}

	return emitReport(ctx, cmd, rep, log)
}
