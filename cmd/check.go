package cmd

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bannercheck/internal/dimension"
	"bannercheck/internal/evaluate"
	"bannercheck/internal/logger"
	"bannercheck/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check [archive-or-folder]",
	Short: "Run every banner check: presence, size and translated text",
	Long: `Validate a localized banner set against its reference locale and a translation sheet.

The input is a .zip archive or a folder whose top-level folders are locale codes.
Every image under the reference locale must exist at the same relative path in
every other locale, have the reference image's pixel size, and contain the
translation of the spreadsheet row its reference text matched.

Text is read with the configured backend (Google Cloud Vision, Document AI or an
OpenAI vision model). Failed extractions are retried and then reported as empty
text; they never abort the run.

Required environment variables (depending on OCR_BACKEND):
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID - for the documentai backend
  OPENAI_API_KEY - for the openai backend

Optional environment variables:
  REFERENCE_LOCALE, SCALE_FACTOR, SIZE_BASIS, OCR_CONCURRENCY, OCR_RATE_LIMIT,
  OCR_TIMEOUT, OCR_MAX_RETRIES, GOOGLE_SHEET_URL, REPORT_SHEET_NAME`,
	Example: `  # Check a delivery against an Excel workbook
  bannercheck check banners.zip --sheet translations.xlsx

  # Use a Google Sheet and write an Excel report
  bannercheck check ./banners --sheet "https://docs.google.com/spreadsheets/d/<id>/edit" -f xlsx -o report.xlsx

  # Fail the build when anything is wrong
  bannercheck check banners.zip --sheet copy.csv --strict --fail-empty-expected`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("sheet", "s", "", "Translation spreadsheet: .xlsx, .csv or Google Sheets URL (default: GOOGLE_SHEET_URL)")
	checkCmd.Flags().StringP("reference", "r", "", "Reference locale folder (default: REFERENCE_LOCALE or en)")
	checkCmd.Flags().Int("scale", 0, "Multiplier from declared to real pixel size (default: SCALE_FACTOR or 2)")
	checkCmd.Flags().String("basis", "", "Size basis: reference or declared (default: SIZE_BASIS or reference)")
	checkCmd.Flags().String("backend", "", "Text backend: vision, documentai or openai (default: OCR_BACKEND)")
	checkCmd.Flags().IntP("concurrency", "c", 0, "Parallel text extractions (default: OCR_CONCURRENCY or 4)")
	checkCmd.Flags().Bool("skip-text", false, "Only check presence and sizes")
	checkCmd.Flags().Bool("join-fragments", false, "Also accept expected text spread over several fragments")
	checkCmd.Flags().Bool("fail-empty-expected", false, "Fail pairs whose translation cell is empty")
	checkCmd.Flags().Duration("timeout", 30*time.Minute, "Overall run timeout")
	addReportFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger.SetRunID(runID)
	log := logger.WithComponent("check")

	// Get flags
	sheetSource := stringFlag(cmd, "sheet", appConfig.GoogleSheetURL)
	reference := stringFlag(cmd, "reference", appConfig.ReferenceLocale)
	scale, err := scaleFlag(cmd, appConfig.ScaleFactor)
	if err != nil {
		return err
	}
	basisName := stringFlag(cmd, "basis", string(appConfig.SizeBasis))
	backendName := stringFlag(cmd, "backend", string(appConfig.OCRBackend))
	concurrency := intFlag(cmd, "concurrency", appConfig.OCRConcurrency)
	skipText, _ := cmd.Flags().GetBool("skip-text")
	joinFragments, _ := cmd.Flags().GetBool("join-fragments")
	failEmpty, _ := cmd.Flags().GetBool("fail-empty-expected")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	basis, err := dimension.ParseBasis(basisName)
	if err != nil {
		return err
	}

	log.Info().
		Str("input", args[0]).
		Str("sheet", sheetSource).
		Str("reference", reference).
		Int("scale", scale).
		Str("basis", string(basis)).
		Str("backend", backendName).
		Bool("skip_text", skipText).
		Msg("Starting banner check")

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	// Configuration errors fail fast, before any image is read
	in := pipeline.Input{RunID: runID}
	if !skipText {
		in.Rows, err = loadRows(ctx, sheetSource, log)
		if err != nil {
			return err
		}
		adapter, err := createAdapter(ctx, backendName, log)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := adapter.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close text extraction backend")
			}
		}()
		in.Extractor = adapter
	}

	inv, cleanup, err := openInventory(args[0], reference, log)
	if err != nil {
		return err
	}
	defer cleanup()
	in.Inventory = inv

	rep, err := pipeline.Run(ctx, in, pipeline.Options{
		Scale:       scale,
		Basis:       basis,
		Concurrency: concurrency,
		SkipText:    skipText,
		Evaluate: evaluate.Options{
			JoinFragments:     joinFragments,
			FailEmptyExpected: failEmpty,
		},
	})
	if err != nil {
		return err
	}

	return emitReport(ctx, cmd, rep, log)
}
