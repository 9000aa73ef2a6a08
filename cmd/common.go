package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bannercheck/internal/inventory"
	"bannercheck/internal/ocr"
	"bannercheck/internal/report"
	"bannercheck/internal/sheets"
	"bannercheck/internal/translations"
	"bannercheck/pkg/models"
)

// createContextWithTimeout creates a context that is canceled on timeout or on SIGINT/SIGTERM
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling run")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// stringFlag returns the flag value, or fallback when the flag was not set
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// intFlag returns the flag value, or fallback when the flag was not set
func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

// scaleFlag reads --scale with the same bounds SCALE_FACTOR has
func scaleFlag(cmd *cobra.Command, fallback int) (int, error) {
	scale := intFlag(cmd, "scale", fallback)
	if scale < 1 {
		return 0, fmt.Errorf("--scale must be at least 1, got %d", scale)
	}
	return scale, nil
}

// openInventory builds the locale inventory of a folder or .zip archive
func openInventory(path, reference string, log zerolog.Logger) (*inventory.Inventory, func(), error) {
	opts := appConfig.GetInventoryOptions()
	opts.ReferenceLocale = reference

	inv, cleanup, err := inventory.Open(path, opts)
	if err != nil {
		if errors.Is(err, inventory.ErrReferenceLocaleNotFound) {
			log.Error().
				Str("path", path).
				Str("reference", reference).
				Msg("Reference locale folder not found")
			return nil, nil, fmt.Errorf("no %q locale folder in %s; set --reference or REFERENCE_LOCALE", reference, path)
		}
		return nil, nil, fmt.Errorf("failed to read banners: %w", err)
	}
	return inv, cleanup, nil
}

// loadRows loads the translation spreadsheet from a file or Google Sheets URL
func loadRows(ctx context.Context, source string, log zerolog.Logger) ([]models.TranslationRow, error) {
	if source == "" {
		return nil, fmt.Errorf("no spreadsheet given; pass --sheet or set GOOGLE_SHEET_URL")
	}

	rows, err := translations.Load(ctx, source)
	if err != nil {
		log.Error().Err(err).Str("sheet", source).Msg("Failed to load translation spreadsheet")
		return nil, fmt.Errorf("failed to load spreadsheet: %w", err)
	}
	if len(rows) == 0 {
		log.Warn().Str("sheet", source).Msg("Spreadsheet has no translation rows")
	}
	return rows, nil
}

// createAdapter creates the configured text extraction backend wrapped in the retrying adapter
func createAdapter(ctx context.Context, backendName string, log zerolog.Logger) (*ocr.Adapter, error) {
	backend, err := ocr.ParseBackend(backendName)
	if err != nil {
		return nil, err
	}
	if err := appConfig.ValidateFor(backend); err != nil {
		log.Error().Err(err).Str("backend", string(backend)).Msg("Text extraction backend not configured")
		return nil, err
	}

	extractor, err := ocr.NewExtractor(ctx, appConfig.GetBackendConfig(backend))
	if err != nil {
		log.Error().Err(err).Str("backend", string(backend)).Msg("Failed to create text extraction backend")
		return nil, fmt.Errorf("failed to create %s backend: %w", backend, err)
	}

	return ocr.NewAdapter(extractor, appConfig.GetAdapterConfig()), nil
}

// addReportFlags registers the output flags shared by check and reconcile
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "table", "Report format: table, csv, json or xlsx")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().Bool("write-sheet", false, "Also append the report to a tab of GOOGLE_SHEET_URL")
	cmd.Flags().String("report-sheet", "", "Tab name for --write-sheet (default: REPORT_SHEET_NAME)")
	cmd.Flags().Bool("strict", false, "Exit with status 2 when any check fails")
}

// emitReport writes the report to stdout or a file, and optionally to Google Sheets
func emitReport(ctx context.Context, cmd *cobra.Command, rep *report.Report, log zerolog.Logger) error {
	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	writeSheet, _ := cmd.Flags().GetBool("write-sheet")
	strict, _ := cmd.Flags().GetBool("strict")

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && outputPath == "" {
		return fmt.Errorf("xlsx format needs --output")
	}

	out := cmd.OutOrStdout()
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close output file")
			}
		}()
		out = file
	}

	if err := rep.Write(out, format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if outputPath != "" {
		log.Info().Str("file", outputPath).Str("format", string(format)).Msg("Report written")
	}

	if writeSheet {
		sheetName := stringFlag(cmd, "report-sheet", appConfig.ReportSheetName)
		if appConfig.GoogleSheetURL == "" {
			return fmt.Errorf("--write-sheet needs GOOGLE_SHEET_URL")
		}
		svc, err := sheets.NewSheetsService(ctx, appConfig.GoogleSheetURL)
		if err != nil {
			return err
		}
		if err := svc.AppendTable(ctx, sheetName, report.Header, rep.SheetRows()); err != nil {
			return err
		}
	}

	if strict && rep.HasFailures() {
		return errChecksFailed
	}
	return nil
}
