package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bannercheck/internal/logger"
	"bannercheck/internal/matcher"
	"bannercheck/internal/textnorm"
	"bannercheck/pkg/models"
)

var matchCmd = &cobra.Command{
	Use:   "match [image-file]",
	Short: "Show which spreadsheet rows a banner's text matches",
	Long: `Score every spreadsheet row against the text of one reference banner.

The text comes from an image (read with the configured backend) or is given
directly with --text; with --text, "\n" separates fragments. For each fragment
all candidate rows are listed with their token overlap score, then the chosen
rows and the text each locale is expected to contain.`,
	Example: `  # Match typed text against a workbook
  bannercheck match --sheet translations.xlsx --text "Summer sale\nBuy now"

  # Match an image against a Google Sheet
  bannercheck match en/summer_728x90.png --sheet "https://docs.google.com/spreadsheets/d/<id>/edit"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("sheet", "s", "", "Translation spreadsheet: .xlsx, .csv or Google Sheets URL (default: GOOGLE_SHEET_URL)")
	matchCmd.Flags().String("text", "", "Reference text to match instead of an image")
	matchCmd.Flags().String("backend", "", "Text backend for image input (default: OCR_BACKEND)")
	matchCmd.Flags().Duration("timeout", 5*time.Minute, "Overall timeout")
}

func runMatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("match")

	sheetSource := stringFlag(cmd, "sheet", appConfig.GoogleSheetURL)
	text, _ := cmd.Flags().GetString("text")
	backendName := stringFlag(cmd, "backend", string(appConfig.OCRBackend))
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if (len(args) == 0) == (text == "") {
		return fmt.Errorf("give either an image file or --text")
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	rows, err := loadRows(ctx, sheetSource, log)
	if err != nil {
		return err
	}

	var reference models.ExtractedText
	if text != "" {
		reference = models.Fragments(strings.Split(strings.ReplaceAll(text, `\n`, "\n"), "\n")...)
	} else {
		if _, err := validateImageFile(args[0], log); err != nil {
			return err
		}
		adapter, err := createAdapter(ctx, backendName, log)
		if err != nil {
			return err
		}
		defer adapter.Close()

		res := adapter.ExtractFile(ctx, args[0], appConfig.ReferenceLocale)
		if res.Failed {
			return fmt.Errorf("text extraction failed after %d attempt(s): %s", res.Attempts, res.Reason)
		}
		reference = res.Text
	}

	m := matcher.New(rows)
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "FRAGMENT\tROW\tSCORE\tBEST\n")
	for _, fragment := range reference.Lines() {
		candidates := m.Candidates(fragment)
		if len(candidates) == 0 {
			fmt.Fprintf(tw, "%s\t-\t0\t\n", textnorm.Normalize(fragment))
			continue
		}
		best := 0
		for i, c := range candidates {
			if c.Score > candidates[best].Score {
				best = i
			}
		}
		for i, c := range candidates {
			mark := ""
			if i == best {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", textnorm.Normalize(fragment), c.Row.Ref(), c.Score, mark)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	res := m.Match(reference)
	if !res.Matched() {
		fmt.Fprintln(out, "\nNo matching spreadsheet row.")
		return nil
	}

	fmt.Fprintf(out, "\nMatched rows: %s\n", strings.Join(res.Refs(), ", "))
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "LOCALE\tEXPECTED\n")
	for _, locale := range localeColumns(res.Rows) {
		fmt.Fprintf(tw, "%s\t%s\n", locale, strings.Join(res.Expected(locale), " | "))
	}
	return tw.Flush()
}

// localeColumns lists the column headers of rows, deduplicated and sorted per row
func localeColumns(rows []models.TranslationRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		keys := make([]string, 0, len(row.Cells))
		for k := range row.Cells {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
