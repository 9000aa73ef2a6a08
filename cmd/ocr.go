package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bannercheck/internal/inventory"
	"bannercheck/internal/logger"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Extract the text of one banner image",
	Long: `Run the configured text extraction backend on one image and print the result.

This uses the same timeout, retry and rate limit settings as the check command,
so it is a quick way to see what the matcher will be given for a banner.

Supported images: PNG, JPEG and GIF up to 20MB.`,
	Example: `  # Print the text lines of a banner
  bannercheck ocr en/summer_728x90.png

  # Use the OpenAI backend and print JSON
  bannercheck ocr fr/summer_728x90.png --backend openai --locale fr --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	FileName           string   `json:"file_name"`
	FileSize           int64    `json:"file_size"`
	Backend            string   `json:"backend"`
	Locale             string   `json:"locale,omitempty"`
	Lines              []string `json:"lines"`
	Failed             bool     `json:"failed"`
	Reason             string   `json:"reason,omitempty"`
	Attempts           int      `json:"attempts"`
	ProcessingDuration string   `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().String("backend", "", "Text backend: vision, documentai or openai (default: OCR_BACKEND)")
	ocrCmd.Flags().String("locale", "", "Locale hint passed to the backend")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Duration("timeout", 5*time.Minute, "Overall timeout")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	backendName := stringFlag(cmd, "backend", string(appConfig.OCRBackend))
	locale, _ := cmd.Flags().GetString("locale")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	imagePath := args[0]
	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	adapter, err := createAdapter(ctx, backendName, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := adapter.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close text extraction backend")
		}
	}()

	res := adapter.ExtractFile(ctx, imagePath, locale)

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(OCROutput{
			FileName:           fileInfo.Name(),
			FileSize:           fileInfo.Size(),
			Backend:            adapter.Backend(),
			Locale:             locale,
			Lines:              res.Text.Lines(),
			Failed:             res.Failed,
			Reason:             res.Reason,
			Attempts:           res.Attempts,
			ProcessingDuration: res.Duration.String(),
		})
	}

	if res.Failed {
		return fmt.Errorf("text extraction failed after %d attempt(s): %s", res.Attempts, res.Reason)
	}
	for _, line := range res.Text.Lines() {
		fmt.Fprintln(out, line)
	}
	return nil
}

// validateImageFile checks that the path is a readable image file
func validateImageFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", path).
				Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}

	if !inventory.IsImage(path) {
		log.Warn().
			Str("file", path).
			Msg("File extension is not a recognized banner image")
	}

	return fileInfo, nil
}
