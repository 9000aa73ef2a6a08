package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bannercheck/internal/config"
	"bannercheck/internal/logger"
)

var version = "1.0.0"

// appConfig is the environment configuration; command flags override it
var appConfig *config.Config

// errChecksFailed makes --strict runs exit non-zero without printing a second error
var errChecksFailed = errors.New("one or more banner checks failed")

var rootCmd = &cobra.Command{
	Use:   "bannercheck",
	Short: "Validate localized banner sets against a reference locale and a translation sheet",
	Long: `bannercheck validates a set of localized banner images.

Given an archive or folder with one sub-folder per locale and a spreadsheet with
one column per locale, it checks that every reference banner exists in every
locale, that image sizes match the reference and the size declared in the file
name, and that the text read from each image contains the expected translation.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with the loaded configuration
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errChecksFailed) {
			log.Warn().Msg("Strict mode: failing checks present")
			os.Exit(2)
		}
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
