// Package cli implements the docqa command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

var (
	// version is set by SetVersion from build flags.
	version = "dev"

	configDir string
	verbose   bool

	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a directory of documents",
	Long: `docqa answers questions about the text files in a directory.

It loads every file in the corpus directory, splits the text into chunks,
embeds them, and answers each question from the most similar chunks using
a language model. When anything goes wrong while answering, a fixed
fallback answer is returned instead.

Example usage:
  docqa serve                       # Web page on http://127.0.0.1:8501
  docqa ask "what does the cat eat?"
  docqa settings set corpus.dir ./notes`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		// A missing .env is normal.
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("read .env: %v", err)
		}

		if settingsService != nil {
			return nil
		}
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default is ~/.docqa)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log build and request details")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
