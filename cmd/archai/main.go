// archai generates architecturally valid residential floor plans from a
// declarative project brief. It serves the HTTP API (serve) or runs one
// generation from the command line (generate).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/config"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/logging"
)

var version = "0.4.0"

var (
	// Global flags
	configPath string
	debug      bool

	// Logger, built in PersistentPreRunE
	logger *zap.Logger

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "archai",
	Short: "archai - multi-agent residential floor plan generator",
	Long: `archai drives a fleet of Gemini-backed agents through a
generate -> validate -> critique -> refine loop until a floor plan
passes regulatory and vastu scoring, then prices and furnishes it.

Run "archai serve" for the HTTP API or "archai generate" for a
one-shot generation with live progress.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first so GEMINI_API_KEY is visible to the config loader.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if debug {
			cfg.Logging.Level = "debug"
		}

		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the archai version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("archai %s\n", version)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "archai.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, generateCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
