// Package cmd implements the lexnav CLI.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lexnav/lexnav/internal/config"
	"github.com/lexnav/lexnav/internal/logging"
)

var (
	cfgFile    string
	cfg        *config.Config
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "lexnav",
	Short: "Legal retrieval engine for GDPR and the EU AI Act",
	Long: `lexnav retrieves the most relevant provisions from GDPR and the
EU AI Act for a natural-language legal question, using hybrid
lexical+semantic search and citation-graph context expansion.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environments set variables directly.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		logCleanup, err = logging.SetupDefault(cfg.Logging.Level, cfg.Logging.File)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "lexnav.yaml", "config file path")
}
