package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexnav/lexnav/configs"
	lexerrors "github.com/lexnav/lexnav/internal/errors"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an annotated configuration file",
	Long: `Writes a lexnav.yaml template to the path given by --config
(default lexnav.yaml). The template documents every setting with its
default value; edit it before running ingest.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err == nil && !initForce {
		return lexerrors.ConfigError(
			fmt.Sprintf("%s already exists, use --force to overwrite", cfgFile), nil)
	}

	if err := os.WriteFile(cfgFile, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return lexerrors.ConfigError(fmt.Sprintf("cannot write %s", cfgFile), err)
	}

	fmt.Printf("Wrote %s\n", cfgFile)
	return nil
}
