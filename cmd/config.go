package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TroubleGy/OneKeyV2/internal/config"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config.json",
	Long:  "Writes a default config.json into the config directory. An existing file is never overwritten.",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := config.Generate(configDir)
		if err != nil {
			return err
		}
		path := filepath.Join(configDir, config.ConfigFile)
		if created {
			logging.Infof("Generated %s. Fill in your settings and run 'onekey unlock'.\n", path)
		} else {
			logging.Infof("%s already exists, leaving it alone.\n", path)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
