package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TroubleGy/OneKeyV2/internal/github"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
	"github.com/TroubleGy/OneKeyV2/internal/updater"
)

var applyUpdate bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer release and optionally install it",
	Long: `Queries the project's latest release and compares versions. With --apply the
new binary is downloaded to a temporary file, verified, and swapped in; the
running process keeps executing the old build until restarted.

A manual check always runs, regardless of the Auto_Update settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, state, err := loadRuntime()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		client := github.NewClient(getGithubToken(cfg))

		// A previously staged update gets another chance before checking.
		if state.StagedUpdate != "" {
			logging.Infof("Applying previously staged update...\n")
			if err := updater.Apply(state.StagedUpdate); err == nil {
				state.StagedUpdate = ""
				saveState(state)
				logging.Infoln("Update applied. Restart to run the new version.")
				return nil
			} else {
				logging.Warnf("Staged update could not be applied: %v\n", err)
			}
		}

		res, err := updater.Check(ctx, client)
		if err != nil {
			return err
		}
		state.LastUpdateCheck = time.Now()
		defer saveState(state)

		if !res.UpdateAvailable() {
			logging.Infof("Already up to date (%s).\n", res.Current)
			return nil
		}

		logging.Infof("Update available: %s -> %s\n", res.Current, res.Latest)
		if !applyUpdate {
			logging.Infoln("Run again with --apply to install it.")
			return nil
		}

		tmpPath, err := updater.Download(ctx, client, res, downloadProgress("Downloading update"))
		if err != nil {
			return err
		}

		if err := updater.Apply(tmpPath); err != nil {
			// Keep the verified download around and retry on next start.
			state.StagedUpdate = tmpPath
			return fmt.Errorf("update staged for next start: %w", err)
		}
		logging.Infof("Updated to %s. Restart to run the new version.\n", res.Latest)
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&applyUpdate, "apply", false, "Download and install the update")
	rootCmd.AddCommand(updateCmd)
}
