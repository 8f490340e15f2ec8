package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TroubleGy/OneKeyV2/internal/appinfo"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
)

var infoCmd = &cobra.Command{
	Use:   "info <appid>",
	Short: "Show Steam store details for an AppID",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, err := parseAppID(args[0])
		if err != nil {
			return wrapUsageError(err)
		}

		info, err := appinfo.Resolve(cmd.Context(), appID)
		if err != nil {
			if errors.Is(err, appinfo.ErrUnknown) {
				return fmt.Errorf("AppID %d is not known to the Steam store", appID)
			}
			return err
		}

		logging.Infof("Game:       %s\n", info.Name)
		if len(info.Developers) > 0 {
			logging.Infof("Developers: %s\n", strings.Join(info.Developers, ", "))
		}
		if len(info.Publishers) > 0 {
			logging.Infof("Publishers: %s\n", strings.Join(info.Publishers, ", "))
		}
		logging.Infof("SteamDB:    %s\n", info.SteamDBURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
