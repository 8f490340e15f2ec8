package cmd

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/TroubleGy/OneKeyV2/internal/logging"
	"github.com/TroubleGy/OneKeyV2/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved option profiles",
}

// Flags for profile create
var (
	profConfigDir   *string
	profTool        *string
	profSteamPath   *string
	profLockVersion *bool
	profRequireKeys *bool
	profVerbose     *bool
)

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &profile.Profile{}

		if cmd.Flags().Changed("config-dir") {
			p.ConfigDir = profConfigDir
		}
		if cmd.Flags().Changed("tool") {
			p.Tool = profTool
		}
		if cmd.Flags().Changed("steam-path") {
			p.SteamPath = profSteamPath
		}
		if cmd.Flags().Changed("lock-version") {
			p.LockVersion = profLockVersion
		}
		if cmd.Flags().Changed("require-keys") {
			p.RequireKeys = profRequireKeys
		}
		if cmd.Flags().Changed("verbose") {
			p.Verbose = profVerbose
		}
		if cmd.Flags().Changed("log-file") {
			p.LogFile = &logFile
		}

		if err := profile.Save(args[0], p); err != nil {
			return err
		}
		logging.Infof("Profile %q saved to %s\n", args[0], profile.Dir())
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := profile.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logging.Infoln("No profiles saved.")
			return nil
		}
		for _, n := range names {
			logging.Infoln(n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's contents",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return err
		}
		logging.Infof("%s", buf.String())
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profile.Delete(args[0]); err != nil {
			return err
		}
		logging.Infof("Profile %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	// Local variables so these flags only apply to this subcommand and don't
	// collide with the root/unlock flags.
	profConfigDir = profileCreateCmd.Flags().String("config-dir", "", "Directory holding config.json and state.json")
	profTool = profileCreateCmd.Flags().String("tool", "", "Install target: steamtools or greenluma")
	profSteamPath = profileCreateCmd.Flags().String("steam-path", "", "Steam installation root")
	profLockVersion = profileCreateCmd.Flags().Bool("lock-version", false, "Pin depots to the downloaded manifest versions")
	profRequireKeys = profileCreateCmd.Flags().Bool("require-keys", false, "Fail when a depot manifest has no decryption key")
	profVerbose = profileCreateCmd.Flags().Bool("verbose", false, "Enable verbose logging")

	profileCmd.AddCommand(profileCreateCmd, profileListCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
