package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TroubleGy/OneKeyV2/internal/config"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
	"github.com/TroubleGy/OneKeyV2/internal/profile"
	"github.com/TroubleGy/OneKeyV2/internal/updater"
)

var (
	configDir   string
	steamPath   string
	githubToken string
	toolName    string
	profileName string
	verbose     bool
	logFile     string
)

var rootCmd = &cobra.Command{
	Use:           "onekey",
	Short:         "Steam depot unlock tool",
	Long:          "Download depot manifests and decryption keys for an AppID and install them for SteamTools or GreenLuma.",
	Version:       updater.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Apply profile defaults for flags not explicitly set by the user.
		if profileName != "" {
			p, err := profile.Load(profileName)
			if err != nil {
				return err
			}
			if p.ConfigDir != nil && !cmd.Flags().Changed("config-dir") {
				configDir = *p.ConfigDir
			}
			if p.Tool != nil && !cmd.Flags().Changed("tool") {
				toolName = *p.Tool
			}
			if p.SteamPath != nil && !cmd.Flags().Changed("steam-path") {
				steamPath = *p.SteamPath
			}
			if p.LockVersion != nil && !cmd.Flags().Changed("lock-version") {
				lockVersion = *p.LockVersion
			}
			if p.RequireKeys != nil && !cmd.Flags().Changed("require-keys") {
				requireKeys = *p.RequireKeys
			}
			if p.Verbose != nil && !cmd.Flags().Changed("verbose") {
				verbose = *p.Verbose
			}
			if p.LogFile != nil && !cmd.Flags().Changed("log-file") {
				logFile = *p.LogFile
			}
		}

		logging.SetDebug(verbose)
		if err := logging.SetOutputFile(logFile); err != nil {
			return fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	closeErr := logging.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", closeErr)
		if err == nil {
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			if cmd, _, findErr := rootCmd.Find(os.Args[1:]); findErr == nil && cmd != nil {
				_ = cmd.Usage()
			} else {
				_ = rootCmd.Usage()
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapUsageError(err)
	})

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding config.json and state.json")
	rootCmd.PersistentFlags().StringVar(&steamPath, "steam-path", "", "Steam installation root (overrides config and auto-detection)")
	rootCmd.PersistentFlags().StringVar(&githubToken, "token", "", "GitHub token for a higher API rate limit (also reads GITHUB_TOKEN env)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Load a saved option profile by name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write command output to a log file")
}

// loadRuntime reads config.json and state.json and resolves the effective
// token, steam path, and logging setup, with flags taking precedence over
// the config file.
func loadRuntime() (*config.Config, *config.State, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}
	state, err := config.LoadState(configDir)
	if err != nil {
		return nil, nil, err
	}

	if cfg.DebugMode {
		logging.SetDebug(true)
	}
	if logFile == "" && cfg.LoggingFiles {
		if err := logging.SetOutputFile(filepath.Join(configDir, "onekey.log")); err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
	}
	return cfg, state, nil
}

func getGithubToken(cfg *config.Config) string {
	if githubToken != "" {
		return githubToken
	}
	if env := os.Getenv("GITHUB_TOKEN"); env != "" {
		return env
	}
	if cfg != nil {
		return cfg.GithubToken
	}
	return ""
}

func getSteamPath(cfg *config.Config) string {
	if steamPath != "" {
		return steamPath
	}
	if cfg != nil {
		return cfg.CustomSteamPath
	}
	return ""
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func wrapUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if validate == nil {
			return nil
		}
		if err := validate(cmd, args); err != nil {
			return wrapUsageError(err)
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}

	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command ")
}
