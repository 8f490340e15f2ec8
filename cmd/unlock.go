package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/TroubleGy/OneKeyV2/internal/appinfo"
	"github.com/TroubleGy/OneKeyV2/internal/config"
	"github.com/TroubleGy/OneKeyV2/internal/github"
	"github.com/TroubleGy/OneKeyV2/internal/hub"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
	"github.com/TroubleGy/OneKeyV2/internal/steampath"
	"github.com/TroubleGy/OneKeyV2/internal/unlock"
	"github.com/TroubleGy/OneKeyV2/internal/updater"
)

var (
	lockVersion   bool
	requireKeys   bool
	noUpdateCheck bool
)

var unlockCmd = &cobra.Command{
	Use:   "unlock <appid>...",
	Short: "Download and install unlock artifacts for one or more AppIDs",
	Long: `Resolves each AppID against the public manifest repositories, downloads the
depot manifests and decryption keys, and installs them for the selected tool
(--tool steamtools or --tool greenluma). Restart Steam afterwards.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		appIDs := make([]uint32, 0, len(args))
		for _, arg := range args {
			id, err := parseAppID(arg)
			if err != nil {
				return wrapUsageError(err)
			}
			appIDs = append(appIDs, id)
		}

		target, err := unlock.ParseTarget(toolName)
		if err != nil {
			return wrapUsageError(err)
		}

		cfg, state, err := loadRuntime()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client := github.NewClient(getGithubToken(cfg))

		if !noUpdateCheck {
			autoUpdateCheck(ctx, client, cfg, state)
		}
		logRateLimit(ctx, client)

		root, fromProbe, err := steampath.Discover(getSteamPath(cfg), state.CachedSteamPath)
		if err != nil {
			return fmt.Errorf("locating Steam: %w (set Custom_Steam_Path in config.json or pass --steam-path)", err)
		}
		if fromProbe {
			state.CachedSteamPath = root
		}
		logging.Debugf("Steam root: %s\n", root)

		opts := unlock.Options{RequireKeys: requireKeys, LockVersion: lockVersion}

		// Installs run strictly in sequence: each one finishes (or
		// reports its partial failure) before the next touches the
		// shared key store.
		var failed int
		for _, appID := range appIDs {
			if err := unlockOne(ctx, client, appID, target, root, opts); err != nil {
				var rl *github.RateLimitError
				if errors.As(err, &rl) {
					saveState(state)
					return rateLimitAdvice(rl)
				}
				logging.Errorf("AppID %d: %v\n", appID, err)
				failed++
			}
		}

		saveState(state)
		if failed > 0 {
			return fmt.Errorf("%d of %d unlocks failed", failed, len(appIDs))
		}
		return nil
	},
}

func init() {
	unlockCmd.Flags().StringVar(&toolName, "tool", "steamtools", "Install target: steamtools or greenluma")
	unlockCmd.Flags().BoolVar(&lockVersion, "lock-version", false, "Pin depots to the downloaded manifest versions (SteamTools only)")
	unlockCmd.Flags().BoolVar(&requireKeys, "require-keys", false, "Fail when a depot manifest has no decryption key")
	unlockCmd.Flags().BoolVar(&noUpdateCheck, "no-update-check", false, "Skip the automatic update check")
	rootCmd.AddCommand(unlockCmd)
}

func unlockOne(ctx context.Context, client *github.Client, appID uint32, target unlock.Target, steamRoot string, opts unlock.Options) error {
	logging.Infof("\nAppID %d\n", appID)

	// Metadata is advisory: a resolver failure never blocks acquisition.
	if info, err := appinfo.Resolve(ctx, appID); err == nil {
		logging.Infof("  Game:    %s\n", info.Name)
		if len(info.Developers) > 0 {
			logging.Infof("  By:      %s\n", strings.Join(info.Developers, ", "))
		}
		logging.Infof("  SteamDB: %s\n", info.SteamDBURL)
	} else {
		logging.Warnf("AppID %d not known to the Steam store, continuing anyway\n", appID)
	}

	bundle, err := hub.Acquire(ctx, client, appID, downloadProgress("  Downloading archive"))
	if err != nil {
		if errors.Is(err, hub.ErrNotAvailable) {
			return fmt.Errorf("no unlock artifacts published for this AppID")
		}
		return err
	}

	logging.Infof("  Found %d manifests and %d keys in %s (updated %s)\n",
		len(bundle.Manifests), len(bundle.Keys), bundle.Source,
		bundle.CommitDate.Format("2006-01-02"))
	if bundle.Skipped > 0 {
		logging.Warnf("Skipped %d malformed entries in the archive\n", bundle.Skipped)
	}
	if missing := bundle.MissingKeys(); len(missing) > 0 && !opts.RequireKeys {
		logging.Warnf("Depots without decryption keys: %v\n", missing)
	}
	if extra := bundle.ExtraKeys(); len(extra) > 0 {
		logging.Debugf("Keys without manifests (installed anyway): %v\n", extra)
	}

	report, err := unlock.Install(ctx, bundle, target, steamRoot, opts)
	if err != nil {
		return err
	}

	logging.Infof("  Installed %d manifests (%d already present), %d keys -> %s\n",
		report.ManifestsWritten, report.ManifestsSkipped, report.KeysWritten, report.KeyStorePath)
	if !report.OK() {
		for _, f := range report.Failed {
			logging.Errorf("  could not write %s: %v\n", f.Path, f.Err)
		}
		return fmt.Errorf("%d files could not be written", len(report.Failed))
	}

	logging.Infoln("  Done. Restart Steam to apply.")
	return nil
}

// parseAppID accepts a bare AppID or an id with a suffix like "730-dlc",
// taking the leading numeric segment.
func parseAppID(arg string) (uint32, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(arg), "-")
	id, err := strconv.ParseUint(head, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid AppID %q", arg)
	}
	return uint32(id), nil
}

func logRateLimit(ctx context.Context, client *github.Client) {
	info, err := client.RateLimit(ctx)
	if err != nil {
		logging.Debugf("Rate limit check failed: %v\n", err)
		return
	}
	logging.Debugf("GitHub API requests remaining: %d/%d\n", info.Remaining, info.Limit)
	if info.Remaining == 0 {
		logging.Warnf("GitHub API quota exhausted, resets at %s. Consider adding a token to config.json.\n",
			info.Reset.Format(time.RFC1123))
	}
}

func rateLimitAdvice(rl *github.RateLimitError) error {
	if wait := rl.Wait(); wait > 0 {
		return fmt.Errorf("%v; wait about %s or add a GitHub token to config.json", rl, wait.Round(time.Minute))
	}
	return fmt.Errorf("%v; add a GitHub token to config.json to raise the limit", rl)
}

func downloadProgress(label string) func(written, total int64) {
	var bar *progressbar.ProgressBar
	return func(written, total int64) {
		if bar == nil {
			bar = progressbar.DefaultBytes(total, label)
		}
		_ = bar.Set64(written)
	}
}

func saveState(state *config.State) {
	if err := state.Save(configDir); err != nil {
		logging.Warnf("Could not save state: %v\n", err)
	}
}

// autoUpdateCheck runs the interval-gated release check. All failures are
// non-fatal to the unlock workflow.
func autoUpdateCheck(ctx context.Context, client *github.Client, cfg *config.Config, state *config.State) {
	if !updater.ShouldCheck(cfg.AutoUpdate, state.LastUpdateCheck) {
		return
	}
	logging.Debugf("Checking for a newer release...\n")

	res, err := updater.Check(ctx, client)
	if err != nil {
		logging.Debugf("Update check failed: %v\n", err)
		return
	}
	state.LastUpdateCheck = time.Now()

	if res.UpdateAvailable() {
		logging.Warnf("A newer version is available: %s (running %s). Run 'onekey update --apply'.\n",
			res.Latest, res.Current)
	} else {
		logging.Debugf("Running the latest version (%s)\n", res.Current)
	}
}
