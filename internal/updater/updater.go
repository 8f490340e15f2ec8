// Package updater checks the project's releases for a newer build and
// applies it. The check is gated by a wall-clock interval persisted across
// runs; applying goes through a verified temporary file and a rename-based
// replace, never an in-place overwrite of the running binary.
package updater

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/TroubleGy/OneKeyV2/internal/config"
	"github.com/TroubleGy/OneKeyV2/internal/github"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
)

// Version is the running build's version. Overridden at release time via
// -ldflags "-X github.com/TroubleGy/OneKeyV2/internal/updater.Version=...".
var Version = "1.21.0"

// ProjectRepo is the repository whose releases are checked.
const ProjectRepo = "TroubleGy/OneKeyV2"

// CheckResult describes the outcome of one release check.
type CheckResult struct {
	Current   string
	Latest    string
	AssetURL  string
	AssetSize int64
}

// UpdateAvailable reports whether the latest release is newer than the
// running build and has a downloadable asset.
func (r *CheckResult) UpdateAvailable() bool {
	return r != nil && r.AssetURL != ""
}

// ShouldCheck applies the interval gate: a check runs only when auto-update
// is enabled and the configured number of hours has passed since the last
// one. Manual checks bypass this entirely.
func ShouldCheck(cfg config.AutoUpdate, lastCheck time.Time) bool {
	if !cfg.Enabled {
		return false
	}
	hours := cfg.CheckInterval
	if hours < 1 {
		hours = 1
	}
	return time.Since(lastCheck) >= time.Duration(hours)*time.Hour
}

// Check queries the latest release and compares it semantically against the
// running version, so "1.12.1" is correctly newer than "1.4.7". The result
// carries no asset when already up to date.
func Check(ctx context.Context, client *github.Client) (*CheckResult, error) {
	rel, err := client.LatestRelease(ctx, ProjectRepo)
	if err != nil {
		return nil, fmt.Errorf("checking latest release: %w", err)
	}

	latest, err := semver.NewVersion(strings.TrimSpace(rel.TagName))
	if err != nil {
		return nil, fmt.Errorf("release tag %q is not a version: %w", rel.TagName, err)
	}
	current, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("running version %q is not a version: %w", Version, err)
	}

	result := &CheckResult{Current: current.String(), Latest: latest.String()}
	if !latest.GreaterThan(current) {
		return result, nil
	}

	asset := pickAsset(rel.Assets)
	if asset == nil {
		logging.Warnf("Release %s has no downloadable binary for this platform\n", rel.TagName)
		return result, nil
	}
	result.AssetURL = asset.BrowserDownloadURL
	result.AssetSize = asset.Size
	return result, nil
}

// pickAsset selects the release binary for the current platform: an asset
// naming the OS wins, then the conventional .exe on Windows, then a single
// unambiguous asset.
func pickAsset(assets []github.ReleaseAsset) *github.ReleaseAsset {
	for i, a := range assets {
		if strings.Contains(strings.ToLower(a.Name), runtime.GOOS) {
			return &assets[i]
		}
	}
	if runtime.GOOS == "windows" {
		for i, a := range assets {
			if strings.HasSuffix(strings.ToLower(a.Name), ".exe") {
				return &assets[i]
			}
		}
	}
	if len(assets) == 1 {
		return &assets[0]
	}
	return nil
}

// Download fetches the release asset into a temporary file and verifies its
// size against the release metadata. The caller owns the returned path.
func Download(ctx context.Context, client *github.Client, res *CheckResult, onProgress func(written, total int64)) (string, error) {
	f, err := os.CreateTemp("", "onekey-update-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}

	n, err := client.DownloadTo(ctx, res.AssetURL, f, onProgress)
	closeErr := f.Close()
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("downloading update: %w", err)
	}
	if closeErr != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing download: %w", closeErr)
	}

	if res.AssetSize > 0 && n != res.AssetSize {
		os.Remove(f.Name())
		return "", fmt.Errorf("downloaded %d bytes, release metadata says %d", n, res.AssetSize)
	}
	return f.Name(), nil
}
