// Package unlock places a downloaded artifact bundle into the directory
// layout of the selected add-on. SteamTools gets manifests in depotcache/
// and keys merged into a per-app lua store under config/stplug-in/;
// GreenLuma gets depot ids in an applist file and one key file per depot.
package unlock

import (
	"context"
	"fmt"
	"os"

	"github.com/TroubleGy/OneKeyV2/internal/hub"
	"github.com/TroubleGy/OneKeyV2/internal/steampath"
)

// Options tweak install behavior.
type Options struct {
	// RequireKeys makes a manifest without a decryption key an error
	// instead of a warning. Some unlock setups work without per-depot
	// keys, so this is off unless the user asks.
	RequireKeys bool
	// LockVersion pins each depot to its newest manifest id in the
	// SteamTools store (setManifestid lines). SteamTools only.
	LockVersion bool
}

// Install writes the bundle for the given target under steamRoot.
// The root is validated before any file is touched. Per-file failures are
// collected in the report; only structural problems (missing root, missing
// required keys, an unwritable key store) fail the whole call.
func Install(ctx context.Context, bundle *hub.Bundle, target Target, steamRoot string, opts Options) (*Report, error) {
	info, err := os.Stat(steamRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("steam root %q: %w", steamRoot, steampath.ErrNotFound)
	}

	if opts.RequireKeys {
		if missing := bundle.MissingKeys(); len(missing) > 0 {
			return nil, fmt.Errorf("depots %v have manifests but no decryption key", missing)
		}
	}

	switch target {
	case TargetSteamTools:
		return installSteamTools(ctx, bundle, steamRoot, opts)
	case TargetGreenLuma:
		return installGreenLuma(ctx, bundle, steamRoot)
	default:
		return nil, fmt.Errorf("unsupported install target %v", target)
	}
}

// writeFileAtomic writes data to path via a temporary file and rename, so a
// crash mid-write never leaves a half-written destination. Cancellation
// between the write and the rename discards the temporary file.
func writeFileAtomic(ctx context.Context, path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
