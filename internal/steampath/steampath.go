// Package steampath locates the Steam installation root. A custom path from
// the configuration always wins; otherwise a previously cached result is
// revalidated, and finally the platform probe runs (registry on Windows,
// known install locations elsewhere).
package steampath

import (
	"errors"
	"fmt"
	"os"

	"github.com/TroubleGy/OneKeyV2/internal/logging"
)

// ErrNotFound indicates the Steam root could not be located. Installing is
// impossible without it; metadata resolution is unaffected.
var ErrNotFound = errors.New("Steam installation not found")

// Discover returns the Steam installation root. custom comes from the
// configuration record, cached from persisted state; pass "" for either.
// fromProbe reports whether the result came from the platform probe and is
// worth caching.
func Discover(custom, cached string) (path string, fromProbe bool, err error) {
	if custom != "" {
		if !isDir(custom) {
			return "", false, fmt.Errorf("configured Steam path %q: %w", custom, ErrNotFound)
		}
		return custom, false, nil
	}

	if cached != "" {
		if isDir(cached) {
			logging.Debugf("Using cached Steam path %s\n", cached)
			return cached, false, nil
		}
		logging.Debugf("Cached Steam path %s is gone, probing again\n", cached)
	}

	path, err = probe()
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func firstExistingDir(candidates []string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if isDir(c) {
			return c, nil
		}
	}
	return "", ErrNotFound
}
