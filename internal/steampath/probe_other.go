//go:build !windows

package steampath

import (
	"os"
	"path/filepath"
)

// probe checks the usual Steam install locations on Linux and macOS.
func probe() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ErrNotFound
	}

	return firstExistingDir([]string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, "Library", "Application Support", "Steam"),
	})
}
