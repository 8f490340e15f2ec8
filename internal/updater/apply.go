package updater

import (
	"fmt"
	"os"

	"github.com/fynelabs/selfupdate"
)

// Apply replaces the running executable with the verified update at tmpPath.
// The library renames the current binary aside and moves the new one into
// place, which is safe while the process is still executing. On success the
// temporary file is removed; on failure it is left for the caller to stage
// for the next start.
func Apply(tmpPath string) error {
	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("opening update file: %w", err)
	}
	defer f.Close()

	if err := selfupdate.Apply(f, selfupdate.Options{}); err != nil {
		return fmt.Errorf("applying update: %w", err)
	}

	os.Remove(tmpPath)
	return nil
}
