package unlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TroubleGy/OneKeyV2/internal/hub"
)

const (
	appListDir   = "AppList"
	appListFile  = "applist.txt"
	depotKeysDir = "config/depotkeys"
)

func installGreenLuma(ctx context.Context, bundle *hub.Bundle, steamRoot string) (*Report, error) {
	report := &Report{}

	listDir := filepath.Join(steamRoot, appListDir)
	if err := os.MkdirAll(listDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating applist directory: %w", err)
	}
	listPath := filepath.Join(listDir, appListFile)

	if err := appendAppList(ctx, listPath, bundle.DepotIDs()); err != nil {
		return report, fmt.Errorf("updating applist: %w", err)
	}
	report.KeyStorePath = listPath

	keysDir := filepath.Join(steamRoot, depotKeysDir)
	if err := os.MkdirAll(keysDir, 0o755); err != nil {
		return report, fmt.Errorf("creating depot keys directory: %w", err)
	}

	for _, id := range bundle.DepotIDs() {
		key, ok := bundle.Keys[id]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path := filepath.Join(keysDir, fmt.Sprintf("%d.txt", id))
		if err := writeFileAtomic(ctx, path, []byte(key+"\n")); err != nil {
			report.Failed = append(report.Failed, FileError{Path: path, Err: err})
			continue
		}
		report.KeysWritten++
	}
	return report, nil
}

// appendAppList adds depot ids to the list file, deduplicated, keeping the
// existing order and appending new ids at the end.
func appendAppList(ctx context.Context, listPath string, ids []uint32) error {
	existing := make(map[uint32]bool)
	var lines []string

	if data, err := os.ReadFile(listPath); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = append(lines, line)
			if id, err := strconv.ParseUint(line, 10, 32); err == nil {
				existing[uint32(id)] = true
			}
		}
	}

	for _, id := range ids {
		if existing[id] {
			continue
		}
		lines = append(lines, strconv.FormatUint(uint64(id), 10))
		existing[id] = true
	}

	return writeFileAtomic(ctx, listPath, []byte(strings.Join(lines, "\n")+"\n"))
}
