package unlock

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/TroubleGy/OneKeyV2/internal/hub"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
)

const (
	depotCacheDir = "depotcache"
	pluginDir     = "config/stplug-in"
)

var addAppIDLine = regexp.MustCompile(`^addappid\((\d+),\s*1,\s*"([^"]*)"\)$`)

func installSteamTools(ctx context.Context, bundle *hub.Bundle, steamRoot string, opts Options) (*Report, error) {
	report := &Report{}

	cacheDir := filepath.Join(steamRoot, depotCacheDir)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating depot cache: %w", err)
	}

	for _, m := range bundle.Manifests {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path := filepath.Join(cacheDir, fmt.Sprintf("%d_%s.manifest", m.DepotID, m.ManifestID))

		if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, m.Data) {
			logging.Debugf("Manifest already present: %s\n", filepath.Base(path))
			report.ManifestsSkipped++
			continue
		}
		if err := writeFileAtomic(ctx, path, m.Data); err != nil {
			report.Failed = append(report.Failed, FileError{Path: path, Err: err})
			continue
		}
		report.ManifestsWritten++
	}

	storeDir := filepath.Join(steamRoot, pluginDir)
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return report, fmt.Errorf("creating plugin directory: %w", err)
	}
	storePath := filepath.Join(storeDir, fmt.Sprintf("%d.lua", bundle.AppID))

	if err := mergeKeyStore(ctx, storePath, bundle, opts); err != nil {
		return report, fmt.Errorf("updating key store: %w", err)
	}
	report.KeysWritten = len(bundle.Keys)
	report.KeyStorePath = storePath
	return report, nil
}

// mergeKeyStore rewrites the per-app lua store, preserving entries for
// depots the bundle does not mention, overwriting entries for depots it
// does, and appending new depots in ascending order. The rewrite is atomic
// and serialized against other processes via an advisory lock.
func mergeKeyStore(ctx context.Context, storePath string, bundle *hub.Bundle, opts Options) error {
	lock := flock.New(storePath + ".lock")
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("locking key store: %w", err)
	}
	if !locked {
		return fmt.Errorf("key store is locked by another process")
	}
	defer lock.Unlock()

	existingOrder, existingKeys := readKeyStore(storePath, bundle.AppID)

	merged := make(map[uint32]string, len(existingKeys)+len(bundle.Keys))
	for id, key := range existingKeys {
		merged[id] = key
	}
	for id, key := range bundle.Keys {
		merged[id] = key
	}

	order := existingOrder
	seen := make(map[uint32]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	var added []uint32
	for id := range bundle.Keys {
		if !seen[id] {
			added = append(added, id)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	order = append(order, added...)

	var b strings.Builder
	fmt.Fprintf(&b, "addappid(%d, 1, \"None\")\n", bundle.AppID)
	for _, id := range order {
		fmt.Fprintf(&b, "addappid(%d, 1, %q)\n", id, merged[id])
		if opts.LockVersion {
			if manifest := bundle.NewestManifest(id); manifest != "" {
				fmt.Fprintf(&b, "setManifestid(%d,%q)\n", id, manifest)
			}
		}
	}

	return writeFileAtomic(ctx, storePath, []byte(b.String()))
}

// readKeyStore parses an existing lua store into depot order and key map.
// The header line for the app itself (key "None") is dropped; it is always
// regenerated. A missing or unreadable store is treated as empty.
func readKeyStore(storePath string, appID uint32) ([]uint32, map[uint32]string) {
	keys := make(map[uint32]string)
	var order []uint32

	data, err := os.ReadFile(storePath)
	if err != nil {
		return order, keys
	}

	for _, line := range strings.Split(string(data), "\n") {
		m := addAppIDLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		id64, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		id := uint32(id64)
		if id == appID && m[2] == "None" {
			continue
		}
		if _, dup := keys[id]; !dup {
			order = append(order, id)
		}
		keys[id] = m[2]
	}
	return order, keys
}
