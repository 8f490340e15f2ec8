// Package hub locates and downloads unlock artifacts from the public
// manifest repositories. Each supported app is published as a branch named
// after its AppID; the branch archive holds depot manifest files plus a VDF
// key file mapping depot ids to decryption keys.
package hub

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"

	"github.com/TroubleGy/OneKeyV2/internal/github"
	"github.com/TroubleGy/OneKeyV2/internal/logging"
)

// Repos are the manifest repositories searched for an AppID branch, in
// preference order. The freshest branch across all of them wins.
var Repos = []string{
	"SteamAutoCracks/ManifestHub",
	"ikun0014/ManifestHub",
	"Auiowu/ManifestAutoUpdate",
	"tymolu233/ManifestAutoUpdate-fix",
}

// ErrNotAvailable indicates no repository publishes artifacts for the AppID.
// This is an expected outcome, not a network fault.
var ErrNotAvailable = errors.New("no unlock artifacts published for this app")

// Acquire finds the freshest branch for appID across the known repositories,
// downloads its archive, and parses the contents into a Bundle.
// It returns ErrNotAvailable when no repository has the branch, and passes
// through rate-limit and network errors from the API client.
func Acquire(ctx context.Context, client *github.Client, appID uint32, onProgress func(written, total int64)) (*Bundle, error) {
	repo, branch, err := findBranch(ctx, client, appID)
	if err != nil {
		return nil, err
	}

	logging.Debugf("Selected manifest repository: %s (branch updated %s)\n",
		repo, branch.CommitDate.Format("2006-01-02"))

	archive, err := client.Zipball(ctx, repo, branch.SHA, onProgress)
	if err != nil {
		return nil, fmt.Errorf("downloading archive for %d: %w", appID, err)
	}

	bundle, err := parseArchive(archive)
	if err != nil {
		return nil, fmt.Errorf("unpacking archive for %d: %w", appID, err)
	}

	bundle.AppID = appID
	bundle.Source = repo
	bundle.CommitDate = branch.CommitDate
	return bundle, nil
}

// findBranch queries every repository for a branch named after the AppID and
// picks the one with the newest commit. Rate limiting aborts the search
// immediately so the caller can surface the wait hint; other network errors
// are remembered and only reported when no repository answered at all.
func findBranch(ctx context.Context, client *github.Client, appID uint32) (string, *github.Branch, error) {
	name := strconv.FormatUint(uint64(appID), 10)

	var (
		bestRepo string
		best     *github.Branch
		netErr   error
	)
	for _, repo := range Repos {
		branch, err := client.Branch(ctx, repo, name)
		switch {
		case err == nil:
			if best == nil || branch.CommitDate.After(best.CommitDate) {
				bestRepo = repo
				best = branch
			}
		case errors.Is(err, github.ErrNotFound):
			logging.Debugf("No branch %s in %s\n", name, repo)
		default:
			var rl *github.RateLimitError
			if errors.As(err, &rl) {
				return "", nil, rl
			}
			logging.Debugf("Repository %s unreachable: %v\n", repo, err)
			netErr = err
		}
	}

	if best == nil {
		if netErr != nil {
			return "", nil, netErr
		}
		return "", nil, ErrNotAvailable
	}
	return bestRepo, best, nil
}

// parseArchive unpacks a branch zipball in memory and classifies each file
// as a depot manifest or a key file. Everything else is ignored.
func parseArchive(archive []byte) (*Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	bundle := &Bundle{Keys: make(map[uint32]string)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Zipballs prefix every entry with "<repo>-<sha>/".
		base := path.Base(f.Name)

		switch {
		case strings.HasSuffix(base, ".manifest"):
			depotID, manifestID, ok := splitManifestName(base)
			if !ok {
				logging.Warnf("Skipping manifest with unexpected name: %s\n", base)
				bundle.Skipped++
				continue
			}
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", base, err)
			}
			bundle.Manifests = append(bundle.Manifests, ManifestEntry{
				DepotID:    depotID,
				ManifestID: manifestID,
				Data:       data,
			})

		case isKeyFile(base):
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", base, err)
			}
			keys, skipped := parseKeys(data)
			for id, key := range keys {
				bundle.Keys[id] = key
			}
			bundle.Skipped += skipped
		}
	}
	return bundle, nil
}

func isKeyFile(name string) bool {
	lower := strings.ToLower(name)
	return lower == "key.vdf" || lower == "config.vdf"
}

// splitManifestName parses "<depot>_<manifest>.manifest" filenames.
func splitManifestName(name string) (depotID uint32, manifestID string, ok bool) {
	stem := strings.TrimSuffix(name, ".manifest")
	depot, manifest, found := strings.Cut(stem, "_")
	if !found {
		return 0, "", false
	}
	d, err := strconv.ParseUint(depot, 10, 32)
	if err != nil {
		return 0, "", false
	}
	if _, err := strconv.ParseUint(manifest, 10, 64); err != nil {
		return 0, "", false
	}
	return uint32(d), manifest, true
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseKeys extracts depot decryption keys from VDF key-file content.
// Malformed entries are skipped and counted, never fatal.
func parseKeys(content []byte) (map[uint32]string, int) {
	keys := make(map[uint32]string)

	parsed, err := vdf.NewParser(bytes.NewReader(content)).Parse()
	if err != nil {
		logging.Warnf("Failed to parse key file: %v\n", err)
		return keys, 1
	}

	depots, ok := findDepots(parsed)
	if !ok {
		logging.Warnf("Key file has no depots section\n")
		return keys, 1
	}

	skipped := 0
	for idStr, v := range depots {
		entry, ok := v.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			logging.Warnf("Skipping key entry with non-numeric depot id %q\n", idStr)
			skipped++
			continue
		}
		key, ok := decryptionKey(entry)
		if !ok {
			logging.Warnf("Skipping depot %s: no decryption key\n", idStr)
			skipped++
			continue
		}
		keys[uint32(id)] = key
	}
	return keys, skipped
}

// findDepots locates the "depots" block, which sits at the top level of
// key.vdf but can be nested inside config.vdf.
func findDepots(node map[string]interface{}) (map[string]interface{}, bool) {
	for k, v := range node {
		child, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if strings.EqualFold(k, "depots") {
			return child, true
		}
		if found, ok := findDepots(child); ok {
			return found, true
		}
	}
	return nil, false
}

func decryptionKey(entry map[string]interface{}) (string, bool) {
	for k, v := range entry {
		if strings.EqualFold(k, "DecryptionKey") {
			key, ok := v.(string)
			return key, ok && key != ""
		}
	}
	return "", false
}
