package hub

import (
	"sort"
	"strconv"
	"time"
)

// ManifestEntry is a single depot manifest file from the artifact archive.
// The bytes are opaque; decryption of the manifest's internal structure is
// not this tool's job.
type ManifestEntry struct {
	DepotID    uint32
	ManifestID string
	Data       []byte
}

// Bundle is the parsed contents of one app's artifact archive.
type Bundle struct {
	AppID      uint32
	Source     string
	CommitDate time.Time

	// Manifests preserves archive order. Multiple manifests per depot are
	// expected and all are kept.
	Manifests []ManifestEntry
	// Keys maps depot id to its hex-encoded decryption key.
	Keys map[uint32]string
	// Skipped counts malformed key lines and unparsable manifest names
	// dropped during parsing.
	Skipped int
}

// DepotIDs returns the sorted set of depot ids present in the bundle,
// from manifests and keys combined.
func (b *Bundle) DepotIDs() []uint32 {
	seen := make(map[uint32]bool)
	var ids []uint32
	for _, m := range b.Manifests {
		if !seen[m.DepotID] {
			seen[m.DepotID] = true
			ids = append(ids, m.DepotID)
		}
	}
	for id := range b.Keys {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MissingKeys returns depot ids that have a manifest but no decryption key.
func (b *Bundle) MissingKeys() []uint32 {
	seen := make(map[uint32]bool)
	var ids []uint32
	for _, m := range b.Manifests {
		if seen[m.DepotID] {
			continue
		}
		seen[m.DepotID] = true
		if _, ok := b.Keys[m.DepotID]; !ok {
			ids = append(ids, m.DepotID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ExtraKeys returns depot ids that have a key but no manifest. These are
// still installed; a key without a manifest is not an error.
func (b *Bundle) ExtraKeys() []uint32 {
	withManifest := make(map[uint32]bool)
	for _, m := range b.Manifests {
		withManifest[m.DepotID] = true
	}
	var ids []uint32
	for id := range b.Keys {
		if !withManifest[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewestManifest returns the numerically highest manifest id for a depot,
// or "" when the depot has no manifests.
func (b *Bundle) NewestManifest(depotID uint32) string {
	var best string
	var bestN uint64
	for _, m := range b.Manifests {
		if m.DepotID != depotID {
			continue
		}
		n, err := strconv.ParseUint(m.ManifestID, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || n > bestN {
			best = m.ManifestID
			bestN = n
		}
	}
	return best
}
