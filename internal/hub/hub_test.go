package hub

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TroubleGy/OneKeyV2/internal/github"
)

const keyVDF = `"depots"
{
	"731"
	{
		"DecryptionKey"		"ABCD1234"
	}
	"732"
	{
		"DecryptionKey"		"FFEE0011"
	}
}
`

// buildZip assembles a zipball-shaped archive: every entry lives under a
// "<repo>-<sha>/" prefix, the way GitHub serves branch archives.
func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create("ManifestHub-abc123/" + name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestParseArchive(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, map[string][]byte{
		"731_1234567890.manifest": []byte("manifest-bytes-1"),
		"731_1234567891.manifest": []byte("manifest-bytes-2"),
		"733_42.manifest":         []byte("manifest-bytes-3"),
		"key.vdf":                 []byte(keyVDF),
		"README.md":               []byte("ignored"),
		"weird.manifest":          []byte("bad name, skipped"),
	})

	bundle, err := parseArchive(archive)
	if err != nil {
		t.Fatalf("parseArchive failed: %v", err)
	}

	if len(bundle.Manifests) != 3 {
		t.Fatalf("manifests = %d, want 3", len(bundle.Manifests))
	}
	if bundle.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1 (weird.manifest)", bundle.Skipped)
	}
	if got := bundle.Keys[731]; got != "ABCD1234" {
		t.Fatalf("key for 731 = %q, want ABCD1234", got)
	}
	if got := bundle.Keys[732]; got != "FFEE0011" {
		t.Fatalf("key for 732 = %q, want FFEE0011", got)
	}
}

func TestParseArchiveBundleViews(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, map[string][]byte{
		"731_100.manifest": []byte("a"),
		"731_99.manifest":  []byte("b"),
		"733_1.manifest":   []byte("c"),
		"key.vdf":          []byte(keyVDF),
	})

	bundle, err := parseArchive(archive)
	if err != nil {
		t.Fatalf("parseArchive failed: %v", err)
	}

	// 733 has a manifest but no key; 732 has a key but no manifest.
	if got := bundle.MissingKeys(); len(got) != 1 || got[0] != 733 {
		t.Fatalf("MissingKeys = %v, want [733]", got)
	}
	if got := bundle.ExtraKeys(); len(got) != 1 || got[0] != 732 {
		t.Fatalf("ExtraKeys = %v, want [732]", got)
	}
	if got := bundle.NewestManifest(731); got != "100" {
		t.Fatalf("NewestManifest(731) = %q, want 100 (numeric, not lexical)", got)
	}
	if got := bundle.DepotIDs(); fmt.Sprint(got) != "[731 732 733]" {
		t.Fatalf("DepotIDs = %v, want [731 732 733]", got)
	}
}

func TestSplitManifestName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		wantDepot  uint32
		wantManif  string
		wantParsed bool
	}{
		{"731_1234.manifest", 731, "1234", true},
		{"731_.manifest", 0, "", false},
		{"_1234.manifest", 0, "", false},
		{"notnumeric_1234.manifest", 0, "", false},
		{"731_notnumeric.manifest", 0, "", false},
		{"nounderscore.manifest", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			depot, manifest, ok := splitManifestName(tt.name)
			if ok != tt.wantParsed {
				t.Fatalf("ok = %v, want %v", ok, tt.wantParsed)
			}
			if ok && (depot != tt.wantDepot || manifest != tt.wantManif) {
				t.Fatalf("got (%d, %q), want (%d, %q)", depot, manifest, tt.wantDepot, tt.wantManif)
			}
		})
	}
}

func TestParseKeysMalformedEntries(t *testing.T) {
	t.Parallel()

	content := `"depots"
{
	"731"
	{
		"DecryptionKey"		"ABCD1234"
	}
	"notanumber"
	{
		"DecryptionKey"		"FFFF"
	}
	"734"
	{
		"SomethingElse"		"x"
	}
}
`
	keys, skipped := parseKeys([]byte(content))
	if len(keys) != 1 || keys[731] != "ABCD1234" {
		t.Fatalf("keys = %v, want only 731", keys)
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
}

func TestParseKeysGarbage(t *testing.T) {
	t.Parallel()

	keys, skipped := parseKeys([]byte("not vdf at all {{{"))
	if len(keys) != 0 {
		t.Fatalf("keys = %v, want none", keys)
	}
	if skipped == 0 {
		t.Fatal("garbage input should be counted as skipped")
	}
}

func TestAcquire(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, map[string][]byte{
		"731_1.manifest": []byte("m"),
		"key.vdf":        []byte(keyVDF),
	})

	newer := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-48 * time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/repos/") && strings.Contains(r.URL.Path, "/branches/"):
			repo := strings.TrimPrefix(r.URL.Path, "/repos/")
			repo = repo[:strings.Index(repo, "/branches/")]
			var date time.Time
			switch repo {
			case Repos[0]:
				date = older
			case Repos[1]:
				date = newer
			default:
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"name":"730","commit":{"sha":"sha-%s","commit":{"author":{"date":"%s"}}}}`,
				repo, date.Format(time.RFC3339))
		case strings.Contains(r.URL.Path, "/zipball/"):
			if !strings.Contains(r.URL.Path, Repos[1]) {
				t.Errorf("zipball requested from %s, want freshest repo %s", r.URL.Path, Repos[1])
			}
			w.Write(archive)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := github.NewClient("")
	client.BaseURL = server.URL

	bundle, err := Acquire(context.Background(), client, 730, nil)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if bundle.AppID != 730 {
		t.Fatalf("AppID = %d, want 730", bundle.AppID)
	}
	if bundle.Source != Repos[1] {
		t.Fatalf("Source = %q, want freshest repo %q", bundle.Source, Repos[1])
	}
	if len(bundle.Manifests) != 1 || len(bundle.Keys) != 2 {
		t.Fatalf("bundle = %d manifests / %d keys, want 1/2", len(bundle.Manifests), len(bundle.Keys))
	}
}

func TestAcquireNotAvailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := github.NewClient("")
	client.BaseURL = server.URL

	_, err := Acquire(context.Background(), client, 99999999, nil)
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("err = %v, want ErrNotAvailable", err)
	}
}

func TestAcquireRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := github.NewClient("")
	client.BaseURL = server.URL

	_, err := Acquire(context.Background(), client, 730, nil)
	var rl *github.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitError to surface immediately", err)
	}
}
