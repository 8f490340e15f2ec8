package steampath

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDiscoverCustomPathWins(t *testing.T) {
	t.Parallel()

	custom := t.TempDir()
	path, fromProbe, err := Discover(custom, "/somewhere/else")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if path != custom {
		t.Fatalf("path = %q, want custom %q", path, custom)
	}
	if fromProbe {
		t.Fatal("custom path should not be marked as a probe result")
	}
}

func TestDiscoverCustomPathMissing(t *testing.T) {
	t.Parallel()

	_, _, err := Discover(filepath.Join(t.TempDir(), "nope"), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDiscoverUsesValidCache(t *testing.T) {
	t.Parallel()

	cached := t.TempDir()
	path, fromProbe, err := Discover("", cached)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if path != cached {
		t.Fatalf("path = %q, want cached %q", path, cached)
	}
	if fromProbe {
		t.Fatal("cached path should not be marked as a probe result")
	}
}

func TestFirstExistingDir(t *testing.T) {
	t.Parallel()

	present := t.TempDir()
	got, err := firstExistingDir([]string{"", "/no/such/dir", present})
	if err != nil {
		t.Fatalf("firstExistingDir failed: %v", err)
	}
	if got != present {
		t.Fatalf("got %q, want %q", got, present)
	}

	if _, err := firstExistingDir([]string{"/no/such/dir"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
