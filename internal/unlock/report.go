package unlock

// FileError records a single file that could not be written. Per-file
// failures do not abort the rest of the install.
type FileError struct {
	Path string
	Err  error
}

// Report summarizes what one Install call actually did. Partial success is
// reported, never silently collapsed into total success or total failure.
type Report struct {
	ManifestsWritten int
	// ManifestsSkipped counts manifests already present with identical
	// content.
	ManifestsSkipped int
	KeysWritten      int
	Failed           []FileError
	// KeyStorePath is the merged key-store file (SteamTools) or the
	// applist file (GreenLuma).
	KeyStorePath string
}

// OK reports whether every write succeeded.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}
