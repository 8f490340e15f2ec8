// Package appinfo resolves an AppID to human-readable game details via the
// Steam store API. Resolution is advisory: the unlock pipeline proceeds even
// when the store knows nothing about an AppID.
package appinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const steamDBURLTemplate = "https://steamdb.info/app/%d/"

// ErrUnknown indicates the store has no record for the AppID, or the store
// could not be reached. Callers treat both the same way: continue without
// metadata.
var ErrUnknown = errors.New("app not known to the Steam store")

var (
	storeBaseURL = "https://store.steampowered.com"
	httpClient   = &http.Client{Timeout: 10 * time.Second}
)

// Info describes a game as reported by the Steam store.
type Info struct {
	AppID      uint32
	Name       string
	Developers []string
	Publishers []string
	// SteamDBURL is built client-side from a fixed template; it is a
	// verification link, not data from the store.
	SteamDBURL string
}

// Resolve looks up appID against the store. Failures of any kind map to
// ErrUnknown so a flaky catalog never blocks acquisition.
func Resolve(ctx context.Context, appID uint32) (*Info, error) {
	url := fmt.Sprintf("%s/api/appdetails?appids=%d", storeBaseURL, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, ErrUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnknown
	}

	// The store keys the response object by the requested AppID.
	var body map[string]struct {
		Success bool `json:"success"`
		Data    struct {
			Name       string   `json:"name"`
			Developers []string `json:"developers"`
			Publishers []string `json:"publishers"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, ErrUnknown
	}

	entry, ok := body[fmt.Sprintf("%d", appID)]
	if !ok || !entry.Success {
		return nil, ErrUnknown
	}

	return &Info{
		AppID:      appID,
		Name:       entry.Data.Name,
		Developers: entry.Data.Developers,
		Publishers: entry.Data.Publishers,
		SteamDBURL: fmt.Sprintf(steamDBURLTemplate, appID),
	}, nil
}
