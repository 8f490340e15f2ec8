//go:build windows

package steampath

import (
	"golang.org/x/sys/windows/registry"
)

// probe reads the SteamPath value Steam writes under HKCU, falling back to
// the default install locations.
func probe() (string, error) {
	if path, err := registryPath(); err == nil && isDir(path) {
		return path, nil
	}

	return firstExistingDir([]string{
		`C:\Program Files (x86)\Steam`,
		`C:\Program Files\Steam`,
	})
}

func registryPath() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer key.Close()

	path, _, err := key.GetStringValue("SteamPath")
	return path, err
}
