package authstore

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// ChromeUserDataDir returns the default Chrome user data directory for
// the current platform, and whether it exists.
func ChromeUserDataDir() (string, bool) {
	var dir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}

		dir = filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			return "", false
		}

		dir = filepath.Join(local, "Google", "Chrome", "User Data")
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}

		dir = filepath.Join(home, ".config", "google-chrome")
	default:
		return "", false
	}

	if _, err := os.Stat(dir); err != nil {
		return "", false
	}

	return dir, true
}

// ListChromeProfiles returns the profile names inside the Chrome user
// data directory: "Default" plus any "Profile N" directories.
func ListChromeProfiles() []string {
	dir, ok := ChromeUserDataDir()
	if !ok {
		return nil
	}

	profiles := []string{"Default"}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return profiles
	}

	var extra []string

	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "Profile ") {
			extra = append(extra, e.Name())
		}
	}

	sort.Strings(extra)

	return append(profiles, extra...)
}

// ChromeProfileDir returns the Chrome user data root containing the named
// profile, and whether that profile exists. Chrome treats its data dir as
// a root and resolves the profile name inside it, so callers pass the
// root and the profile name to the browser separately. Chrome must not be
// running when the profile is reused by an automated session.
func ChromeProfileDir(profile string) (string, bool) {
	dir, ok := ChromeUserDataDir()
	if !ok {
		return "", false
	}

	return profileRoot(dir, profile)
}

// profileRoot returns root when the named profile exists under it.
func profileRoot(root, profile string) (string, bool) {
	if _, err := os.Stat(filepath.Join(root, profile)); err != nil {
		return "", false
	}

	return root, true
}
