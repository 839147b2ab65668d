// Package authstore persists per-site browser cookies so runs can start
// from a pre-authenticated session.
package authstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/sirupsen/logrus"
)

// CookieSet is the on-disk record for one site.
type CookieSet struct {
	SiteName string           `json:"site_name"`
	SavedAt  time.Time        `json:"saved_at"`
	Cookies  []browser.Cookie `json:"cookies"`
}

// Store reads and writes cookie sets under a single directory, one JSON
// file per site.
type Store struct {
	log logrus.FieldLogger
	dir string
}

// DefaultDir returns the conventional auth directory, ~/.qa-sync/auth.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, ".qa-sync", "auth"), nil
}

// NewStore creates a store rooted at dir.
func NewStore(log logrus.FieldLogger, dir string) *Store {
	return &Store{
		log: log.WithField("component", "authstore"),
		dir: dir,
	}
}

func (s *Store) path(site string) string {
	return filepath.Join(s.dir, site+".json")
}

// Save writes the cookie set for a site and returns the file path.
func (s *Store) Save(site string, cookies []browser.Cookie) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("creating auth directory: %w", err)
	}

	set := CookieSet{
		SiteName: site,
		SavedAt:  time.Now(),
		Cookies:  cookies,
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling cookies: %w", err)
	}

	path := s.path(site)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing cookies: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"site":    site,
		"cookies": len(cookies),
	}).Info("Cookies saved")

	return path, nil
}

// Load returns the cookies saved for a site. A missing site is not an
// error: the session simply proceeds unauthenticated.
func (s *Store) Load(site string) ([]browser.Cookie, error) {
	data, err := os.ReadFile(s.path(site))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading cookies for %s: %w", site, err)
	}

	var set CookieSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing cookies for %s: %w", site, err)
	}

	return set.Cookies, nil
}

// Delete removes a site's cookie set. Returns false when nothing was
// saved for the site.
func (s *Store) Delete(site string) (bool, error) {
	err := os.Remove(s.path(site))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("deleting cookies for %s: %w", site, err)
	}

	return true, nil
}

// List returns the site names with saved cookies.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("listing auth directory: %w", err)
	}

	sites := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		sites = append(sites, strings.TrimSuffix(e.Name(), ".json"))
	}

	return sites, nil
}
