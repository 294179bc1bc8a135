// Package token persists the API bearer credential between invocations.
package token

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hpungsan/pocket/internal/logger"
)

// DefaultTTL is the cache lifetime applied to every saved token, regardless
// of the expiry the issuer reports.
const DefaultTTL = 3600 * time.Second

// Store reads and writes the cached credential.
type Store interface {
	// Get returns the access token if one is cached and unexpired.
	Get() (string, bool)
	// Save replaces the cached credential; expiry is now + ttl.
	Save(access string, refresh *string, ttl time.Duration) error
}

// Cached is the on-disk form of the credential.
type Cached struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	ExpiresAt    float64 `json:"expires_at"` // unix seconds
}

// Valid reports whether the credential is usable at now.
func (c *Cached) Valid(now time.Time) bool {
	return c.AccessToken != "" && c.ExpiresAt > unixSeconds(now)
}

// FileStore keeps the credential as a single JSON object in one file.
// There is no locking: concurrent invocations race and the last writer wins.
type FileStore struct {
	Path string
	Now  func() time.Time
}

// NewFileStore creates a FileStore at path using the wall clock.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, Now: time.Now}
}

func (s *FileStore) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Get returns the cached access token when present and unexpired.
// A missing or unreadable file is reported as no token, never as an error.
func (s *FileStore) Get() (string, bool) {
	c, err := s.Load()
	if err != nil {
		logger.Debugf("token cache unreadable: %v", err)
		return "", false
	}
	if c == nil || !c.Valid(s.now()) {
		return "", false
	}
	return c.AccessToken, true
}

// Load returns the raw cache contents, or nil if the file does not exist.
func (s *FileStore) Load() (*Cached, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var c Cached
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return &c, nil
}

// Save overwrites the cache file with the given credential.
func (s *FileStore) Save(access string, refresh *string, ttl time.Duration) error {
	c := Cached{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    unixSeconds(s.now().Add(ttl)),
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	log := logger.WithField("path", s.Path)
	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		log.Debug().Err(err).Msg("token cache write failed")
		return fmt.Errorf("write token cache: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	_ = os.Chmod(s.Path, 0600)

	log.Info().Msg("Token saved")
	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
