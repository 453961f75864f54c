package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

const sessionKey = "session-current"

// SessionStore persists the access token between runs.
type SessionStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type DiskSessionStore struct {
	d *diskv.Diskv
}

func NewDiskSessionStore(basePath string) *DiskSessionStore {
	return &DiskSessionStore{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      64 * 1024,
		FilePerm:          0o600,
		PathPerm:          0o700,
	})}
}

// Load returns "" when nothing has been saved.
func (s *DiskSessionStore) Load() (string, error) {
	raw, err := s.d.Read(sessionKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *DiskSessionStore) Save(token string) error {
	if err := s.d.Write(sessionKey, []byte(token)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *DiskSessionStore) Clear() error {
	if !s.d.Has(sessionKey) {
		return nil
	}
	if err := s.d.Erase(sessionKey); err != nil {
		return fmt.Errorf("erase session: %w", err)
	}
	return nil
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pk *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pk.Path, "-"), pk.FileName)
}
