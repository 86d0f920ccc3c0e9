package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/google/uuid"
)

var ErrNoProfile = errors.New("no profile value")
var ErrEmptyName = errors.New("display name is empty")

const MaxNameLen = 24

var (
	keyName  = []byte("profile/name")
	keyToken = []byte("profile/token")
)

// Store keeps the player's display name and guest session token between
// runs. Nothing else about the player is stored locally.
type Store struct {
	db *pebble.DB
}

// Open opens or creates the store under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return open(filepath.Clean(dir), &pebble.Options{})
}

// OpenFS opens the store on fs, e.g. vfs.NewMem() in tests.
func OpenFS(fs vfs.FS) (*Store, error) {
	return open("profile", &pebble.Options{FS: fs})
}

func open(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) get(key []byte) (string, error) {
	v, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNoProfile
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	defer closer.Close()
	return string(v), nil
}

func (s *Store) set(key []byte, v string) error {
	if err := s.db.Set(key, []byte(v), pebble.Sync); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Name returns the saved display name, or ErrNoProfile.
func (s *Store) Name() (string, error) { return s.get(keyName) }

func (s *Store) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if r := []rune(name); len(r) > MaxNameLen {
		name = string(r[:MaxNameLen])
	}
	return s.set(keyName, name)
}

func (s *Store) Token() (string, error) { return s.get(keyToken) }

func (s *Store) SetToken(token string) error { return s.set(keyToken, token) }

// EnsureToken returns the saved session token, generating and saving a guest
// token the first time.
func (s *Store) EnsureToken() (string, error) {
	tok, err := s.Token()
	if err == nil && tok != "" {
		return tok, nil
	}
	if err != nil && !errors.Is(err, ErrNoProfile) {
		return "", err
	}
	tok = uuid.NewString()
	if err := s.SetToken(tok); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
