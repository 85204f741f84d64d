package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// On-disk state: three string keys, expiry as epoch seconds
type fileState struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// FileStore keeps the pair in a single JSON file.
// Save writes a temp file and renames it over the old one, so a concurrent
// reader sees the previous pair or the new one, never a torn write.
type FileStore struct {
	path string

	mu sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state file path must not be empty")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := fileState{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    strconv.FormatInt(pair.ExpiresAt.Unix(), 10),
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error while encoding token state. Err: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("error while creating state dir. Err: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("error while creating temp state file. Err: %w", err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0o600)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error while writing state file. Err: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error while replacing state file. Err: %w", err)
	}

	return nil
}

func (s *FileStore) Load() (Pair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error while removing state file. Err: %w", err)
	}
	return nil
}

func (s *FileStore) Valid(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, ok, err := s.load()
	if err != nil || !ok {
		return false
	}
	return now.Before(pair.ExpiresAt)
}

// load expects s.mu to be held
func (s *FileStore) load() (Pair, bool, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Pair{}, false, nil
	case err != nil:
		return Pair{}, false, fmt.Errorf("error while reading state file. Err: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return Pair{}, false, fmt.Errorf("error while decoding state file. Err: %w", err)
	}

	// A partial state is treated as absent, not as a usable pair
	if state.AccessToken == "" || state.RefreshToken == "" || state.ExpiresAt == "" {
		return Pair{}, false, nil
	}

	expiresAt, err := strconv.ParseInt(state.ExpiresAt, 10, 64)
	if err != nil {
		return Pair{}, false, nil
	}

	return Pair{
		AccessToken:  state.AccessToken,
		RefreshToken: state.RefreshToken,
		ExpiresAt:    time.Unix(expiresAt, 0),
	}, true, nil
}
