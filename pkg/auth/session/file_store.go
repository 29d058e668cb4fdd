package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const sessionFileName = "session.json"

// FileStore keeps credentials in a user-only JSON file keyed by profile.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store writing to path, or to DefaultFilePath when empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		def, err := DefaultFilePath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	return &FileStore{path: path}, nil
}

// DefaultFilePath resolves the per-user session file location.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "soundmarket", sessionFileName), nil
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(_ context.Context, profile string) (Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return Credential{}, err
	}
	cred, ok := all[profile]
	if !ok {
		return Credential{}, ErrNoCredential
	}
	return cred, nil
}

func (f *FileStore) Save(_ context.Context, profile string, cred Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return err
	}
	all[profile] = cred
	return f.writeAll(all)
}

func (f *FileStore) Delete(_ context.Context, profile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return err
	}
	if _, ok := all[profile]; !ok {
		return nil
	}
	delete(all, profile)
	return f.writeAll(all)
}

func (f *FileStore) readAll() (map[string]Credential, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]Credential), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	all := make(map[string]Credential)
	if len(raw) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decoding session file %s: %w", f.path, err)
	}
	return all, nil
}

func (f *FileStore) writeAll(all map[string]Credential) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
