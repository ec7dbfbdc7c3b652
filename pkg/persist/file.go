package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/organizer/pkg/store"
)

// Local is the device-local store. It must be usable without network access.
type Local interface {
	Load(ctx context.Context) (*store.AppState, error)
	Save(ctx context.Context, st *store.AppState) error
}

// FileStore keeps the whole document in one JSON file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// DefaultDataPath returns ~/.config/organizer/<name>.
func DefaultDataPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "organizer", name), nil
}

// Load returns an empty document when the file does not exist yet.
func (fs *FileStore) Load(ctx context.Context) (*store.AppState, error) {
	f, err := os.Open(fs.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.NewAppState(), nil
		}
		return nil, err
	}
	defer f.Close()

	var st store.AppState
	if err := json.NewDecoder(f).Decode(&st); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fs.Path, err)
	}
	st.Normalize()
	return &st, nil
}

// Save writes to a temporary file and renames it over the old one so a
// crash never leaves a truncated document behind.
func (fs *FileStore) Save(ctx context.Context, st *store.AppState) error {
	dir := filepath.Dir(fs.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(fs.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(st); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, fs.Path)
}
