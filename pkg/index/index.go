package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrisonrobin/organizer/pkg/clock"
)

// DefaultMaxAge is how long a cached Drive file id is trusted without being
// confirmed by a successful request.
const DefaultMaxAge = 30 * 24 * time.Hour

// Entry is one cached Drive file id.
type Entry struct {
	FileID   string    `json:"fileId"`
	Verified time.Time `json:"verified"`
}

// FileIndex remembers the Drive file id behind each file name so the mirror
// does not have to search the app folder on every push. Ids that have not
// been confirmed within MaxAge are dropped when the index is opened.
type FileIndex struct {
	path   string
	maxAge time.Duration
	clock  clock.Clock

	mu      sync.Mutex
	entries map[string]Entry
	dirty   bool
}

type Option func(*FileIndex)

func WithClock(c clock.Clock) Option {
	return func(idx *FileIndex) { idx.clock = c }
}

func WithMaxAge(d time.Duration) Option {
	return func(idx *FileIndex) { idx.maxAge = d }
}

// NewFileIndex opens the index at ~/.config/organizer/drive_files.json.
func NewFileIndex(opts ...Option) (*FileIndex, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return OpenFileIndex(filepath.Join(home, ".config", "organizer", "drive_files.json"), opts...)
}

// OpenFileIndex loads the index at path. A missing file is an empty index.
func OpenFileIndex(path string, opts ...Option) (*FileIndex, error) {
	idx := &FileIndex{
		path:    path,
		maxAge:  DefaultMaxAge,
		clock:   clock.System(),
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(idx)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	var stored map[string]Entry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode Drive file index %s: %w", path, err)
	}

	cutoff := idx.clock.Now().Add(-idx.maxAge)
	for name, e := range stored {
		if name == "" || e.FileID == "" || e.Verified.Before(cutoff) {
			idx.dirty = true
			continue
		}
		idx.entries[name] = e
	}
	return idx, nil
}

// Lookup returns the cached id for name.
func (idx *FileIndex) Lookup(name string) (string, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e, ok := idx.entries[name]
	return e.FileID, ok
}

// Remember records that fileID was just confirmed to hold name. Confirming
// the same id again only dirties the index once half of MaxAge has passed.
func (idx *FileIndex) Remember(name, fileID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	now := idx.clock.Now()
	if e, ok := idx.entries[name]; ok && e.FileID == fileID && now.Sub(e.Verified) < idx.maxAge/2 {
		return
	}
	idx.entries[name] = Entry{FileID: fileID, Verified: now}
	idx.dirty = true
}

// Forget drops name, typically after Drive reported its id as missing.
func (idx *FileIndex) Forget(name string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.entries[name]; ok {
		delete(idx.entries, name)
		idx.dirty = true
	}
}

// Save writes the index if it changed since it was opened or last saved.
func (idx *FileIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty || idx.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(idx.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(idx.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}
