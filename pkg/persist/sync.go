package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harrisonrobin/organizer/pkg/store"
)

const pushTimeout = 30 * time.Second

// Remote mirrors the document somewhere off-device.
type Remote interface {
	// Pull returns nil when no remote copy exists yet.
	Pull(ctx context.Context) ([]byte, error)
	Push(ctx context.Context, data []byte) error
}

// Syncer writes locally first and mirrors to the remote in the background.
// Only the newest pending snapshot is pushed; older ones are superseded.
type Syncer struct {
	local  Local
	remote Remote
	notify func(msg string, ok bool)

	pending chan []byte
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// NewSyncer wraps local. remote may be nil, in which case the syncer only saves locally.
func NewSyncer(local Local, remote Remote, notify func(msg string, ok bool)) *Syncer {
	if notify == nil {
		notify = func(string, bool) {}
	}
	return &Syncer{local: local, remote: remote, notify: notify, pending: make(chan []byte, 1)}
}

// Start launches the background pusher. It stops when ctx is done or Close is called.
func (s *Syncer) Start(ctx context.Context) {
	if s.remote == nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-s.pending:
				s.push(ctx, data)
			}
		}
	}()
}

// Close stops the pusher and makes one last attempt to push anything still pending.
func (s *Syncer) Close(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		if s.remote == nil {
			return
		}
		select {
		case data := <-s.pending:
			err = s.remote.Push(ctx, data)
		default:
		}
	})
	return err
}

// Save persists locally, which must succeed, then queues the snapshot for
// the remote without waiting for it.
func (s *Syncer) Save(ctx context.Context, st *store.AppState) error {
	if err := s.local.Save(ctx, st); err != nil {
		return err
	}
	if s.remote == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state for sync: %w", err)
	}
	s.enqueue(data)
	return nil
}

// Load reads the local copy and, when a remote is configured, merges the
// remote copy over it. Any remote failure falls back to the local copy.
func (s *Syncer) Load(ctx context.Context) (*store.AppState, error) {
	local, err := s.local.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.remote == nil {
		return local, nil
	}

	data, err := s.remote.Pull(ctx)
	if err != nil {
		log.Printf("Warning: failed to pull remote data: %v", err)
		s.notify("Error loading from Google Drive", false)
		return local, nil
	}
	if data == nil {
		// First sync from this account: seed the remote with local data.
		if raw, err := json.Marshal(local); err == nil {
			s.enqueue(raw)
		}
		return local, nil
	}

	merged, err := Merge(local, data)
	if err != nil {
		log.Printf("Warning: %v", err)
		s.notify("Error loading from Google Drive", false)
		return local, nil
	}
	if err := s.local.Save(ctx, merged); err != nil {
		return nil, err
	}
	s.notify("Data loaded from Google Drive", true)
	return merged, nil
}

// Push sends st to the remote synchronously.
func (s *Syncer) Push(ctx context.Context, st *store.AppState) error {
	if s.remote == nil {
		return fmt.Errorf("no remote configured")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.remote.Push(ctx, data)
}

func (s *Syncer) enqueue(data []byte) {
	for {
		select {
		case s.pending <- data:
			return
		default:
		}
		// Drop the stale snapshot to make room.
		select {
		case <-s.pending:
		default:
		}
	}
}

func (s *Syncer) push(ctx context.Context, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	if err := s.remote.Push(ctx, data); err != nil {
		log.Printf("Warning: failed to push to remote: %v", err)
		s.notify("Error syncing with Google Drive", false)
		return
	}
	s.notify("Synced with Google Drive", true)
}
