package persist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
)

var testNow = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func sampleState() *store.AppState {
	st := store.NewAppState()
	st.Tasks = []model.Task{{ID: 1, Title: "Water plants", CreatedAt: testNow, Repeat: model.RepeatNever}}
	st.Groceries = []model.GroceryItem{{ID: "g1", Name: "Milk", Quantity: 2, InStock: true}}
	st.TaskDurations = map[int64]int{1: 15}
	st.Theme = "dark"
	return st
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	st, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.NewAppState(), st)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, sampleState()))
	got, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorContains(t, err, "failed to decode")
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	empty, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.NewAppState(), empty)

	require.NoError(t, db.Save(ctx, sampleState()))
	next := sampleState()
	next.Theme = "light"
	require.NoError(t, db.Save(ctx, next))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestMergeFillsMissingNullAndMistypedKeys(t *testing.T) {
	local := sampleState()
	remote := []byte(`{
		"tasks": [{"id": 9, "title": "From phone", "hasTime": false, "completed": false, "createdAt": "2024-01-14T10:00:00Z", "order": 0}],
		"groceries": null,
		"taskDurations": "oops",
		"futureKey": {"x": 1}
	}`)

	got, err := Merge(local, remote)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "From phone", got.Tasks[0].Title)
	assert.Equal(t, local.Groceries, got.Groceries, "null keeps local")
	assert.Equal(t, local.TaskDurations, got.TaskDurations, "wrong shape keeps local")
	assert.Equal(t, "dark", got.Theme, "missing keeps local")
}

func TestMergeRejectsUnparseableRemote(t *testing.T) {
	for _, remote := range []string{"garbage", "[1,2]", "null"} {
		_, err := Merge(sampleState(), []byte(remote))
		assert.Error(t, err, remote)
	}
}

type fakeRemote struct {
	data    []byte
	pullErr error
	pushed  chan []byte
}

func newFakeRemote(data []byte) *fakeRemote {
	return &fakeRemote{data: data, pushed: make(chan []byte, 16)}
}

func (f *fakeRemote) Pull(context.Context) ([]byte, error) {
	return f.data, f.pullErr
}

func (f *fakeRemote) Push(_ context.Context, data []byte) error {
	f.pushed <- data
	return nil
}

type memLocal struct {
	st    *store.AppState
	saves int
}

func (m *memLocal) Load(context.Context) (*store.AppState, error) {
	if m.st == nil {
		return store.NewAppState(), nil
	}
	return m.st, nil
}

func (m *memLocal) Save(_ context.Context, st *store.AppState) error {
	m.st = st
	m.saves++
	return nil
}

func decodeTheme(t *testing.T, data []byte) string {
	t.Helper()
	var doc struct {
		Theme string `json:"theme"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc.Theme
}

func TestSyncerWithoutRemoteOnlySavesLocally(t *testing.T) {
	local := &memLocal{}
	s := NewSyncer(local, nil, nil)
	s.Start(context.Background())

	require.NoError(t, s.Save(context.Background(), sampleState()))
	assert.Equal(t, 1, local.saves)
	assert.NoError(t, s.Close(context.Background()))
}

func TestSyncerPushesLatestSnapshot(t *testing.T) {
	remote := newFakeRemote(nil)
	s := NewSyncer(&memLocal{}, remote, nil)
	ctx := context.Background()

	// Not started: snapshots pile up in the pending slot and only the newest survives.
	for _, theme := range []string{"one", "two", "three"} {
		st := sampleState()
		st.Theme = theme
		require.NoError(t, s.Save(ctx, st))
	}
	require.NoError(t, s.Close(ctx))

	require.Len(t, remote.pushed, 1)
	assert.Equal(t, "three", decodeTheme(t, <-remote.pushed))
}

func TestSyncerBackgroundPush(t *testing.T) {
	remote := newFakeRemote(nil)
	notices := make(chan bool, 4)
	s := NewSyncer(&memLocal{}, remote, func(_ string, ok bool) { notices <- ok })
	ctx := context.Background()
	s.Start(ctx)
	t.Cleanup(func() { s.Close(ctx) })

	require.NoError(t, s.Save(ctx, sampleState()))
	select {
	case data := <-remote.pushed:
		assert.Equal(t, "dark", decodeTheme(t, data))
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot was never pushed")
	}
	assert.True(t, <-notices)
}

func TestSyncerLoadMergesRemote(t *testing.T) {
	local := &memLocal{st: sampleState()}
	remote := newFakeRemote([]byte(`{"theme": "solarized"}`))
	var msgs []string
	s := NewSyncer(local, remote, func(msg string, _ bool) { msgs = append(msgs, msg) })

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "solarized", got.Theme)
	assert.Equal(t, sampleState().Tasks, got.Tasks)
	assert.Equal(t, 1, local.saves, "merged result is written locally")
	assert.Equal(t, []string{"Data loaded from Google Drive"}, msgs)
}

func TestSyncerLoadFallsBackOnPullError(t *testing.T) {
	local := &memLocal{st: sampleState()}
	remote := newFakeRemote(nil)
	remote.pullErr = assert.AnError
	s := NewSyncer(local, remote, nil)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)
	assert.Zero(t, local.saves)
}

func TestSyncerLoadSeedsEmptyRemote(t *testing.T) {
	remote := newFakeRemote(nil)
	s := NewSyncer(&memLocal{st: sampleState()}, remote, nil)
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	require.Len(t, remote.pushed, 1)
	assert.Equal(t, "dark", decodeTheme(t, <-remote.pushed))
}

func TestSyncerLoadKeepsLocalOnCorruptRemote(t *testing.T) {
	local := &memLocal{st: sampleState()}
	s := NewSyncer(local, newFakeRemote([]byte("<html>")), nil)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
}
