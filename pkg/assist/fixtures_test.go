package assist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/organizer/pkg/clock"
	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

// Monday morning, before the default work window opens.
var monday = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func daysAgo(now time.Time, n int) time.Time { return now.AddDate(0, 0, -n) }

// newStore builds a store at now restored from st, so tests can pick ids.
func newStore(t *testing.T, now time.Time, st *store.AppState) (*store.Store, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(now)
	s := store.New(clk)
	if st != nil {
		s.Restore(st)
	}
	return s, clk
}

func ofType(items []suggest.Suggestion, typ suggest.Type) []suggest.Suggestion {
	var out []suggest.Suggestion
	for _, s := range items {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func requireOne(t *testing.T, items []suggest.Suggestion, typ suggest.Type) suggest.Suggestion {
	t.Helper()
	found := ofType(items, typ)
	require.Len(t, found, 1, "expected exactly one %s suggestion", typ)
	return found[0]
}

type recordingSaver struct {
	mu    sync.Mutex
	saves []*store.AppState
	err   error
}

func (r *recordingSaver) Save(_ context.Context, st *store.AppState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, st)
	return r.err
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

type staticBusy []model.Interval

func (b staticBusy) Busy(from, to time.Time) []model.Interval { return b }
