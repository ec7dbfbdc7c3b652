package assist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

const (
	DefaultAnalysisInterval = 5 * time.Minute
	DefaultSweepInterval    = time.Minute
)

// BusySource supplies externally booked time, such as calendar events.
// Busy must not block; implementations answer from a cache.
type BusySource interface {
	Busy(from, to time.Time) []model.Interval
}

// Saver persists a snapshot of the store.
type Saver interface {
	Save(ctx context.Context, st *store.AppState) error
}

type Options struct {
	Window           Window
	AnalysisInterval time.Duration
	SweepInterval    time.Duration
	Busy             BusySource
	Saver            Saver
	// Notify receives user-facing status messages.
	Notify func(msg string, ok bool)
}

// Report summarizes one analysis pass.
type Report struct {
	Estimated          int
	PreferencesChanged bool
	Diffs              map[suggest.Type]suggest.Diff
	Inserted           int
}

// Changed reports whether the pass altered the ledger.
func (r Report) Changed() bool {
	if r.Inserted > 0 {
		return true
	}
	for _, d := range r.Diffs {
		if d.Changed() {
			return true
		}
	}
	return false
}

// Engine owns the store and serializes every analysis pass, acceptance,
// dismissal and entity mutation behind one mutex.
type Engine struct {
	mu    sync.Mutex
	store *store.Store
	opts  Options
}

func NewEngine(s *store.Store, opts Options) *Engine {
	if opts.Window.SlotMinutes == 0 {
		opts.Window = DefaultWindow()
	}
	if opts.AnalysisInterval <= 0 {
		opts.AnalysisInterval = DefaultAnalysisInterval
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	return &Engine{store: s, opts: opts}
}

// RunPass runs every analyzer once, in a fixed order, and saves the result.
func (e *Engine) RunPass(ctx context.Context) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := e.analyze()
	return report, e.save(ctx)
}

func (e *Engine) analyze() Report {
	s := e.store
	now := s.Now()
	report := Report{Diffs: map[suggest.Type]suggest.Diff{}}
	reconcile := func(t suggest.Type, candidates []suggest.Suggestion) {
		report.Diffs[t] = s.Ledger.Reconcile(t, candidates)
	}

	prefs := AdaptPreferences(s.Preferences, s.Ledger.Actions())
	if prefs != s.Preferences {
		log.Printf("Adjusted grocery preferences: expiry look-ahead %d days, repurchase ratio %.2f",
			prefs.Lookahead(), prefs.Ratio())
		s.Preferences = prefs
		report.PreferencesChanged = true
	}

	taskPatterns := AnalyzeTaskPatterns(s, now)
	reconcile(suggest.TypeRecurring, taskPatterns)
	reconcile(suggest.TypeOverdue, taskPatterns)
	for _, sg := range taskPatterns {
		if sg.Type == suggest.TypeSchedule && s.Ledger.Upsert(sg) {
			report.Inserted++
		}
	}

	report.Estimated = EstimateDurations(s)

	var extra []model.Interval
	if e.opts.Busy != nil {
		extra = e.opts.Busy.Busy(now, now.AddDate(0, 0, e.opts.Window.HorizonDays))
	}
	placed, unplaced := SuggestSchedule(now, s.Tasks, s.Durations, extra, s.Ledger, e.opts.Window)
	prototypes := map[suggest.Target]suggest.Suggestion{}
	for _, sg := range taskPatterns {
		if sg.Type == suggest.TypeSchedule {
			prototypes[sg.Target] = sg
		}
	}
	for _, id := range unplaced {
		// A task with no free slot only keeps an undated prototype. Any slot
		// proposed by an earlier pass is stale and may now be busy.
		if sg, ok := prototypes[suggest.TaskTarget(id)]; ok {
			placed = append(placed, sg)
			continue
		}
		placed = append(placed, s.Ledger.List(func(sg suggest.Suggestion) bool {
			return sg.Type == suggest.TypeSchedule && sg.Target == suggest.TaskTarget(id) && isPrototype(sg)
		})...)
	}
	reconcile(suggest.TypeSchedule, placed)

	reconcile(suggest.TypeOverlap, DetectOverlaps(now, s.Tasks, s.Durations, s.Ledger))

	expiring := AnalyzeExpiring(s, now)
	reconcile(suggest.TypeGroceryExpiring, expiring)
	reconcile(suggest.TypeGroceryExpired, expiring)
	reconcile(suggest.TypeGroceryLongTime, AnalyzeShoppingList(s, now))

	patterns := AnalyzeGroceryPatterns(s, now)
	reconcile(suggest.TypeGroceryRepurchase, patterns)
	reconcile(suggest.TypeGroceryShoppingPattern, patterns)

	return report
}

func isPrototype(sg suggest.Suggestion) bool {
	p, ok := sg.Payload.(suggest.SchedulePayload)
	return ok && p.Due == nil
}

// Run executes a pass immediately, then repeats it every AnalysisInterval and
// sweeps the archive every SweepInterval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.RunPass(ctx); err != nil {
		log.Printf("Warning: analysis pass failed: %v", err)
	}

	analysis := time.NewTicker(e.opts.AnalysisInterval)
	defer analysis.Stop()
	sweep := time.NewTicker(e.opts.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-analysis.C:
			if _, err := e.RunPass(ctx); err != nil {
				log.Printf("Warning: analysis pass failed: %v", err)
			}
		case <-sweep.C:
			if _, err := e.Sweep(ctx); err != nil {
				log.Printf("Warning: archive sweep failed: %v", err)
			}
		}
	}
}

// Sweep archives completed tasks whose archive delay has elapsed.
func (e *Engine) Sweep(ctx context.Context) ([]model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	swept := e.store.SweepArchive(e.store.Now())
	if len(swept) == 0 {
		return nil, nil
	}
	log.Printf("Archived %d completed tasks", len(swept))
	return swept, e.save(ctx)
}

// Accept applies the suggestion and removes it from the ledger. action picks
// among the suggestion's offered actions; empty uses its default. A target
// that no longer exists is not an error: the suggestion is simply dropped.
func (e *Engine) Accept(ctx context.Context, id, action string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var msg string
	err := e.store.Ledger.Accept(id, func(sg suggest.Suggestion) error {
		m, err := e.apply(sg, action)
		msg = m
		return err
	})
	switch {
	case errors.Is(err, suggest.ErrSuggestionNotFound), errors.Is(err, suggest.ErrInertSuggestion):
		return "", err
	case errors.Is(err, store.ErrTaskNotFound), errors.Is(err, store.ErrGroceryNotFound):
		msg, err = "", nil
	case err != nil:
		e.notify("Error applying suggestion", false)
	default:
		e.notify(msg, true)
	}
	if saveErr := e.save(ctx); saveErr != nil && err == nil {
		err = saveErr
	}
	return msg, err
}

// Dismiss removes the suggestion and prevents it from being proposed again.
func (e *Engine) Dismiss(ctx context.Context, id, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Ledger.Dismiss(id, reason); err != nil {
		return err
	}
	return e.save(ctx)
}

// Suggestions lists the live suggestions matching pred.
func (e *Engine) Suggestions(pred func(suggest.Suggestion) bool) []suggest.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Ledger.List(pred)
}

// Update runs fn with exclusive access to the store and saves afterwards.
func (e *Engine) Update(ctx context.Context, fn func(*store.Store) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.store); err != nil {
		return err
	}
	return e.save(ctx)
}

// View runs fn with exclusive access to the store without saving.
func (e *Engine) View(fn func(*store.Store)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.store)
}

// ToggleTask flips a task's completion. Completing a task proposes the next
// task of the same category.
func (e *Engine) ToggleTask(ctx context.Context, id int64) (model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.store.ToggleTask(id)
	if err != nil {
		return model.Task{}, err
	}
	if t.Completed {
		e.afterCompletion(t)
	}
	return t, e.save(ctx)
}

// DeleteTask removes a task and its suggestions. Call Undo with the result to restore it.
func (e *Engine) DeleteTask(ctx context.Context, id int64) (*store.Undo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, err := e.store.DeleteTask(id)
	if err != nil {
		return nil, err
	}
	return u, e.save(ctx)
}

func (e *Engine) Undo(ctx context.Context, u *store.Undo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := u.Restore(); err != nil {
		return err
	}
	return e.save(ctx)
}

// Snapshot returns a persistable copy of the current state.
func (e *Engine) Snapshot() *store.AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

func (e *Engine) afterCompletion(done model.Task) {
	if sg, ok := CompletionSuggestion(e.store, done, e.store.Now()); ok {
		e.store.Ledger.Upsert(sg)
	}
}

func (e *Engine) save(ctx context.Context) error {
	if e.opts.Saver == nil {
		return nil
	}
	if err := e.opts.Saver.Save(ctx, e.store.Snapshot()); err != nil {
		e.notify("Error saving data", false)
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

func (e *Engine) notify(msg string, ok bool) {
	if e.opts.Notify != nil && msg != "" {
		e.opts.Notify(msg, ok)
	}
}
