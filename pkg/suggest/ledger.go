package suggest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/harrisonrobin/organizer/pkg/clock"
)

var (
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrInertSuggestion    = errors.New("suggestion data is malformed and cannot be accepted")
)

const (
	ActionAccepted  = "accepted"
	ActionDismissed = "dismissed"

	maxActionLog = 200
)

// DismissalMemory maps a target key to the suggestion types the user has
// dismissed for it. Entries are permanent.
type DismissalMemory map[string][]Type

func (m DismissalMemory) Has(key string, t Type) bool {
	return slices.Contains(m[key], t)
}

func (m DismissalMemory) Add(key string, t Type) {
	if !m.Has(key, t) {
		m[key] = append(m[key], t)
	}
}

// ActionRecord is one accept/dismiss data point for grocery suggestions,
// used to adapt thresholds.
type ActionRecord struct {
	Type     Type      `json:"type"`
	ItemName string    `json:"itemName,omitempty"`
	Action   string    `json:"action"`
	At       time.Time `json:"date"`
}

// Diff reports what a Reconcile call changed.
type Diff struct {
	Added   int
	Updated int
	Removed int
}

func (d Diff) Changed() bool { return d.Added+d.Updated+d.Removed > 0 }

// Ledger is the single collection of pending suggestions. At most one live
// suggestion exists per (type, target key); duplicates are rejected at
// insertion time.
type Ledger struct {
	clock     clock.Clock
	items     []Suggestion
	dismissed DismissalMemory
	actions   []ActionRecord
}

func NewLedger(clk clock.Clock) *Ledger {
	return &Ledger{clock: clk, dismissed: DismissalMemory{}}
}

// Restore replaces the ledger contents with previously persisted state.
// Duplicate (type, target) entries keep the first occurrence.
func (l *Ledger) Restore(items []Suggestion, dismissed DismissalMemory, actions []ActionRecord) {
	l.items = nil
	for _, s := range items {
		if l.find(s.Type, s.Target.Key()) < 0 {
			l.items = append(l.items, s)
		}
	}
	l.dismissed = DismissalMemory{}
	for k, types := range dismissed {
		for _, t := range types {
			l.dismissed.Add(k, t)
		}
	}
	l.actions = append([]ActionRecord(nil), actions...)
}

func (l *Ledger) Len() int { return len(l.items) }

// Items returns a copy of the live suggestions in insertion order.
func (l *Ledger) Items() []Suggestion {
	return append([]Suggestion(nil), l.items...)
}

// Dismissed returns a copy of the dismissal memory.
func (l *Ledger) Dismissed() DismissalMemory {
	out := make(DismissalMemory, len(l.dismissed))
	for k, v := range l.dismissed {
		out[k] = append([]Type(nil), v...)
	}
	return out
}

func (l *Ledger) Actions() []ActionRecord {
	return append([]ActionRecord(nil), l.actions...)
}

// IsDismissed reports whether the user dismissed suggestions of type t for target.
func (l *Ledger) IsDismissed(target Target, t Type) bool {
	return l.dismissed.Has(target.Key(), t)
}

func (l *Ledger) Get(id string) (Suggestion, bool) {
	i := l.indexOf(id)
	if i < 0 {
		return Suggestion{}, false
	}
	return l.items[i], true
}

// Has reports whether a live suggestion of type t exists for target.
func (l *Ledger) Has(t Type, target Target) bool {
	return l.find(t, target.Key()) >= 0
}

// Upsert inserts s unless a live suggestion already matches its (type,
// target) or the user dismissed that pair. It reports whether s was inserted.
func (l *Ledger) Upsert(s Suggestion) bool {
	key := s.Target.Key()
	if l.dismissed.Has(key, s.Type) {
		return false
	}
	if l.find(s.Type, key) >= 0 {
		return false
	}
	l.items = append(l.items, s)
	return true
}

// Dismiss removes the suggestion and remembers the (target, type) pair so it
// is never generated again.
func (l *Ledger) Dismiss(id, reason string) error {
	i := l.indexOf(id)
	if i < 0 {
		return fmt.Errorf("dismiss %s: %w", id, ErrSuggestionNotFound)
	}
	s := l.items[i]
	l.dismissed.Add(s.Target.Key(), s.Type)
	if s.Type.IsGrocery() {
		l.record(s, ActionDismissed)
	}
	l.items = slices.Delete(l.items, i, i+1)
	if reason != "" {
		log.Printf("Dismissed %s suggestion %q: %s", s.Type, s.Title, reason)
	}
	return nil
}

// Accept runs handle for the suggestion and removes it afterwards whether or
// not the handler succeeded, so a stale suggestion never resurfaces. Handler
// failures are logged and returned.
func (l *Ledger) Accept(id string, handle func(Suggestion) error) error {
	i := l.indexOf(id)
	if i < 0 {
		return fmt.Errorf("accept %s: %w", id, ErrSuggestionNotFound)
	}
	s := l.items[i]
	if s.Inert {
		return fmt.Errorf("accept %s: %w", id, ErrInertSuggestion)
	}

	err := handle(s)
	if err != nil {
		log.Printf("Error accepting %s suggestion %s: %v", s.Type, s.ID, err)
	} else if s.Type.IsGrocery() {
		l.record(s, ActionAccepted)
	}

	// handle may have mutated the ledger; look the suggestion up again.
	if j := l.indexOf(id); j >= 0 {
		l.items = slices.Delete(l.items, j, j+1)
	}
	return err
}

// List returns the live suggestions matching pred, in insertion order.
func (l *Ledger) List(pred func(Suggestion) bool) []Suggestion {
	var out []Suggestion
	for _, s := range l.items {
		if pred == nil || pred(s) {
			out = append(out, s)
		}
	}
	return out
}

func ForTasks(s Suggestion) bool     { return !s.Type.IsGrocery() }
func ForGroceries(s Suggestion) bool { return s.Type.IsGrocery() }

// Reconcile makes the live suggestions of type t equal to candidates. Live
// entries whose target is still proposed keep their id and are updated in
// place when their content changed; entries no longer proposed are removed;
// new targets are inserted unless dismissed. Running it twice with the same
// candidates is a no-op.
func (l *Ledger) Reconcile(t Type, candidates []Suggestion) Diff {
	want := make(map[string]Suggestion, len(candidates))
	var order []string
	for _, c := range candidates {
		if c.Type != t {
			continue
		}
		key := c.Target.Key()
		if _, dup := want[key]; dup || l.dismissed.Has(key, t) {
			continue
		}
		want[key] = c
		order = append(order, key)
	}

	var diff Diff
	kept := l.items[:0]
	seen := make(map[string]bool, len(want))
	for _, s := range l.items {
		if s.Type != t {
			kept = append(kept, s)
			continue
		}
		key := s.Target.Key()
		c, ok := want[key]
		if !ok {
			diff.Removed++
			continue
		}
		seen[key] = true
		if !sameContent(s, c) {
			c.ID = s.ID
			c.CreatedAt = s.CreatedAt
			s = c
			diff.Updated++
		}
		kept = append(kept, s)
	}
	l.items = kept

	for _, key := range order {
		if !seen[key] {
			l.items = append(l.items, want[key])
			diff.Added++
		}
	}
	return diff
}

// RemoveTarget drops every suggestion pointing at target, regardless of type.
// It does not touch the dismissal memory.
func (l *Ledger) RemoveTarget(target Target) int {
	key := target.Key()
	return l.removeWhere(func(s Suggestion) bool { return s.Target.Key() == key })
}

// Prune drops suggestions whose target no longer exists according to exists.
func (l *Ledger) Prune(exists func(Target) bool) int {
	return l.removeWhere(func(s Suggestion) bool { return !exists(s.Target) })
}

func (l *Ledger) removeWhere(drop func(Suggestion) bool) int {
	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, drop)
	return before - len(l.items)
}

func (l *Ledger) record(s Suggestion, action string) {
	rec := ActionRecord{Type: s.Type, Action: action, At: l.clock.Now()}
	if s.Target.Kind == KindGroceryName {
		rec.ItemName = s.Target.GroceryName
	}
	l.actions = append(l.actions, rec)
	if len(l.actions) > maxActionLog {
		l.actions = l.actions[len(l.actions)-maxActionLog:]
	}
}

func (l *Ledger) indexOf(id string) int {
	return slices.IndexFunc(l.items, func(s Suggestion) bool { return s.ID == id })
}

func (l *Ledger) find(t Type, key string) int {
	return slices.IndexFunc(l.items, func(s Suggestion) bool {
		return s.Type == t && s.Target.Key() == key
	})
}

func sameContent(a, b Suggestion) bool {
	if a.Title != b.Title || a.Description != b.Description || a.Inert != b.Inert {
		return false
	}
	pa, errA := json.Marshal(a.Payload)
	pb, errB := json.Marshal(b.Payload)
	return errA == nil && errB == nil && bytes.Equal(pa, pb)
}
