package store

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"time"

	"github.com/harrisonrobin/organizer/pkg/clock"
	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrGroceryNotFound = errors.New("grocery item not found")
)

const (
	// ArchiveDelay is how long a completed task stays visible before the sweep archives it.
	ArchiveDelay = 5 * time.Minute

	maxTaskPatterns = 20
	maxObservations = 10
)

// Store holds every entity collection plus the derived heuristic state. It is
// not safe for concurrent use; callers serialize access.
type Store struct {
	clock clock.Clock

	Tasks          []model.Task
	Groceries      []model.GroceryItem
	Projects       []model.Project
	Passwords      []model.Password
	TaskArchive    []model.Task
	GroceryArchive []model.GroceryItem

	// TaskPatterns maps a task title to its completion timestamps, oldest first.
	TaskPatterns map[string][]time.Time
	// Durations maps a task id to its estimated duration in minutes.
	Durations map[int64]int
	// PurchasePatterns and ListHistory map an item name to its most recent observations.
	PurchasePatterns map[string][]model.Observation
	ListHistory      map[string][]model.Observation
	Preferences      Preferences
	Theme            string

	Ledger *suggest.Ledger

	lastTaskID int64
}

func New(clk clock.Clock) *Store {
	s := &Store{clock: clk, Ledger: suggest.NewLedger(clk)}
	s.Restore(NewAppState())
	return s
}

func (s *Store) Now() time.Time { return s.clock.Now() }

func (s *Store) Task(id int64) (*model.Task, bool) {
	i := slices.IndexFunc(s.Tasks, func(t model.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, false
	}
	return &s.Tasks[i], true
}

func (s *Store) Grocery(id string) (*model.GroceryItem, bool) {
	i := slices.IndexFunc(s.Groceries, func(g model.GroceryItem) bool { return g.ID == id })
	if i < 0 {
		return nil, false
	}
	return &s.Groceries[i], true
}

// TargetExists reports whether a suggestion target still refers to a live entity.
// Name targets always exist since they refer to learned history.
func (s *Store) TargetExists(t suggest.Target) bool {
	switch t.Kind {
	case suggest.KindTask:
		_, ok := s.Task(t.TaskID)
		return ok
	case suggest.KindGroceryID:
		_, ok := s.Grocery(t.GroceryID)
		return ok
	default:
		return true
	}
}

// Snapshot copies the store into a persistable document.
func (s *Store) Snapshot() *AppState {
	st := &AppState{
		Tasks:                      slices.Clone(s.Tasks),
		Groceries:                  slices.Clone(s.Groceries),
		Projects:                   slices.Clone(s.Projects),
		Passwords:                  slices.Clone(s.Passwords),
		TaskPatterns:               cloneMap(s.TaskPatterns),
		TaskDurations:              maps.Clone(s.Durations),
		Suggestions:                s.Ledger.Items(),
		DismissedSuggestions:       s.Ledger.Dismissed(),
		GroceryPurchasePatterns:    cloneMap(s.PurchasePatterns),
		GroceryShoppingListHistory: cloneMap(s.ListHistory),
		GroceryAIPreferences:       s.Preferences,
		GroceryAIActions:           s.Ledger.Actions(),
		TaskArchive:                slices.Clone(s.TaskArchive),
		GroceryArchive:             slices.Clone(s.GroceryArchive),
		Theme:                      s.Theme,
	}
	st.Normalize()
	return st
}

// Restore replaces the store contents with st. Suggestions whose task or
// grocery target no longer exists are dropped.
func (s *Store) Restore(st *AppState) {
	st.Normalize()
	s.Tasks = slices.Clone(st.Tasks)
	s.Groceries = slices.Clone(st.Groceries)
	s.Projects = slices.Clone(st.Projects)
	s.Passwords = slices.Clone(st.Passwords)
	s.TaskArchive = slices.Clone(st.TaskArchive)
	s.GroceryArchive = slices.Clone(st.GroceryArchive)
	s.TaskPatterns = cloneMap(st.TaskPatterns)
	s.Durations = maps.Clone(st.TaskDurations)
	s.PurchasePatterns = cloneMap(st.GroceryPurchasePatterns)
	s.ListHistory = cloneMap(st.GroceryShoppingListHistory)
	foldHistories(s.PurchasePatterns)
	foldHistories(s.ListHistory)
	s.Preferences = st.GroceryAIPreferences
	s.Theme = st.Theme

	s.lastTaskID = 0
	for _, t := range s.Tasks {
		s.lastTaskID = max(s.lastTaskID, t.ID)
	}
	for _, t := range s.TaskArchive {
		s.lastTaskID = max(s.lastTaskID, t.ID)
	}

	s.Ledger.Restore(st.Suggestions, st.DismissedSuggestions, st.GroceryAIActions)
	if n := s.Ledger.Prune(s.TargetExists); n > 0 {
		log.Printf("Dropped %d suggestions referencing deleted items", n)
	}
}

func (s *Store) nextTaskID() int64 {
	id := max(s.clock.Now().UnixMilli(), s.lastTaskID+1)
	s.lastTaskID = id
	return id
}

func appendCapped[T any](list []T, v T, limit int) []T {
	list = append(list, v)
	if len(list) > limit {
		list = slices.Clone(list[len(list)-limit:])
	}
	return list
}

func cloneMap[V any](m map[string][]V) map[string][]V {
	out := make(map[string][]V, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func taskNotFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
}

func groceryNotFound(id string) error {
	return fmt.Errorf("grocery %s: %w", id, ErrGroceryNotFound)
}
