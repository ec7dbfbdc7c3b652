package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

// UndoWindow is how long a deleted task can be restored.
const UndoWindow = 5 * time.Second

var ErrUndoExpired = errors.New("undo window has expired")

// AddTask stores a new task, assigning its id, creation time and display order.
func (s *Store) AddTask(t model.Task) model.Task {
	t.ID = s.nextTaskID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock.Now()
	}
	if t.Repeat == "" {
		t.Repeat = model.RepeatNever
	}
	if t.Category == "" {
		t.Category = model.CategoryPersonal
	}
	t.Order = len(s.Tasks)
	s.Tasks = append(s.Tasks, t)
	return t
}

// UpdateTask replaces the editable fields of an existing task.
func (s *Store) UpdateTask(id int64, title, category string, repeat model.Repeat) error {
	t, ok := s.Task(id)
	if !ok {
		return taskNotFound(id)
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("task %d: title must not be empty", id)
	}
	if !repeat.Valid() {
		return fmt.Errorf("task %d: unknown repeat %q", id, repeat)
	}
	t.Title = title
	t.Category = category
	t.Repeat = repeat
	return nil
}

// SetDue sets or clears (due == nil) a task's due date.
func (s *Store) SetDue(id int64, due *time.Time, hasTime bool) error {
	t, ok := s.Task(id)
	if !ok {
		return taskNotFound(id)
	}
	if due == nil {
		t.Due = nil
		t.HasTime = false
		return nil
	}
	d := *due
	t.Due = &d
	t.HasTime = hasTime
	return nil
}

func (s *Store) SetRepeat(id int64, r model.Repeat) error {
	t, ok := s.Task(id)
	if !ok {
		return taskNotFound(id)
	}
	t.Repeat = r
	return nil
}

// ToggleTask flips completion. Completing records the completion time,
// schedules archiving and appends to the title's completion history;
// un-completing clears both timestamps.
func (s *Store) ToggleTask(id int64) (model.Task, error) {
	t, ok := s.Task(id)
	if !ok {
		return model.Task{}, taskNotFound(id)
	}
	t.Completed = !t.Completed
	if !t.Completed {
		t.CompletedAt = nil
		t.ArchiveAt = nil
		return *t, nil
	}

	now := s.clock.Now()
	archiveAt := now.Add(ArchiveDelay)
	t.CompletedAt = &now
	t.ArchiveAt = &archiveAt
	s.TaskPatterns[t.Title] = appendCapped(s.TaskPatterns[t.Title], now, maxTaskPatterns)
	return *t, nil
}

// CompleteTask completes the task unless it already is. It reports whether
// the task changed state.
func (s *Store) CompleteTask(id int64) (model.Task, bool, error) {
	t, ok := s.Task(id)
	if !ok {
		return model.Task{}, false, taskNotFound(id)
	}
	if t.Completed {
		return *t, false, nil
	}
	done, err := s.ToggleTask(id)
	return done, err == nil, err
}

// Undo restores a deleted task within UndoWindow.
type Undo struct {
	store     *Store
	task      model.Task
	index     int
	deletedAt time.Time
	used      bool
}

// DeleteTask removes a task immediately along with every suggestion that
// targets it. The returned Undo can bring the task back for UndoWindow.
func (s *Store) DeleteTask(id int64) (*Undo, error) {
	i := slices.IndexFunc(s.Tasks, func(t model.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, taskNotFound(id)
	}
	u := &Undo{store: s, task: s.Tasks[i], index: i, deletedAt: s.clock.Now()}
	s.Tasks = slices.Delete(s.Tasks, i, i+1)
	delete(s.Durations, id)
	s.Ledger.RemoveTarget(suggest.TaskTarget(id))
	return u, nil
}

// Restore puts the task back at its previous position.
func (u *Undo) Restore() error {
	if u.used {
		return nil
	}
	if u.store.clock.Now().Sub(u.deletedAt) > UndoWindow {
		return ErrUndoExpired
	}
	u.used = true
	i := min(u.index, len(u.store.Tasks))
	u.store.Tasks = slices.Insert(u.store.Tasks, i, u.task)
	return nil
}

// ReorderTasks puts the listed tasks first, in the given order, followed by
// every other task in its current order. Unknown and repeated ids are ignored.
func (s *Store) ReorderTasks(ids []int64) {
	seen := map[int64]bool{}
	out := make([]model.Task, 0, len(s.Tasks))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if t, ok := s.Task(id); ok {
			out = append(out, *t)
			seen[id] = true
		}
	}
	for _, t := range s.Tasks {
		if !seen[t.ID] {
			out = append(out, t)
		}
	}
	s.Tasks = out
	s.renumber()
}

// MoveTask moves a task to position index in the display order, clamped to the list.
func (s *Store) MoveTask(id int64, index int) error {
	if _, ok := s.Task(id); !ok {
		return taskNotFound(id)
	}
	ids := make([]int64, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.ID != id {
			ids = append(ids, t.ID)
		}
	}
	index = min(max(index, 0), len(ids))
	s.ReorderTasks(slices.Insert(ids, index, id))
	return nil
}

func (s *Store) renumber() {
	for i := range s.Tasks {
		s.Tasks[i].Order = i
	}
}

// SweepArchive moves completed tasks whose archive time has passed into the
// archive and returns them. Archived tasks stay available as completion history.
func (s *Store) SweepArchive(now time.Time) []model.Task {
	var swept []model.Task
	s.Tasks = slices.DeleteFunc(s.Tasks, func(t model.Task) bool {
		if !t.Completed || t.ArchiveAt == nil || now.Before(*t.ArchiveAt) {
			return false
		}
		at := now
		t.ArchivedAt = &at
		swept = append(swept, t)
		return true
	})
	for _, t := range swept {
		s.TaskArchive = append(s.TaskArchive, t)
		delete(s.Durations, t.ID)
		s.Ledger.RemoveTarget(suggest.TaskTarget(t.ID))
	}
	s.renumber()
	return swept
}

// History returns every completed task, live or archived.
func (s *Store) History() []model.Task {
	var out []model.Task
	for _, t := range s.Tasks {
		if t.Completed {
			out = append(out, t)
		}
	}
	return append(out, s.TaskArchive...)
}
