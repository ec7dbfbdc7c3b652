package store

import (
	"encoding/json"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/organizer/pkg/clock"
	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

var testNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestStore() (*Store, *clock.Manual) {
	clk := clock.NewManual(testNow)
	return New(clk), clk
}

func TestAddTaskAssignsUniqueIDs(t *testing.T) {
	s, _ := newTestStore()
	a := s.AddTask(model.Task{Title: "A"})
	b := s.AddTask(model.Task{Title: "B"})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, model.RepeatNever, a.Repeat)
	assert.Equal(t, model.CategoryPersonal, a.Category)
	assert.Equal(t, 1, b.Order)
	assert.Equal(t, testNow, a.CreatedAt)
}

func TestToggleTaskRecordsCompletion(t *testing.T) {
	s, _ := newTestStore()
	task := s.AddTask(model.Task{Title: "Water plants"})

	done, err := s.ToggleTask(task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, testNow, *done.CompletedAt)
	assert.Equal(t, testNow.Add(ArchiveDelay), *done.ArchiveAt)
	assert.Equal(t, []time.Time{testNow}, s.TaskPatterns["Water plants"])

	undone, err := s.ToggleTask(task.ID)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.CompletedAt)
	assert.Nil(t, undone.ArchiveAt)

	_, err = s.ToggleTask(999)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskPatternsAreCapped(t *testing.T) {
	s, clk := newTestStore()
	task := s.AddTask(model.Task{Title: "Run"})
	for range maxTaskPatterns + 5 {
		_, _, err := s.CompleteTask(task.ID)
		require.NoError(t, err)
		_, err = s.ToggleTask(task.ID)
		require.NoError(t, err)
		clk.Advance(24 * time.Hour)
	}
	assert.Len(t, s.TaskPatterns["Run"], maxTaskPatterns)
}

func TestCompleteTaskIsIdempotent(t *testing.T) {
	s, _ := newTestStore()
	task := s.AddTask(model.Task{Title: "A"})

	_, changed, err := s.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	_, changed, err = s.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, s.TaskPatterns["A"], 1)
}

func TestSweepArchiveMovesDueTasks(t *testing.T) {
	s, clk := newTestStore()
	a := s.AddTask(model.Task{Title: "A"})
	b := s.AddTask(model.Task{Title: "B"})
	s.Durations[a.ID] = 30
	_, err := s.ToggleTask(a.ID)
	require.NoError(t, err)

	assert.Empty(t, s.SweepArchive(clk.Now()), "not yet due")

	clk.Advance(ArchiveDelay)
	swept := s.SweepArchive(clk.Now())
	require.Len(t, swept, 1)
	assert.Equal(t, a.ID, swept[0].ID)
	assert.NotNil(t, swept[0].ArchivedAt)
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, b.ID, s.Tasks[0].ID)
	assert.Equal(t, 0, s.Tasks[0].Order)
	assert.NotContains(t, s.Durations, a.ID)

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, a.ID, history[0].ID)
}

func taskIDs(s *Store) []int64 {
	var ids []int64
	for i, t := range s.Tasks {
		if t.Order != i {
			return nil
		}
		ids = append(ids, t.ID)
	}
	return ids
}

func TestReorderTasks(t *testing.T) {
	s, _ := newTestStore()
	a := s.AddTask(model.Task{Title: "A"})
	b := s.AddTask(model.Task{Title: "B"})
	c := s.AddTask(model.Task{Title: "C"})
	d := s.AddTask(model.Task{Title: "D"})

	s.ReorderTasks([]int64{c.ID, 12345, a.ID, c.ID})
	assert.Equal(t, []int64{c.ID, a.ID, b.ID, d.ID}, taskIDs(s), "unlisted tasks keep their relative order")
}

func TestMoveTask(t *testing.T) {
	s, _ := newTestStore()
	a := s.AddTask(model.Task{Title: "A"})
	b := s.AddTask(model.Task{Title: "B"})
	c := s.AddTask(model.Task{Title: "C"})

	require.NoError(t, s.MoveTask(c.ID, 0))
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, taskIDs(s))

	require.NoError(t, s.MoveTask(c.ID, 99))
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, taskIDs(s), "index is clamped")

	require.NoError(t, s.MoveTask(b.ID, -3))
	assert.Equal(t, []int64{b.ID, a.ID, c.ID}, taskIDs(s))

	assert.ErrorIs(t, s.MoveTask(7, 0), ErrTaskNotFound)
}

func TestUpdateTask(t *testing.T) {
	s, _ := newTestStore()
	task := s.AddTask(model.Task{Title: "Draft"})

	require.NoError(t, s.UpdateTask(task.ID, "Final draft", model.CategoryWork, model.RepeatWeekly))
	got, ok := s.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Final draft", got.Title)
	assert.Equal(t, model.CategoryWork, got.Category)
	assert.Equal(t, model.RepeatWeekly, got.Repeat)

	assert.ErrorIs(t, s.UpdateTask(99, "x", "", model.RepeatNever), ErrTaskNotFound)
	assert.ErrorContains(t, s.UpdateTask(task.ID, "Final draft", "", "fortnightly"), "unknown repeat")
	assert.ErrorContains(t, s.UpdateTask(task.ID, "  ", "", model.RepeatNever), "title must not be empty")
	got, _ = s.Task(task.ID)
	assert.Equal(t, "Final draft", got.Title, "rejected edits change nothing")
}

func TestDeleteTaskAndUndo(t *testing.T) {
	s, clk := newTestStore()
	a := s.AddTask(model.Task{Title: "A"})
	b := s.AddTask(model.Task{Title: "B"})
	due := testNow.Add(time.Hour)
	s.Ledger.Upsert(suggest.MustNew(suggest.TypeSchedule, "t", "d",
		suggest.SchedulePayload{TaskID: a.ID, Due: &due, HasTime: true}, testNow))

	u, err := s.DeleteTask(a.ID)
	require.NoError(t, err)
	assert.Zero(t, s.Ledger.Len())
	assert.False(t, s.Ledger.IsDismissed(suggest.TaskTarget(a.ID), suggest.TypeSchedule), "delete is not a dismissal")

	clk.Advance(2 * time.Second)
	require.NoError(t, u.Restore())
	require.Len(t, s.Tasks, 2)
	assert.Equal(t, a.ID, s.Tasks[0].ID)
	assert.Equal(t, b.ID, s.Tasks[1].ID)

	u, err = s.DeleteTask(b.ID)
	require.NoError(t, err)
	clk.Advance(UndoWindow + time.Second)
	assert.ErrorIs(t, u.Restore(), ErrUndoExpired)
	assert.Len(t, s.Tasks, 1)
}

func TestGroceryLifecycle(t *testing.T) {
	s, clk := newTestStore()
	milk := s.AddListItem("Milk", 2, "l")
	assert.True(t, milk.OnShoppingList())
	assert.Len(t, s.ListHistory["Milk"], 1)

	clk.Advance(time.Hour)
	require.NoError(t, s.MarkPurchased(milk.ID))
	g, ok := s.Grocery(milk.ID)
	require.True(t, ok)
	assert.True(t, g.InStock)
	assert.False(t, g.OnShoppingList())
	assert.Equal(t, []model.Observation{{At: testNow.Add(time.Hour), Quantity: 2}}, s.PurchasePatterns["Milk"])

	require.NoError(t, s.AddToShoppingList(milk.ID))
	g, _ = s.Grocery(milk.ID)
	assert.True(t, g.OnShoppingList())
	assert.Len(t, s.ListHistory["Milk"], 2)

	assert.ErrorIs(t, s.MarkPurchased("nope"), ErrGroceryNotFound)
}

func TestHistoriesIgnoreNameCase(t *testing.T) {
	s, clk := newTestStore()
	upper := s.AddGrocery(model.GroceryItem{Name: "Milk", InStock: true})
	lower := s.AddGrocery(model.GroceryItem{Name: " milk", InStock: true})

	require.NoError(t, s.MarkPurchased(upper.ID))
	clk.Advance(24 * time.Hour)
	require.NoError(t, s.MarkPurchased(lower.ID))
	s.AddListItem("MILK", 1, "")

	assert.Len(t, s.PurchasePatterns, 1)
	assert.Len(t, s.PurchasePatterns["Milk"], 2)
	assert.Equal(t, []string{"MILK"}, slices.Collect(maps.Keys(s.ListHistory)), "first spelling recorded wins")
}

func TestRestoreFoldsSplitHistories(t *testing.T) {
	day := func(n int) model.Observation { return model.Observation{At: testNow.AddDate(0, 0, n), Quantity: 1} }
	st := NewAppState()
	st.GroceryPurchasePatterns = map[string][]model.Observation{
		"milk": {day(-14), day(-7)},
		"Milk": {day(-21)},
		"Eggs": {day(-3)},
	}

	s, _ := newTestStore()
	s.Restore(st)

	assert.Equal(t, map[string][]model.Observation{
		"Milk": {day(-21), day(-14), day(-7)},
		"Eggs": {day(-3)},
	}, s.PurchasePatterns)
	assert.Len(t, st.GroceryPurchasePatterns, 3, "the restored document is not modified")
}

func TestObservationsAreCapped(t *testing.T) {
	s, clk := newTestStore()
	item := s.AddGrocery(model.GroceryItem{Name: "Eggs", InStock: true})
	for range maxObservations + 3 {
		require.NoError(t, s.MarkPurchased(item.ID))
		clk.Advance(24 * time.Hour)
	}
	obs := s.PurchasePatterns["Eggs"]
	require.Len(t, obs, maxObservations)
	assert.Equal(t, testNow.Add(3*24*time.Hour), obs[0].At, "oldest entries are dropped")
}

func TestRemoveFromList(t *testing.T) {
	s, _ := newTestStore()
	listOnly := s.AddListItem("Foil", 1, "")
	stocked := s.AddGrocery(model.GroceryItem{Name: "Rice", InStock: true, OnList: true})

	require.NoError(t, s.RemoveFromList(listOnly.ID))
	_, ok := s.Grocery(listOnly.ID)
	assert.False(t, ok, "list-only items are removed entirely")

	require.NoError(t, s.RemoveFromList(stocked.ID))
	g, ok := s.Grocery(stocked.ID)
	require.True(t, ok)
	assert.False(t, g.OnList)
}

func TestConsumeGrocery(t *testing.T) {
	s, _ := newTestStore()
	item := s.AddGrocery(model.GroceryItem{Name: "Flour", Quantity: 3, InStock: true})
	s.Ledger.Upsert(suggest.MustNew(suggest.TypeGroceryExpiring, "t", "d",
		suggest.GroceryItemPayload{GroceryID: item.ID, Action: suggest.GroceryUseSoon}, testNow))

	archived, err := s.ConsumeGrocery(item.ID, 1)
	require.NoError(t, err)
	assert.False(t, archived)
	g, _ := s.Grocery(item.ID)
	assert.Equal(t, 2.0, g.Quantity)

	_, err = s.ConsumeGrocery(item.ID, 0)
	assert.Error(t, err)

	archived, err = s.ConsumeGrocery(item.ID, 5)
	require.NoError(t, err)
	assert.True(t, archived)
	_, ok := s.Grocery(item.ID)
	assert.False(t, ok)
	require.Len(t, s.GroceryArchive, 1)
	assert.Zero(t, s.GroceryArchive[0].Quantity, "never negative")
	assert.Zero(t, s.Ledger.Len())
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	task := s.AddTask(model.Task{Title: "Report", Category: model.CategoryWork})
	gone := s.AddTask(model.Task{Title: "Gone"})
	item := s.AddGrocery(model.GroceryItem{Name: "Milk", InStock: true})
	require.NoError(t, s.MarkPurchased(item.ID))
	s.Durations[task.ID] = 45
	s.Preferences.RepurchaseRatio = 0.7

	due := testNow.Add(time.Hour)
	keep := suggest.MustNew(suggest.TypeSchedule, "t", "d", suggest.SchedulePayload{TaskID: task.ID, Due: &due, HasTime: true}, testNow)
	s.Ledger.Upsert(keep)
	s.Ledger.Upsert(suggest.MustNew(suggest.TypeSchedule, "t", "d", suggest.SchedulePayload{TaskID: gone.ID}, testNow))
	s.Ledger.Upsert(suggest.MustNew(suggest.TypeGroceryRepurchase, "t", "d",
		suggest.GroceryNamePayload{Name: "Bread", Action: suggest.GroceryAddToList}, testNow))

	snap := s.Snapshot()
	// Simulate a document edited elsewhere that lost a task.
	snap.Tasks = snap.Tasks[:1]

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded AppState
	require.NoError(t, json.Unmarshal(raw, &decoded))

	restored := New(clock.NewManual(testNow))
	restored.Restore(&decoded)

	assert.Equal(t, s.Tasks[:1], restored.Tasks)
	assert.Equal(t, 45, restored.Durations[task.ID])
	assert.Equal(t, 0.7, restored.Preferences.Ratio())
	assert.Len(t, restored.PurchasePatterns["Milk"], 1)
	assert.Equal(t, DefaultTheme, restored.Theme)

	items := restored.Ledger.Items()
	require.Len(t, items, 2, "suggestion for the missing task is dropped, name targets survive")
	assert.Equal(t, keep.ID, items[0].ID)

	next := restored.AddTask(model.Task{Title: "New"})
	assert.Greater(t, next.ID, task.ID)
}

func TestNormalizeFillsDefaults(t *testing.T) {
	var st AppState
	require.NoError(t, json.Unmarshal([]byte(`{"tasks":null,"theme":""}`), &st))
	st.Normalize()
	assert.NotNil(t, st.Tasks)
	assert.NotNil(t, st.TaskPatterns)
	assert.NotNil(t, st.DismissedSuggestions)
	assert.Equal(t, DefaultTheme, st.Theme)
	assert.Equal(t, DefaultExpiryLookaheadDays, st.GroceryAIPreferences.Lookahead())
	assert.Equal(t, DefaultRepurchaseRatio, st.GroceryAIPreferences.Ratio())
}
