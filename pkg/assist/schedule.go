package assist

import (
	"fmt"
	"slices"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

// Dismissals answers whether the user has rejected a (target, type) pair.
// *suggest.Ledger satisfies it.
type Dismissals interface {
	IsDismissed(target suggest.Target, t suggest.Type) bool
}

// Window is the part of each day the scheduler may propose.
type Window struct {
	StartHour   int
	EndHour     int
	HorizonDays int
	SlotMinutes int
}

func DefaultWindow() Window {
	return Window{StartHour: 9, EndHour: 18, HorizonDays: 7, SlotMinutes: 30}
}

// BusyIntervals returns [due, due+duration) for every dated, incomplete task.
func BusyIntervals(tasks []model.Task, durations map[int64]int) []model.Interval {
	var busy []model.Interval
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if iv, ok := t.Interval(durationOf(durations, t.ID)); ok {
			busy = append(busy, iv)
		}
	}
	return busy
}

// FreeSlots cuts the window into fixed-size slots over the horizon and keeps
// those not intersecting any busy interval. Today starts at now (to the
// minute) when already inside the window and is skipped once past its end.
// Slots never extend beyond the window end.
func FreeSlots(now time.Time, busy []model.Interval, w Window) []model.Interval {
	step := time.Duration(w.SlotMinutes) * time.Minute
	if step <= 0 {
		return nil
	}
	var slots []model.Interval
	y, m, d := now.Date()
	loc := now.Location()
	for offset := range w.HorizonDays {
		start := time.Date(y, m, d+offset, w.StartHour, 0, 0, 0, loc)
		end := time.Date(y, m, d+offset, w.EndHour, 0, 0, 0, loc)
		if offset == 0 {
			if !now.Before(end) {
				continue
			}
			if now.After(start) {
				start = now.Truncate(time.Minute)
			}
		}
		for cur := start; cur.Before(end); {
			next := cur.Add(step)
			if next.After(end) {
				next = end
			}
			slot := model.Interval{Start: cur, End: next}
			if !slices.ContainsFunc(busy, slot.Overlaps) {
				slots = append(slots, slot)
			}
			cur = next
		}
	}
	return slots
}

// SuggestSchedule proposes a slot for every undated, incomplete task that the
// user has not dismissed for scheduling. Tasks are served in order; each
// takes the first free slot whose length is within [duration, 1.5×duration],
// falling back to the first free slot. A consumed slot is not offered again.
// Tasks that cannot be placed are returned as unplaced.
func SuggestSchedule(now time.Time, tasks []model.Task, durations map[int64]int, extraBusy []model.Interval,
	dismissed Dismissals, w Window) (placed []suggest.Suggestion, unplaced []int64) {

	var undated []model.Task
	for _, t := range tasks {
		if t.Completed || t.Due != nil {
			continue
		}
		if dismissed != nil && dismissed.IsDismissed(suggest.TaskTarget(t.ID), suggest.TypeSchedule) {
			continue
		}
		undated = append(undated, t)
	}
	if len(undated) == 0 {
		return nil, nil
	}

	busy := append(BusyIntervals(tasks, durations), extraBusy...)
	slots := FreeSlots(now, busy, w)

	for _, t := range undated {
		if len(slots) == 0 {
			unplaced = append(unplaced, t.ID)
			continue
		}
		want := float64(durationOf(durations, t.ID))
		best := 0
		for i, slot := range slots {
			length := slot.Duration().Minutes()
			if length >= want && length <= want*1.5 {
				best = i
				break
			}
		}
		slot := slots[best]
		slots = slices.Delete(slots, best, best+1)

		due := slot.Start
		placed = append(placed, suggest.MustNew(suggest.TypeSchedule,
			fmt.Sprintf("Schedule %q", t.Title),
			"I suggest scheduling this task for "+formatDateTime(due, now),
			suggest.SchedulePayload{TaskID: t.ID, Due: &due, HasTime: true},
			now))
	}
	return placed, unplaced
}
