package assist

import (
	"fmt"
	"sort"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

// OverlapBuffer separates a rescheduled task from the end of the one it clashed with.
const OverlapBuffer = 15 * time.Minute

type timedTask struct {
	task     model.Task
	interval model.Interval
	minutes  int
}

// DetectOverlaps finds intersecting intervals among incomplete tasks that have
// an explicit clock time. For each clashing pair the shorter task (the
// earlier one on equal length) is moved to the other's end plus OverlapBuffer.
// A task gets at most one proposal: tasks are ordered by (start, id) and the
// pairing with the earliest-starting other task wins.
func DetectOverlaps(now time.Time, tasks []model.Task, durations map[int64]int, dismissed Dismissals) []suggest.Suggestion {
	var timed []timedTask
	for _, t := range tasks {
		if t.Completed || !t.IsTimed() {
			continue
		}
		if dismissed != nil && dismissed.IsDismissed(suggest.TaskTarget(t.ID), suggest.TypeOverlap) {
			continue
		}
		minutes := durationOf(durations, t.ID)
		iv, _ := t.Interval(minutes)
		timed = append(timed, timedTask{task: t, interval: iv, minutes: minutes})
	}
	sort.SliceStable(timed, func(i, j int) bool {
		a, b := timed[i], timed[j]
		if !a.interval.Start.Equal(b.interval.Start) {
			return a.interval.Start.Before(b.interval.Start)
		}
		return a.task.ID < b.task.ID
	})

	var out []suggest.Suggestion
	proposed := make(map[int64]bool)
	for i := 0; i < len(timed); i++ {
		for j := i + 1; j < len(timed); j++ {
			a, b := timed[i], timed[j]
			if !a.interval.Overlaps(b.interval) {
				continue
			}
			move, other := a, b
			if b.minutes < a.minutes {
				move, other = b, a
			}
			if proposed[move.task.ID] {
				continue
			}
			proposed[move.task.ID] = true

			newStart := other.interval.End.Add(OverlapBuffer)
			out = append(out, suggest.MustNew(suggest.TypeOverlap,
				"Scheduling Conflict",
				fmt.Sprintf("%q overlaps with %q. Reschedule to %s?",
					move.task.Title, other.task.Title, formatDateTime(newStart, now)),
				suggest.SchedulePayload{TaskID: move.task.ID, Due: &newStart, HasTime: true},
				now))
		}
	}
	return out
}
