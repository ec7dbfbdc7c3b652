package assist

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

const (
	minWeeklyCompletions = 3
	minWeeklyGapDays     = 6
	maxWeeklyGapDays     = 8
)

// IsWeekly reports whether every gap between consecutive completions rounds
// to 6..8 days. A single gap outside the band disqualifies the whole run.
func IsWeekly(completions []time.Time) bool {
	if len(completions) < minWeeklyCompletions {
		return false
	}
	sorted := slices.Clone(completions)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })
	for i := 1; i < len(sorted); i++ {
		days := math.Round(sorted[i].Sub(sorted[i-1]).Hours() / 24)
		if days < minWeeklyGapDays || days > maxWeeklyGapDays {
			return false
		}
	}
	return true
}

// IsOverdue reports whether an incomplete task is past due. Date-only tasks
// become overdue once their day is over; timed tasks as soon as the time passes.
func IsOverdue(t model.Task, now time.Time) bool {
	if t.Completed || t.Due == nil {
		return false
	}
	if !t.HasTime {
		return startOfDay(t.Due.In(now.Location())).Before(startOfDay(now))
	}
	return t.Due.Before(now)
}

// AnalyzeTaskPatterns emits recurring suggestions for weekly habits, one
// overdue suggestion for the most overdue task and one schedule prototype for
// the first undated task.
func AnalyzeTaskPatterns(s *store.Store, now time.Time) []suggest.Suggestion {
	var out []suggest.Suggestion
	ledger := s.Ledger

	for _, t := range s.Tasks {
		if t.Completed || t.IsRepeating() {
			continue
		}
		if ledger.IsDismissed(suggest.TaskTarget(t.ID), suggest.TypeRecurring) {
			continue
		}
		if !IsWeekly(s.TaskPatterns[t.Title]) {
			continue
		}
		out = append(out, suggest.MustNew(suggest.TypeRecurring,
			"Set Recurring Task",
			fmt.Sprintf("I noticed you complete %q about weekly. Would you like to make it a recurring task?", t.Title),
			suggest.RecurringPayload{TaskID: t.ID, Repeat: model.RepeatWeekly},
			now))
	}

	var overdue *model.Task
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if !IsOverdue(*t, now) || ledger.IsDismissed(suggest.TaskTarget(t.ID), suggest.TypeOverdue) {
			continue
		}
		if overdue == nil || t.Due.Before(*overdue.Due) {
			overdue = t
		}
	}
	if overdue != nil {
		due := now
		out = append(out, suggest.MustNew(suggest.TypeOverdue,
			"Reschedule Overdue Task",
			fmt.Sprintf("%q is overdue. Would you like to reschedule it for today?", overdue.Title),
			suggest.SchedulePayload{TaskID: overdue.ID, Due: &due, HasTime: true},
			now))
	}

	for _, t := range s.Tasks {
		if t.Completed || t.Due != nil || ledger.IsDismissed(suggest.TaskTarget(t.ID), suggest.TypeSchedule) {
			continue
		}
		out = append(out, suggest.MustNew(suggest.TypeSchedule,
			fmt.Sprintf("Schedule %q", t.Title),
			"This task has no due date. Would you like me to suggest a time?",
			suggest.SchedulePayload{TaskID: t.ID},
			now))
		break
	}
	return out
}

// CompletionSuggestion proposes the next incomplete task in the same category
// as a task that was just completed, earliest due first.
func CompletionSuggestion(s *store.Store, done model.Task, now time.Time) (suggest.Suggestion, bool) {
	if done.Category == "" {
		return suggest.Suggestion{}, false
	}
	var similar []model.Task
	for _, t := range s.Tasks {
		if t.Completed || t.ID == done.ID || t.Category != done.Category {
			continue
		}
		if s.Ledger.IsDismissed(suggest.TaskTarget(t.ID), suggest.TypeCompletion) {
			continue
		}
		similar = append(similar, t)
	}
	if len(similar) == 0 {
		return suggest.Suggestion{}, false
	}
	slices.SortStableFunc(similar, func(a, b model.Task) int {
		switch {
		case a.Due == nil && b.Due == nil:
			return 0
		case a.Due == nil:
			return 1
		case b.Due == nil:
			return -1
		}
		return a.Due.Compare(*b.Due)
	})
	next := similar[0]
	sg := suggest.MustNew(suggest.TypeCompletion,
		fmt.Sprintf("Complete similar %s task", done.Category),
		fmt.Sprintf("You just completed %q. Would you like to work on %q next?", done.Title, next.Title),
		suggest.CompletionPayload{TaskID: next.ID, Action: suggest.CompletionView},
		now)
	return sg.WithActions(
		suggest.Action{Label: "View Task", Action: suggest.CompletionView},
		suggest.Action{Label: "Complete Now", Action: suggest.CompletionComplete},
	), true
}
