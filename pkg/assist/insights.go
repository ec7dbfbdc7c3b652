package assist

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/harrisonrobin/organizer/pkg/store"
)

const (
	minCompletionsForWeekday = 5
	maxActiveDays            = 30
	insightExpiringDays      = 3
	minUndatedForReminder    = 3
)

var productivityTips = []string{
	"Try the Pomodoro Technique: 25 minutes of focused work followed by a 5-minute break.",
	"Consider organizing tasks using the Eisenhower Matrix: urgent and important first, then important, then urgent.",
	"Set SMART goals: Specific, Measurable, Achievable, Relevant, and Time-bound.",
	"Try time-blocking your day to allocate specific time slots for different types of tasks.",
	"Consider using the 2-minute rule: If a task takes less than 2 minutes, do it immediately.",
}

// CategoryCount is the number of live tasks in one category.
type CategoryCount struct {
	Category string
	Count    int
}

// Recommendation is an informational insight. Unlike a suggestion it has no
// payload and is recomputed on demand rather than stored.
type Recommendation struct {
	Title       string
	Description string
}

// Insights is a read-only summary of the organizer's contents.
type Insights struct {
	Completed int
	Pending   int
	// Categories is ordered by count, most used first.
	Categories []CategoryCount

	GroceriesUsed    int
	GroceriesExpired int
	ActiveDays       int
	// Score is a 0..100 productivity score.
	Score int

	// BestWeekday is only meaningful when HasBestWeekday is set.
	BestWeekday    time.Weekday
	HasBestWeekday bool

	Recommendations []Recommendation
}

// ComputeInsights summarizes the store at now.
func ComputeInsights(s *store.Store, now time.Time) Insights {
	var in Insights
	counts := map[string]int{}
	for _, t := range s.Tasks {
		if t.Completed {
			in.Completed++
		} else {
			in.Pending++
		}
		category := t.Category
		if category == "" {
			category = "Other"
		}
		counts[category]++
	}
	for c, n := range counts {
		in.Categories = append(in.Categories, CategoryCount{Category: c, Count: n})
	}
	slices.SortFunc(in.Categories, func(a, b CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	for _, g := range s.Groceries {
		switch {
		case g.InStock && g.Expiry != nil && g.Expiry.Before(now):
			in.GroceriesExpired++
		case !g.InStock:
			in.GroceriesUsed++
		}
	}

	in.ActiveDays = activeDays(s)
	in.Score = productivityScore(in, len(s.Groceries))
	in.BestWeekday, in.HasBestWeekday = bestWeekday(s)
	in.Recommendations = recommend(s, in, now)
	return in
}

// productivityScore weighs completion rate (50), category spread (15),
// grocery freshness (20) and usage over the last month (15).
func productivityScore(in Insights, groceries int) int {
	total := in.Completed + in.Pending
	if total == 0 {
		return 0
	}
	score := int(math.Round(float64(in.Completed) / float64(total) * 50))
	score += min(len(in.Categories)*3, 15)
	if groceries > 0 {
		score += int(math.Round((1 - float64(in.GroceriesExpired)/float64(groceries)) * 20))
	}
	days := min(max(in.ActiveDays, 1), maxActiveDays)
	score += int(math.Round(float64(days) / maxActiveDays * 15))
	return min(max(score, 0), 100)
}

// activeDays counts the distinct calendar days on which a task was created or completed.
func activeDays(s *store.Store) int {
	days := map[time.Time]bool{}
	for _, t := range s.Tasks {
		days[startOfDay(t.CreatedAt)] = true
	}
	for _, t := range s.History() {
		days[startOfDay(t.CreatedAt)] = true
		if t.CompletedAt != nil {
			days[startOfDay(*t.CompletedAt)] = true
		}
	}
	delete(days, time.Time{})
	return len(days)
}

// bestWeekday needs a handful of completions; on a tie the earlier weekday wins.
func bestWeekday(s *store.Store) (time.Weekday, bool) {
	var byDay [7]int
	n := 0
	for _, t := range s.History() {
		if t.CompletedAt == nil {
			continue
		}
		byDay[t.CompletedAt.Weekday()]++
		n++
	}
	if n < minCompletionsForWeekday {
		return time.Sunday, false
	}
	best := time.Sunday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if byDay[d] > byDay[best] {
			best = d
		}
	}
	return best, true
}

func recommend(s *store.Store, in Insights, now time.Time) []Recommendation {
	var out []Recommendation
	if in.HasBestWeekday {
		out = append(out, Recommendation{
			Title: "Productivity Patterns",
			Description: fmt.Sprintf("You're most productive on %s. Consider scheduling important tasks for this day.",
				in.BestWeekday),
		})
	}

	overdue, undated := 0, 0
	for _, t := range s.Tasks {
		if IsOverdue(t, now) {
			overdue++
		}
		if !t.Completed && t.Due == nil {
			undated++
		}
	}
	if overdue > 0 {
		out = append(out, Recommendation{
			Title: "Overdue Tasks",
			Description: fmt.Sprintf("You have %d overdue task%s. Consider rescheduling or completing them soon.",
				overdue, plural(overdue)),
		})
	}

	if n := len(in.Categories); n > 1 {
		top := in.Categories[0]
		rare := in.Categories[n-1]
		if rare.Count*3 < top.Count {
			out = append(out, Recommendation{
				Title: "Balance Your Tasks",
				Description: fmt.Sprintf("Most of your tasks are in the %q category. Consider adding more tasks to other categories like %q for better work-life balance.",
					top.Category, rare.Category),
			})
		}
	}

	if day, n, ok := busiestDay(s); ok {
		out = append(out, Recommendation{
			Title: "Productivity Insight",
			Description: fmt.Sprintf("Your most productive day was %s with %d completed task%s. Try to identify what made that day successful and replicate those conditions.",
				day.Format("Jan 2, 2006"), n, plural(n)),
		})
	}

	if undated >= minUndatedForReminder {
		out = append(out, Recommendation{
			Title: "Schedule Your Tasks",
			Description: fmt.Sprintf("You have %d tasks without due dates. Setting deadlines can help you stay organized and prioritize better.",
				undated),
		})
	}

	expiring := 0
	for _, g := range s.Groceries {
		if !g.InStock || g.Expiry == nil {
			continue
		}
		if d := daysUntil(*g.Expiry, now); d >= 0 && d <= insightExpiringDays {
			expiring++
		}
	}
	if expiring > 0 {
		out = append(out, Recommendation{
			Title: "Grocery Waste Prevention",
			Description: fmt.Sprintf("You have %d grocery item%s expiring soon. Check your inventory to reduce food waste.",
				expiring, plural(expiring)),
		})
	}

	out = append(out, Recommendation{
		Title:       "Productivity Tip",
		Description: productivityTips[now.YearDay()%len(productivityTips)],
	})
	return out
}

// busiestDay returns the calendar day with the most completions; ties go to the earliest day.
func busiestDay(s *store.Store) (time.Time, int, bool) {
	counts := map[time.Time]int{}
	for _, t := range s.History() {
		if t.CompletedAt != nil {
			counts[startOfDay(*t.CompletedAt)]++
		}
	}
	var best time.Time
	top := 0
	for day, n := range counts {
		if n > top || (n == top && day.Before(best)) {
			best, top = day, n
		}
	}
	return best, top, top > 0
}
