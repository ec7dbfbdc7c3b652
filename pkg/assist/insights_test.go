package assist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
)

func titles(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func insightsState() *store.AppState {
	lastMonday := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	done := func(id int64, at time.Time) model.Task {
		return model.Task{ID: id, Title: "Weekly report", Category: model.CategoryWork,
			CreatedAt: lastMonday, Completed: true, CompletedAt: ptr(at)}
	}
	pending := func(id int64, category string) model.Task {
		return model.Task{ID: id, Title: "Follow up", Category: category, CreatedAt: lastMonday}
	}

	st := store.NewAppState()
	st.Tasks = []model.Task{
		done(1, lastMonday.Add(time.Hour)),
		done(2, lastMonday.Add(5*time.Hour)),
		done(3, lastMonday.AddDate(0, 0, 1)),
		{ID: 4, Title: "Renew passport", Category: model.CategoryWork, CreatedAt: lastMonday,
			Due: ptr(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC))},
		pending(5, model.CategoryWork),
		pending(6, model.CategoryWork),
		pending(7, model.CategoryWork),
		pending(8, model.CategoryHealth),
	}
	st.TaskArchive = []model.Task{
		done(90, lastMonday.AddDate(0, 0, -7)),
		done(91, lastMonday.Add(8*time.Hour)),
	}
	st.TaskArchive[0].CreatedAt = lastMonday.AddDate(0, 0, -7)
	st.Groceries = []model.GroceryItem{
		{ID: "milk", Name: "Milk", InStock: true, Expiry: ptr(daysAgo(monday, 1))},
		{ID: "bread", Name: "Bread"},
		{ID: "eggs", Name: "Eggs", InStock: true, Expiry: ptr(monday.AddDate(0, 0, 2))},
		{ID: "rice", Name: "Rice", InStock: true},
	}
	return st
}

func TestComputeInsightsSummary(t *testing.T) {
	s, _ := newStore(t, monday, insightsState())
	in := ComputeInsights(s, monday)

	assert.Equal(t, 3, in.Completed)
	assert.Equal(t, 5, in.Pending)
	assert.Equal(t, []CategoryCount{{model.CategoryWork, 7}, {model.CategoryHealth, 1}}, in.Categories)
	assert.Equal(t, 1, in.GroceriesUsed)
	assert.Equal(t, 1, in.GroceriesExpired)
	assert.Equal(t, 3, in.ActiveDays)
	require.True(t, in.HasBestWeekday)
	assert.Equal(t, time.Monday, in.BestWeekday)

	// 19 for completion, 6 for two categories, 15 for groceries, 2 for three active days.
	assert.Equal(t, 42, in.Score)
}

func TestComputeInsightsRecommendations(t *testing.T) {
	s, _ := newStore(t, monday, insightsState())
	recs := ComputeInsights(s, monday).Recommendations

	assert.Equal(t, []string{
		"Productivity Patterns",
		"Overdue Tasks",
		"Balance Your Tasks",
		"Productivity Insight",
		"Schedule Your Tasks",
		"Grocery Waste Prevention",
		"Productivity Tip",
	}, titles(recs))
	assert.Equal(t, "You're most productive on Monday. Consider scheduling important tasks for this day.", recs[0].Description)
	assert.Equal(t, "You have 1 overdue task. Consider rescheduling or completing them soon.", recs[1].Description)
	assert.Contains(t, recs[2].Description, `"Work" category`)
	assert.Contains(t, recs[2].Description, `like "Health"`)
	assert.Contains(t, recs[3].Description, "Jan 8, 2024 with 3 completed tasks")
	assert.Contains(t, recs[4].Description, "You have 4 tasks without due dates")
	assert.Contains(t, recs[5].Description, "1 grocery item expiring soon")
	assert.Equal(t, productivityTips[monday.YearDay()%len(productivityTips)], recs[6].Description)
}

func TestComputeInsightsEmptyStore(t *testing.T) {
	s, _ := newStore(t, monday, nil)
	in := ComputeInsights(s, monday)

	assert.Zero(t, in.Score)
	assert.Empty(t, in.Categories)
	assert.False(t, in.HasBestWeekday)
	assert.Equal(t, []string{"Productivity Tip"}, titles(in.Recommendations))
}

func TestProductivityScoreIsBounded(t *testing.T) {
	in := Insights{Completed: 10, Categories: make([]CategoryCount, 9), ActiveDays: 400}
	assert.Equal(t, 100, productivityScore(in, 1))

	in = Insights{Pending: 4, GroceriesExpired: 2, ActiveDays: 0}
	// Only the one-day usage minimum scores.
	assert.Equal(t, 1, productivityScore(in, 2))
}
