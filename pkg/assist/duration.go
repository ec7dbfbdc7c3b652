package assist

import (
	"math"
	"strings"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
)

// DefaultDuration is used for any task with no stored estimate.
const DefaultDuration = 30

const (
	minSampleMinutes = 5
	maxSampleMinutes = 480
)

var baseDurations = map[string]float64{
	model.CategoryPersonal: 30,
	model.CategoryWork:     60,
	model.CategoryShopping: 45,
	model.CategoryHealth:   60,
	model.CategoryFinance:  30,
}

// Multiple matching keywords compound.
var durationKeywords = []struct {
	word   string
	factor float64
}{
	{"quick", 0.5},
	{"brief", 0.7},
	{"short", 0.7},
	{"small", 0.7},
	{"long", 1.5},
	{"big", 1.5},
	{"complex", 2},
	{"detailed", 1.5},
	{"meeting", 1.2},
	{"call", 1.2},
	{"review", 1.3},
	{"report", 1.5},
	{"presentation", 2},
	{"project", 2},
}

// EstimateDuration returns the expected minutes for task. With at least two
// recorded completions of the same title it averages completion minus creation
// over the matching history records, ignoring samples outside 5..480 minutes.
// Otherwise it uses the category base scaled by title keywords. The result is
// always at least 1.
func EstimateDuration(task model.Task, completions []time.Time, history []model.Task) int {
	if len(completions) >= 2 {
		var total float64
		var count int
		for _, done := range completions {
			for _, h := range history {
				if h.Title != task.Title || !h.Completed || h.CompletedAt == nil || !h.CompletedAt.Equal(done) {
					continue
				}
				minutes := done.Sub(h.CreatedAt).Minutes()
				if minutes >= minSampleMinutes && minutes <= maxSampleMinutes {
					total += minutes
					count++
				}
				break
			}
		}
		if count > 0 {
			return max(1, int(math.Round(total/float64(count))))
		}
	}

	base, ok := baseDurations[task.Category]
	if !ok {
		base = DefaultDuration
	}
	title := strings.ToLower(task.Title)
	multiplier := 1.0
	for _, k := range durationKeywords {
		if strings.Contains(title, k.word) {
			multiplier *= k.factor
		}
	}
	return max(1, int(math.Round(base*multiplier)))
}

// EstimateDurations stores an estimate for every incomplete task and returns
// how many were written.
func EstimateDurations(s *store.Store) int {
	history := s.History()
	n := 0
	for _, t := range s.Tasks {
		if t.Completed {
			continue
		}
		s.Durations[t.ID] = EstimateDuration(t, s.TaskPatterns[t.Title], history)
		n++
	}
	return n
}

func durationOf(durations map[int64]int, id int64) int {
	if d, ok := durations[id]; ok && d > 0 {
		return d
	}
	return DefaultDuration
}
