package assist

import "time"

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// formatDateTime renders t relative to now, e.g. "Today at 2:30 PM".
func formatDateTime(t, now time.Time) string {
	t = t.In(now.Location())
	var day string
	switch {
	case sameDay(t, now):
		day = "Today"
	case sameDay(t, now.AddDate(0, 0, 1)):
		day = "Tomorrow"
	default:
		day = t.Format("Jan 2")
	}
	return day + " at " + t.Format("3:04 PM")
}

// daysUntil rounds the distance to t up to whole days, so anything later today counts as 1.
func daysUntil(t, now time.Time) int {
	hours := t.Sub(now).Hours()
	d := int(hours / 24)
	if float64(d)*24 < hours {
		d++
	}
	return d
}

// daysSince floors the elapsed whole days from t to now.
func daysSince(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
