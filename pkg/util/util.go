package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPart = regexp.MustCompile(`(\d+)([DHMS])`)

// ParseDuration parses an ISO 8601 duration such as P1D, PT1H30M or P2DT3H.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}

	datePart, timePart, hasT := strings.Cut(s[1:], "T")
	if hasT && timePart == "" {
		return 0, fmt.Errorf("invalid ISO 8601 duration (empty time part): %s", s)
	}

	var total time.Duration
	for _, match := range durationPart.FindAllStringSubmatch(datePart, -1) {
		if match[2] != "D" {
			return 0, fmt.Errorf("invalid ISO 8601 duration (%s before T): %s", match[2], s)
		}
		value, _ := strconv.Atoi(match[1])
		total += time.Duration(value) * 24 * time.Hour
	}
	for _, match := range durationPart.FindAllStringSubmatch(timePart, -1) {
		value, _ := strconv.Atoi(match[1])
		switch match[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		default:
			return 0, fmt.Errorf("invalid ISO 8601 duration (D after T): %s", s)
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: %s", s)
	}
	return total, nil
}

var dueLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
}

// ParseDue reads a due date from the command line. It accepts "today",
// "tomorrow", a date, a date with time, or an ISO 8601 duration from now
// prefixed with "+" (e.g. +PT2H). It reports whether a clock time was given.
func ParseDue(s string, now time.Time) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	y, m, d := now.Date()
	switch strings.ToLower(s) {
	case "today":
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), false, nil
	case "tomorrow":
		return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()), false, nil
	}

	if rest, ok := strings.CutPrefix(s, "+"); ok {
		dur, err := ParseDuration(rest)
		if err != nil {
			return time.Time{}, false, err
		}
		return now.Add(dur), true, nil
	}

	for _, l := range dueLayouts {
		if t, err := time.ParseInLocation(l.layout, s, now.Location()); err == nil {
			return t, l.hasTime, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized due date %q", s)
}
