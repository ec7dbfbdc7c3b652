package google

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"google.golang.org/api/calendar/v3"
)

// CalendarBusy serves calendar events as busy intervals. Busy answers from
// the last successful Refresh and never calls the API.
type CalendarBusy struct {
	srv        *calendar.Service
	calendarID string

	mu        sync.RWMutex
	intervals []model.Interval
}

// Busy returns cached intervals that intersect [from, to).
func (c *CalendarBusy) Busy(from, to time.Time) []model.Interval {
	window := model.Interval{Start: from, End: to}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []model.Interval
	for _, iv := range c.intervals {
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	return out
}

// ListEvents fetches single events (recurrences expanded) between from and to.
func (c *CalendarBusy) ListEvents(ctx context.Context, from, to time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	err := c.srv.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return items, nil
}

// Refresh replaces the cache with the events between from and to.
func (c *CalendarBusy) Refresh(ctx context.Context, from, to time.Time) error {
	events, err := c.ListEvents(ctx, from, to)
	if err != nil {
		return err
	}
	intervals := EventsToIntervals(events)

	c.mu.Lock()
	c.intervals = intervals
	c.mu.Unlock()
	return nil
}

// Start refreshes the cache now and then every interval, covering horizon
// from the current time, until ctx is done.
func (c *CalendarBusy) Start(ctx context.Context, interval, horizon time.Duration) {
	refresh := func() {
		now := time.Now()
		if err := c.Refresh(ctx, now, now.Add(horizon)); err != nil {
			log.Printf("Warning: calendar refresh failed: %v", err)
		}
	}
	refresh()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()
}

// EventsToIntervals converts timed, confirmed, opaque events into intervals.
// All-day events carry only a date and do not block time slots.
func EventsToIntervals(events []*calendar.Event) []model.Interval {
	var out []model.Interval
	for _, ev := range events {
		if ev == nil || ev.Status == "cancelled" || ev.Transparency == "transparent" {
			continue
		}
		if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			log.Printf("Warning: skipping event %q with bad start time: %v", ev.Summary, err)
			continue
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			log.Printf("Warning: skipping event %q with bad end time: %v", ev.Summary, err)
			continue
		}
		if !end.After(start) {
			continue
		}
		out = append(out, model.Interval{Start: start, End: end})
	}
	return out
}
