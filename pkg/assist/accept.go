package assist

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

const (
	defaultScheduleHour = 9
	useBeforeExpiryDays = 2
)

// apply performs the change a suggestion proposes. action overrides the
// payload's default action for suggestions that offer a choice.
func (e *Engine) apply(sg suggest.Suggestion, action string) (string, error) {
	s := e.store
	now := s.Now()

	switch p := sg.Payload.(type) {
	case suggest.SchedulePayload:
		due, hasTime := p.Due, p.HasTime
		if due == nil {
			y, m, d := now.Date()
			t := time.Date(y, m, d+1, defaultScheduleHour, 0, 0, 0, now.Location())
			due, hasTime = &t, true
		}
		if err := s.SetDue(p.TaskID, due, hasTime); err != nil {
			return "", err
		}
		return "Task scheduled for " + formatDateTime(*due, now), nil

	case suggest.RecurringPayload:
		if err := s.SetRepeat(p.TaskID, p.Repeat); err != nil {
			return "", err
		}
		return fmt.Sprintf("Task set to repeat %s", p.Repeat), nil

	case suggest.CompletionPayload:
		if action == "" {
			action = p.Action
		}
		t, ok := s.Task(p.TaskID)
		if !ok {
			return "", fmt.Errorf("task %d: %w", p.TaskID, store.ErrTaskNotFound)
		}
		if action != suggest.CompletionComplete {
			return fmt.Sprintf("Next up: %q", t.Title), nil
		}
		done, changed, err := s.CompleteTask(p.TaskID)
		if err != nil {
			return "", err
		}
		if changed {
			e.afterCompletion(done)
		}
		return "Task completed!", nil

	case suggest.GroceryItemPayload:
		return applyGroceryItem(s, p, now)

	case suggest.GroceryNamePayload:
		s.AddListItem(p.Name, p.Quantity, "")
		return fmt.Sprintf("%s added to shopping list!", p.Name), nil
	}
	return "", fmt.Errorf("no handler for %s suggestion", sg.Type)
}

func applyGroceryItem(s *store.Store, p suggest.GroceryItemPayload, now time.Time) (string, error) {
	item, ok := s.Grocery(p.GroceryID)
	if !ok {
		return "", fmt.Errorf("grocery %s: %w", p.GroceryID, store.ErrGroceryNotFound)
	}
	name := item.Name

	switch p.Action {
	case suggest.GroceryUseSoon:
		due := now.Add(useBeforeExpiryDays * 24 * time.Hour)
		s.AddTask(model.Task{
			Title:    fmt.Sprintf("Use %s before it expires", name),
			Category: model.CategoryPersonal,
			Due:      &due,
			Repeat:   model.RepeatNever,
		})
		return "Task added to use item before expiry!", nil
	case suggest.GroceryRemove:
		if _, err := s.RemoveGrocery(p.GroceryID); err != nil {
			return "", err
		}
		return "Expired item removed!", nil
	case suggest.GroceryRemoveFromList:
		if err := s.RemoveFromList(p.GroceryID); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s removed from shopping list", name), nil
	}
	return "", fmt.Errorf("unknown grocery action %q", p.Action)
}
