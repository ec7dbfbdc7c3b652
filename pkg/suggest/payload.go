package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
)

// Payload is the type-specific data an acceptance handler needs. Each
// variant lists the suggestion types it may be attached to.
type Payload interface {
	Target() Target
	Validate() error
	accepts(Type) bool
}

// SchedulePayload proposes a due date for a task. It backs schedule, overlap
// and overdue suggestions. A schedule prototype may carry no Due, in which case
// the handler picks a default.
type SchedulePayload struct {
	TaskID  int64      `json:"taskId"`
	Due     *time.Time `json:"dueDate,omitempty"`
	HasTime bool       `json:"hasTime"`
}

func (p SchedulePayload) Target() Target { return TaskTarget(p.TaskID) }

func (p SchedulePayload) Validate() error {
	if p.TaskID == 0 {
		return errors.New("schedule payload: missing task id")
	}
	return nil
}

func (p SchedulePayload) accepts(t Type) bool {
	return t == TypeSchedule || t == TypeOverlap || t == TypeOverdue
}

type RecurringPayload struct {
	TaskID int64        `json:"taskId"`
	Repeat model.Repeat `json:"repeat"`
}

func (p RecurringPayload) Target() Target { return TaskTarget(p.TaskID) }

func (p RecurringPayload) Validate() error {
	if p.TaskID == 0 {
		return errors.New("recurring payload: missing task id")
	}
	switch p.Repeat {
	case model.RepeatDaily, model.RepeatWeekly, model.RepeatMonthly:
		return nil
	}
	return fmt.Errorf("recurring payload: invalid repeat %q", p.Repeat)
}

func (p RecurringPayload) accepts(t Type) bool { return t == TypeRecurring }

const (
	CompletionView     = "view"
	CompletionComplete = "completeTask"
)

type CompletionPayload struct {
	TaskID int64  `json:"taskId"`
	Action string `json:"action"`
}

func (p CompletionPayload) Target() Target { return TaskTarget(p.TaskID) }

func (p CompletionPayload) Validate() error {
	if p.TaskID == 0 {
		return errors.New("completion payload: missing task id")
	}
	if p.Action != CompletionView && p.Action != CompletionComplete {
		return fmt.Errorf("completion payload: invalid action %q", p.Action)
	}
	return nil
}

func (p CompletionPayload) accepts(t Type) bool { return t == TypeCompletion }

const (
	GroceryUseSoon        = "use-soon"
	GroceryRemove         = "remove"
	GroceryRemoveFromList = "remove-from-list"
	GroceryAddToList      = "add-to-list"
)

// GroceryItemPayload refers to a concrete grocery item by id.
type GroceryItemPayload struct {
	GroceryID string `json:"groceryId"`
	Action    string `json:"action"`
}

func (p GroceryItemPayload) Target() Target { return GroceryTarget(p.GroceryID) }

func (p GroceryItemPayload) Validate() error {
	if p.GroceryID == "" {
		return errors.New("grocery payload: missing grocery id")
	}
	switch p.Action {
	case GroceryUseSoon, GroceryRemove, GroceryRemoveFromList:
		return nil
	}
	return fmt.Errorf("grocery payload: invalid action %q", p.Action)
}

func (p GroceryItemPayload) accepts(t Type) bool {
	return t == TypeGroceryExpiring || t == TypeGroceryExpired || t == TypeGroceryLongTime
}

// GroceryNamePayload refers to a learned pattern by item name.
type GroceryNamePayload struct {
	Name     string  `json:"groceryName"`
	Quantity float64 `json:"quantity,omitempty"`
	Action   string  `json:"action"`
}

func (p GroceryNamePayload) Target() Target { return GroceryNameTarget(p.Name) }

func (p GroceryNamePayload) Validate() error {
	if p.Name == "" {
		return errors.New("grocery pattern payload: missing item name")
	}
	if p.Action != GroceryAddToList {
		return fmt.Errorf("grocery pattern payload: invalid action %q", p.Action)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("grocery pattern payload: negative quantity %v", p.Quantity)
	}
	return nil
}

func (p GroceryNamePayload) accepts(t Type) bool {
	return t == TypeGroceryRepurchase || t == TypeGroceryShoppingPattern
}

func decodePayload(t Type, data json.RawMessage) (Payload, error) {
	if len(data) == 0 {
		return nil, errors.New("missing data")
	}
	var p Payload
	var err error
	switch t {
	case TypeSchedule, TypeOverlap, TypeOverdue:
		var v SchedulePayload
		err = json.Unmarshal(data, &v)
		p = v
	case TypeRecurring:
		var v RecurringPayload
		err = json.Unmarshal(data, &v)
		p = v
	case TypeCompletion:
		var v CompletionPayload
		err = json.Unmarshal(data, &v)
		p = v
	case TypeGroceryExpiring, TypeGroceryExpired, TypeGroceryLongTime:
		var v GroceryItemPayload
		err = json.Unmarshal(data, &v)
		p = v
	case TypeGroceryRepurchase, TypeGroceryShoppingPattern:
		var v GroceryNamePayload
		err = json.Unmarshal(data, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown suggestion type %q", t)
	}
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
