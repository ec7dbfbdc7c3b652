package suggest

import (
	"strconv"
	"strings"

	"github.com/harrisonrobin/organizer/pkg/model"
)

// Type tags a suggestion with the analyzer that produced it.
type Type string

const (
	TypeSchedule               Type = "schedule"
	TypeOverlap                Type = "overlap"
	TypeRecurring              Type = "recurring"
	TypeOverdue                Type = "overdue"
	TypeCompletion             Type = "completion"
	TypeGroceryExpiring        Type = "grocery-expiring"
	TypeGroceryExpired         Type = "grocery-expired"
	TypeGroceryRepurchase      Type = "grocery-repurchase"
	TypeGroceryLongTime        Type = "grocery-long-time"
	TypeGroceryShoppingPattern Type = "grocery-shopping-pattern"
)

// IsGrocery reports whether the type belongs to the grocery audience.
func (t Type) IsGrocery() bool {
	return strings.HasPrefix(string(t), "grocery-")
}

// TargetKind is what a suggestion's target reference points at.
type TargetKind int

const (
	KindTask TargetKind = iota
	KindGroceryID
	KindGroceryName
)

func (t Type) TargetKind() TargetKind {
	switch t {
	case TypeGroceryExpiring, TypeGroceryExpired, TypeGroceryLongTime:
		return KindGroceryID
	case TypeGroceryRepurchase, TypeGroceryShoppingPattern:
		return KindGroceryName
	default:
		return KindTask
	}
}

// Target identifies the entity a suggestion is about.
type Target struct {
	Kind        TargetKind
	TaskID      int64
	GroceryID   string
	GroceryName string
}

func TaskTarget(id int64) Target { return Target{Kind: KindTask, TaskID: id} }
func GroceryTarget(id string) Target { return Target{Kind: KindGroceryID, GroceryID: id} }
func GroceryNameTarget(name string) Target { return Target{Kind: KindGroceryName, GroceryName: name} }

// Key is the dismissal-memory key for the target: the task id, "grocery-<id>"
// for a concrete grocery item, or "grocery-pattern-<name>" for a learned pattern.
func (t Target) Key() string {
	switch t.Kind {
	case KindGroceryID:
		return "grocery-" + t.GroceryID
	case KindGroceryName:
		return "grocery-pattern-" + model.NameKey(t.GroceryName)
	default:
		return strconv.FormatInt(t.TaskID, 10)
	}
}
