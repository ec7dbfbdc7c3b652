package assist

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/store"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

// ShoppingPatternRatio is the fixed multiplier for list-add cadence; it does not adapt.
const ShoppingPatternRatio = 1.2

const (
	minPatternObservations = 3
	longTimeOnListDays     = 14

	// Items this close to expiry are already flagged by the inventory view.
	expiringFloorDays = 3
)

// Cadence is the learned rhythm of a named item.
type Cadence struct {
	AvgDays   int
	DaysSince int
	// Quantity is the most frequent observed quantity; on a tie the value
	// that first reached the top count wins.
	Quantity float64
}

// LearnCadence computes the mean gap (rounded to whole days) between
// observations and the whole days elapsed since the latest one.
func LearnCadence(obs []model.Observation, now time.Time) (Cadence, bool) {
	if len(obs) < minPatternObservations {
		return Cadence{}, false
	}
	times := make([]time.Time, len(obs))
	for i, o := range obs {
		times[i] = o.At
	}
	slices.SortFunc(times, func(a, b time.Time) int { return a.Compare(b) })

	var totalDays float64
	for i := 1; i < len(times); i++ {
		totalDays += times[i].Sub(times[i-1]).Hours() / 24
	}
	c := Cadence{
		AvgDays:   int(math.Round(totalDays / float64(len(times)-1))),
		DaysSince: daysSince(times[len(times)-1], now),
		Quantity:  1,
	}

	counts := make(map[float64]int)
	best := 0
	for _, o := range obs {
		counts[o.Quantity]++
		if counts[o.Quantity] > best {
			best = counts[o.Quantity]
			c.Quantity = o.Quantity
		}
	}
	if c.Quantity <= 0 {
		c.Quantity = 1
	}
	return c, true
}

// Due reports whether the item is due again given the trigger ratio. A
// cadence of zero days (everything bought at once) never triggers.
func (c Cadence) Due(ratio float64) bool {
	return c.AvgDays > 0 && float64(c.DaysSince) >= float64(c.AvgDays)*ratio
}

// groceryIndex tracks which names are present at all (in stock or on the
// list, since every item is one or the other) and which are on the list.
type groceryIndex struct {
	present map[string]bool
	listed  map[string]bool
}

func indexGroceries(items []model.GroceryItem) groceryIndex {
	idx := groceryIndex{present: map[string]bool{}, listed: map[string]bool{}}
	for _, g := range items {
		key := model.NameKey(g.Name)
		idx.present[key] = true
		if g.OnShoppingList() {
			idx.listed[key] = true
		}
	}
	return idx
}

func sortedNames(m map[string][]model.Observation) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// AnalyzeGroceryPatterns proposes repurchases from purchase history (using the
// adaptive ratio) and list re-adds from shopping-list history (fixed ratio).
func AnalyzeGroceryPatterns(s *store.Store, now time.Time) []suggest.Suggestion {
	var out []suggest.Suggestion
	idx := indexGroceries(s.Groceries)
	ratio := s.Preferences.Ratio()

	for _, name := range sortedNames(s.PurchasePatterns) {
		if idx.present[model.NameKey(name)] {
			continue
		}
		target := suggest.GroceryNameTarget(name)
		if s.Ledger.IsDismissed(target, suggest.TypeGroceryRepurchase) {
			continue
		}
		c, ok := LearnCadence(s.PurchasePatterns[name], now)
		if !ok || !c.Due(ratio) {
			continue
		}
		out = append(out, suggest.MustNew(suggest.TypeGroceryRepurchase,
			"Add to Shopping List",
			fmt.Sprintf("You usually buy %s (%s) every %d days. It's been %d days since your last purchase.",
				name, formatQuantity(c.Quantity), c.AvgDays, c.DaysSince),
			suggest.GroceryNamePayload{Name: name, Quantity: c.Quantity, Action: suggest.GroceryAddToList},
			now))
	}

	for _, name := range sortedNames(s.ListHistory) {
		if idx.listed[model.NameKey(name)] {
			continue
		}
		target := suggest.GroceryNameTarget(name)
		if s.Ledger.IsDismissed(target, suggest.TypeGroceryShoppingPattern) {
			continue
		}
		c, ok := LearnCadence(s.ListHistory[name], now)
		if !ok || !c.Due(ShoppingPatternRatio) {
			continue
		}
		out = append(out, suggest.MustNew(suggest.TypeGroceryShoppingPattern,
			"Add to Shopping List",
			fmt.Sprintf("You typically add %s to your shopping list every %d days. It's been %d days since you last added it.",
				name, c.AvgDays, c.DaysSince),
			suggest.GroceryNamePayload{Name: name, Quantity: c.Quantity, Action: suggest.GroceryAddToList},
			now))
	}
	return out
}

// AnalyzeExpiring flags in-stock items expiring within the look-ahead (but
// beyond the three days the inventory view already highlights) and items
// that have already expired. A look-ahead tightened to the floor or below
// flags everything up to it.
func AnalyzeExpiring(s *store.Store, now time.Time) []suggest.Suggestion {
	var out []suggest.Suggestion
	lookahead := s.Preferences.Lookahead()
	floor := expiringFloorDays
	if lookahead <= floor {
		floor = 0
	}
	for _, g := range s.Groceries {
		if !g.InStock || g.Expiry == nil {
			continue
		}
		target := suggest.GroceryTarget(g.ID)
		days := daysUntil(*g.Expiry, now)
		switch {
		case days > floor && days <= lookahead:
			if s.Ledger.IsDismissed(target, suggest.TypeGroceryExpiring) {
				continue
			}
			out = append(out, suggest.MustNew(suggest.TypeGroceryExpiring,
				"Use Soon or Freeze",
				fmt.Sprintf("%s will expire in %d day%s. Consider using it soon or freezing it to avoid waste.", g.Name, days, plural(days)),
				suggest.GroceryItemPayload{GroceryID: g.ID, Action: suggest.GroceryUseSoon},
				now))
		case days < 0:
			if s.Ledger.IsDismissed(target, suggest.TypeGroceryExpired) {
				continue
			}
			ago := -days
			out = append(out, suggest.MustNew(suggest.TypeGroceryExpired,
				"Remove Expired Item",
				fmt.Sprintf("%s expired %d day%s ago. Consider removing it from your inventory.", g.Name, ago, plural(ago)),
				suggest.GroceryItemPayload{GroceryID: g.ID, Action: suggest.GroceryRemove},
				now))
		}
	}
	return out
}

// AnalyzeShoppingList flags items that have sat on the shopping list for more than two weeks.
func AnalyzeShoppingList(s *store.Store, now time.Time) []suggest.Suggestion {
	var out []suggest.Suggestion
	for _, g := range s.Groceries {
		if !g.OnShoppingList() || g.ListAddedAt == nil {
			continue
		}
		if daysSince(*g.ListAddedAt, now) <= longTimeOnListDays {
			continue
		}
		if s.Ledger.IsDismissed(suggest.GroceryTarget(g.ID), suggest.TypeGroceryLongTime) {
			continue
		}
		out = append(out, suggest.MustNew(suggest.TypeGroceryLongTime,
			"Shopping List Review",
			fmt.Sprintf("%s has been on your shopping list for a while. Do you still need it?", g.Name),
			suggest.GroceryItemPayload{GroceryID: g.ID, Action: suggest.GroceryRemoveFromList},
			now))
	}
	return out
}
