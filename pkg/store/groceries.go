package store

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

// AddGrocery stores a new item. New items are in stock unless the caller says otherwise.
func (s *Store) AddGrocery(item model.GroceryItem) model.GroceryItem {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Category == "" {
		item.Category = "Other"
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	s.Groceries = append(s.Groceries, item)
	return item
}

// MarkPurchased flags the item as in stock and off the list, recording a
// purchase observation for cadence learning.
func (s *Store) MarkPurchased(id string) error {
	g, ok := s.Grocery(id)
	if !ok {
		return groceryNotFound(id)
	}
	now := s.clock.Now()
	g.InStock = true
	g.OnList = false
	g.ListAddedAt = nil
	g.PurchasedAt = &now
	observe(s.PurchasePatterns, g.Name, model.Observation{At: now, Quantity: g.Quantity})
	return nil
}

// AddToShoppingList flags an existing item as needed, recording a list observation.
func (s *Store) AddToShoppingList(id string) error {
	g, ok := s.Grocery(id)
	if !ok {
		return groceryNotFound(id)
	}
	now := s.clock.Now()
	g.InStock = false
	g.OnList = true
	g.ListAddedAt = &now
	observe(s.ListHistory, g.Name, model.Observation{At: now, Quantity: g.Quantity})
	return nil
}

// AddListItem creates a new out-of-stock item directly on the shopping list.
func (s *Store) AddListItem(name string, quantity float64, unit string) model.GroceryItem {
	now := s.clock.Now()
	item := s.AddGrocery(model.GroceryItem{
		Name:        name,
		Quantity:    quantity,
		Unit:        unit,
		InStock:     false,
		OnList:      true,
		ListAddedAt: &now,
	})
	observe(s.ListHistory, name, model.Observation{At: now, Quantity: item.Quantity})
	return item
}

// RemoveGrocery deletes the item and every suggestion that targets it by id.
func (s *Store) RemoveGrocery(id string) (model.GroceryItem, error) {
	i := slices.IndexFunc(s.Groceries, func(g model.GroceryItem) bool { return g.ID == id })
	if i < 0 {
		return model.GroceryItem{}, groceryNotFound(id)
	}
	item := s.Groceries[i]
	s.Groceries = slices.Delete(s.Groceries, i, i+1)
	s.Ledger.RemoveTarget(suggest.GroceryTarget(id))
	return item, nil
}

// RemoveFromList takes an item off the shopping list. Items that were only on
// the list (never in stock) are removed entirely.
func (s *Store) RemoveFromList(id string) error {
	g, ok := s.Grocery(id)
	if !ok {
		return groceryNotFound(id)
	}
	if !g.InStock {
		_, err := s.RemoveGrocery(id)
		return err
	}
	g.OnList = false
	g.ListAddedAt = nil
	return nil
}

// ConsumeGrocery decrements the quantity on hand. Running out archives the
// item instead of leaving a zero or negative quantity; the return value
// reports whether that happened.
func (s *Store) ConsumeGrocery(id string, amount float64) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("consume %s: amount must be positive, got %v", id, amount)
	}
	g, ok := s.Grocery(id)
	if !ok {
		return false, groceryNotFound(id)
	}
	if g.Quantity-amount > 0 {
		g.Quantity -= amount
		return false, nil
	}
	item, err := s.RemoveGrocery(id)
	if err != nil {
		return false, err
	}
	now := s.clock.Now()
	item.Quantity = 0
	item.InStock = false
	item.ArchivedAt = &now
	s.GroceryArchive = append(s.GroceryArchive, item)
	return true, nil
}

// observe records o in the history for name. Spellings that differ only in
// case or surrounding space share the history of the first one recorded.
func observe(history map[string][]model.Observation, name string, o model.Observation) {
	key := historyKey(history, name)
	history[key] = appendCapped(history[key], o, maxObservations)
}

func historyKey(history map[string][]model.Observation, name string) string {
	if _, ok := history[name]; ok {
		return name
	}
	folded := model.NameKey(name)
	for k := range history {
		if model.NameKey(k) == folded {
			return k
		}
	}
	return strings.TrimSpace(name)
}

// foldHistories merges entries whose names fold to the same key, keeping the
// alphabetically first spelling and the newest observations.
func foldHistories(history map[string][]model.Observation) {
	names := slices.Sorted(maps.Keys(history))
	canonical := map[string]string{}
	for _, name := range names {
		folded := model.NameKey(name)
		keep, ok := canonical[folded]
		if !ok {
			canonical[folded] = name
			continue
		}
		merged := append(history[keep], history[name]...)
		slices.SortStableFunc(merged, func(a, b model.Observation) int { return a.At.Compare(b.At) })
		if len(merged) > maxObservations {
			merged = merged[len(merged)-maxObservations:]
		}
		history[keep] = merged
		delete(history, name)
	}
}
