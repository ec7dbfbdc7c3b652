package model

import "time"

type GroceryItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category,omitempty"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit,omitempty"`
	Expiry      *time.Time `json:"expiryDate,omitempty"`
	InStock     bool       `json:"inStock"`
	OnList      bool       `json:"addedToList"`
	PurchasedAt *time.Time `json:"purchaseDate,omitempty"`
	ListAddedAt *time.Time `json:"addedToListDate,omitempty"`
	ArchivedAt  *time.Time `json:"archivedDate,omitempty"`
}

// OnShoppingList reports whether the item conceptually sits on the shopping list.
// An item that is out of stock is always on the list.
func (g *GroceryItem) OnShoppingList() bool {
	return g.OnList || !g.InStock
}

// Observation is one purchase or list-add event in an item's history.
type Observation struct {
	At       time.Time `json:"date"`
	Quantity float64   `json:"quantity,omitempty"`
}

type Milestone struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Date      *time.Time `json:"date,omitempty"`
}

type Project struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	Deadline   *time.Time  `json:"deadline,omitempty"`
	Progress   int         `json:"progress"`
	Milestones []Milestone `json:"milestones,omitempty"`
}

// Password holds an obfuscated credential. Value is never decoded by this module.
type Password struct {
	ID        int64     `json:"id"`
	Service   string    `json:"service"`
	Username  string    `json:"username"`
	Value     string    `json:"value"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
