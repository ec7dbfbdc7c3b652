package store

import (
	"time"

	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

const DefaultTheme = "light"

// AppState is the persisted document. Its top-level keys are the contract
// shared by every persistence layer and the remote mirror.
type AppState struct {
	Tasks                      []model.Task                   `json:"tasks"`
	Groceries                  []model.GroceryItem            `json:"groceries"`
	Projects                   []model.Project                `json:"projects"`
	Passwords                  []model.Password               `json:"passwords"`
	TaskPatterns               map[string][]time.Time         `json:"taskPatterns"`
	TaskDurations              map[int64]int                  `json:"taskDurations"`
	Suggestions                []suggest.Suggestion           `json:"suggestions"`
	DismissedSuggestions       suggest.DismissalMemory        `json:"dismissedSuggestions"`
	GroceryPurchasePatterns    map[string][]model.Observation `json:"groceryPurchasePatterns"`
	GroceryShoppingListHistory map[string][]model.Observation `json:"groceryShoppingListHistory"`
	GroceryAIPreferences       Preferences                    `json:"groceryAiPreferences"`
	GroceryAIActions           []suggest.ActionRecord         `json:"groceryAiActions,omitempty"`
	TaskArchive                []model.Task                   `json:"taskArchive,omitempty"`
	GroceryArchive             []model.GroceryItem            `json:"groceryArchive,omitempty"`
	Theme                      string                         `json:"theme"`
}

// NewAppState returns an empty document with every collection initialized.
func NewAppState() *AppState {
	s := &AppState{}
	s.Normalize()
	return s
}

// Normalize fills nil collections and defaults so callers never see a
// partially-populated document.
func (s *AppState) Normalize() {
	if s.Tasks == nil {
		s.Tasks = []model.Task{}
	}
	if s.Groceries == nil {
		s.Groceries = []model.GroceryItem{}
	}
	if s.Projects == nil {
		s.Projects = []model.Project{}
	}
	if s.Passwords == nil {
		s.Passwords = []model.Password{}
	}
	if s.TaskPatterns == nil {
		s.TaskPatterns = map[string][]time.Time{}
	}
	if s.TaskDurations == nil {
		s.TaskDurations = map[int64]int{}
	}
	if s.Suggestions == nil {
		s.Suggestions = []suggest.Suggestion{}
	}
	if s.DismissedSuggestions == nil {
		s.DismissedSuggestions = suggest.DismissalMemory{}
	}
	if s.GroceryPurchasePatterns == nil {
		s.GroceryPurchasePatterns = map[string][]model.Observation{}
	}
	if s.GroceryShoppingListHistory == nil {
		s.GroceryShoppingListHistory = map[string][]model.Observation{}
	}
	if s.Theme == "" {
		s.Theme = DefaultTheme
	}
}

// Preferences are the adaptive grocery thresholds. Zero values mean "use the default".
type Preferences struct {
	ExpiryLookaheadDays int     `json:"expiryThresholdDays,omitempty"`
	RepurchaseRatio     float64 `json:"repurchaseThreshold,omitempty"`
}

const (
	DefaultExpiryLookaheadDays = 5
	DefaultRepurchaseRatio     = 0.8
)

func (p Preferences) Lookahead() int {
	if p.ExpiryLookaheadDays <= 0 {
		return DefaultExpiryLookaheadDays
	}
	return p.ExpiryLookaheadDays
}

func (p Preferences) Ratio() float64 {
	if p.RepurchaseRatio <= 0 {
		return DefaultRepurchaseRatio
	}
	return p.RepurchaseRatio
}
