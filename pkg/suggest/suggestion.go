package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Action is a named button offered next to a suggestion.
type Action struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Suggestion is a proposed change pending accept or dismiss.
type Suggestion struct {
	ID          string
	Type        Type
	Target      Target
	Title       string
	Description string
	Payload     Payload
	Actions     []Action
	CreatedAt   time.Time

	// Inert is set when the stored payload could not be decoded. Inert
	// suggestions can be dismissed but never accepted.
	Inert   bool
	rawData json.RawMessage
}

// New builds a suggestion, checking that the payload is valid and belongs to the type.
func New(t Type, title, description string, payload Payload, now time.Time) (Suggestion, error) {
	if payload == nil {
		return Suggestion{}, fmt.Errorf("%s suggestion: nil payload", t)
	}
	if !payload.accepts(t) {
		return Suggestion{}, fmt.Errorf("%s suggestion: payload %T not allowed", t, payload)
	}
	if err := payload.Validate(); err != nil {
		return Suggestion{}, fmt.Errorf("%s suggestion: %w", t, err)
	}
	return Suggestion{
		ID:          uuid.NewString(),
		Type:        t,
		Target:      payload.Target(),
		Title:       title,
		Description: description,
		Payload:     payload,
		CreatedAt:   now,
	}, nil
}

// MustNew is New for payloads the caller has built itself and knows to be valid.
func MustNew(t Type, title, description string, payload Payload, now time.Time) Suggestion {
	s, err := New(t, title, description, payload, now)
	if err != nil {
		panic(err)
	}
	return s
}

// WithActions returns a copy of s carrying the given actions.
func (s Suggestion) WithActions(actions ...Action) Suggestion {
	s.Actions = append([]Action(nil), actions...)
	return s
}

type wireSuggestion struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	TaskID      int64           `json:"taskId,omitempty"`
	GroceryID   string          `json:"groceryId,omitempty"`
	GroceryName string          `json:"groceryName,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data,omitempty"`
	Actions     []Action        `json:"actions,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (s Suggestion) MarshalJSON() ([]byte, error) {
	w := wireSuggestion{
		ID:          s.ID,
		Type:        s.Type,
		Title:       s.Title,
		Description: s.Description,
		Actions:     s.Actions,
		CreatedAt:   s.CreatedAt,
	}
	switch s.Target.Kind {
	case KindGroceryID:
		w.GroceryID = s.Target.GroceryID
	case KindGroceryName:
		w.GroceryName = s.Target.GroceryName
	default:
		w.TaskID = s.Target.TaskID
	}
	if s.Payload != nil {
		data, err := json.Marshal(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", s.Type, err)
		}
		w.Data = data
	} else {
		w.Data = s.rawData
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a stored suggestion. A payload that does not decode
// is logged and leaves the suggestion inert rather than failing the whole load.
func (s *Suggestion) UnmarshalJSON(b []byte) error {
	var w wireSuggestion
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return errors.New("suggestion without id")
	}
	*s = Suggestion{
		ID:          w.ID,
		Type:        w.Type,
		Title:       w.Title,
		Description: w.Description,
		Actions:     w.Actions,
		CreatedAt:   w.CreatedAt,
	}
	switch w.Type.TargetKind() {
	case KindGroceryID:
		s.Target = GroceryTarget(w.GroceryID)
	case KindGroceryName:
		s.Target = GroceryNameTarget(w.GroceryName)
	default:
		s.Target = TaskTarget(w.TaskID)
	}

	p, err := decodePayload(w.Type, w.Data)
	if err != nil {
		log.Printf("Warning: suggestion %s (%s) has malformed data, marking inert: %v", w.ID, w.Type, err)
		s.Inert = true
		s.rawData = w.Data
		return nil
	}
	if p.Target() != s.Target {
		log.Printf("Warning: suggestion %s (%s) target disagrees with its data, using data", w.ID, w.Type)
		s.Target = p.Target()
	}
	s.Payload = p
	return nil
}
