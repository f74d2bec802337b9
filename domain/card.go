package domain

import "github.com/google/uuid"

// Buttons describes the action affordances rendered on a card.
type Buttons struct {
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Card is the renderable form of a task: the task itself plus its action
// affordances and move capability.
type Card struct {
	Task
	Buttons   Buttons `json:"buttons"`
	Draggable bool    `json:"draggable"`
}

// NewCard mints a task with a fresh id and wraps it as a card. The update
// affordance is settled separately by ApplyButtonPolicy once the card's
// column is known.
func NewCard(title, description string) Card {
	return CardFromTask(Task{ID: uuid.NewString(), Title: title, Description: description})
}

// CardFromTask wraps an existing task in its renderable form. Delete is
// always offered and every card is move-capable.
func CardFromTask(t Task) Card {
	return Card{Task: t, Buttons: Buttons{Delete: true}, Draggable: true}
}
