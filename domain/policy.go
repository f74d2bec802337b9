package domain

// updatableColumns lists the columns holding not-yet-started work. Only
// their tasks show the update affordance; content editing anywhere else is
// blocked. The policy is column-derived, never task-derived.
var updatableColumns = map[string]struct{}{
	ColumnBacklog: {},
	ColumnTodo:    {},
}

// NeedsUpdateAffordance reports whether cards in the column offer editing.
func NeedsUpdateAffordance(columnID string) bool {
	_, ok := updatableColumns[columnID]
	return ok
}

// ApplyButtonPolicy sets the card's update affordance to match the column
// policy. It is idempotent: calling it repeatedly has no further effect.
func ApplyButtonPolicy(c *Card, columnID string) {
	c.Buttons.Update = NeedsUpdateAffordance(columnID)
}
