package domain

// Column identifiers. The layout is fixed; snapshot data referencing any
// other column is dropped on rebuild.
const (
	ColumnBacklog    = "backlog"
	ColumnTodo       = "todo"
	ColumnInProgress = "in-progress"
	ColumnDone       = "done"
)

// DefaultColumn receives newly added tasks regardless of where the add was
// initiated.
const DefaultColumn = ColumnTodo

var displayOrder = []string{ColumnBacklog, ColumnTodo, ColumnInProgress, ColumnDone}

// Columns returns the fixed column set in display order.
func Columns() []string {
	out := make([]string, len(displayOrder))
	copy(out, displayOrder)
	return out
}

// KnownColumn reports whether the id is part of the layout.
func KnownColumn(columnID string) bool {
	for _, id := range displayOrder {
		if id == columnID {
			return true
		}
	}
	return false
}

// Task represents a single board item.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"desc,omitempty"`
}

// Board is the in-memory model of the whole board. It is the single source
// of truth: the view is rendered from it and never read back.
type Board struct {
	columns map[string][]Task
}

// NewBoard returns an empty board with every layout column present.
func NewBoard() *Board {
	cols := make(map[string][]Task, len(displayOrder))
	for _, id := range displayOrder {
		cols[id] = nil
	}
	return &Board{columns: cols}
}

// Tasks returns a copy of the column's tasks in display order.
func (b *Board) Tasks(columnID string) []Task {
	src := b.columns[columnID]
	out := make([]Task, len(src))
	copy(out, src)
	return out
}

// Count returns the number of tasks in the column.
func (b *Board) Count(columnID string) int {
	return len(b.columns[columnID])
}

// Append adds a task to the end of the column. It reports false when the
// column is not part of the layout.
func (b *Board) Append(columnID string, t Task) bool {
	if !KnownColumn(columnID) {
		return false
	}
	b.columns[columnID] = append(b.columns[columnID], t)
	return true
}

// Find returns the task and the column holding it.
func (b *Board) Find(taskID string) (Task, string, bool) {
	for _, columnID := range displayOrder {
		for _, t := range b.columns[columnID] {
			if t.ID == taskID {
				return t, columnID, true
			}
		}
	}
	return Task{}, "", false
}

// Update mutates the task's title and description in place, preserving its
// position. It returns the column holding the task.
func (b *Board) Update(taskID, title, description string) (string, bool) {
	for _, columnID := range displayOrder {
		tasks := b.columns[columnID]
		for i := range tasks {
			if tasks[i].ID == taskID {
				tasks[i].Title = title
				tasks[i].Description = description
				return columnID, true
			}
		}
	}
	return "", false
}

// Remove deletes the task and returns it along with the column it was in.
func (b *Board) Remove(taskID string) (Task, string, bool) {
	for _, columnID := range displayOrder {
		tasks := b.columns[columnID]
		for i, t := range tasks {
			if t.ID == taskID {
				b.columns[columnID] = append(tasks[:i], tasks[i+1:]...)
				return t, columnID, true
			}
		}
	}
	return Task{}, "", false
}

// Move relocates the task to the end of the target column and returns the
// column it came from. Dropping a task on its own column still moves it to
// the end.
func (b *Board) Move(taskID, toColumn string) (string, bool) {
	if !KnownColumn(toColumn) {
		return "", false
	}
	t, from, ok := b.Remove(taskID)
	if !ok {
		return "", false
	}
	b.columns[toColumn] = append(b.columns[toColumn], t)
	return from, true
}

// Replace swaps out the column's entire task list. It reports false when
// the column is not part of the layout.
func (b *Board) Replace(columnID string, tasks []Task) bool {
	if !KnownColumn(columnID) {
		return false
	}
	b.columns[columnID] = tasks
	return true
}
