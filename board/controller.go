package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"corkboard/domain"
)

var (
	// ErrEmptyTitle marks a dialog submit with a blank title. The submit is
	// a no-op and the dialog stays open.
	ErrEmptyTitle = errors.New("title required")
	// ErrTaskNotFound marks operations against an unknown task id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUnknownColumn marks a move targeting a column outside the layout.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrEditBlocked marks an edit of a task sitting in a column without the
	// update affordance.
	ErrEditBlocked = errors.New("editing blocked in this column")
	// ErrNotConfirmed marks a delete the user declined. The task remains
	// and nothing is persisted.
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// SnapshotStore persists the serialized board.
type SnapshotStore interface {
	Load(ctx context.Context) (data []byte, found bool, err error)
	Save(ctx context.Context, data []byte) error
}

// Confirmer answers the confirmation prompt guarding destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ColumnView is a rendered column: its cards with affordances applied and
// the visible count.
type ColumnView struct {
	ID    string        `json:"id"`
	Cards []domain.Card `json:"cards"`
	Count int           `json:"count"`
}

// Controller owns the board model and the interaction state: at most one
// in-flight drag and one in-flight edit target, mutually exclusive with no
// queueing. Every mutation re-renders the affected columns and persists the
// whole snapshot, last write wins.
type Controller struct {
	mu     sync.Mutex
	board  *domain.Board
	rec    *Reconciler
	store  SnapshotStore
	logger *log.Logger

	dragging   string // task id of the in-flight drag, empty when idle
	editTarget string // task id bound to the open dialog, empty for add
}

// NewController wires a controller over an empty board.
func NewController(store SnapshotStore, view Renderer, logger *log.Logger) *Controller {
	if store == nil {
		panic("board.NewController: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{
		board:  domain.NewBoard(),
		rec:    NewReconciler(view),
		store:  store,
		logger: logger,
	}
}

// Load reads the persisted snapshot once and rebuilds the visible board
// from it. An absent snapshot is a fresh start and leaves the board
// untouched. A malformed snapshot is recoverable: the board resets to
// empty instead of crashing.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, found, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !found {
		c.logger.Debug("no persisted snapshot, starting fresh")
		return nil
	}
	snap, err := domain.UnmarshalSnapshot(data)
	if err != nil {
		c.logger.WithError(err).Warn("discarding malformed snapshot, resetting board")
		c.board = domain.NewBoard()
		c.rec.RebuildFromSnapshot(c.board, domain.CaptureSnapshot(c.board))
		return nil
	}
	c.rec.RebuildFromSnapshot(c.board, snap)
	return nil
}

// View returns the rendered board: every column in display order with its
// cards, affordances applied, and count.
func (c *Controller) View() []ColumnView {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ColumnView, 0, len(domain.Columns()))
	for _, columnID := range domain.Columns() {
		tasks := c.board.Tasks(columnID)
		cards := make([]domain.Card, 0, len(tasks))
		for _, t := range tasks {
			card := domain.CardFromTask(t)
			domain.ApplyButtonPolicy(&card, columnID)
			cards = append(cards, card)
		}
		out = append(out, ColumnView{ID: columnID, Cards: cards, Count: len(cards)})
	}
	return out
}

// BeginDrag marks the task as the in-flight drag. A new drag replaces any
// previous one; the gesture collaborator ends drags via EndDrag.
func (c *Controller) BeginDrag(taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, _, ok := c.board.Find(taskID); !ok {
		return ErrTaskNotFound
	}
	c.dragging = taskID
	return nil
}

// EndDrag returns to idle. It always fires at gesture end, regardless of
// drop success.
func (c *Controller) EndDrag() {
	c.mu.Lock()
	c.dragging = ""
	c.mu.Unlock()
}

// Drop relocates the in-flight drag to the end of the target column,
// reapplies the button policy for the new column, refreshes the affected
// counts and persists. With no drag in flight it is a no-op.
func (c *Controller) Drop(ctx context.Context, columnID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dragging == "" {
		return nil
	}
	return c.moveLocked(ctx, c.dragging, columnID)
}

// Move relocates the task in one locked step, the equivalent of a
// begin-drag/drop/end-drag gesture arriving as a single event. It never
// touches the shared drag state, so concurrent moves cannot steal each
// other's task.
func (c *Controller) Move(ctx context.Context, taskID, columnID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moveLocked(ctx, taskID, columnID)
}

func (c *Controller) moveLocked(ctx context.Context, taskID, columnID string) error {
	if !domain.KnownColumn(columnID) {
		return ErrUnknownColumn
	}
	from, ok := c.board.Move(taskID, columnID)
	if !ok {
		return ErrTaskNotFound
	}
	c.rec.RenderColumn(c.board, from)
	if columnID != from {
		c.rec.RenderColumn(c.board, columnID)
	}
	c.persistLocked(ctx)
	return nil
}

// OpenAdd opens a blank dialog with no target task bound.
func (c *Controller) OpenAdd() {
	c.mu.Lock()
	c.editTarget = ""
	c.mu.Unlock()
}

// OpenEdit opens the dialog pre-filled from the task and binds it as the
// edit target. Tasks in columns without the update affordance cannot be
// edited; the card has no update button there and the dialog stays closed.
func (c *Controller) OpenEdit(taskID string) (domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, columnID, ok := c.board.Find(taskID)
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	if !domain.NeedsUpdateAffordance(columnID) {
		return domain.Task{}, ErrEditBlocked
	}
	c.editTarget = taskID
	return t, nil
}

// SubmitDialog commits the open dialog. With no edit target bound it
// creates a task appended to the default column and recomputes every
// column count; with one bound it mutates that task in place. A blank
// trimmed title is silently ignored: nothing mutates, nothing persists,
// and the dialog stays open.
func (c *Controller) SubmitDialog(ctx context.Context, title, description string) (domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, ErrEmptyTitle
	}

	if c.editTarget == "" {
		card := domain.NewCard(title, description)
		c.board.Append(domain.DefaultColumn, card.Task)
		c.closeDialogLocked()
		c.rec.RenderColumn(c.board, domain.DefaultColumn)
		for _, columnID := range domain.Columns() {
			c.rec.RefreshCount(c.board, columnID)
		}
		c.persistLocked(ctx)
		return card.Task, nil
	}

	taskID := c.editTarget
	if _, columnID, ok := c.board.Find(taskID); ok && !domain.NeedsUpdateAffordance(columnID) {
		// The task moved out of an editable column while the dialog was open.
		c.closeDialogLocked()
		return domain.Task{}, ErrEditBlocked
	}
	columnID, ok := c.board.Update(taskID, title, description)
	if !ok {
		c.closeDialogLocked()
		return domain.Task{}, ErrTaskNotFound
	}
	c.closeDialogLocked()
	c.rec.RenderColumn(c.board, columnID)
	c.persistLocked(ctx)
	t, _, _ := c.board.Find(taskID)
	return t, nil
}

// CancelDialog discards any in-progress edits without confirmation and
// clears the edit target.
func (c *Controller) CancelDialog() {
	c.mu.Lock()
	c.closeDialogLocked()
	c.mu.Unlock()
}

func (c *Controller) closeDialogLocked() {
	c.editTarget = ""
}

// Delete removes the task after interactive confirmation. A declined
// confirmation leaves the task, its count and the persisted snapshot all
// untouched. There is no undo.
func (c *Controller) Delete(ctx context.Context, taskID string, confirm Confirmer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, columnID, ok := c.board.Find(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Delete task %q?", t.Title)) {
		return ErrNotConfirmed
	}
	c.board.Remove(taskID)
	c.rec.RenderColumn(c.board, columnID)
	c.persistLocked(ctx)
	return nil
}

// persistLocked overwrites the entire stored snapshot. Failures degrade to
// "nothing happens": they are logged and the in-memory board stays
// authoritative.
func (c *Controller) persistLocked(ctx context.Context) {
	data, err := c.rec.CaptureSnapshot(c.board).Marshal()
	if err != nil {
		c.logger.WithError(err).Error("encode snapshot")
		return
	}
	if err := c.store.Save(ctx, data); err != nil {
		c.logger.WithError(err).Error("persist snapshot")
	}
}
