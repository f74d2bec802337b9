package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	"corkboard/domain"
)

// memStore is an in-memory SnapshotStore recording every write.
type memStore struct {
	data   []byte
	found  bool
	saves  int
	saveFn func(ctx context.Context) error
}

func (m *memStore) Load(ctx context.Context) ([]byte, bool, error) {
	return m.data, m.found, nil
}

func (m *memStore) Save(ctx context.Context, data []byte) error {
	m.saves++
	if m.saveFn != nil {
		return m.saveFn(ctx)
	}
	m.data = append([]byte(nil), data...)
	m.found = true
	return nil
}

func (m *memStore) snapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	snap, err := domain.UnmarshalSnapshot(m.data)
	if err != nil {
		t.Fatalf("decode persisted snapshot: %v", err)
	}
	return snap
}

func addTask(t *testing.T, c *Controller, title, desc string) domain.Task {
	t.Helper()
	c.OpenAdd()
	task, err := c.SubmitDialog(context.Background(), title, desc)
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return task
}

func columnView(t *testing.T, c *Controller, columnID string) ColumnView {
	t.Helper()
	for _, col := range c.View() {
		if col.ID == columnID {
			return col
		}
	}
	t.Fatalf("column %q missing from view", columnID)
	return ColumnView{}
}

func TestAddAppendsToDefaultColumnAndPersists(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)

	task := addTask(t, c, "Write docs", "outline first")
	if task.ID == "" {
		t.Fatalf("added task needs an id")
	}

	todo := columnView(t, c, domain.DefaultColumn)
	if todo.Count != 1 || todo.Cards[0].Title != "Write docs" {
		t.Fatalf("unexpected default column: %#v", todo)
	}
	if store.saves != 1 {
		t.Fatalf("add must persist exactly once, saves=%d", store.saves)
	}
	snap := store.snapshot(t)
	if len(snap[domain.DefaultColumn]) != 1 {
		t.Fatalf("persisted snapshot missing task: %#v", snap)
	}
}

func TestAddWithBlankTitleIsSilentNoOp(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)

	c.OpenAdd()
	if _, err := c.SubmitDialog(context.Background(), "   \t", "desc"); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("blank title must not persist, saves=%d", store.saves)
	}
	if columnView(t, c, domain.DefaultColumn).Count != 0 {
		t.Fatalf("board must be unchanged")
	}

	// The dialog stays open: a corrected resubmit still lands as an add.
	task, err := c.SubmitDialog(context.Background(), "Fixed", "")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if task.Title != "Fixed" {
		t.Fatalf("unexpected task after resubmit: %#v", task)
	}
}

func TestEditMutatesInPlace(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	first := addTask(t, c, "A", "")
	addTask(t, c, "B", "")

	prefill, err := c.OpenEdit(first.ID)
	if err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if prefill.Title != "A" {
		t.Fatalf("dialog should pre-fill from the task: %#v", prefill)
	}

	updated, err := c.SubmitDialog(context.Background(), "A2", "details")
	if err != nil {
		t.Fatalf("submit edit: %v", err)
	}
	if updated.ID != first.ID || updated.Title != "A2" || updated.Description != "details" {
		t.Fatalf("unexpected updated task: %#v", updated)
	}

	todo := columnView(t, c, domain.ColumnTodo)
	if todo.Cards[0].ID != first.ID || todo.Cards[1].Title != "B" {
		t.Fatalf("edit must not reorder: %#v", todo.Cards)
	}
}

func TestEditBlockedOutsideEditableColumns(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	task := addTask(t, c, "A", "x")

	for _, columnID := range []string{domain.ColumnInProgress, domain.ColumnDone} {
		if err := c.Move(context.Background(), task.ID, columnID); err != nil {
			t.Fatalf("move to %s: %v", columnID, err)
		}
		savesBefore := store.saves
		if _, err := c.OpenEdit(task.ID); !errors.Is(err, ErrEditBlocked) {
			t.Fatalf("open edit in %s: expected ErrEditBlocked, got %v", columnID, err)
		}
		got, _, _ := findInView(c, task.ID)
		if got.Title != "A" || got.Description != "x" {
			t.Fatalf("blocked edit must leave the task untouched: %#v", got)
		}
		if store.saves != savesBefore {
			t.Fatalf("blocked edit must not persist, saves=%d", store.saves)
		}
	}

	// Back in an editable column the dialog opens again.
	if err := c.Move(context.Background(), task.ID, domain.ColumnBacklog); err != nil {
		t.Fatalf("move back: %v", err)
	}
	if _, err := c.OpenEdit(task.ID); err != nil {
		t.Fatalf("open edit in backlog: %v", err)
	}
}

func TestEditBlockedWhenTaskMovesMidDialog(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	task := addTask(t, c, "A", "x")

	if _, err := c.OpenEdit(task.ID); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if err := c.Move(context.Background(), task.ID, domain.ColumnDone); err != nil {
		t.Fatalf("move: %v", err)
	}
	savesBefore := store.saves

	if _, err := c.SubmitDialog(context.Background(), "Rewritten", "mutated"); !errors.Is(err, ErrEditBlocked) {
		t.Fatalf("expected ErrEditBlocked, got %v", err)
	}
	got, columnID, _ := findInView(c, task.ID)
	if columnID != domain.ColumnDone || got.Title != "A" || got.Description != "x" {
		t.Fatalf("blocked submit must leave the task untouched: %#v in %s", got, columnID)
	}
	if store.saves != savesBefore {
		t.Fatalf("blocked submit must not persist, saves=%d", store.saves)
	}
}

func TestCancelDialogDiscardsEditTarget(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	task := addTask(t, c, "A", "")
	savesBefore := store.saves

	if _, err := c.OpenEdit(task.ID); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	c.CancelDialog()

	// A submit after cancel is an add, not an edit of the old target.
	created, err := func() (domain.Task, error) {
		c.OpenAdd()
		return c.SubmitDialog(context.Background(), "New", "")
	}()
	if err != nil {
		t.Fatalf("add after cancel: %v", err)
	}
	if created.ID == task.ID {
		t.Fatalf("cancel must clear the edit target")
	}
	if got, _, _ := findInView(c, task.ID); got.Title != "A" {
		t.Fatalf("cancel must discard in-progress edits: %#v", got)
	}
	if store.saves != savesBefore+1 {
		t.Fatalf("cancel itself must not persist, saves=%d", store.saves)
	}
}

func findInView(c *Controller, taskID string) (domain.Card, string, bool) {
	for _, col := range c.View() {
		for _, card := range col.Cards {
			if card.ID == taskID {
				return card, col.ID, true
			}
		}
	}
	return domain.Card{}, "", false
}

func TestMoveUpdatesCountsAndAffordances(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	task := addTask(t, c, "A", "")
	addTask(t, c, "B", "")
	savesBefore := store.saves

	if err := c.Move(context.Background(), task.ID, domain.ColumnDone); err != nil {
		t.Fatalf("move: %v", err)
	}

	if got := columnView(t, c, domain.ColumnTodo).Count; got != 1 {
		t.Fatalf("source count should drop to 1, got %d", got)
	}
	done := columnView(t, c, domain.ColumnDone)
	if done.Count != 1 {
		t.Fatalf("target count should rise to 1, got %d", done.Count)
	}
	if done.Cards[0].Buttons.Update {
		t.Fatalf("card in done must lose the update affordance")
	}
	if store.saves != savesBefore+1 {
		t.Fatalf("move must persist, saves=%d", store.saves)
	}
	snap := store.snapshot(t)
	if len(snap[domain.ColumnDone]) != 1 || snap[domain.ColumnDone][0].Title != "A" {
		t.Fatalf("persisted snapshot should reflect the move: %#v", snap)
	}
}

func TestConcurrentMovesKeepTheirOwnTask(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	first := addTask(t, c, "A", "")
	second := addTask(t, c, "B", "")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = c.Move(context.Background(), first.ID, domain.ColumnDone)
	}()
	go func() {
		defer wg.Done()
		errs[1] = c.Move(context.Background(), second.ID, domain.ColumnBacklog)
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}
	if _, columnID, _ := findInView(c, first.ID); columnID != domain.ColumnDone {
		t.Fatalf("first task landed in %s, want %s", columnID, domain.ColumnDone)
	}
	if _, columnID, _ := findInView(c, second.ID); columnID != domain.ColumnBacklog {
		t.Fatalf("second task landed in %s, want %s", columnID, domain.ColumnBacklog)
	}
}

func TestMoveLeavesDragStateAlone(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	dragged := addTask(t, c, "A", "")
	other := addTask(t, c, "B", "")

	if err := c.BeginDrag(dragged.ID); err != nil {
		t.Fatalf("begin drag: %v", err)
	}
	if err := c.Move(context.Background(), other.ID, domain.ColumnBacklog); err != nil {
		t.Fatalf("move: %v", err)
	}

	// The in-flight drag still refers to its own task.
	if err := c.Drop(context.Background(), domain.ColumnDone); err != nil {
		t.Fatalf("drop: %v", err)
	}
	c.EndDrag()
	if _, columnID, _ := findInView(c, dragged.ID); columnID != domain.ColumnDone {
		t.Fatalf("dragged task landed in %s, want %s", columnID, domain.ColumnDone)
	}
	if _, columnID, _ := findInView(c, other.ID); columnID != domain.ColumnBacklog {
		t.Fatalf("moved task landed in %s, want %s", columnID, domain.ColumnBacklog)
	}
}

func TestDropWithoutDragIsNoOp(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	addTask(t, c, "A", "")
	savesBefore := store.saves

	if err := c.Drop(context.Background(), domain.ColumnDone); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if got := columnView(t, c, domain.ColumnTodo).Count; got != 1 {
		t.Fatalf("no-op drop must not move anything, todo=%d", got)
	}
	if store.saves != savesBefore {
		t.Fatalf("no-op drop must not persist, saves=%d", store.saves)
	}
}

func TestDragStateClearsOnEndRegardlessOfDrop(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	task := addTask(t, c, "A", "")

	if err := c.BeginDrag(task.ID); err != nil {
		t.Fatalf("begin drag: %v", err)
	}
	c.EndDrag()

	savesBefore := store.saves
	if err := c.Drop(context.Background(), domain.ColumnDone); err != nil {
		t.Fatalf("drop after end: %v", err)
	}
	if store.saves != savesBefore {
		t.Fatalf("drop after move-end must be a no-op")
	}
}

func TestMoveToUnknownColumn(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	task := addTask(t, c, "A", "")
	savesBefore := store.saves

	if err := c.Move(context.Background(), task.ID, "archive"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if store.saves != savesBefore {
		t.Fatalf("failed move must not persist")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)
	task := addTask(t, c, "A", "")
	savesBefore := store.saves

	declined := ConfirmFunc(func(string) bool { return false })
	if err := c.Delete(context.Background(), task.ID, declined); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if columnView(t, c, domain.ColumnTodo).Count != 1 {
		t.Fatalf("declined delete must leave the task")
	}
	if store.saves != savesBefore {
		t.Fatalf("declined delete must not write, saves=%d", store.saves)
	}

	var prompt string
	accepted := ConfirmFunc(func(p string) bool {
		prompt = p
		return true
	})
	if err := c.Delete(context.Background(), task.ID, accepted); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if prompt == "" {
		t.Fatalf("delete should present a prompt")
	}
	if columnView(t, c, domain.ColumnTodo).Count != 0 {
		t.Fatalf("confirmed delete must remove the task")
	}
	if store.saves != savesBefore+1 {
		t.Fatalf("confirmed delete must persist, saves=%d", store.saves)
	}
}

func TestLoadMissingSnapshotIsFreshStart(t *testing.T) {
	store := &memStore{}
	c := NewController(store, nil, nil)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, col := range c.View() {
		if col.Count != 0 {
			t.Fatalf("fresh start should be empty: %#v", col)
		}
	}
	if store.saves != 0 {
		t.Fatalf("loading must not write")
	}
}

func TestLoadMalformedSnapshotResetsBoard(t *testing.T) {
	store := &memStore{data: []byte("{broken"), found: true}
	view := newFakeRenderer()
	c := NewController(store, view, nil)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("malformed snapshot must be recoverable, got %v", err)
	}
	for _, col := range c.View() {
		if col.Count != 0 {
			t.Fatalf("board should reset to empty: %#v", col)
		}
	}
	if len(view.cleared) != len(domain.Columns()) {
		t.Fatalf("reset should clear every column, cleared=%v", view.cleared)
	}
}

func TestLoadRebuildsVisibleBoard(t *testing.T) {
	seed := domain.Snapshot{
		domain.ColumnTodo: {{Title: "A", Description: "x"}},
		domain.ColumnDone: {{Title: "B", Description: ""}},
	}
	data, err := seed.Marshal()
	if err != nil {
		t.Fatalf("seed marshal: %v", err)
	}
	store := &memStore{data: data, found: true}
	view := newFakeRenderer()
	c := NewController(store, view, nil)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if columnView(t, c, domain.ColumnTodo).Count != 1 {
		t.Fatalf("todo should hold the persisted task")
	}
	if view.counts[domain.ColumnDone] != 1 {
		t.Fatalf("rendered counts should follow the snapshot: %#v", view.counts)
	}
}

func TestPersistFailureDegradesSilently(t *testing.T) {
	store := &memStore{saveFn: func(context.Context) error {
		return errors.New("store down")
	}}
	c := NewController(store, nil, nil)

	task := addTask(t, c, "A", "")
	if _, _, ok := findInView(c, task.ID); !ok {
		t.Fatalf("in-memory board stays authoritative on write failure")
	}
}

func TestAddScenarioKeepsOtherColumns(t *testing.T) {
	seed := domain.Snapshot{
		domain.ColumnTodo: {{Title: "A", Description: "x"}},
		domain.ColumnDone: {},
	}
	data, err := seed.Marshal()
	if err != nil {
		t.Fatalf("seed marshal: %v", err)
	}
	store := &memStore{data: data, found: true}
	c := NewController(store, nil, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	addTask(t, c, "B", "")

	todo := columnView(t, c, domain.ColumnTodo)
	if todo.Count != 2 || todo.Cards[0].Title != "A" || todo.Cards[1].Title != "B" || todo.Cards[1].Description != "" {
		t.Fatalf("unexpected todo column: %#v", todo.Cards)
	}
	if columnView(t, c, domain.ColumnDone).Count != 0 {
		t.Fatalf("done must be unaffected")
	}
	snap := store.snapshot(t)
	if len(snap[domain.ColumnTodo]) != 2 {
		t.Fatalf("persisted todo should hold both tasks: %#v", snap)
	}
	if tasks, ok := snap[domain.ColumnDone]; !ok || len(tasks) != 0 {
		t.Fatalf("persisted snapshot must still name done: %#v", snap)
	}
}
