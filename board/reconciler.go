package board

import "corkboard/domain"

// Renderer is the write-only seam to the rendering collaborator. The model
// is rendered to it and never read back.
type Renderer interface {
	ClearColumn(columnID string)
	AppendCard(columnID string, card domain.Card)
	SetCount(columnID string, count int)
}

// NopRenderer discards all rendering, for headless runs.
type NopRenderer struct{}

func (NopRenderer) ClearColumn(string)             {}
func (NopRenderer) AppendCard(string, domain.Card) {}
func (NopRenderer) SetCount(string, int)           {}

// Reconciler keeps the rendered board in step with the model.
type Reconciler struct {
	view Renderer
}

// NewReconciler creates a reconciler over the given view sink. A nil view
// renders to nothing.
func NewReconciler(view Renderer) *Reconciler {
	if view == nil {
		view = NopRenderer{}
	}
	return &Reconciler{view: view}
}

// RebuildFromSnapshot replaces every column the snapshot names with freshly
// constructed tasks in snapshot order, applying the button policy per card
// and recomputing visible counts. Columns the snapshot does not name are
// left untouched; snapshot columns outside the layout are dropped.
func (r *Reconciler) RebuildFromSnapshot(b *domain.Board, snap domain.Snapshot) {
	for _, columnID := range domain.Columns() {
		persisted, ok := snap[columnID]
		if !ok {
			continue
		}
		tasks := make([]domain.Task, 0, len(persisted))
		for _, st := range persisted {
			tasks = append(tasks, domain.NewCard(st.Title, st.Description).Task)
		}
		b.Replace(columnID, tasks)
		r.RenderColumn(b, columnID)
	}
}

// RenderColumn redraws a single column from the model: clears it, appends
// each task's card with policy applied, and refreshes the count.
func (r *Reconciler) RenderColumn(b *domain.Board, columnID string) {
	r.view.ClearColumn(columnID)
	for _, t := range b.Tasks(columnID) {
		card := domain.CardFromTask(t)
		domain.ApplyButtonPolicy(&card, columnID)
		r.view.AppendCard(columnID, card)
	}
	r.RefreshCount(b, columnID)
}

// RefreshCount recomputes the column's visible task count and pushes it to
// the view.
func (r *Reconciler) RefreshCount(b *domain.Board, columnID string) {
	r.view.SetCount(columnID, b.Count(columnID))
}

// CaptureSnapshot reads the current board into a total snapshot. It does
// not mutate anything.
func (r *Reconciler) CaptureSnapshot(b *domain.Board) domain.Snapshot {
	return domain.CaptureSnapshot(b)
}
