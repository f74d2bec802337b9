package api

import (
	"context"

	"corkboard/board"
	"corkboard/domain"
)

// Board abstracts the interaction controller for handlers.
type Board interface {
	View() []board.ColumnView
	OpenAdd()
	OpenEdit(taskID string) (domain.Task, error)
	SubmitDialog(ctx context.Context, title, description string) (domain.Task, error)
	CancelDialog()
	Move(ctx context.Context, taskID, columnID string) error
	Delete(ctx context.Context, taskID string, confirm board.Confirmer) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Pinger reports storage reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
