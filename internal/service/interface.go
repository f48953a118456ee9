package service

import (
	"context"

	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/internal/hub"
)

// QuestionService is the command gateway for moderation state. Every
// mutation persists first and broadcasts only after the store confirms, so
// any session that queries the store after seeing an event observes state
// consistent with that event.
type QuestionService interface {
	// Submit creates a pending question and notifies moderator sessions.
	Submit(ctx context.Context, text, author string) (*domain.Question, error)

	// SetStatus applies a moderation transition and broadcasts the
	// corresponding event. A same-status target returns the current record
	// without re-broadcasting.
	SetStatus(ctx context.Context, id string, target domain.Status) (*domain.Question, error)

	// Delete purges a question and broadcasts its removal to everyone.
	Delete(ctx context.Context, id string) error

	// ListApproved returns the public display list: votes descending, then
	// newest first.
	ListApproved(ctx context.Context) ([]domain.Question, error)

	// ListPending returns the moderator queue, oldest first.
	ListPending(ctx context.Context) ([]domain.Question, error)

	// Bootstrap sends a new session its private state snapshot and then
	// registers it with the hub, in that order, so the session never
	// observes a gap between snapshot and event stream.
	Bootstrap(ctx context.Context, client *hub.Client) error
}
