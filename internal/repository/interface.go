package repository

import (
	"context"
	"errors"

	"github.com/openfloor/qna-service/internal/domain"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
)

// QuestionRepository defines the interface for question persistence. It is
// the single source of truth for moderation state.
type QuestionRepository interface {
	// Create persists a new question, assigning its id, pending status and
	// creation timestamp.
	Create(ctx context.Context, q *domain.Question) error

	// GetByID retrieves a question by id.
	GetByID(ctx context.Context, id string) (*domain.Question, error)

	// ListByStatus retrieves all questions with the given status. Approved
	// questions are ordered by votes descending then created_at descending;
	// pending questions by created_at ascending (oldest first).
	ListByStatus(ctx context.Context, status domain.Status) ([]domain.Question, error)

	// UpdateStatus atomically applies a status transition against the
	// authoritative record. The transition is validated inside the atomic
	// read-modify-write, so concurrent moderator actions on the same id
	// cannot produce lost updates or torn state. Returns the stored record
	// and whether it changed; a same-status target is a no-op.
	UpdateStatus(ctx context.Context, id string, target domain.Status) (*domain.Question, bool, error)

	// Delete removes a question permanently.
	Delete(ctx context.Context, id string) error
}
