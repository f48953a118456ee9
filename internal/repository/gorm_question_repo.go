package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/pkg/log"
)

// GormQuestionRepository implements QuestionRepository using GORM.
type GormQuestionRepository struct {
	db *gorm.DB
}

// NewGormQuestionRepository creates a new GORM-based question repository.
func NewGormQuestionRepository(db *gorm.DB) *GormQuestionRepository {
	return &GormQuestionRepository{db: db}
}

// Create persists a new question.
func (r *GormQuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	l := log.Ctx(ctx)

	q.ID = uuid.New().String()
	q.Status = domain.StatusPending

	model := domain.QuestionToModel(q)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create question in db")
		return result.Error
	}

	// Update the domain object with the generated timestamp
	q.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldQuestionID, q.ID).Msg("question created in db")
	return nil
}

// GetByID retrieves a question by id.
func (r *GormQuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	l := log.Ctx(ctx)

	var model domain.QuestionModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldQuestionID, id).Msg("failed to get question by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListByStatus retrieves questions with the given status, ordered for the
// view that status feeds: the public display sorts approved questions by
// votes then recency, the moderator queue sorts pending ones oldest first.
func (r *GormQuestionRepository) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Question, error) {
	l := log.Ctx(ctx)

	order := "created_at ASC"
	if status == domain.StatusApproved {
		order = "votes DESC, created_at DESC"
	}

	var models []domain.QuestionModel
	result := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order(order).
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str("status", string(status)).Msg("failed to list questions from db")
		return nil, result.Error
	}

	questions := make([]domain.Question, len(models))
	for i, model := range models {
		questions[i] = *model.ToDomain()
	}

	return questions, nil
}

// UpdateStatus applies a status transition with a conditional UPDATE keyed
// on the previously read status. If a concurrent moderator action changed
// the row in between, the update matches nothing and the transition is
// re-evaluated against the fresh status. Statuses only move forward, so
// the retry loop terminates.
func (r *GormQuestionRepository) UpdateStatus(ctx context.Context, id string, target domain.Status) (*domain.Question, bool, error) {
	l := log.Ctx(ctx)

	for {
		var model domain.QuestionModel
		result := r.db.WithContext(ctx).First(&model, "id = ?", id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil, false, ErrQuestionNotFound
			}
			l.Error().Err(result.Error).Str(log.FieldQuestionID, id).Msg("failed to read question for status update")
			return nil, false, result.Error
		}

		current := domain.Status(model.Status)
		changed, err := domain.Transition(current, target)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return model.ToDomain(), false, nil
		}

		update := r.db.WithContext(ctx).Model(&domain.QuestionModel{}).
			Where("id = ? AND status = ?", id, string(current)).
			Update("status", string(target))
		if update.Error != nil {
			l.Error().Err(update.Error).Str(log.FieldQuestionID, id).Msg("failed to update question status in db")
			return nil, false, update.Error
		}
		if update.RowsAffected == 0 {
			// Lost the race with a concurrent transition; retry on the
			// fresh status.
			continue
		}

		model.Status = string(target)
		l.Debug().Str(log.FieldQuestionID, id).Str("status", string(target)).Msg("question status updated in db")
		return model.ToDomain(), true, nil
	}
}

// Delete removes a question permanently.
func (r *GormQuestionRepository) Delete(ctx context.Context, id string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Delete(&domain.QuestionModel{}, "id = ?", id)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldQuestionID, id).Msg("failed to delete question from db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	l.Debug().Str(log.FieldQuestionID, id).Msg("question deleted from db")
	return nil
}
