package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openfloor/qna-service/internal/domain"
)

// MemoryQuestionRepository is an in-memory implementation of
// QuestionRepository. Suitable for tests and single-instance deployments
// without a database.
type MemoryQuestionRepository struct {
	questions map[string]*memoryRecord
	seq       int
	mu        sync.RWMutex
}

// memoryRecord tracks insertion order so ties on created_at break by
// insertion recency, matching the db ordering contract.
type memoryRecord struct {
	question domain.Question
	seq      int
}

// NewMemoryQuestionRepository creates a new in-memory question repository.
func NewMemoryQuestionRepository() *MemoryQuestionRepository {
	return &MemoryQuestionRepository{
		questions: make(map[string]*memoryRecord),
	}
}

// Create persists a new question.
func (r *MemoryQuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q.ID = uuid.New().String()
	q.Status = domain.StatusPending
	q.CreatedAt = time.Now().UTC()

	r.seq++
	r.questions[q.ID] = &memoryRecord{question: *q, seq: r.seq}
	return nil
}

// GetByID retrieves a question by id.
func (r *MemoryQuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.questions[id]
	if !ok {
		return nil, ErrQuestionNotFound
	}

	q := rec.question
	return &q, nil
}

// ListByStatus retrieves questions with the given status, ordered per the
// repository contract.
func (r *MemoryQuestionRepository) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*memoryRecord
	for _, rec := range r.questions {
		if rec.question.Status == status {
			records = append(records, rec)
		}
	}

	if status == domain.StatusApproved {
		sort.Slice(records, func(i, j int) bool {
			a, b := records[i], records[j]
			if a.question.Votes != b.question.Votes {
				return a.question.Votes > b.question.Votes
			}
			if !a.question.CreatedAt.Equal(b.question.CreatedAt) {
				return a.question.CreatedAt.After(b.question.CreatedAt)
			}
			return a.seq > b.seq
		})
	} else {
		sort.Slice(records, func(i, j int) bool {
			a, b := records[i], records[j]
			if !a.question.CreatedAt.Equal(b.question.CreatedAt) {
				return a.question.CreatedAt.Before(b.question.CreatedAt)
			}
			return a.seq < b.seq
		})
	}

	questions := make([]domain.Question, len(records))
	for i, rec := range records {
		questions[i] = rec.question
	}
	return questions, nil
}

// UpdateStatus applies a status transition under the repository lock, so
// concurrent calls on the same id serialize into one well-defined outcome.
func (r *MemoryQuestionRepository) UpdateStatus(ctx context.Context, id string, target domain.Status) (*domain.Question, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.questions[id]
	if !ok {
		return nil, false, ErrQuestionNotFound
	}

	changed, err := domain.Transition(rec.question.Status, target)
	if err != nil {
		return nil, false, err
	}
	if changed {
		rec.question.Status = target
	}

	q := rec.question
	return &q, changed, nil
}

// Delete removes a question permanently.
func (r *MemoryQuestionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(r.questions, id)
	return nil
}
