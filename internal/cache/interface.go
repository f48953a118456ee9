package cache

import (
	"context"
	"time"

	"github.com/openfloor/qna-service/internal/domain"
)

// QuestionListResult wraps a cached question list.
type QuestionListResult struct {
	Questions []domain.Question `json:"questions"`
}

// QuestionCache caches the public approved-question list. The store stays
// the single source of truth; every mutation that can change the approved
// set invalidates the cached entry.
type QuestionCache interface {
	Get(ctx context.Context, key string) (*QuestionListResult, error)
	Set(ctx context.Context, key string, result *QuestionListResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	KeyApproved() string
	Close() error
}
