package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/openfloor/qna-service/internal/audit"
	"github.com/openfloor/qna-service/internal/cache"
	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/internal/hub"
	"github.com/openfloor/qna-service/internal/repository"
	"github.com/openfloor/qna-service/pkg/log"
)

var (
	ErrEmptyText = errors.New("question text must not be empty")
)

// questionService implements QuestionService.
type questionService struct {
	repo            repository.QuestionRepository
	hub             *hub.Hub
	cache           cache.QuestionCache // nil disables caching
	cacheTTL        time.Duration
	group           singleflight.Group
	anonymousAuthor string
}

// NewQuestionService creates a new question service. cache may be nil, in
// which case approved-list reads always hit the repository.
func NewQuestionService(
	repo repository.QuestionRepository,
	h *hub.Hub,
	questionCache cache.QuestionCache,
	cacheTTL time.Duration,
	anonymousAuthor string,
) QuestionService {
	if anonymousAuthor == "" {
		anonymousAuthor = "Anonymous"
	}
	return &questionService{
		repo:            repo,
		hub:             h,
		cache:           questionCache,
		cacheTTL:        cacheTTL,
		anonymousAuthor: anonymousAuthor,
	}
}

// Submit creates a pending question and notifies moderator sessions.
func (s *questionService) Submit(ctx context.Context, text, author string) (*domain.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	author = strings.TrimSpace(author)
	if author == "" {
		author = s.anonymousAuthor
	}

	q := &domain.Question{
		Text:   text,
		Author: author,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionSubmitQuestion, q.ID, "question submitted")
	s.publish(ctx, hub.AudienceModerator, domain.NewQuestionEvent(domain.EventQuestionSubmitted, q))

	return q, nil
}

// SetStatus applies a moderation transition. The repository validates and
// applies the transition atomically; this layer only decides what to
// broadcast once the new state is durable.
func (s *questionService) SetStatus(ctx context.Context, id string, target domain.Status) (*domain.Question, error) {
	q, changed, err := s.repo.UpdateStatus(ctx, id, target)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Same-status command: current record, no re-broadcast.
		return q, nil
	}

	switch target {
	case domain.StatusApproved:
		audit.Log(ctx, audit.ActionApproveQuestion, id, "question approved")
		s.invalidateApproved(ctx)
		s.publish(ctx, hub.AudienceAll, domain.NewQuestionEvent(domain.EventQuestionApproved, q))
	case domain.StatusArchived:
		audit.Log(ctx, audit.ActionArchiveQuestion, id, "question archived")
		s.invalidateApproved(ctx)
		s.publish(ctx, hub.AudienceModerator, domain.NewQuestionRefEvent(domain.EventQuestionArchived, id))
	}

	return q, nil
}

// Delete purges a question and broadcasts its removal.
func (s *questionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionDeleteQuestion, id, "question deleted")
	s.invalidateApproved(ctx)
	s.publish(ctx, hub.AudienceAll, domain.NewQuestionRefEvent(domain.EventQuestionDeleted, id))
	return nil
}

// ListApproved returns the public display list, served from cache when
// available. Concurrent misses collapse into a single repository read.
func (s *questionService) ListApproved(ctx context.Context) ([]domain.Question, error) {
	if s.cache == nil {
		return s.repo.ListByStatus(ctx, domain.StatusApproved)
	}

	key := s.cache.KeyApproved()
	if result, err := s.cache.Get(ctx, key); err == nil {
		return result.Questions, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("approved list cache read failed")
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		questions, err := s.repo.ListByStatus(ctx, domain.StatusApproved)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, &cache.QuestionListResult{Questions: questions}, s.cacheTTL); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("approved list cache write failed")
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Question), nil
}

// ListPending returns the moderator queue, oldest first.
func (s *questionService) ListPending(ctx context.Context) ([]domain.Question, error) {
	return s.repo.ListByStatus(ctx, domain.StatusPending)
}

// Bootstrap reads the role-scoped current state, enqueues it as a private
// snapshot on the session's send channel, and only then registers the
// session with the hub. Combined with persist-before-broadcast this bounds
// the duplicate window to events the client must tolerate idempotently.
func (s *questionService) Bootstrap(ctx context.Context, client *hub.Client) error {
	snapshot := &domain.SnapshotMessage{
		Type:     domain.MsgTypeSnapshot,
		Approved: []domain.QuestionResponse{},
	}

	// Snapshot reads bypass the cache: the snapshot is the baseline every
	// later event applies to, so it must reflect the store, not a cache
	// entry that may have survived a failed invalidation.
	approved, err := s.repo.ListByStatus(ctx, domain.StatusApproved)
	if err != nil {
		return err
	}
	snapshot.Approved = domain.ToResponses(approved)

	if client.HasRole(hub.RoleModerator) {
		pending, err := s.ListPending(ctx)
		if err != nil {
			return err
		}
		snapshot.Pending = domain.ToResponses(pending)
	}

	if err := client.SendMessage(snapshot); err != nil {
		return err
	}
	s.hub.Register(client)
	return nil
}

// publish fans an event out after persistence. Broadcast failures never
// fail the originating command.
func (s *questionService) publish(ctx context.Context, audience hub.Audience, message interface{}) {
	if err := s.hub.Publish(audience, message); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to publish event")
	}
}

// invalidateApproved drops the cached approved list after a mutation.
func (s *questionService) invalidateApproved(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cache.KeyApproved()); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to invalidate approved list cache")
	}
}
