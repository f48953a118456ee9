package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/internal/repository"
	"github.com/openfloor/qna-service/internal/service"
	"github.com/openfloor/qna-service/pkg/log"
	"github.com/openfloor/qna-service/pkg/response"
)

// Handler handles HTTP requests for the question service.
type Handler struct {
	questions service.QuestionService
}

// NewHandler creates a new HTTP handler.
func NewHandler(questions service.QuestionService) *Handler {
	return &Handler{
		questions: questions,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		questions := api.Group("/questions")
		{
			questions.POST("", h.SubmitQuestion)
			questions.GET("/approved", h.ListApproved)
			questions.GET("/pending", h.ListPending)
			questions.PATCH("/:id/status", h.SetStatus)
			questions.DELETE("/:id", h.DeleteQuestion)
		}
	}
}

// SubmitQuestion creates a new pending question.
func (h *Handler) SubmitQuestion(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SubmitQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind submit question request")
		response.BadRequest(c, err.Error())
		return
	}

	q, err := h.questions.Submit(ctx, req.Text, req.Author)
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			response.BadRequest(c, "question text must not be empty")
			return
		}
		l.Error().Err(err).Msg("failed to submit question")
		response.InternalError(c, "failed to submit question")
		return
	}

	response.Created(c, q.ToResponse())
}

// SetStatus applies a moderation status transition.
func (h *Handler) SetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	questionID := c.Param("id")

	var req domain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		response.BadRequest(c, "unknown status: "+req.Status)
		return
	}

	q, err := h.questions.SetStatus(ctx, questionID, target)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrQuestionNotFound):
			response.NotFound(c, "question not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			response.Conflict(c, "status cannot move backward")
		default:
			l.Error().Err(err).Str(log.FieldQuestionID, questionID).Msg("failed to update question status")
			response.InternalError(c, "failed to update question status")
		}
		return
	}

	response.Success(c, q.ToResponse())
}

// DeleteQuestion removes a question permanently.
func (h *Handler) DeleteQuestion(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	questionID := c.Param("id")

	if err := h.questions.Delete(ctx, questionID); err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			response.NotFound(c, "question not found")
			return
		}
		l.Error().Err(err).Str(log.FieldQuestionID, questionID).Msg("failed to delete question")
		response.InternalError(c, "failed to delete question")
		return
	}

	response.Success(c, gin.H{"deleted": questionID})
}

// ListApproved returns the public display list.
func (h *Handler) ListApproved(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	questions, err := h.questions.ListApproved(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to list approved questions")
		response.InternalError(c, "failed to list questions")
		return
	}

	response.Success(c, domain.ToResponses(questions))
}

// ListPending returns the moderator queue.
func (h *Handler) ListPending(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	questions, err := h.questions.ListPending(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to list pending questions")
		response.InternalError(c, "failed to list questions")
		return
	}

	response.Success(c, domain.ToResponses(questions))
}
