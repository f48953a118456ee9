package audit

import (
	"context"

	"github.com/openfloor/qna-service/pkg/log"
)

// Audit actions for moderation commands.
const (
	ActionSubmitQuestion  = "question.submit"
	ActionApproveQuestion = "question.approve"
	ActionArchiveQuestion = "question.archive"
	ActionDeleteQuestion  = "question.delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, questionID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldQuestionID, questionID).
		Msg(msg)
}
