package domain

// WebSocket message types from client.
const (
	MsgTypeSubmitQuestion = "submit_question"
	MsgTypeSetStatus      = "set_status"
	MsgTypeDeleteQuestion = "delete_question"
	MsgTypePing           = "ping"
)

// WebSocket message types to client.
const (
	EventQuestionSubmitted = "question_submitted"
	EventQuestionApproved  = "question_approved"
	EventQuestionArchived  = "question_archived"
	EventQuestionDeleted   = "question_deleted"
	MsgTypeSnapshot        = "snapshot"
	MsgTypeError           = "error"
	MsgTypePong            = "pong"
)

// Error codes
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type SubmitQuestionMessage struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

type SetStatusMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

type DeleteQuestionMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Server -> Client messages

// QuestionEvent carries a full question payload. Used for
// question_submitted and question_approved.
type QuestionEvent struct {
	Type     string           `json:"type"`
	Question QuestionResponse `json:"question"`
}

// QuestionRefEvent carries only a question id. Used for question_archived
// and question_deleted, where the receiver removes the entry from its view.
type QuestionRefEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// SnapshotMessage is the private current-state payload sent to a session
// right after it connects, before any incremental events. Clients must
// apply later events idempotently: an event for a question already in the
// state the event describes is a no-op.
type SnapshotMessage struct {
	Type     string             `json:"type"`
	Approved []QuestionResponse `json:"approved"`
	Pending  []QuestionResponse `json:"pending,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewQuestionEvent(eventType string, q *Question) *QuestionEvent {
	return &QuestionEvent{
		Type:     eventType,
		Question: q.ToResponse(),
	}
}

func NewQuestionRefEvent(eventType, id string) *QuestionRefEvent {
	return &QuestionRefEvent{
		Type: eventType,
		ID:   id,
	}
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
