package domain

import (
	"errors"
	"time"
)

// Status represents the moderation status of a question.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusArchived Status = "archived"
)

var (
	ErrInvalidStatus     = errors.New("invalid question status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ParseStatus parses a status string against the closed enumeration.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusArchived:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether a question may move from one status to
// another. Statuses only move forward: pending may be approved or archived,
// approved may be archived, and archived is terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusArchived
	case StatusApproved:
		return to == StatusArchived
	}
	return false
}

// Transition validates a status change. A same-status target is a no-op and
// returns changed=false with no error; a disallowed move returns
// ErrInvalidTransition; an unknown target returns ErrInvalidStatus.
func Transition(from, to Status) (changed bool, err error) {
	if _, err := ParseStatus(string(to)); err != nil {
		return false, err
	}
	if from == to {
		return false, nil
	}
	if !CanTransition(from, to) {
		return false, ErrInvalidTransition
	}
	return true, nil
}

// Question represents an audience question in a live event.
type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Status    Status    `json:"status"`
	Votes     int       `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitQuestionRequest represents a submit question request.
type SubmitQuestionRequest struct {
	Text   string `json:"text" binding:"required"`
	Author string `json:"author"`
}

// UpdateStatusRequest represents a status change request.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// QuestionResponse represents a question in API responses and events.
type QuestionResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Status    Status    `json:"status"`
	Votes     int       `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts Question to QuestionResponse.
func (q *Question) ToResponse() QuestionResponse {
	return QuestionResponse{
		ID:        q.ID,
		Text:      q.Text,
		Author:    q.Author,
		Status:    q.Status,
		Votes:     q.Votes,
		CreatedAt: q.CreatedAt,
	}
}

// ToResponses converts a slice of questions, preserving order.
func ToResponses(questions []Question) []QuestionResponse {
	responses := make([]QuestionResponse, len(questions))
	for i, q := range questions {
		responses[i] = q.ToResponse()
	}
	return responses
}
