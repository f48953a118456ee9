package domain

import (
	"time"
)

// QuestionModel is the GORM model for the questions table.
type QuestionModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	Author    string    `gorm:"type:varchar(100);not null"`
	Status    string    `gorm:"type:varchar(20);index;not null;default:'pending'"`
	Votes     int       `gorm:"default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for QuestionModel.
func (QuestionModel) TableName() string {
	return "questions"
}

// ToDomain converts QuestionModel to domain Question.
func (m *QuestionModel) ToDomain() *Question {
	return &Question{
		ID:        m.ID,
		Text:      m.Text,
		Author:    m.Author,
		Status:    Status(m.Status),
		Votes:     m.Votes,
		CreatedAt: m.CreatedAt,
	}
}

// QuestionToModel converts domain Question to QuestionModel.
func QuestionToModel(q *Question) *QuestionModel {
	return &QuestionModel{
		ID:        q.ID,
		Text:      q.Text,
		Author:    q.Author,
		Status:    string(q.Status),
		Votes:     q.Votes,
		CreatedAt: q.CreatedAt,
	}
}
