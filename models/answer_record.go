package models

import (
	"time"
)

// AnswerRecord is one resolved question of a session. The composite unique
// index makes each question answerable once per game.
type AnswerRecord struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	SessionID      uint      `json:"session_id" gorm:"not null;uniqueIndex:idx_answer_session_question"`
	QuestionID     uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_session_question"`
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct" gorm:"not null"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty"`
	Points         int       `json:"points" gorm:"not null"`
	Position       int       `json:"position" gorm:"not null"` // 1-based
	HintUsed       bool      `json:"hint_used" gorm:"not null;default:false"`
	TimedOut       bool      `json:"timed_out" gorm:"not null;default:false"`
	AnsweredAt     time.Time `json:"answered_at" gorm:"not null"`
}
