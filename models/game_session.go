package models

import (
	"time"
)

type GameMode string

const (
	ModeQuick     GameMode = "QUICK"
	ModeChallenge GameMode = "CHALLENGE"
	ModeDaily     GameMode = "DAILY"
	ModePractice  GameMode = "PRACTICE"
	ModeDuel      GameMode = "DUEL"
)

func (m GameMode) Valid() bool {
	switch m {
	case ModeQuick, ModeChallenge, ModeDaily, ModePractice, ModeDuel:
		return true
	}
	return false
}

type GameStatus string

const (
	StatusWaiting    GameStatus = "WAITING"
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusCompleted  GameStatus = "COMPLETED"
	StatusAbandoned  GameStatus = "ABANDONED"
)

// GameSession is one play-through. DailyDate is the local calendar day
// (YYYY-MM-DD) of a DAILY game. The partial unique index on user_id
// (status = IN_PROGRESS) and the (user_id, daily_date) index are created by
// Migrate.
type GameSession struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	UserID               uint       `json:"user_id" gorm:"not null;index"`
	OpponentID           *uint      `json:"opponent_id,omitempty" gorm:"index"`
	Mode                 GameMode   `json:"mode" gorm:"type:varchar(16);not null"`
	Status               GameStatus `json:"status" gorm:"type:varchar(16);not null;default:'IN_PROGRESS'"`
	TotalQuestions       int        `json:"total_questions" gorm:"not null"`
	CurrentQuestionIndex int        `json:"current_question_index" gorm:"not null;default:0"`
	Score                int        `json:"score" gorm:"not null;default:0"`
	CorrectAnswers       int        `json:"correct_answers" gorm:"not null;default:0"`
	Difficulty           *int       `json:"difficulty,omitempty"`
	Continent            *string    `json:"continent,omitempty" gorm:"type:varchar(32)"`
	Category             *string    `json:"category,omitempty" gorm:"type:varchar(32)"`
	DailyDate            *string    `json:"daily_date,omitempty" gorm:"type:varchar(10)"`
	StartedAt            time.Time  `json:"started_at" gorm:"not null"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TotalDuration is the wall time between start and finish, zero while the
// session is still open.
func (s *GameSession) TotalDuration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *GameSession) IsPerfect() bool {
	return s.Status == StatusCompleted && s.CorrectAnswers == s.TotalQuestions
}

func (s *GameSession) IsFinal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAbandoned
}

// Involves reports whether userID owns the session or was invited to it.
func (s *GameSession) Involves(userID uint) bool {
	if s.UserID == userID {
		return true
	}
	return s.OpponentID != nil && *s.OpponentID == userID
}
