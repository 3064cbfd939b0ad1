package models

import (
	"time"
)

// PlayerProgress is the durable cross-game aggregate for a user.
type PlayerProgress struct {
	ID                uint       `json:"-" gorm:"primaryKey"`
	UserID            uint       `json:"user_id" gorm:"not null;uniqueIndex"`
	TotalScore        int64      `json:"total_score" gorm:"not null;default:0;index"`
	TotalGames        int        `json:"total_games" gorm:"not null;default:0"`
	TotalQuestions    int        `json:"total_questions" gorm:"not null;default:0"`
	CorrectAnswers    int        `json:"correct_answers" gorm:"not null;default:0"`
	CurrentStreak     int        `json:"current_streak" gorm:"not null;default:0"`
	BestStreak        int        `json:"best_streak" gorm:"not null;default:0"`
	Level             int        `json:"level" gorm:"not null;default:1"`
	ExperiencePoints  int64      `json:"experience_points" gorm:"not null;default:0"`
	GamesWon          int        `json:"games_won" gorm:"not null;default:0"`
	PerfectGames      int        `json:"perfect_games" gorm:"not null;default:0"`
	AnsweredWithTime  int        `json:"-" gorm:"not null;default:0"`
	AverageResponseMs float64    `json:"average_response_ms" gorm:"not null;default:0"`
	BestResponseMs    *int       `json:"best_response_ms,omitempty"`
	LastPlayed        *time.Time `json:"last_played,omitempty" gorm:"index"`
	DailyStreak       int        `json:"daily_streak" gorm:"not null;default:0"`
	LastDailyDate     *string    `json:"last_daily_date,omitempty" gorm:"type:varchar(10)"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Accuracy is the share of correct answers in percent, 0 with no answers.
func (p *PlayerProgress) Accuracy() float64 {
	if p.TotalQuestions == 0 {
		return 0
	}
	return float64(p.CorrectAnswers) * 100.0 / float64(p.TotalQuestions)
}
