package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geoquiz/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const experiencePerLevelStep = 100

// LevelForExperience returns the level reached with xp experience: reaching
// level n+1 costs 100*n on top of what level n cost.
func LevelForExperience(xp int64) int {
	level := 1
	remaining := xp
	for remaining >= int64(experiencePerLevelStep*level) {
		remaining -= int64(experiencePerLevelStep * level)
		level++
	}
	return level
}

// ExperienceForLevel is the cumulative experience needed to reach level.
func ExperienceForLevel(level int) int64 {
	// 100 * (1 + 2 + ... + (level-1))
	n := int64(level - 1)
	return int64(experiencePerLevelStep) * n * (n + 1) / 2
}

// ApplyAnswer updates streaks and response-time stats for one answer.
func ApplyAnswer(p *models.PlayerProgress, correct bool, responseTimeMs *int) {
	if correct {
		p.CurrentStreak++
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
	} else {
		p.CurrentStreak = 0
	}

	if responseTimeMs == nil {
		return
	}
	ms := *responseTimeMs
	p.AnsweredWithTime++
	p.AverageResponseMs += (float64(ms) - p.AverageResponseMs) / float64(p.AnsweredWithTime)
	if correct && (p.BestResponseMs == nil || ms < *p.BestResponseMs) {
		best := ms
		p.BestResponseMs = &best
	}
}

// ApplyCompletion folds a completed session into the aggregate.
func ApplyCompletion(p *models.PlayerProgress, s *models.GameSession, now time.Time) {
	p.TotalScore += int64(s.Score)
	p.TotalGames++
	p.TotalQuestions += s.TotalQuestions
	p.CorrectAnswers += s.CorrectAnswers
	played := now
	p.LastPlayed = &played

	if s.IsPerfect() {
		p.PerfectGames++
	}
	if s.CorrectAnswers*2 > s.TotalQuestions {
		p.GamesWon++
	}

	p.ExperiencePoints += int64(s.Score)
	p.Level = LevelForExperience(p.ExperiencePoints)

	if s.Mode == models.ModeDaily && s.DailyDate != nil {
		applyDailyStreak(p, *s.DailyDate)
	}
}

func applyDailyStreak(p *models.PlayerProgress, day string) {
	if p.LastDailyDate != nil && *p.LastDailyDate == day {
		return
	}
	if p.LastDailyDate != nil && isNextDay(*p.LastDailyDate, day) {
		p.DailyStreak++
	} else {
		p.DailyStreak = 1
	}
	d := day
	p.LastDailyDate = &d
}

func isNextDay(prev, day string) bool {
	a, err := time.Parse(dayLayout, prev)
	if err != nil {
		return false
	}
	b, err := time.Parse(dayLayout, day)
	if err != nil {
		return false
	}
	return a.AddDate(0, 0, 1).Equal(b)
}

// ProgressTracker persists PlayerProgress rows. Every write goes through a
// caller-supplied transaction so aggregates move together with the session.
type ProgressTracker struct {
	db *gorm.DB
}

func NewProgressTracker(db *gorm.DB) *ProgressTracker {
	return &ProgressTracker{db: db}
}

// loadOrCreate returns the user's row, creating an empty one on first use.
// It takes no row lock; callers hold the session row through their
// compare-and-swap update, which serializes writes for one user's game.
func (t *ProgressTracker) loadOrCreate(tx *gorm.DB, userID uint) (*models.PlayerProgress, error) {
	fresh := models.PlayerProgress{UserID: userID, Level: 1}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create progress: %w", err)
	}

	var p models.PlayerProgress
	if err := tx.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return &p, nil
}

// RecordAnswer applies one answer to the user's streaks within tx.
func (t *ProgressTracker) RecordAnswer(tx *gorm.DB, userID uint, correct bool, responseTimeMs *int) (*models.PlayerProgress, error) {
	p, err := t.loadOrCreate(tx, userID)
	if err != nil {
		return nil, err
	}
	ApplyAnswer(p, correct, responseTimeMs)
	if err := tx.Save(p).Error; err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return p, nil
}

// RecordCompletion applies a completed session within tx.
func (t *ProgressTracker) RecordCompletion(tx *gorm.DB, s *models.GameSession, now time.Time) (*models.PlayerProgress, error) {
	p, err := t.loadOrCreate(tx, s.UserID)
	if err != nil {
		return nil, err
	}
	ApplyCompletion(p, s, now)
	if err := tx.Save(p).Error; err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return p, nil
}

// ProgressView is PlayerProgress plus derived values.
type ProgressView struct {
	models.PlayerProgress
	AccuracyPercent   float64 `json:"accuracy"`
	NextLevelAt       int64   `json:"next_level_experience"`
	ExperienceToLevel int64   `json:"experience_to_next_level"`
}

func newProgressView(p *models.PlayerProgress) *ProgressView {
	next := ExperienceForLevel(p.Level + 1)
	return &ProgressView{
		PlayerProgress:    *p,
		AccuracyPercent:   p.Accuracy(),
		NextLevelAt:       next,
		ExperienceToLevel: next - p.ExperiencePoints,
	}
}

// GetUserProgress returns the user's aggregate; users who never finished a
// question have none.
func (t *ProgressTracker) GetUserProgress(ctx context.Context, userID uint) (*ProgressView, error) {
	var p models.PlayerProgress
	err := t.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ReasonProgressNotFound, "no progress recorded for user")
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return newProgressView(&p), nil
}
