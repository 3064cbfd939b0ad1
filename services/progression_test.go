package services

import (
	"testing"
	"time"

	"geoquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForExperience(t *testing.T) {
	cases := map[int64]int{0: 1, 99: 1, 100: 2, 299: 2, 300: 3, 599: 3, 600: 4, 1000: 5}
	for xp, level := range cases {
		assert.Equal(t, level, LevelForExperience(xp), "xp=%d", xp)
	}
}

func TestExperienceForLevel(t *testing.T) {
	assert.Equal(t, int64(0), ExperienceForLevel(1))
	assert.Equal(t, int64(100), ExperienceForLevel(2))
	assert.Equal(t, int64(300), ExperienceForLevel(3))
	assert.Equal(t, int64(600), ExperienceForLevel(4))
	for level := 1; level < 10; level++ {
		assert.Equal(t, level, LevelForExperience(ExperienceForLevel(level)))
	}
}

func TestApplyAnswer_Streaks(t *testing.T) {
	p := &models.PlayerProgress{Level: 1}
	for i := 0; i < 3; i++ {
		ApplyAnswer(p, true, nil)
	}
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.BestStreak)

	ApplyAnswer(p, false, nil)
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Equal(t, 3, p.BestStreak)

	ApplyAnswer(p, true, nil)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 3, p.BestStreak)
}

func TestApplyAnswer_ResponseTimes(t *testing.T) {
	p := &models.PlayerProgress{Level: 1}
	ApplyAnswer(p, true, intPtr(3000))
	ApplyAnswer(p, false, intPtr(500))
	ApplyAnswer(p, true, intPtr(2500))
	ApplyAnswer(p, true, nil)

	assert.Equal(t, 3, p.AnsweredWithTime)
	assert.InDelta(t, 2000.0, p.AverageResponseMs, 0.001)
	require.NotNil(t, p.BestResponseMs)
	// The 500ms answer was wrong and does not count as a best time.
	assert.Equal(t, 2500, *p.BestResponseMs)
}

func TestApplyCompletion(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("perfect game", func(t *testing.T) {
		p := &models.PlayerProgress{Level: 1}
		s := &models.GameSession{Status: models.StatusCompleted, Mode: models.ModeQuick, TotalQuestions: 5, CorrectAnswers: 5, Score: 120}
		ApplyCompletion(p, s, now)

		assert.Equal(t, int64(120), p.TotalScore)
		assert.Equal(t, 1, p.TotalGames)
		assert.Equal(t, 5, p.TotalQuestions)
		assert.Equal(t, 5, p.CorrectAnswers)
		assert.Equal(t, 1, p.PerfectGames)
		assert.Equal(t, 1, p.GamesWon)
		assert.Equal(t, int64(120), p.ExperiencePoints)
		assert.Equal(t, 2, p.Level)
		require.NotNil(t, p.LastPlayed)
		assert.True(t, now.Equal(*p.LastPlayed))
		assert.InDelta(t, 100.0, p.Accuracy(), 0.001)
	})

	t.Run("half right is not a win", func(t *testing.T) {
		p := &models.PlayerProgress{Level: 1}
		s := &models.GameSession{Status: models.StatusCompleted, Mode: models.ModeQuick, TotalQuestions: 6, CorrectAnswers: 3, Score: 30}
		ApplyCompletion(p, s, now)
		assert.Zero(t, p.GamesWon)
		assert.Zero(t, p.PerfectGames)
		assert.InDelta(t, 50.0, p.Accuracy(), 0.001)
	})
}

func TestApplyCompletion_DailyStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	daily := func(day string) *models.GameSession {
		return &models.GameSession{Status: models.StatusCompleted, Mode: models.ModeDaily, TotalQuestions: 5, DailyDate: strPtr(day)}
	}

	p := &models.PlayerProgress{Level: 1}
	ApplyCompletion(p, daily("2024-03-10"), now)
	assert.Equal(t, 1, p.DailyStreak)

	ApplyCompletion(p, daily("2024-03-11"), now)
	assert.Equal(t, 2, p.DailyStreak)

	ApplyCompletion(p, daily("2024-03-11"), now)
	assert.Equal(t, 2, p.DailyStreak)

	ApplyCompletion(p, daily("2024-03-14"), now)
	assert.Equal(t, 1, p.DailyStreak)
	assert.Equal(t, "2024-03-14", *p.LastDailyDate)

	ApplyCompletion(p, &models.GameSession{Status: models.StatusCompleted, Mode: models.ModeQuick, TotalQuestions: 5}, now)
	assert.Equal(t, 1, p.DailyStreak)
}

func TestPlayerProgressAccuracy(t *testing.T) {
	assert.Zero(t, (&models.PlayerProgress{}).Accuracy())
	assert.InDelta(t, 80.0, (&models.PlayerProgress{CorrectAnswers: 8, TotalQuestions: 10}).Accuracy(), 0.001)
}
