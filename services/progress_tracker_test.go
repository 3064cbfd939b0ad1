package services

import (
	"context"
	"testing"
	"time"

	"geoquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProgressTracker_CreatesRowLazily(t *testing.T) {
	db := newTestDB(t)
	tracker := NewProgressTracker(db)
	ctx := context.Background()

	_, err := tracker.GetUserProgress(ctx, alice)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := tracker.RecordAnswer(tx, alice, true, intPtr(1200))
		return err
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := tracker.RecordAnswer(tx, alice, true, nil)
		return err
	}))

	var count int64
	require.NoError(t, db.Model(&models.PlayerProgress{}).Where("user_id = ?", alice).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	view, err := tracker.GetUserProgress(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, view.CurrentStreak)
	assert.Equal(t, 1, view.Level)
	assert.Equal(t, int64(100), view.NextLevelAt)
	require.NotNil(t, view.BestResponseMs)
	assert.Equal(t, 1200, *view.BestResponseMs)
}

func TestProgressTracker_RollsBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	tracker := NewProgressTracker(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := tracker.RecordCompletion(tx, &models.GameSession{
			UserID: alice, Status: models.StatusCompleted, Mode: models.ModeQuick, TotalQuestions: 5, Score: 40,
		}, time.Now()); err != nil {
			return err
		}
		return conflict(ReasonConcurrentUpdate, "abort")
	})
	require.Error(t, err)

	_, err = tracker.GetUserProgress(context.Background(), alice)
	assert.ErrorIs(t, err, ErrNotFound)
}
