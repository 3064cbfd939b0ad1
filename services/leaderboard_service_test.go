package services

import (
	"context"
	"testing"
	"time"

	"geoquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const dave uint = 4

func newTestLeaderboard(t *testing.T) *LeaderboardService {
	t.Helper()
	db := newTestDB(t)
	seedFixtures(t, db)
	require.NoError(t, db.Create(&models.User{ID: dave, Username: "dave"}).Error)

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	played := func(daysAgo int) *time.Time {
		at := now.AddDate(0, 0, -daysAgo)
		return &at
	}
	rows := []models.PlayerProgress{
		{UserID: carol, TotalScore: 100, Level: 1, TotalQuestions: 10, CorrectAnswers: 5, LastPlayed: played(20)},
		{UserID: bob, TotalScore: 200, Level: 2, LastPlayed: played(10)},
		{UserID: alice, TotalScore: 200, Level: 2, LastPlayed: played(1)},
		{UserID: dave, TotalScore: 50, Level: 1},
	}
	require.NoError(t, db.Create(&rows).Error)

	lb := NewLeaderboardService(db, zap.NewNop())
	lb.SetClock(func() time.Time { return now })
	return lb
}

func userIDs(entries []LeaderboardEntry) []uint {
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	return ids
}

func TestGetLeaderboard_Global(t *testing.T) {
	lb := newTestLeaderboard(t)

	page, err := lb.GetLeaderboard(context.Background(), LeaderboardGlobal, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	// Equal scores fall back to the lower user id.
	assert.Equal(t, []uint{alice, bob, carol, dave}, userIDs(page.Items))
	for i, entry := range page.Items {
		assert.Equal(t, i+1, entry.Rank)
	}
	assert.Equal(t, "alice", page.Items[0].Username)
	assert.InDelta(t, 50.0, page.Items[2].AccuracyRatio, 0.001)
}

func TestGetLeaderboard_Paging(t *testing.T) {
	lb := newTestLeaderboard(t)

	page, err := lb.GetLeaderboard(context.Background(), LeaderboardGlobal, 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, []uint{carol, dave}, userIDs(page.Items))
	assert.Equal(t, 3, page.Items[0].Rank)
	assert.Equal(t, 4, page.Items[1].Rank)

	page, err = lb.GetLeaderboard(context.Background(), LeaderboardGlobal, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = lb.GetLeaderboard(context.Background(), LeaderboardGlobal, 0, MaxPageSize+1)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestGetLeaderboard_Periods(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	weekly, err := lb.GetLeaderboard(ctx, LeaderboardWeekly, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice}, userIDs(weekly.Items))
	assert.Equal(t, int64(1), weekly.Total)

	monthly, err := lb.GetLeaderboard(ctx, LeaderboardMonthly, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice, bob, carol}, userIDs(monthly.Items))
}

func TestParseLeaderboardType(t *testing.T) {
	got, err := ParseLeaderboardType("weekly")
	require.NoError(t, err)
	assert.Equal(t, LeaderboardWeekly, got)

	got, err = ParseLeaderboardType("")
	require.NoError(t, err)
	assert.Equal(t, LeaderboardGlobal, got)

	_, err = ParseLeaderboardType("yearly")
	assert.ErrorIs(t, err, &GameError{Kind: KindInvalid, Reason: ReasonLeaderboardPeriod})
}

func TestGetUserRank(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	want := map[uint]int64{alice: 1, bob: 2, carol: 3, dave: 4}
	for user, rank := range want {
		got, err := lb.GetUserRank(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, rank, got.Rank, "user %d", user)
		assert.Equal(t, int64(4), got.TotalPlayers)
	}

	_, err := lb.GetUserRank(ctx, 77)
	assert.ErrorIs(t, err, &GameError{Kind: KindNotFound, Reason: ReasonProgressNotFound})
}

func TestUserRank_MatchesLeaderboardOrder(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	page, err := lb.GetLeaderboard(ctx, LeaderboardGlobal, 0, 10)
	require.NoError(t, err)
	for _, entry := range page.Items {
		rank, err := lb.GetUserRank(ctx, entry.UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(entry.Rank), rank.Rank)
	}
}
