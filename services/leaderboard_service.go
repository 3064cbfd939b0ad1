package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"geoquiz/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LeaderboardType string

const (
	LeaderboardGlobal  LeaderboardType = "GLOBAL"
	LeaderboardWeekly  LeaderboardType = "WEEKLY"
	LeaderboardMonthly LeaderboardType = "MONTHLY"
)

// ParseLeaderboardType accepts any casing; empty means GLOBAL.
func ParseLeaderboardType(s string) (LeaderboardType, error) {
	switch t := LeaderboardType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return LeaderboardGlobal, nil
	case LeaderboardGlobal, LeaderboardWeekly, LeaderboardMonthly:
		return t, nil
	default:
		return "", &GameError{Kind: KindInvalid, Reason: ReasonLeaderboardPeriod, Message: fmt.Sprintf("unknown leaderboard type %q", s)}
	}
}

// window is how far back lastPlayed may be; zero means unbounded.
func (t LeaderboardType) window() time.Duration {
	switch t {
	case LeaderboardWeekly:
		return 7 * 24 * time.Hour
	case LeaderboardMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        uint    `json:"user_id"`
	Username      string  `json:"username,omitempty"`
	TotalScore    int64   `json:"total_score"`
	Level         int     `json:"level"`
	TotalGames    int     `json:"total_games"`
	GamesWon      int     `json:"games_won"`
	BestStreak    int     `json:"best_streak"`
	AccuracyRatio float64 `json:"accuracy"`
}

type UserRank struct {
	UserID       uint  `json:"user_id"`
	Rank         int64 `json:"rank"`
	TotalScore   int64 `json:"total_score"`
	TotalPlayers int64 `json:"total_players"`
}

// LeaderboardService ranks players by total score, breaking ties by the
// lower user id so pages are stable.
type LeaderboardService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewLeaderboardService(db *gorm.DB, log *zap.Logger) *LeaderboardService {
	return &LeaderboardService{db: db, log: log, now: time.Now}
}

func (s *LeaderboardService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *LeaderboardService) scoped(ctx context.Context, t LeaderboardType) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.PlayerProgress{})
	if w := t.window(); w > 0 {
		db = db.Where("last_played >= ?", s.now().Add(-w))
	}
	return db
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, t LeaderboardType, page, size int) (*Page[LeaderboardEntry], error) {
	if err := validatePage(page, size); err != nil {
		return nil, err
	}

	var total int64
	if err := s.scoped(ctx, t).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}

	var rows []models.PlayerProgress
	if err := s.scoped(ctx, t).
		Order("total_score DESC").Order("user_id ASC").
		Offset(page * size).Limit(size).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	names, err := s.usernames(ctx, rows)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		entries = append(entries, LeaderboardEntry{
			Rank:          page*size + i + 1,
			UserID:        p.UserID,
			Username:      names[p.UserID],
			TotalScore:    p.TotalScore,
			Level:         p.Level,
			TotalGames:    p.TotalGames,
			GamesWon:      p.GamesWon,
			BestStreak:    p.BestStreak,
			AccuracyRatio: p.Accuracy(),
		})
	}

	s.log.Debug("leaderboard served",
		zap.String("type", string(t)), zap.Int("page", page), zap.Int("entries", len(entries)))
	return &Page[LeaderboardEntry]{Items: entries, Page: page, Size: size, Total: total}, nil
}

func (s *LeaderboardService) usernames(ctx context.Context, rows []models.PlayerProgress) (map[uint]string, error) {
	names := make(map[uint]string, len(rows))
	if len(rows) == 0 {
		return names, nil
	}
	ids := make([]uint, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.UserID)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load usernames: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

// GetUserRank is the user's 1-based position on the global board.
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID uint) (*UserRank, error) {
	var p models.PlayerProgress
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&p).Error
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if p.ID == 0 {
		return nil, notFound(ReasonProgressNotFound, "user has no ranking yet")
	}

	var ahead int64
	if err := s.db.WithContext(ctx).Model(&models.PlayerProgress{}).
		Where("total_score > ? OR (total_score = ? AND user_id < ?)", p.TotalScore, p.TotalScore, userID).
		Count(&ahead).Error; err != nil {
		return nil, fmt.Errorf("count players ahead: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.PlayerProgress{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}

	return &UserRank{UserID: userID, Rank: ahead + 1, TotalScore: p.TotalScore, TotalPlayers: total}, nil
}
