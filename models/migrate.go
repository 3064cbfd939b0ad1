package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Partial and composite indexes that gorm tags cannot express portably.
// Both postgres and sqlite accept these statements.
var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_game_sessions_active_user
		ON game_sessions (user_id) WHERE status = 'IN_PROGRESS'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_game_sessions_daily_user
		ON game_sessions (user_id, daily_date) WHERE daily_date IS NOT NULL`,
}

// Migrate creates or updates every table the engine uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Country{},
		&Question{},
		&GameSession{},
		&AnswerRecord{},
		&PlayerProgress{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
