package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionCacheTTL = 2 * time.Hour

// SessionCache keeps the question currently shown in each live session.
// The database stays authoritative; a miss only means GetStatus has no
// current question to echo.
type SessionCache struct {
	redis *redis.Client
	log   *zap.Logger
}

func NewSessionCache(client *redis.Client, log *zap.Logger) *SessionCache {
	return &SessionCache{redis: client, log: log}
}

func sessionKey(sessionID uint) string {
	return "game:" + strconv.FormatUint(uint64(sessionID), 10)
}

func (c *SessionCache) StoreCurrent(ctx context.Context, sessionID uint, q *PresentedQuestion) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal current question: %w", err)
	}
	if err := c.redis.Set(ctx, sessionKey(sessionID), data, sessionCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	c.log.Debug("stored current question",
		zap.Uint("session_id", sessionID), zap.Uint("question_id", q.ID), zap.Int("index", q.Index))
	return nil
}

// Current returns nil when nothing is cached.
func (c *SessionCache) Current(ctx context.Context, sessionID uint) *PresentedQuestion {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := c.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("redis error reading current question", zap.Uint("session_id", sessionID), zap.Error(err))
		}
		return nil
	}

	var q PresentedQuestion
	if err := json.Unmarshal(data, &q); err != nil {
		c.log.Warn("corrupt cached question", zap.Uint("session_id", sessionID), zap.Error(err))
		return nil
	}
	return &q
}

func (c *SessionCache) Clear(ctx context.Context, sessionID uint) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		c.log.Warn("failed to clear cached question", zap.Uint("session_id", sessionID), zap.Error(err))
	}
}
