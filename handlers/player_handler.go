package handlers

import (
	"net/http"

	"geoquiz/services"

	"github.com/gin-gonic/gin"
)

// PlayerHandler serves progression and ranking reads.
type PlayerHandler struct {
	progress    *services.ProgressTracker
	leaderboard *services.LeaderboardService
}

func NewPlayerHandler(progress *services.ProgressTracker, leaderboard *services.LeaderboardService) *PlayerHandler {
	return &PlayerHandler{
		progress:    progress,
		leaderboard: leaderboard,
	}
}

func (h *PlayerHandler) GetProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.progress.GetUserProgress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PlayerHandler) GetRank(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rank, err := h.leaderboard.GetUserRank(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rank)
}

func (h *PlayerHandler) Leaderboard(c *gin.Context) {
	boardType, err := services.ParseLeaderboardType(c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	page, size, ok := pageParams(c)
	if !ok {
		return
	}

	board, err := h.leaderboard.GetLeaderboard(c.Request.Context(), boardType, page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
