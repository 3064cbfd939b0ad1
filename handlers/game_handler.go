package handlers

import (
	"context"
	"net/http"

	"geoquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type GameHandler struct {
	gameService *services.GameService
	hub         *services.Hub
	upgrader    websocket.Upgrader
	log         *zap.Logger
}

func NewGameHandler(gameService *services.GameService, hub *services.Hub, log *zap.Logger) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *GameHandler) StartGame(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": services.ReasonInvalidArgument})
		return
	}

	state, err := h.gameService.StartGame(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (h *GameHandler) ListGames(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, size, ok := pageParams(c)
	if !ok {
		return
	}

	games, err := h.gameService.ListUserGames(c.Request.Context(), userID, page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

func (h *GameHandler) GetStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	state, err := h.gameService.GetStatus(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *GameHandler) NextQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	question, err := h.gameService.GetNextQuestion(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": services.ReasonInvalidArgument})
		return
	}

	result, err := h.gameService.SubmitAnswer(c.Request.Context(), userID, sessionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) FinishGame(c *gin.Context) {
	h.transition(c, h.gameService.FinishGame)
}

func (h *GameHandler) AbandonGame(c *gin.Context) {
	h.transition(c, h.gameService.AbandonGame)
}

func (h *GameHandler) AcceptDuel(c *gin.Context) {
	h.transition(c, h.gameService.AcceptDuel)
}

func (h *GameHandler) transition(c *gin.Context, op func(context.Context, uint, uint) (*services.GameState, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	state, err := op(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Watch upgrades to a websocket fed with the session's events. Only the
// owner and a duel opponent may watch.
func (h *GameHandler) Watch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.gameService.GetStatus(c.Request.Context(), sessionID, userID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed",
			zap.Uint("session_id", sessionID), zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	h.log.Info("session watcher joined",
		zap.Uint("session_id", sessionID), zap.Uint("user_id", userID),
		zap.Int("watchers", len(h.hub.Subscribers(sessionID))))
	h.hub.RegisterClient(conn, sessionID, userID)
}
