package routes

import (
	"net/http"

	"geoquiz/handlers"
	"geoquiz/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	gameHandler *handlers.GameHandler,
	playerHandler *handlers.PlayerHandler,
	practiceHandler *handlers.PracticeHandler,
	jwtSecret string,
) {
	api := router.Group("/api")
	{
		// Public routes
		api.GET("/leaderboard", playerHandler.Leaderboard)

		practice := api.Group("/practice")
		{
			practice.GET("/question", practiceHandler.RandomQuestion)
			practice.POST("/check", practiceHandler.CheckAnswer)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			games := protected.Group("/games")
			{
				games.GET("", gameHandler.ListGames)
				games.POST("", gameHandler.StartGame)
				games.GET("/:id", gameHandler.GetStatus)
				games.GET("/:id/question", gameHandler.NextQuestion)
				games.POST("/:id/answers", gameHandler.SubmitAnswer)
				games.POST("/:id/finish", gameHandler.FinishGame)
				games.POST("/:id/abandon", gameHandler.AbandonGame)
				games.POST("/:id/accept", gameHandler.AcceptDuel)
			}

			me := protected.Group("/me")
			{
				me.GET("/progress", playerHandler.GetProgress)
				me.GET("/rank", playerHandler.GetRank)
			}
		}
	}

	// Session event feed; the token may be passed as ?token= on upgrade.
	router.GET("/ws/sessions/:id", middleware.AuthMiddleware(jwtSecret), gameHandler.Watch)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
