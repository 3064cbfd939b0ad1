package main

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geoquiz/config"
	"geoquiz/handlers"
	"geoquiz/logging"
	"geoquiz/middleware"
	"geoquiz/models"
	"geoquiz/routes"
	"geoquiz/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid game time zone", zap.Error(err))
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient := config.InitRedis(cfg)
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, current-question cache disabled until it recovers", zap.Error(err))
	}

	hub := services.NewHub(log.Named("hub"))
	go hub.Run(ctx)

	seed := time.Now().UnixNano()
	catalog := services.NewQuestionCatalog(db, rand.New(rand.NewSource(seed)))
	composer := services.NewComposer(rand.New(rand.NewSource(seed + 1)))
	progress := services.NewProgressTracker(db)
	gameService := services.NewGameService(
		db,
		catalog,
		composer,
		progress,
		services.NewGormUserDirectory(db),
		services.NewSessionCache(redisClient, log.Named("cache")),
		hub,
		loc,
		log.Named("game"),
	)
	leaderboard := services.NewLeaderboardService(db, log.Named("leaderboard"))
	practice := services.NewPracticeService(catalog, composer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.Named("http")))
	router.Use(middleware.CORS())

	routes.SetupRoutes(
		router,
		handlers.NewGameHandler(gameService, hub, log.Named("ws")),
		handlers.NewPlayerHandler(progress, leaderboard),
		handlers.NewPracticeHandler(practice),
		cfg.JWTSecret,
	)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
