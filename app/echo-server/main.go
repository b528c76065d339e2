package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myPromoGame/app/echo-server/metrics"
	"myPromoGame/app/echo-server/router"
	"myPromoGame/business/action"
	"myPromoGame/business/play"
	"myPromoGame/business/reward"
	"myPromoGame/internal/middleware"
	"myPromoGame/internal/repository/memory"
	psqlRepo "myPromoGame/internal/repository/postgres"
	redisRepo "myPromoGame/internal/repository/redis"
	"myPromoGame/internal/rest"
	"myPromoGame/pkg/config"
	"myPromoGame/pkg/database"
	redisdb "myPromoGame/pkg/database/redis"
	"myPromoGame/pkg/logger"
	rewardMetrics "myPromoGame/pkg/metrics"
	"myPromoGame/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting promo game reward engine", "version", cfg.App.Version)

	utils.InitJWT(cfg.JWT.SecretKey)
	metrics.Init()
	rewardMetrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	if cfg.Database.Migrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
		logger.Info("Database migrated")
	}

	// Play locks live in redis so every instance sees them. Without redis
	// plays are only serialized inside this process.
	var locker play.Locker
	if cfg.Redis.Enabled {
		client, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer redisdb.CloseRedisClient(client)
		locker = redisRepo.NewPlayLock(client, cfg.Game.PlayLockTTL, cfg.Game.PlayLockWait)
	} else {
		logger.Warn("Redis disabled, falling back to in-process play locks")
		locker = memory.NewLocker(cfg.Game.PlayLockWait)
	}

	// Init validate
	validate := validator.New()

	// Init repo
	tx := psqlRepo.NewTransactor(db)
	shopRepo := psqlRepo.NewShopRepository(db)
	gameRepo := psqlRepo.NewGameAssignmentRepository(db)
	rewardRepo := psqlRepo.NewRewardRepository(db)
	catalogRepo := psqlRepo.NewActionCatalogRepository(db)
	chosenRepo := psqlRepo.NewChosenActionRepository(db)
	playRepo := psqlRepo.NewPlayRecordRepository(db)
	eventRepo := psqlRepo.NewDrawEventRepository(db)

	// Init service
	rewardSync := reward.NewSetSynchronizer(shopRepo, rewardRepo, tx, reward.NewSetValidator(validate))
	selector := reward.NewSelector(shopRepo, gameRepo, rewardRepo, eventRepo, tx, reward.NewRand(cfg.Game.DrawSeed), cfg.Game.DrawMaxAttempts)
	actionSync := action.NewSetSynchronizer(shopRepo, catalogRepo, chosenRepo, tx, validate)
	gate := play.NewEligibilityGate(playRepo, cfg.Game.PlayCooldown, nil)
	recorder := play.NewRecorder(gate, selector, playRepo, locker, tx)

	// Init handler
	rewardHandler := rest.NewRewardHandler(rewardSync, rewardRepo, selector, eventRepo, cfg.Server.RequestTimeout)
	actionHandler := rest.NewActionHandler(actionSync, chosenRepo, cfg.Server.RequestTimeout)
	playHandler := rest.NewPlayHandler(gate, recorder, cfg.Server.RequestTimeout)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())
	e.Use(middleware.RequestLogger())
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderTraceID},
	}))

	authRequired := middleware.AuthMiddleware()
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupRewardRoutes(api, rewardHandler, authRequired, adminOnly)
	router.SetupActionRoutes(api, actionHandler, authRequired, adminOnly)
	router.SetupPlayRoutes(api, playHandler, authRequired)
	router.SetupMetricsRoute(e)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
