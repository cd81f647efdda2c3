package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dice-game-backend/internal/config"
	"dice-game-backend/internal/handlers"
	"dice-game-backend/internal/metrics"
	"dice-game-backend/internal/middleware"
	"dice-game-backend/internal/producer"
	"dice-game-backend/internal/repo"
	"dice-game-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisService.Close()

	betLog, err := repo.Connect(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer betLog.Close()

	ctx := context.Background()
	if err := betLog.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure bet log schema", zap.Error(err))
	}

	// Recovery: any bet row still pending from a previous run lost its
	// settlement. Void it so the nonce gap is explicit, never reused.
	if voided, err := betLog.VoidStalePending(ctx, time.Minute); err != nil {
		logger.Fatal("Failed to void orphaned nonces", zap.Error(err))
	} else if voided > 0 {
		logger.Warn("voided orphaned nonces from previous run", zap.Int64("count", voided))
	}

	var publisher services.SettlementPublisher
	if cfg.KafkaBrokers != "" {
		kafkaProducer := producer.NewKafkaProducer(cfg.KafkaBrokers, cfg.TopicBetSettled)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
		logger.Info("settlement events enabled",
			zap.String("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.TopicBetSettled))
	}

	jwtService := services.NewJWTService(cfg)
	rotation := services.NewRotationManager(redisService, betLog, cfg.NonceLockTimeout)
	gameService := services.NewGameService(rotation, redisService, betLog, publisher, logger, cfg)

	wsHandler := handlers.NewWebSocketHandler(logger)
	gameService.SetBroadcaster(wsHandler)

	sessionHandler := handlers.NewSessionHandler(gameService, jwtService, logger)
	gameHandler := handlers.NewGameHandler(gameService, logger)
	verifyHandler := handlers.NewVerifyHandler(gameService)

	metricsSrv := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := redisService.Ping(ctx); err != nil {
			return err
		}
		return betLog.Ping(ctx)
	})
	defer metricsSrv.Close()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	{
		api.POST("/session", sessionHandler.CreateSession)
		api.POST("/verify", verifyHandler.Verify)

		game := api.Group("/game")
		{
			game.GET("/config", gameHandler.GetConfig)
			game.GET("/multiplier", gameHandler.GetMultiplier)
		}

		protected := api.Group("")
		protected.Use(middleware.SessionAuth(jwtService))
		{
			protected.POST("/bets", gameHandler.PlaceBet)
			protected.GET("/bets", gameHandler.GetHistory)

			protected.PUT("/session/seed", sessionHandler.SetClientSeed)
			protected.POST("/session/reveal", sessionHandler.Reveal)
			protected.GET("/session/fairness", sessionHandler.Fairness)

			protected.GET("/ws", wsHandler.HandleWebSocket)
		}
	}

	logger.Info("Server starting",
		zap.String("port", cfg.HTTPPort),
		zap.String("metrics_port", cfg.MetricsPort))

	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	}

	logger, err := zapCfg.Build(
		zap.Fields(
			zap.String("service", "dice-game-backend"),
			zap.String("env", cfg.Env),
		),
	)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}
