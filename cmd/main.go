package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/openfloor/qna-service/internal/cache"
	"github.com/openfloor/qna-service/internal/config"
	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/internal/handler"
	"github.com/openfloor/qna-service/internal/hub"
	"github.com/openfloor/qna-service/internal/repository"
	"github.com/openfloor/qna-service/internal/service"
	"github.com/openfloor/qna-service/pkg/database"
	pkglog "github.com/openfloor/qna-service/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "qna-service",
	})
	logger := pkglog.L()

	// Connect to database using GORM
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate
	if err := database.AutoMigrate(db, &domain.QuestionModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Initialize repository
	questionRepo := repository.NewGormQuestionRepository(db)

	// Initialize Redis cache (optional)
	var questionCache cache.QuestionCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisQuestionCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		questionCache = redisCache
		logger.Info().Msg("redis cache connected")
	}

	// Initialize broadcast hub
	h := hub.NewHub()

	// Initialize service
	questionService := service.NewQuestionService(
		questionRepo,
		h,
		questionCache,
		cfg.Cache.TTL,
		cfg.Question.AnonymousAuthor,
	)

	// Initialize handlers
	httpHandler := handler.NewHandler(questionService)
	wsHandler := handler.NewWSHandler(h, questionService, cfg.WebSocket)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("addr", addr).Str("driver", cfg.Database.Driver).Bool("cache_enabled", cfg.Cache.Enabled).Msg("qna-service starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
