package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/faltometro/faltometro-api/api/swagger"
	"github.com/faltometro/faltometro-api/internal/handler"
	"github.com/faltometro/faltometro-api/internal/repository"
	"github.com/faltometro/faltometro-api/internal/router"
	"github.com/faltometro/faltometro-api/internal/service"
	"github.com/faltometro/faltometro-api/pkg/cache"
	"github.com/faltometro/faltometro-api/pkg/config"
	"github.com/faltometro/faltometro-api/pkg/database"
	"github.com/faltometro/faltometro-api/pkg/logger"
	corsmiddleware "github.com/faltometro/faltometro-api/pkg/middleware/cors"
	reqidmiddleware "github.com/faltometro/faltometro-api/pkg/middleware/requestid"
)

// @title Faltômetro API
// @version 1.0.0
// @description Attendance tracking for university subjects ("cadeiras")
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Cache.Enabled && cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.TTL, logr, true)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	subjectService := service.NewSubjectService(subjectRepo, cacheService, validate, logr, cfg.Risk.MaxAbsenceShare)
	absenceService := service.NewAbsenceService(absenceRepo, subjectService, logr)
	exportService := service.NewExportService(subjectService, nil, nil, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, cfg.APIPrefix, authService, metricsService, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Subject: handler.NewSubjectHandler(subjectService),
		Absence: handler.NewAbsenceHandler(absenceService),
		Export:  handler.NewExportHandler(exportService),
		Metrics: handler.NewMetricsHandler(metricsService),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
