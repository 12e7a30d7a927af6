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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/journal-editorial-api/api/swagger"
	"github.com/noah-isme/journal-editorial-api/internal/handler"
	internalmiddleware "github.com/noah-isme/journal-editorial-api/internal/middleware"
	"github.com/noah-isme/journal-editorial-api/internal/repository"
	"github.com/noah-isme/journal-editorial-api/internal/service"
	"github.com/noah-isme/journal-editorial-api/pkg/cache"
	"github.com/noah-isme/journal-editorial-api/pkg/config"
	"github.com/noah-isme/journal-editorial-api/pkg/database"
	"github.com/noah-isme/journal-editorial-api/pkg/doi"
	"github.com/noah-isme/journal-editorial-api/pkg/jobs"
	"github.com/noah-isme/journal-editorial-api/pkg/logger"
	"github.com/noah-isme/journal-editorial-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/journal-editorial-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/journal-editorial-api/pkg/middleware/requestid"
	"github.com/noah-isme/journal-editorial-api/pkg/storage"
)

// @title Journal Editorial API
// @version 1.0.0
// @description Manuscript submission, peer review, DOI deposit and issue publication.
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(nil)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, issue cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.IssueTTL, logr, cfg.Cache.Enabled)

	blobs, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("failed to init storage: %v", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	files := service.NewFileService(blobs, signer, logr, service.FileServiceConfig{
		MaxFileSize:  cfg.Storage.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Storage.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})

	var registrar doi.Registrar = doi.NewLocalRegistrar(cfg.DOI.Prefix)
	if cfg.DOI.RegistrarURL != "" {
		registrar = doi.NewHTTPRegistrar(cfg.DOI.RegistrarURL, cfg.DOI.RegistrarToken, cfg.DOI.Timeout)
	}

	manuscriptRepo := repository.NewManuscriptRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	var notifications *service.NotificationService
	if cfg.Mail.Enabled {
		smtp, err := mailer.NewSMTPMailer(cfg.Mail)
		if err != nil {
			log.Fatalf("failed to init mailer: %v", err)
		}
		notifications = service.NewNotificationService(notificationRepo, userRepo, smtp, metrics, logr)
	} else {
		notifications = service.NewNotificationService(notificationRepo, userRepo, nil, metrics, logr)
	}
	emailQueue := jobs.NewQueue("notifications", notifications.DeliverEmail, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		Logger:     logr,
	})
	notifications.AttachQueue(emailQueue)
	emailQueue.Start(ctx)

	manuscripts := service.NewManuscriptService(
		manuscriptRepo, reviewRepo, userRepo, files, notifications, validate, logr,
		service.ManuscriptServiceConfig{IDPrefix: cfg.Journal.IDPrefix, PublicBaseURL: cfg.Journal.PublicBaseURL},
		service.WithManuscriptMetrics(metrics),
	)
	reviews := service.NewReviewService(
		reviewRepo, manuscriptRepo, userRepo, notifications, validate, logr,
		service.ReviewServiceConfig{DueDays: cfg.Journal.ReviewDueDays, MinReviewers: cfg.Journal.MinReviewers},
	)
	deposits := service.NewDOIService(manuscriptRepo, registrar, metrics, validate, logr, service.DOIServiceConfig{
		PublicBaseURL:    cfg.Journal.PublicBaseURL,
		BulkRetryLimit:   cfg.DOI.BulkRetryLimit,
		RegistrarTimeout: cfg.DOI.Timeout,
	})
	issues := service.NewIssueService(
		issueRepo, manuscriptRepo, deposits, cacheSvc, notifications, metrics, validate, logr,
		service.IssueServiceConfig{PublicBaseURL: cfg.Journal.PublicBaseURL, CacheTTL: cfg.Cache.IssueTTL},
	)
	auth := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(auth),
		Manuscripts:   handler.NewManuscriptHandler(manuscripts),
		Reviews:       handler.NewReviewHandler(reviews),
		DOI:           handler.NewDOIHandler(deposits),
		Issues:        handler.NewIssueHandler(issues),
		Notifications: handler.NewNotificationHandler(notifications),
		Files:         handler.NewFileHandler(files),
		Metrics:       metricsHandler,
	}, auth)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	emailQueue.Stop()
}
