// Package main runs the partnership admin HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/partnerbot/backend/config"
	"github.com/partnerbot/backend/internal/auth"
	"github.com/partnerbot/backend/internal/categories"
	"github.com/partnerbot/backend/internal/discord"
	"github.com/partnerbot/backend/internal/display"
	"github.com/partnerbot/backend/internal/embeds"
	"github.com/partnerbot/backend/internal/middleware"
	"github.com/partnerbot/backend/internal/organizations"
	"github.com/partnerbot/backend/internal/partners"
	"github.com/partnerbot/backend/internal/render"
	"github.com/partnerbot/backend/internal/reports"
	"github.com/partnerbot/backend/internal/roles"
	"github.com/partnerbot/backend/pkg/database"
	"github.com/partnerbot/backend/pkg/queue"
	"github.com/partnerbot/backend/pkg/redis"
	"github.com/partnerbot/backend/pkg/response"
	"github.com/partnerbot/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	db := database.New(pool)
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	bot, err := discord.New(cfg.Discord.BotToken, logger)
	if err != nil {
		logger.Fatal("discord", zap.Error(err))
	}

	// Embed images are optional; without S3 the upload endpoint answers 503.
	var images embeds.ImageStore
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ImagesBucket:    cfg.AWS.ImagesBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			images = s3Client
		}
	}

	orgRepo := organizations.NewRepository(db)
	categoryRepo := categories.NewRepository(db)
	partnerRepo := partners.NewRepository(db)
	embedRepo := embeds.NewRepository(db)

	// Reconcilers
	reconciler := display.NewReconciler(bot, display.NewRepository(db), logger)
	displaySvc := display.NewService(orgRepo, embedRepo, partnerRepo, reconciler, render.Planner{InviteBaseURL: cfg.Discord.InviteBaseURL}, logger)
	roleReconciler := roles.NewReconciler(partnerRepo, orgRepo, bot, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	reportStore := reports.NewRedisStore(rdb.Client, cfg.Sync.ReportTTL)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	accounts := auth.NewAccounts(cfg.Admin)
	if accounts.Len() == 0 {
		logger.Warn("no admin accounts configured; set ADMIN_PASSWORD_HASH to enable login")
	}
	authHandler := auth.NewHandler(accounts, jwtService, logger)

	orgHandler := organizations.NewHandler(orgRepo, displaySvc, jobQueue, reportStore, logger)
	categoryHandler := categories.NewHandler(categoryRepo)
	partnerHandler := partners.NewHandler(partners.NewService(partnerRepo, categoryRepo, orgRepo, bot, displaySvc, roleReconciler, logger))
	embedHandler := embeds.NewHandler(embeds.NewService(embedRepo, categoryRepo, orgRepo, displaySvc, images), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.POST("/auth/login", authHandler.Login)

	org := router.Group("/organizations/:guild")
	org.Use(middleware.JWT(jwtService), middleware.Organization(), middleware.AdminOnMutation(auth.RoleAdmin))
	{
		org.POST("/setup", orgHandler.Setup)
		org.GET("/settings", orgHandler.GetSettings)
		org.PUT("/settings/channel", orgHandler.MoveChannel)
		org.PUT("/settings/role", orgHandler.SetRole)
		org.DELETE("/settings/role", orgHandler.ClearRole)
		org.POST("/roles/sweep", orgHandler.RequestSweep)
		org.GET("/roles/report", orgHandler.LastReport)
		org.GET("/display/preview", orgHandler.Preview)
		org.POST("/display/refresh", orgHandler.Refresh)

		org.GET("/categories", categoryHandler.List)
		org.POST("/categories", categoryHandler.Create)
		org.DELETE("/categories/:name", categoryHandler.Delete)

		org.GET("/partners", partnerHandler.List)
		org.POST("/partners", partnerHandler.Create)
		org.PATCH("/partners/:name", partnerHandler.Update)
		org.DELETE("/partners/:name", partnerHandler.Delete)
		org.GET("/partners/:name/reps", partnerHandler.ListReps)
		org.POST("/partners/:name/reps", partnerHandler.AddRep)
		org.DELETE("/partners/:name/reps/:user", partnerHandler.RemoveRep)
		org.GET("/users/:user/partners", partnerHandler.ForUser)

		org.GET("/embeds", embedHandler.List)
		org.POST("/embeds", embedHandler.Create)
		org.PUT("/embeds/order", embedHandler.Reorder)
		org.PATCH("/embeds/:name", embedHandler.Update)
		org.DELETE("/embeds/:name", embedHandler.Delete)
		org.POST("/embeds/:name/image", embedHandler.UploadImage)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
