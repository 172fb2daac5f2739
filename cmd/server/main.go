// Package main runs the AMPLIFY HTTP server: fan-link redirects plus the admin and artist API.
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

	"github.com/musicdeclares/amplify/config"
	"github.com/musicdeclares/amplify/internal/analytics"
	"github.com/musicdeclares/amplify/internal/artists"
	"github.com/musicdeclares/amplify/internal/auth"
	"github.com/musicdeclares/amplify/internal/countries"
	"github.com/musicdeclares/amplify/internal/geo"
	"github.com/musicdeclares/amplify/internal/invites"
	"github.com/musicdeclares/amplify/internal/middleware"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/internal/organizations"
	"github.com/musicdeclares/amplify/internal/routerconfig"
	"github.com/musicdeclares/amplify/internal/routing"
	"github.com/musicdeclares/amplify/internal/tours"
	"github.com/musicdeclares/amplify/pkg/database"
	"github.com/musicdeclares/amplify/pkg/queue"
	"github.com/musicdeclares/amplify/pkg/redis"
	"github.com/musicdeclares/amplify/pkg/response"
	"github.com/musicdeclares/amplify/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		AppName:  "amplify-server",
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis is only needed when analytics go through the worker queue.
	var rdb *redis.Client
	if cfg.Analytics.Mode == config.AnalyticsModeQueue {
		rdb, err = redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	// Exports are disabled without an AWS region; the export endpoint then answers 503.
	var exporter analytics.Exporter
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			exporter = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Repositories
	userRepo := auth.NewRepository(pool)
	artistRepo := artists.NewRepository(pool)
	tourRepo := tours.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool)
	countryRepo := countries.NewRepository(pool)
	inviteRepo := invites.NewRepository(pool)
	analyticsRepo := analytics.NewRepository(pool)
	configRepo := routerconfig.NewRepository(pool)

	if err := auth.EnsureAdmin(ctx, userRepo, cfg.Admin.Email, cfg.Admin.Password, logger); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	// Analytics writer: direct to PostgreSQL, or via Redis for cmd/worker to persist.
	var writer analytics.Writer = analyticsRepo
	if rdb != nil {
		writer = queue.NewQueue(rdb.Client, logger)
	}
	sink := analytics.NewSink(writer, cfg.Analytics.BufferSize, logger)

	// Routing
	fallbackCache := routerconfig.NewFallbackCache(configRepo, cfg.Routing.FallbackCacheTTL, cfg.Routing.DefaultFallbackURL, logger)
	engine := routing.NewEngine(routing.NewPostgresStore(artistRepo, tourRepo, orgRepo, countryRepo), fallbackCache, sink, logger)
	routingHandler := routing.NewHandler(engine, geo.NewResolver(), cfg.Routing.UTMSource, cfg.Routing.UTMMedium, logger)

	// Handlers
	authHandler := auth.NewHandler(userRepo, jwtService, logger)
	inviteHandler := invites.NewHandler(inviteRepo, jwtService, cfg.Invites.ExpireDays, logger)
	artistHandler := artists.NewHandler(artistRepo, logger)
	tourHandler := tours.NewHandler(tourRepo, logger)
	orgHandler := organizations.NewHandler(orgRepo, logger)
	countryHandler := countries.NewHandler(countryRepo, logger)
	configHandler := routerconfig.NewHandler(configRepo, fallbackCache)
	analyticsHandler := analytics.NewHandler(analyticsRepo, artistRepo, exporter, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if rdb != nil && !rdb.Healthy(c.Request.Context()) {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Public: fan links and fallback copy
	router.GET("/a/:handle", routingHandler.Redirect)
	router.GET("/api/fallback", routingHandler.FallbackMessage)

	// Auth and invite acceptance (public)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/invites/:token/accept", inviteHandler.Accept)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)

		// Artist self-service (admin or the artist itself)
		own := api.Group("/artists/:id", middleware.RequireArtistAccess())
		own.GET("", artistHandler.Get)
		own.PATCH("", artistHandler.Update)
		own.GET("/tours", tourHandler.ListByArtist)
		own.POST("/tours", tourHandler.Create)
		own.GET("/analytics/fallbacks", analyticsHandler.ArtistFallbacks)

		tour := api.Group("/tours/:tourId", tours.RequireTourAccess(tourRepo))
		tour.GET("", tourHandler.Get)
		tour.PATCH("", tourHandler.Update)
		tour.DELETE("", tourHandler.Delete)
		tour.GET("/countries", tourHandler.ListCountries)
		tour.PUT("/countries/:code", tourHandler.PutCountry)
		tour.DELETE("/countries/:code", tourHandler.DeleteCountry)

		// Admin only
		adm := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		adm.POST("/invites", inviteHandler.Create)
		adm.GET("/invites", inviteHandler.List)

		adm.GET("/artists", artistHandler.List)
		adm.POST("/artists", artistHandler.Create)
		adm.POST("/artists/:id/disable", artistHandler.Disable)
		adm.POST("/artists/:id/enable", artistHandler.Enable)

		adm.GET("/organizations", orgHandler.List)
		adm.POST("/organizations", orgHandler.Create)
		adm.GET("/organizations/:id", orgHandler.Get)
		adm.PATCH("/organizations/:id", orgHandler.Update)
		adm.PUT("/organizations/:id/override", orgHandler.PutOverride)
		adm.DELETE("/organizations/:id/override", orgHandler.DeleteOverride)

		adm.GET("/countries/defaults", countryHandler.List)
		adm.POST("/countries/defaults", countryHandler.Create)
		adm.DELETE("/countries/defaults/:id", countryHandler.Delete)

		adm.GET("/router-config/fallback-url", configHandler.GetFallbackURL)
		adm.PUT("/router-config/fallback-url", configHandler.SetFallbackURL)

		adm.GET("/analytics/fallbacks", analyticsHandler.AdminFallbacks)
		adm.POST("/analytics/export", analyticsHandler.Export)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("analytics_mode", cfg.Analytics.Mode))
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
	// Flush buffered analytics after the last request has finished.
	if err := sink.Close(shutdownCtx); err != nil {
		logger.Warn("analytics flush incomplete", zap.Error(err))
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
