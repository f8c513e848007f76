package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gotogether/ride-pooling/internal/drivers"
	"github.com/gotogether/ride-pooling/internal/grouping"
	"github.com/gotogether/ride-pooling/internal/matching"
	"github.com/gotogether/ride-pooling/internal/notifications"
	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/config"
	"github.com/gotogether/ride-pooling/pkg/database"
	"github.com/gotogether/ride-pooling/pkg/errors"
	"github.com/gotogether/ride-pooling/pkg/eventbus"
	"github.com/gotogether/ride-pooling/pkg/logger"
	"github.com/gotogether/ride-pooling/pkg/middleware"
	"github.com/gotogether/ride-pooling/pkg/models"
	"github.com/gotogether/ride-pooling/pkg/ratelimit"
	redisclient "github.com/gotogether/ride-pooling/pkg/redis"
	"github.com/gotogether/ride-pooling/pkg/tracing"
)

const (
	serviceName = "ride-pooling-api"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting ride pooling service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	// Initialize Sentry for error tracking
	sentryConfig := errors.DefaultSentryConfig()
	sentryConfig.ServerName = serviceName
	sentryConfig.Release = version
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	tracerEnabled := os.Getenv("OTEL_ENABLED") == "true"
	if tracerEnabled {
		tracerCfg := tracing.Config{
			ServiceName:    os.Getenv("OTEL_SERVICE_NAME"),
			ServiceVersion: version,
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Enabled:        true,
		}

		tp, err := tracing.InitTracer(tracerCfg, logger.Get())
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
			logger.Info("OpenTelemetry tracing initialized successfully")
		}
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to database")

	if err := database.Migrate(&cfg.Database, "file://db/migrations"); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Database schema up to date")

	var (
		redisClient *redisclient.Client
		limiter     *ratelimit.Limiter
	)

	if cfg.RateLimit.Enabled {
		redisClient, err = redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize redis for rate limiting", zap.Error(err))
		}

		limiter = ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
		logger.Info("Rate limiting enabled",
			zap.Int("default_limit", cfg.RateLimit.DefaultLimit),
			zap.Int("default_burst", cfg.RateLimit.DefaultBurst),
			zap.Duration("window", cfg.RateLimit.Window()),
		)

		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}()
	}

	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.New(eventbus.Config{
			URL:        cfg.NATS.URL,
			Name:       serviceName,
			StreamName: cfg.NATS.StreamName,
		})
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()
	}

	tripRepo := matching.NewRepository(db)
	matchingService := matching.NewService(tripRepo, cfg.Matching)
	matchingHandler := matching.NewHandler(matchingService)

	driverRepo := drivers.NewRepository(db)
	driverHandler := drivers.NewHandler(driverRepo)

	groupStore := grouping.NewRepository(db)
	groupingService := grouping.NewService(groupStore, bus, cfg.Grouping)
	groupingHandler := grouping.NewHandler(groupingService)

	notificationStore := notifications.NewRepository(db)
	notificationService := notifications.NewService(notificationStore, bus)
	notificationHandler := notifications.NewHandler(notificationService)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(serviceName))

	if tracerEnabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}

	router.Use(middleware.ErrorHandler())
	router.Use(middleware.ResolveActor())

	router.GET("/health", common.HealthCheck(serviceName, version))
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	if limiter != nil {
		v1.Use(middleware.RateLimit(limiter, cfg.RateLimit))
	}

	trips := v1.Group("/trips")
	{
		trips.POST("/search", matchingHandler.SearchTrips)
		trips.POST("", middleware.RequireKind(models.ActorDriver), matchingHandler.CreateTrip)
		trips.GET("/:id", matchingHandler.GetTrip)
	}

	driverRoutes := v1.Group("/drivers")
	{
		driverRoutes.GET("/queue", middleware.RequireKind(models.ActorAdmin), driverHandler.GetQueue)
		driverRoutes.GET("/:id", driverHandler.GetDriver)
		driverRoutes.PATCH("/:id/availability", middleware.RequireActor(), driverHandler.UpdateAvailability)
	}

	rideRequests := v1.Group("/ride-requests", middleware.RequireKind(models.ActorUser))
	{
		rideRequests.POST("", groupingHandler.CreateRideRequest)
		rideRequests.GET("/:id", groupingHandler.GetRideRequest)
		rideRequests.POST("/:id/cancel", groupingHandler.CancelRideRequest)
	}

	v1.GET("/groups/:id", middleware.RequireActor(), groupingHandler.GetGroup)

	notificationRoutes := v1.Group("/notifications", middleware.RequireKind(models.ActorUser))
	{
		notificationRoutes.GET("", notificationHandler.ListNotifications)
		notificationRoutes.POST("/:id/accept", notificationHandler.AcceptNotification)
		notificationRoutes.POST("/:id/reject", notificationHandler.RejectNotification)
		notificationRoutes.POST("/:id/read", notificationHandler.MarkNotificationRead)
		notificationRoutes.POST("/system/:id/read", notificationHandler.MarkSystemNotificationRead)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
