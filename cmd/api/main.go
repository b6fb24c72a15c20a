package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/amqp"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/analytics"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/config"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/handler"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/repository/cache"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/repository/postgres"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/repository/storage"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/service"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	transactionRepo := postgres.NewTransactionRepository(pool)
	budgetRepo := postgres.NewBudgetRepository(pool)

	// Budget alerts are pushed to open WebSocket streams
	hub := websocket.NewHub()
	budgetAlertService := service.NewBudgetAlertService(budgetRepo, hub)

	// Initialize services
	aggregator := analytics.NewAggregator(analytics.Options{
		Palette:     analytics.Palette(cfg.Report.Palette),
		MonthWindow: cfg.Report.MonthWindow,
		MaxSeries:   cfg.Report.MaxSeries,
	})
	reportService := service.NewReportService(transactionRepo, aggregator)

	// Redis report cache and shared alert ledger (optional)
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - report caching disabled")
		} else {
			defer redisClient.Close()
			reportService.SetCache(cache.NewReportCache(redisClient, cfg.Redis.TTL))
			budgetAlertService.SetLedger(cache.NewAlertLedger(redisClient))
			log.Info().Dur("ttl", cfg.Redis.TTL).Msg("Report caching and shared alert ledger enabled")
		}
	}

	// S3 report export (optional)
	if cfg.S3.Enabled() {
		reportRepo, err := storage.NewS3ReportRepository(ctx, cfg.S3)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize S3 storage - report export disabled")
		} else {
			reportService.SetStorage(reportRepo, service.DefaultExportExpiry)
			log.Info().Str("bucket", cfg.S3.Bucket).Msg("Report export enabled")
		}
	}

	// AMQP budget alert notifications (optional)
	if cfg.AMQP.URL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to AMQP broker - broker notifications disabled")
		} else {
			defer amqpClient.Close()
			budgetAlertService.AddDispatcher(amqpClient)
			log.Info().Str("queue", cfg.AMQP.Queue).Msg("Broker notifications enabled")
		}
	}

	// Background budget sweep
	var budgetWorker *service.BudgetAlertWorker
	if cfg.BudgetCheckInterval > 0 {
		budgetWorker = service.NewBudgetAlertWorker(budgetAlertService, budgetRepo, log.Logger, service.BudgetAlertWorkerConfig{
			Interval: cfg.BudgetCheckInterval,
		})
		budgetWorker.Start(ctx)
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, middleware.DefaultBurstSize)

	// Initialize handlers
	analyticsHandler := handler.NewAnalyticsHandler(reportService)
	budgetHandler := handler.NewBudgetHandler(budgetAlertService)
	alertStream := handler.NewAlertStreamHandler(hub, authMiddleware, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, analyticsHandler, budgetHandler, alertStream)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if budgetWorker != nil {
		budgetWorker.Stop()
	}
	rateLimiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
