package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/asucbc/cbc-api/config"
	"github.com/asucbc/cbc-api/internal/cache"
	"github.com/asucbc/cbc-api/internal/handlers"
	"github.com/asucbc/cbc-api/internal/middleware"
	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/internal/repository"
	"github.com/asucbc/cbc-api/internal/services"
	"github.com/asucbc/cbc-api/pkg/db"
	"github.com/asucbc/cbc-api/pkg/discord"
	"github.com/asucbc/cbc-api/pkg/googleauth"
	"github.com/asucbc/cbc-api/pkg/googlecalendar"
	"github.com/asucbc/cbc-api/pkg/httpclient"
	"github.com/asucbc/cbc-api/pkg/jwt"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/metrics"
	"github.com/asucbc/cbc-api/pkg/profiling"
	"github.com/asucbc/cbc-api/pkg/tracing"
)

// registerRedeemRoutes mounts the redemption endpoint on one path prefix.
// The site posts to /api/redeem; /redeem is the bare route.
func registerRedeemRoutes(group *gin.RouterGroup, limiter *middleware.RateLimiter, handler *handlers.RedeemHandler) {
	group.POST("/redeem", limiter.Middleware(), middleware.BodySizeLimitMiddleware(middleware.DefaultMaxBodyBytes), handler.Redeem)
	group.OPTIONS("/redeem", handler.Preflight)
}

func registerCalendarRoutes(api *gin.RouterGroup, limiter *middleware.RateLimiter, handler *handlers.CalendarHandler) {
	calendar := api.Group("/calendar", limiter.Middleware())
	calendar.GET("/month", handler.Month)
	calendar.GET("/today", handler.Today)
	calendar.GET("/metadata", handler.Metadata)
	calendar.GET("/subscribe", handler.Subscribe)
}

// registerAuthRoutes mounts Google sign-in when it is configured
func registerAuthRoutes(api *gin.RouterGroup, cfg *config.Config, limiter *middleware.RateLimiter, users services.UserStore) {
	if !cfg.Auth.Enabled() {
		logger.Warn("Auth routes disabled: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET or JWT_SECRET not configured")
		return
	}

	provider := googleauth.NewProvider(googleauth.Config{
		ClientID:     cfg.Auth.GoogleClientID,
		ClientSecret: cfg.Auth.GoogleClientSecret,
		RedirectURL:  cfg.Auth.CallbackURL(),
		HostedDomain: cfg.Auth.AllowedEmailDomain,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	})
	tokenManager := jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTLHours)
	authService := services.NewAuthService(cfg.Auth, provider, tokenManager, users)
	authHandler := handlers.NewAuthHandler(authService, strings.TrimRight(cfg.Auth.PublicBaseURL, "/")+"/")

	auth := api.Group("/auth", limiter.Middleware())
	auth.GET("/google/login", authHandler.Login)
	auth.GET("/google/callback", authHandler.Callback)
	auth.GET("/session", middleware.SessionMiddleware(tokenManager, cfg.Auth.CookieDomain, cfg.Auth.CookieSecure), authHandler.Session)
	auth.POST("/logout", authHandler.Logout)
}

// recoveryHandler answers panics with the generic 500 body
func recoveryHandler(c *gin.Context, recovered any) {
	logger.Error("Panic recovered",
		zap.Any("panic", recovered),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", middleware.GetRequestID(c)))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": models.MsgInternalServerError})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting CBC API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
		zap.Bool("event_location_configured", cfg.Redeem.LocationConfigured()),
		zap.Int("redeem_webhooks", len(cfg.Redeem.WebhookURLs)),
	)

	tracerShutdown, err := tracing.Init(cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiling, err := profiling.Start(cfg.Profiling, cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Error("Failed to start profiler", zap.Error(err))
	} else {
		defer stopProfiling()
	}

	// Background work (rate limiter cleanup) stops with this context
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// The database only records signed-in members; redemptions are never stored.
	// Migrations run separately via cmd/migrate.
	var pool *pgxpool.Pool
	var users services.UserStore
	healthChecks := map[string]handlers.HealthCheck{}
	if cfg.Database.Enabled() {
		pool, err = db.NewPool(appCtx, cfg.Database)
		if err != nil {
			logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
		}
		defer db.Close(pool)
		users = repository.NewUserRepository(pool)
		healthChecks["database"] = pool.Ping
	} else {
		logger.Info("DATABASE_URL not set; signed-in members will not be recorded")
	}

	// Webhook attempts carry their own per-attempt deadline; the client
	// timeout is a backstop
	webhookClient := httpclient.NewClientWithTimeout(time.Duration(cfg.Redeem.WebhookTimeoutSeconds+1) * time.Second)
	redeemService := services.NewRedeemService(cfg.Redeem, discord.NewClient(webhookClient))

	calendarClient := googlecalendar.NewClient(googlecalendar.Config{
		APIKey:     cfg.Calendar.APIKey,
		CalendarID: cfg.Calendar.CalendarID,
		BaseURL:    cfg.Calendar.APIBaseURL,
	}, httpclient.NewClientWithTimeout(10*time.Second))
	calendarCache := cache.NewCalendarCache(time.Duration(cfg.Calendar.CacheTTLSeconds) * time.Second)
	calendarService := services.NewCalendarService(cfg.Calendar, calendarClient, calendarCache)

	redeemHandler := handlers.NewRedeemHandler(redeemService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	redirectHandler := handlers.NewRedirectHandler()
	healthHandler := handlers.NewHealthHandler(healthChecks)
	handlers.UseTagFieldNames()

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	router.Use(gin.CustomRecovery(recoveryHandler))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	// Redemption is called from any page the club hosts, so it allows every origin
	publicCORS := cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", middleware.RequestIDHeader, "traceparent", "tracestate"},
		MaxAge:          12 * time.Hour,

		OptionsResponseStatusCode: http.StatusOK,
	})
	siteCORS := cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader, "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true, // session cookies
		MaxAge:           12 * time.Hour,
	})

	generalRateLimiter := middleware.NewRateLimiter(appCtx, 50, 100) // 50 req/sec, burst of 100
	redeemRateLimiter := middleware.NewRateLimiter(appCtx, rate.Limit(cfg.Redeem.RateLimitRPS), cfg.Redeem.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(appCtx, 1, 10) // 1 req/sec, burst of 10

	root := router.Group("/", publicCORS)
	registerRedeemRoutes(root, redeemRateLimiter, redeemHandler)
	router.GET("/redirect", generalRateLimiter.Middleware(), redirectHandler.Redirect)

	api := router.Group("/api")
	registerRedeemRoutes(api.Group("/", publicCORS), redeemRateLimiter, redeemHandler)

	site := api.Group("/", siteCORS)
	site.GET("/healthcheck", healthHandler.Healthcheck)
	site.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	registerCalendarRoutes(site, generalRateLimiter, calendarHandler)
	registerAuthRoutes(site, cfg, authRateLimiter, users)

	// Preflights for site routes have no OPTIONS route of their own
	router.NoRoute(siteCORS, func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
