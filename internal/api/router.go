package api

import (
	"database/sql"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ontoacademy/platform-api/internal/api/handler"
	"github.com/ontoacademy/platform-api/internal/api/middleware"
	"github.com/ontoacademy/platform-api/internal/core/service"
	"github.com/ontoacademy/platform-api/internal/infrastructure/config"
	"github.com/ontoacademy/platform-api/internal/infrastructure/db/postgres"
	"github.com/ontoacademy/platform-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *sql.DB, rdb *goredis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORS.Origins,
		AllowCredentials: true,
	}))
	e.Use(middleware.OriginCheck(cfg.CORS.Origins, cfg.Env == "production"))
	e.Use(echoprometheus.NewMiddleware("ontoacademy"))

	// --- Dependencies ---
	issuer := service.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL)
	authRepo := postgres.NewAuthRepository(db)
	entityRepo := postgres.NewEntityRepository(db)

	authService := service.NewAuthService(authRepo, issuer, cfg.JWT.RefreshTTL, log)
	syncService := service.NewSyncService(entityRepo, cfg.Sync.TxTimeout, log)
	projectService := service.NewProjectService(entityRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	syncHandler := handler.NewSyncHandler(syncService)
	projectHandler := handler.NewProjectHandler(projectService)

	parse := func(token string) (middleware.Claims, error) {
		claims, err := issuer.ParseAccessToken(token)
		if err != nil {
			return middleware.Claims{}, err
		}
		return middleware.Claims{UserID: claims.UserID, Email: claims.Email}, nil
	}
	authRequired := middleware.Auth(parse)
	authOptional := middleware.OptionalAuth(parse)

	limiter := redis.NewRateLimiter(rdb, 0)
	authLimit := middleware.RateLimit(limiter, "auth", cfg.RateLimit.AuthPerMinute, log)
	syncLimit := middleware.RateLimit(limiter, "sync", cfg.RateLimit.SyncPerMinute, log)

	// --- Auth routes ---
	auth := e.Group("/api/auth", authLimit)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout, authOptional)
	auth.GET("/me", authHandler.Me, authRequired)

	// --- Sync routes ---
	sync := e.Group("/api/sync", authRequired, syncLimit)
	sync.POST("", syncHandler.BatchSync)
	sync.GET("/state", syncHandler.FullState)

	// --- Project routes ---
	projects := e.Group("/api/projects", authRequired)
	projects.GET("", projectHandler.List)
	projects.POST("", projectHandler.Create)
	projects.GET("/:id", projectHandler.Get)
	projects.GET("/:id/messages", projectHandler.Messages)
	projects.POST("/:id/messages", projectHandler.AppendMessage)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
