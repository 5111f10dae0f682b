package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/infra/config"
	"github.com/hongquyngo/authority-management-system/internal/transport/http/handlers"
	"github.com/hongquyngo/authority-management-system/internal/transport/http/middleware"
	"github.com/hongquyngo/authority-management-system/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth        *usecase.AuthService
	Users       *usecase.UserService
	Authorities *usecase.AuthorityService
	Lookups     *usecase.LookupService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	if deps.Config.Telemetry.OTLPEndpoint != "" {
		r.Use(middleware.Tracing())
	}
	r.Use(middleware.Logger(deps.Logger))

	if len(deps.Config.HTTP.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.HTTP.AllowedOrigins))
	}

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Config.HTTP.SwaggerEnabled {
		handlers.RegisterSwagger(r)
	}

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Users)
		authHandler.RegisterRoutes(authGroup, buildLoginMiddlewares(deps)...)

		authorityGroup := api.Group("/authorities")
		authorityGroup.Use(authMiddleware)
		authorityHandler := handlers.NewAuthorityHandler(deps.Services.Authorities)
		authorityHandler.RegisterRoutes(authorityGroup)

		userGroup := api.Group("/users")
		userGroup.Use(authMiddleware)
		userGroup.Use(middleware.RequirePermission(func(p domain.Permissions) bool { return p.CanManageUsers }))
		userHandler := handlers.NewUserHandler(deps.Services.Users)
		userHandler.RegisterRoutes(userGroup)

		lookupGroup := api.Group("")
		lookupGroup.Use(authMiddleware)
		lookupHandler := handlers.NewLookupHandler(deps.Services.Lookups)
		lookupHandler.RegisterRoutes(lookupGroup)

		dashboardGroup := api.Group("/dashboard")
		dashboardGroup.Use(authMiddleware)
		dashboardHandler := handlers.NewDashboardHandler(deps.Services.Authorities)
		dashboardHandler.RegisterRoutes(dashboardGroup)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
