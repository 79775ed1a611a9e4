package routes

import (
	"context"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/infra/config"
	"github.com/blackinsure/rainyday/internal/transport/http/handlers"
	"github.com/blackinsure/rainyday/internal/transport/http/middleware"
	"github.com/blackinsure/rainyday/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Enrollment    *usecase.EnrollmentService
	Confirmations *usecase.ConfirmationService
	Policies      *usecase.PolicyService
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	TokenParser middleware.TokenParser
	Database    DatabaseChecker
	Cache       CacheChecker
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
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		r.Use(metrics.Handler())
	} else {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

	authMiddleware := middleware.RequireAuth(deps.TokenParser)

	checkers := map[string]handlers.HealthChecker{}
	if deps.Database != nil {
		checkers["database"] = pingChecker{deps.Database}
	}
	if deps.Cache != nil {
		checkers["redis"] = deps.Cache
	}
	healthHandler := handlers.NewHealthHandler(checkers)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicHandler := handlers.NewPublicHandler(
		deps.Services.Auth,
		deps.Services.Enrollment,
		deps.Services.Confirmations,
		deps.Config.App.PublicWebDir,
		deps.Logger,
	)
	securedHandler := handlers.NewSecuredHandler(deps.Services.Policies, deps.Logger)

	r.GET("/", publicHandler.ServeShell)
	r.GET("/confirm/:confirmationID", publicHandler.Confirm)
	r.Static("/static", filepath.Join(deps.Config.App.PublicWebDir, "static"))

	api := r.Group("/api")
	{
		api.POST("/login", withRule(deps, "login", deps.Config.RateLimit.LoginMaxAttempts), publicHandler.Login)
		api.POST("/policy", withRule(deps, "new_policy", deps.Config.RateLimit.NewPolicyMaxAttempts), publicHandler.CreateNewPolicy)

		secured := api.Group("/secured")
		secured.Use(authMiddleware)
		{
			secured.POST("/policy/get", securedHandler.GetPolicy)
			secured.POST("/policy/ethereum-address", securedHandler.SetEthereumAddress)
			secured.POST("/social/facebook", securedHandler.FacebookLogin)
		}
	}

	return r
}

// withRule builds a per-endpoint sliding-window limiter keyed by client IP.
func withRule(deps Dependencies, name string, limit int) gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     deps.Config.RateLimit.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	})
}

type pingChecker struct {
	db DatabaseChecker
}

func (p pingChecker) HealthCheck(ctx context.Context) error {
	return p.db.Ping(ctx)
}
