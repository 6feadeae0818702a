package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"stellarreg/api/internal/config"
	"stellarreg/api/internal/metrics"
	"stellarreg/api/internal/middleware"
	"stellarreg/api/internal/ratelimit"
	"stellarreg/api/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	// DB is nil when the service runs on the in-memory store.
	DB            Pinger
	Cache         *redis.Client
	Auth          *service.AuthService
	Registrations *service.RegistrationService
	SearchLimiter ratelimit.Limiter
	Metrics       *metrics.Manager
}

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	db            Pinger
	cache         *redis.Client
	auth          *service.AuthService
	registrations *service.RegistrationService
	searchLimiter ratelimit.Limiter
	metrics       *metrics.Manager
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	return HandlerSet{
		log:           log,
		cfg:           cfg,
		db:            deps.DB,
		cache:         deps.Cache,
		auth:          deps.Auth,
		registrations: deps.Registrations,
		searchLimiter: deps.SearchLimiter,
		metrics:       deps.Metrics,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/branches", h.ListBranches)

	router.POST("/registrations", h.CreateRegistration)
	router.POST("/search-registration",
		middleware.RateLimit(h.searchLimiter, h.metrics, h.log),
		h.SearchRegistration,
	)

	router.POST("/admin-login", h.AdminLogin)

	admin := router.Group("")
	admin.Use(middleware.AdminSession(h.auth, h.metrics, h.log))
	{
		admin.POST("/admin-logout", h.AdminLogout)
		admin.POST("/admin-list-registrations", h.AdminListRegistrations)
		admin.POST("/admin-delete-registration", h.AdminDeleteRegistration)
		admin.POST("/admin-registration-stats", h.AdminRegistrationStats)
	}
}
