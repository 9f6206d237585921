package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/bankly/internal/auth"
	"github.com/geocoder89/bankly/internal/config"
	"github.com/geocoder89/bankly/internal/http/handlers"
	"github.com/geocoder89/bankly/internal/http/middlewares"
	"github.com/geocoder89/bankly/internal/observability"
	"github.com/geocoder89/bankly/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Users   handlers.UserStore
	Tokens  *auth.Manager
	Hasher  handlers.PasswordHasher
	Limiter ratelimit.Limiter
	Cache   handlers.ListCache

	// Prom and Gatherer may be nil; /metrics is then not mounted.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	ReadyChecks map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.Disabled{}
	}

	r := gin.New()

	r.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		log.ErrorContext(ctx.Request.Context(), "panic recovered", "panic", recovered, "path", ctx.Request.URL.Path)
		handlers.RespondError(ctx, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
		ctx.Abort()
	}))
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusNotFound, "not_found", "Not Found", nil)
	})

	// health
	health := handlers.NewHealthHandler(deps.ReadyChecks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, deps.Prom)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Hasher, deps.Cache, deps.Prom, log)
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Cache, log)

	// public: a stale token on register/login is ignored
	authGroup := r.Group("/auth",
		authMW.IdentifyOptional(),
		middlewares.RateLimit(deps.Limiter, middlewares.KeyByIP),
	)
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	users := r.Group("/users",
		authMW.Identify(),
		authMW.Authorize(middlewares.RequireLogin()),
	)
	users.GET("", usersHandler.List)
	users.GET("/:username", usersHandler.Get)
	users.PATCH("/:username",
		authMW.Authorize(middlewares.RequireSameUserOrAdmin("username")),
		middlewares.RateLimit(deps.Limiter, middlewares.KeyByUserOrIP),
		usersHandler.Patch,
	)
	users.DELETE("/:username",
		authMW.Authorize(middlewares.RequireAdminStatus(http.StatusUnauthorized)),
		usersHandler.Delete,
	)

	return r
}
