package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/projecthub/internal/auth"
	"github.com/geocoder89/projecthub/internal/config"
	"github.com/geocoder89/projecthub/internal/domain/catalog"
	"github.com/geocoder89/projecthub/internal/http/handlers"
	"github.com/geocoder89/projecthub/internal/http/middlewares"
	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

// Store is everything the gate reads and writes directly. Both
// repo/postgres.Store and repo/memory.Store satisfy it.
type Store interface {
	handlers.UserStore
	handlers.SkillStore
	handlers.ProjectStore
	handlers.CatalogStore
}

// Credentials is the gate's view of auth.Service.
type Credentials interface {
	handlers.Credentials
	Resolve(ctx context.Context, token string) (auth.ActiveSession, error)
}

type Deps struct {
	Config      config.Config
	Store       Store
	Credentials Credentials
	Roster      handlers.Roster
	Prom        *observability.Prom
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// readiness probes by name
	Checks map[string]handlers.Pinger
	// ShuttingDown flips /readyz to 503 while the server drains.
	ShuttingDown func() bool
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// ClientIP keys the auth limiter; only listed proxies may rewrite it.
	if err := r.SetTrustedProxies(d.Config.TrustedProxies); err != nil {
		log.Warn("invalid TRUSTED_PROXIES, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware("projecthub-api"))
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Config.Env == "prod"))
	r.Use(middlewares.CORS(d.Config.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	h := handlers.NewHealthHandler(d.Checks, d.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.Credentials, "/auth/login")
	requireAuth := authMW.RequireAuth()
	requireModerator := middlewares.RequireModerator()

	authHandler := handlers.NewAuthHandler(d.Credentials, d.Config.Env == "prod")
	usersHandler := handlers.NewUsersHandler(d.Store, d.Roster)
	skillsHandler := handlers.NewSkillsHandler(d.Store)
	projectsHandler := handlers.NewProjectsHandler(d.Store, d.Roster)
	fieldsHandler := handlers.NewCatalogHandler(d.Store, catalog.KindField)
	interestsHandler := handlers.NewCatalogHandler(d.Store, catalog.KindInterest)

	// auth, rate limited per client IP
	limiter := middlewares.NewRateLimiter(d.Config.AuthRateLimit, d.Config.AuthRateLimitWindow)
	authGroup := r.Group("/auth", limiter.Middleware(middlewares.KeyByIP), authMW.LoadSession())
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)

	me := r.Group("/me", requireAuth)
	me.GET("", usersHandler.Me)
	me.PATCH("", usersHandler.UpdateMe)
	me.PUT("/skills/:slot", usersHandler.SetMySkill)

	r.GET("/skills", skillsHandler.ListSkills)
	r.GET("/skills/:id", skillsHandler.GetSkill)
	r.POST("/skills", requireAuth, skillsHandler.CreateSkill)

	r.GET("/projects", projectsHandler.ListProjects)
	r.GET("/projects/:id", projectsHandler.GetProject)
	r.POST("/projects", requireAuth, projectsHandler.CreateProject)
	r.DELETE("/projects/:id", requireAuth, requireModerator, projectsHandler.DeleteProject)
	r.POST("/projects/:id/members", requireAuth, projectsHandler.Join)
	r.POST("/projects/:id/members/bulk", requireAuth, requireModerator, projectsHandler.AddMembers)
	r.DELETE("/projects/:id/members/:userId", requireAuth, projectsHandler.RemoveMember)

	r.GET("/users/:id", usersHandler.GetUser)
	r.DELETE("/users/:id", requireAuth, requireModerator, usersHandler.DeleteUser)

	r.GET("/fields", fieldsHandler.List)
	r.GET("/fields/:id", fieldsHandler.Get)
	r.POST("/fields", requireAuth, requireModerator, fieldsHandler.Create)

	r.GET("/interests", interestsHandler.List)
	r.GET("/interests/:id", interestsHandler.Get)
	r.POST("/interests", requireAuth, requireModerator, interestsHandler.Create)

	return r
}
