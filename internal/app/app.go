// Package app wires config into the running service: storage, sessions,
// credentials, the association manager and the seeder.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/projecthub/internal/association"
	"github.com/geocoder89/projecthub/internal/auth"
	"github.com/geocoder89/projecthub/internal/config"
	"github.com/geocoder89/projecthub/internal/db"
	"github.com/geocoder89/projecthub/internal/domain/user"
	apphttp "github.com/geocoder89/projecthub/internal/http"
	"github.com/geocoder89/projecthub/internal/http/handlers"
	"github.com/geocoder89/projecthub/internal/jobs"
	"github.com/geocoder89/projecthub/internal/notifications"
	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/geocoder89/projecthub/internal/redisclient"
	"github.com/geocoder89/projecthub/internal/repo/memory"
	"github.com/geocoder89/projecthub/internal/repo/postgres"
	"github.com/geocoder89/projecthub/internal/seed"
	"github.com/geocoder89/projecthub/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Store is the full entity store surface. repo/postgres.Store and
// repo/memory.Store both implement it.
type Store interface {
	apphttp.Store
	seed.Store
	association.Store
	auth.UserStore
}

type App struct {
	Config      config.Config
	Log         *slog.Logger
	Registry    *prometheus.Registry
	Prom        *observability.Prom
	Store       Store
	Migrator    *db.Migrator
	Sessions    session.Store
	Credentials *auth.Service
	Roster      *association.Manager
	Seeder      *seed.Seeder
	Checks      map[string]handlers.Pinger
	// Jobs is nil when notifications are disabled.
	Jobs *jobs.Queue

	closers []func()
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// New connects the configured backends. Close releases them.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{
		Config:   cfg,
		Log:      log,
		Registry: reg,
		Prom:     observability.NewProm(reg),
		Checks:   map[string]handlers.Pinger{},
	}

	var pool *pgxpool.Pool

	switch cfg.StoreBackend {
	case "postgres":
		a.Migrator = db.NewMigrator(cfg.DBURL, log)

		p, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pool = p
		a.closers = append(a.closers, pool.Close)

		store := postgres.NewStore(pool, a.Prom, a.Migrator)
		a.Store = store
		a.Checks["postgres"] = store.Ping
	case "memory":
		a.Store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.SessionBackend {
	case "redis":
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = rc.Close() })

		if err := rc.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Sessions = session.NewRedisStore(rc.Raw())
		a.Checks["redis"] = rc.Ping
	case "postgres":
		if pool == nil {
			a.Close()
			return nil, fmt.Errorf("SESSION_BACKEND=postgres needs STORE_BACKEND=postgres")
		}
		a.Sessions = postgres.NewSessionsRepo(pool, a.Prom)
	case "memory":
		a.Sessions = session.NewMemoryStore()
	default:
		a.Close()
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	opts := auth.Options{
		SessionTTL:  cfg.SessionTTL(),
		RememberTTL: cfg.RememberTTL(),
	}
	a.Roster = association.NewManager(a.Store, log, a.Prom)

	if cfg.NotifyEnabled {
		a.startNotifications()
		opts.OnRegister = a.enqueueWelcome
		a.Roster.OnAdded(a.enqueueMemberJoined)
	}

	a.Credentials = auth.NewService(a.Store, a.Sessions, auth.NewManager(cfg.JWTSecret), opts, log, a.Prom)
	a.Seeder = seed.New(a.Store, a.Roster, cfg.SeedPassword, log)

	return a, nil
}

func (a *App) startNotifications() {
	a.Jobs = jobs.NewQueue(jobs.Config{
		Workers: a.Config.NotifyWorkers,
		Buffer:  a.Config.NotifyQueueSize,
	}, a.Log, a.Prom)

	notifier := notifications.NewProtectedNotifier(notifications.NewLogNotifier(a.Log), notifications.ProtectedNotifierConfig{})
	notifications.RegisterJobs(a.Jobs, notifier, a.Store)

	a.Jobs.Start(context.Background())
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Jobs.Shutdown(ctx); err != nil {
			a.Log.Warn("job queue did not drain", "err", err)
		}
	})
}

// Notifications are best effort: a full queue never fails the request.
func (a *App) enqueueWelcome(ctx context.Context, u user.User) {
	_, err := a.Jobs.Enqueue(ctx, jobs.JobWelcomeUser, jobs.WelcomeUserPayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.FirstName,
	})
	if err != nil {
		a.Log.WarnContext(ctx, "welcome not queued", "user_id", u.ID, "err", err)
	}
}

func (a *App) enqueueMemberJoined(ctx context.Context, d association.Delta) {
	_, err := a.Jobs.Enqueue(ctx, jobs.JobMemberJoined, jobs.MemberJoinedPayload{
		ProjectID: d.ProjectID,
		UserID:    d.UserID,
	})
	if err != nil {
		a.Log.WarnContext(ctx, "member joined notice not queued", "project_id", d.ProjectID, "user_id", d.UserID, "err", err)
	}
}

// Moderator is the configured moderator account, if any.
func (a *App) Moderator() seed.Moderator {
	return seed.Moderator{
		Email:     a.Config.ModeratorEmail,
		Password:  a.Config.ModeratorPassword,
		FirstName: a.Config.ModeratorFirst,
		LastName:  a.Config.ModeratorLast,
	}
}

// Router builds the HTTP API. shuttingDown may be nil.
func (a *App) Router(shuttingDown func() bool) *gin.Engine {
	return apphttp.NewRouter(a.Log, apphttp.Deps{
		Config:       a.Config,
		Store:        a.Store,
		Credentials:  a.Credentials,
		Roster:       a.Roster,
		Prom:         a.Prom,
		Gatherer:     a.Registry,
		Checks:       a.Checks,
		ShuttingDown: shuttingDown,
	})
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
