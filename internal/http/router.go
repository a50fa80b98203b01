package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/clinicbook/api/internal/auth"
	"github.com/clinicbook/api/internal/cache"
	"github.com/clinicbook/api/internal/config"
	"github.com/clinicbook/api/internal/http/flash"
	"github.com/clinicbook/api/internal/http/handlers"
	"github.com/clinicbook/api/internal/http/middlewares"
	"github.com/clinicbook/api/internal/observability"
	"github.com/clinicbook/api/internal/queue"
	"github.com/clinicbook/api/internal/queue/redisclient"
	"github.com/clinicbook/api/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the router wires together. Queue and
// MetricsHandler may be nil; the app degrades rather than refuses to
// start.
type Deps struct {
	Cfg            config.Config
	Log            *slog.Logger
	Pool           *pgxpool.Pool
	Prom           *observability.Prom
	MetricsHandler http.Handler
	Queue          *redisclient.Client
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	// flash cookies carry the same Secure attribute as the session
	flash.UseSecureCookies(deps.Cfg.Env == "prod")

	r := gin.New()

	// middleware, outermost first
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("clinicbook-api"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	ping := func() error {
		if deps.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		return deps.Pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	// sessions and guards
	sessions := auth.NewManager(deps.Cfg.SessionSecret, deps.Cfg.SessionTTL())
	guard := middlewares.NewAuthMiddleware(sessions)

	// repositories
	usersRepo := postgres.NewUsersRepo(deps.Pool)
	doctorsRepo := postgres.NewDoctorsRepo(deps.Pool)
	appointmentsRepo := postgres.NewAppointmentsRepo(deps.Pool, deps.Prom)

	var enqueuer handlers.NotificationEnqueuer

	if deps.Queue != nil {
		enqueuer = queue.NewProducer(deps.Queue)
	}

	// handlers
	pageCache := cache.New(30 * time.Second)
	public := handlers.NewPublicHandler(doctorsRepo, pageCache, guard)
	authHandler := handlers.NewAuthHandler(usersRepo, sessions, deps.Cfg)
	booking := handlers.NewBookingHandler(appointmentsRepo, doctorsRepo, enqueuer, deps.Prom, deps.Log)
	admin := handlers.NewAdminHandler(appointmentsRepo, doctorsRepo, usersRepo)

	// brute-force guard on the credential endpoints
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	r.GET("/", public.Index)

	r.GET("/register", authHandler.RegisterPage)
	r.POST("/register", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	authed := r.Group("/", guard.RequireLogin())
	{
		authed.GET("/dashboard", public.Dashboard)
		authed.GET("/book", booking.BookPage)
		authed.POST("/book", booking.Book)
		authed.GET("/appointments", booking.List)
		authed.GET("/edit/:id", booking.EditPage)
		authed.POST("/edit/:id", booking.Edit)
		authed.GET("/delete/:id", booking.Delete)
	}

	adminGroup := r.Group("/admin", guard.RequireAdmin())
	{
		adminGroup.GET("/dashboard", admin.Dashboard)
		adminGroup.GET("/doctors", admin.Doctors)
		adminGroup.GET("/patients", admin.Patients)
		adminGroup.GET("/appointments", admin.Appointments)
	}

	return r
}
