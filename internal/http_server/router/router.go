package router

import (
	"log/slog"
	"net/http"
	"time"

	"task_manager/internal/analytics"
	"task_manager/internal/auth"
	"task_manager/internal/http_server/handlers/healthz"
	"task_manager/internal/http_server/handlers/login"
	"task_manager/internal/http_server/handlers/me"
	"task_manager/internal/http_server/handlers/refresh"
	"task_manager/internal/http_server/handlers/register"
	"task_manager/internal/http_server/handlers/summary"
	taskhandlers "task_manager/internal/http_server/handlers/tasks"
	"task_manager/internal/middleware/bearer"
	"task_manager/internal/middleware/metrics"
	rateLimit "task_manager/internal/middleware/ratelimit"
	"task_manager/internal/tasks"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

type Deps struct {
	Log       *slog.Logger
	Validate  *validator.Validate
	Auth      *auth.Auth
	Tasks     *tasks.Service
	Analytics *analytics.Aggregator
	Metrics   *metrics.Metrics

	CORSOrigins []string
	RateLimit   bool
	Now         func() time.Time
}

func New(d Deps) *chi.Mux {
	if d.Now == nil {
		d.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(d.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limit := func(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
		if d.RateLimit {
			return mw
		}
		return func(next http.Handler) http.Handler { return next }
	}

	requireUser := bearer.New(d.Log, d.Auth)

	r.Get("/healthz", healthz.New(d.Now))
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(limit(rateLimit.Register())).Post("/register", register.New(d.Log, d.Validate, d.Auth))
		r.With(limit(rateLimit.Login())).Post("/login", login.New(d.Log, d.Validate, d.Auth))
		r.With(limit(rateLimit.Refresh())).Post("/refresh", refresh.New(d.Log, d.Validate, d.Auth))
		r.With(requireUser).Get("/me", me.New(d.Log))
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/", taskhandlers.Create(d.Log, d.Validate, d.Tasks))
		r.Get("/", taskhandlers.List(d.Log, d.Validate, d.Tasks))
		r.Get("/{id}", taskhandlers.Get(d.Log, d.Tasks))
		r.Patch("/{id}", taskhandlers.Update(d.Log, d.Validate, d.Tasks))
		r.Delete("/{id}", taskhandlers.Delete(d.Log, d.Tasks))
	})

	r.With(requireUser).Get("/analytics/summary", summary.New(d.Log, d.Analytics))

	return r
}
