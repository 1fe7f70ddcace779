package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/calmsphere/calmsphere/internal/database"
	mw "github.com/calmsphere/calmsphere/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Chat handlers
	SendMessage  http.HandlerFunc
	ChatHistory  http.HandlerFunc
	ClearHistory http.HandlerFunc

	// Insight handlers
	Dashboard      http.HandlerFunc
	Songs          http.HandlerFunc
	JournalComment http.HandlerFunc
	CreditStatus   http.HandlerFunc
	EnrollUser     http.HandlerFunc
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	ChatRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, redisClient *goredis.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks Postgres and Redis
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"redis":    "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				health["redis"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		} else {
			health["redis"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1 — every route assumes a resolved identity
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Identity)

		r.Route("/chat", func(r chi.Router) {
			if cfg.ChatRateLimiter != nil {
				r.Use(cfg.ChatRateLimiter)
			}
			r.Post("/", h.SendMessage)
			r.Get("/history", h.ChatHistory)
			r.Delete("/history", h.ClearHistory)
		})

		r.Get("/dashboard", h.Dashboard)
		r.Get("/songs", h.Songs)
		r.Post("/journal/comment", h.JournalComment)
		r.Get("/credits", h.CreditStatus)
		r.Post("/credits/enroll", h.EnrollUser)
	})

	return r
}
