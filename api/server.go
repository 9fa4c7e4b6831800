package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/auth"
	"github.com/rpupo63/portfolio-cms-backend/config"
	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/services"
)

// Dependencies are the services built at startup. Email and SMS are nil
// when their provider is not configured.
type Dependencies struct {
	Tokens *auth.Tokens
	Store  services.Store
	Email  EmailSender
	SMS    SMSNotifier
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(database database.Database, c map[string]string, deps Dependencies) (Server, error) {
	if deps.Tokens == nil {
		return Server{}, fmt.Errorf("session tokens are required")
	}
	if deps.Store == nil {
		return Server{}, fmt.Errorf("upload store is required")
	}

	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	router := newRouter(database, withConfig(c), withStartupTime(startupTime), withDependencies(deps))

	readTimeout := time.Duration(config.GetInt(c, "READ_TIMEOUT_SECONDS", 180)) * time.Second
	writeTimeout := time.Duration(config.GetInt(c, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second
	idleTimeout := time.Duration(config.GetInt(c, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second

	server := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
	deps        Dependencies
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withDependencies(deps Dependencies) func(*router) {
	return func(r *router) {
		r.deps = deps
	}
}

func newRouter(database database.Database, opts ...func(*router)) *chi.Mux {
	router := router{startupTime: time.Now()}
	for _, opt := range opts {
		opt(&router)
	}

	m := newMetrics()

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(m.instrument)

	acceptedOrigins := config.GetStrings(router.config, "ACCEPTED_ORIGINS", nil)
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsMiddleware(acceptedOrigins))
	if config.GetBool(router.config, "LOG_REQUESTS", true) {
		chiRouter.Use(ColoredHTTPLoggingMiddleware)
	}

	handlers := initializeHandlers(database, router.config, router.deps, m)
	authMiddleware := newAuthMiddleware(router.deps.Tokens)

	loginLimiter := newIPRateLimiter("login",
		time.Duration(config.GetInt(router.config, "LOGIN_RATE_INTERVAL_SECONDS", 60))*time.Second,
		config.GetInt(router.config, "LOGIN_RATE_BURST", 5))
	contactLimiter := newIPRateLimiter("contact",
		time.Duration(config.GetInt(router.config, "CONTACT_RATE_INTERVAL_SECONDS", 300))*time.Second,
		config.GetInt(router.config, "CONTACT_RATE_BURST", 3))

	chiRouter.Get("/health", router.health(database))
	chiRouter.Handle("/metrics", m.handler())
	setupUploadFiles(chiRouter, router.deps.Store)

	setupAuthRoutes(chiRouter, handlers, authMiddleware, loginLimiter.middleware(m))
	setupPublicRoutes(chiRouter, handlers, contactLimiter.middleware(m))
	setupAdminRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

// health reports database reachability and uptime
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (rt router) health(database database.Database) http.HandlerFunc {
	responder := NewResponder(log.With().Str("handlerName", "health").Logger())

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:   "ok",
			Database: "ok",
			Uptime:   time.Since(rt.startupTime).Round(time.Second).String(),
		}
		status := http.StatusOK
		if err := database.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("health check: database ping failed")
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
		responder.WriteJSONStatus(w, status, resp)
	}
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
