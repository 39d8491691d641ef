package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/eventradar/server/internal/api/handlers"
	"github.com/eventradar/server/internal/api/middleware"
	"github.com/eventradar/server/internal/auth"
	"github.com/eventradar/server/internal/config"
	"github.com/eventradar/server/internal/domain/events"
	"github.com/eventradar/server/internal/domain/users"
	"github.com/eventradar/server/internal/metrics"
	"github.com/eventradar/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewRouter wires repositories, services, and handlers onto a mux and
// wraps the whole tree in correlation, logging, and metrics middleware.
func NewRouter(cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, "eventradar")

	usersService := users.NewService(repo.Users(), tokens, cfg.Auth.BcryptCost, logger)
	eventsService := events.NewService(repo.Events(), logger)

	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, cfg.Environment)

	requireAuth := middleware.RequireAuth(tokens, cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(pool))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Register),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Login),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.List),
		http.MethodPost: requireAuth(http.HandlerFunc(eventsHandler.Create)),
	}))
	// The literal "search" segment wins over the {id} wildcard.
	mux.Handle("/api/v1/events/search", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.Search),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(eventsHandler.Get),
		http.MethodPut:    http.HandlerFunc(eventsHandler.Update),
		http.MethodDelete: http.HandlerFunc(eventsHandler.Delete),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
