package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventradar/server/internal/api"
	"github.com/eventradar/server/internal/config"
	"github.com/eventradar/server/internal/domain/users"
	"github.com/eventradar/server/internal/metrics"
	"github.com/eventradar/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eventradar HTTP server",
	Long: `Start the eventradar HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap an admin user if ADMIN_* env vars are set
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  eventradar serve

  # Start on a specific host and port
  eventradar serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  eventradar serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting eventradar server")

	metrics.Init(Version)

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminUser(bootstrapCtx, cfg, pool, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	handler, err := api.NewRouter(cfg, pool, logger)
	if err != nil {
		return fmt.Errorf("router init failed: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

// bootstrapAdminUser registers the configured admin account on startup.
// An already-registered email is not an error; startup proceeds.
func bootstrapAdminUser(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Name == "" || bootstrap.Email == "" || bootstrap.Password == "" {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	service := users.NewService(repo.Users(), nil, cfg.Auth.BcryptCost, logger)
	_, err = service.Register(ctx, users.RegisterParams{
		Name:     bootstrap.Name,
		Email:    bootstrap.Email,
		Password: bootstrap.Password,
	})
	if errors.Is(err, users.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Info().Str("email", bootstrap.Email).Msg("bootstrapped admin user")
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	// Override logging from flags if provided
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
