package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/yigit/internportal/internal/app/jobs"
	"github.com/yigit/internportal/internal/bootstrap"
	"github.com/yigit/internportal/internal/config"
)

// Server holds the state for the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	dbPool *pgxpool.Pool
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server

	cancelWorkers context.CancelFunc
	workers       sync.WaitGroup
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	dbPool, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, dbPool, lgr)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router := bootstrap.SetupRouter(cfg, deps, lgr)

	return &Server{
		config: cfg,
		router: router,
		dbPool: dbPool,
		deps:   deps,
		logger: lgr,
	}, nil
}

// startWorkers launches the background goroutines that live as long as the server
func (s *Server) startWorkers() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelWorkers = cancel

	if s.deps.RateLimiter != nil {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			s.deps.RateLimiter.Run(ctx)
		}()
	}

	if s.deps.Consumer != nil {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			s.deps.Consumer.Listen(ctx)
		}()
	}

	if s.deps.Jobs != nil {
		err := s.deps.Jobs.Start(jobs.Schedules{
			Cleanup: s.config.Cron.CleanupSchedule,
			Stats:   s.config.Cron.StatsSchedule,
			Tokens:  s.config.Cron.TokenSchedule,
		})
		if err != nil {
			return fmt.Errorf("failed to start scheduled jobs: %w", err)
		}
	}
	return nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	if err := s.startWorkers(); err != nil {
		_ = s.Shutdown(context.Background())
		return err
	}

	s.http = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: s.router,
		// Certificate uploads need more headroom than the JSON endpoints
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var shutdownErr error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownErr = errors.Join(shutdownErr, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if s.deps != nil && s.deps.Jobs != nil {
		s.deps.Jobs.Stop()
	}

	if s.deps != nil && s.deps.NotificationService != nil {
		if err := s.deps.NotificationService.Wait(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Pending notification emails abandoned")
		}
	}

	if s.cancelWorkers != nil {
		s.cancelWorkers()
		s.workers.Wait()
	}

	if s.deps != nil {
		if s.deps.Consumer != nil {
			if err := s.deps.Consumer.Close(); err != nil {
				s.logger.Error().Err(err).Msg("Kafka consumer close error")
				shutdownErr = errors.Join(shutdownErr, err)
			}
		}
		if s.deps.Producer != nil {
			if err := s.deps.Producer.Close(); err != nil {
				s.logger.Error().Err(err).Msg("Kafka producer close error")
				shutdownErr = errors.Join(shutdownErr, err)
			}
		}
		if s.deps.RedisCache != nil {
			if err := s.deps.RedisCache.Close(); err != nil {
				s.logger.Error().Err(err).Msg("Redis close error")
				shutdownErr = errors.Join(shutdownErr, err)
			}
		}
	}

	if s.dbPool != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.dbPool.Close()
		s.logger.Info().Msg("Database connection pool closed.")
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown completed with errors: %w", shutdownErr)
	}
	return nil
}
