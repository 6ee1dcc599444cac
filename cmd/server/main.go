package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/stockkeep/internal/config"
	"github.com/JonMunkholm/stockkeep/internal/core"
	"github.com/JonMunkholm/stockkeep/internal/logging"
	"github.com/JonMunkholm/stockkeep/internal/store/memstore"
	"github.com/JonMunkholm/stockkeep/internal/store/mongostore"
	"github.com/JonMunkholm/stockkeep/internal/store/pgstore"
	"github.com/JonMunkholm/stockkeep/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"evaluator_concurrency", cfg.Sync.EvaluatorConcurrency,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	service := core.NewService(store, cfg)
	server := web.NewServer(service, cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.ImportStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := store.Close(shutdownCtx); err != nil {
			slog.Error("store close error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// openStore connects the Record Store selected by STORE_DRIVER and, when
// enabled, bootstraps its schema or indexes.
func openStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil

	case config.DriverPostgres:
		s, err := pgstore.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Store.EnsureSchema {
			if err := s.EnsureSchema(ctx); err != nil {
				s.Close(ctx)
				return nil, err
			}
		}
		return s, nil

	case config.DriverMongo:
		s, err := mongostore.Open(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if cfg.Store.EnsureSchema {
			if err := s.EnsureIndexes(ctx); err != nil {
				s.Close(ctx)
				return nil, err
			}
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
