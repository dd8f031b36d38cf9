package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpDelivery "github.com/pearcestephens/catalogmatch/internal/delivery/http"
	"github.com/pearcestephens/catalogmatch/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP matching API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting catalogmatch",
				zap.String("environment", cfg.Server.Environment),
				zap.String("port", cfg.Server.Port),
				zap.String("database_driver", cfg.Database.Driver),
				zap.String("cache_type", cfg.Cache.Type),
				zap.Float64("min_confidence", cfg.Matching.MinConfidence),
			)

			matcher, closeCatalog, err := buildMatcher(runCtx, cfg, logger)
			defer closeCatalog()
			if err != nil {
				logger.Warn("serving with a degraded catalog", zap.Error(err))
			}

			resultCache, closeCache, err := buildCache(runCtx, cfg, logger)
			if err != nil {
				return fmt.Errorf("init cache: %w", err)
			}
			defer closeCache()

			service := usecase.NewMatchService(matcher, resultCache, usecase.MatchServiceConfig{
				CacheTTL:     cfg.Cache.TTL,
				BatchWorkers: cfg.Matching.Workers,
			}, logger)

			go matcher.RunRefresher(runCtx, cfg.Matching.RefreshInterval)

			router := httpDelivery.SetupRouter(cfg, httpDelivery.NewHandler(service, logger), logger)
			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-runCtx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
