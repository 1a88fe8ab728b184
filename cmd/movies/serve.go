package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liznear/golden-raspberry/config"
	"github.com/liznear/golden-raspberry/ingest"
	"github.com/liznear/golden-raspberry/observability"
	"github.com/liznear/golden-raspberry/server"
	"github.com/liznear/golden-raspberry/table"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.Close(); err == nil {
					err = closeErr
				}
			}()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	tracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:  a.cfg.Tracing.ServiceName,
		OTLPEndpoint: a.cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: a.cfg.Tracing.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			a.logger.Warn("Fail to shut down tracing", zap.Error(err))
		}
	}()

	if a.cfg.Ingest.ImportOnStart && a.db.Len() == 0 {
		n, err := ingest.NewLoader(a.db, a.logger.Named("ingest")).LoadGlob(ctx, a.cfg.Ingest.CSVGlob)
		if err != nil {
			return err
		}
		a.logger.Info("Imported movies", zap.Int("count", n), zap.String("pattern", a.cfg.Ingest.CSVGlob))
	}

	scheduler, err := scheduleCheckpoints(a.db, a.cfg.Storage.CheckpointSchedule, a.logger.Named("cron"))
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	handler := server.New(a.db,
		server.WithLogger(a.logger.Named("http")),
		server.WithTracer(tracing.Tracer),
		server.WithMetrics(observability.NewMetrics(a.db.Len)),
	)
	srv := newHTTPServer(a.cfg.Server, handler)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fail to serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("fail to shut down server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// scheduleCheckpoints returns a stopped scheduler running db.Checkpoint on spec. An empty spec
// schedules nothing.
func scheduleCheckpoints(db *table.DB, spec string, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLogger(cronLogger{logger.Sugar()}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger.Sugar()})),
	)
	if spec == "" {
		return c, nil
	}

	_, err := c.AddFunc(spec, func() {
		if err := db.Checkpoint(); err != nil && !errors.Is(err, table.ErrClosed) {
			logger.Error("Fail to checkpoint", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("fail to schedule checkpoints %q: %w", spec, err)
	}
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
