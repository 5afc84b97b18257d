package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/yt-transcript-extractor/internal/config"
	"github.com/MimeLyc/yt-transcript-extractor/internal/httpapi"
	"github.com/MimeLyc/yt-transcript-extractor/internal/jobs"
	"github.com/MimeLyc/yt-transcript-extractor/internal/metrics"
	"github.com/MimeLyc/yt-transcript-extractor/internal/persistence"
	"github.com/MimeLyc/yt-transcript-extractor/internal/remote"
	"github.com/MimeLyc/yt-transcript-extractor/internal/service"
	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type worker interface {
	Start()
	Stop()
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to load .env: %v", err)
	}

	settingsPath := config.RuntimeSettingsFilePath()
	var opts []config.Option
	if saved, err := config.LoadRuntimeSettingsFile(settingsPath); err == nil {
		opts = append(opts, config.WithRuntimeSettings(saved))
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warn("Ignoring settings file %s: %v", settingsPath, err)
	}

	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.GetLogger().SetLevel(log.ParseLevel(cfg.System.LogLevel))

	store, err := persistence.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		log.Fatal("Failed to open job store: %v", err)
	}
	defer store.Close()

	client, err := remote.NewClient(&remote.Config{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		RateLimit: cfg.Remote.RateLimit,
	})
	if err != nil {
		log.Fatal("Failed to create transcript client: %v", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	sessions := service.NewSessions(cfg.Session.TTL)
	orchestrator := service.NewOrchestrator(client, service.WithDefaultTitle(cfg.Extract.TitlePlaceholder))
	queue := jobs.NewQueue(cfg.Extract.Workers, store)

	engine := cron.New()
	sweep := newSweepSchedule(engine, sessions, cfg.Session.SweepCron)

	settingsStore, err := config.NewRuntimeSettingsStore(settingsPath, cfg.RuntimeSettings())
	if err != nil {
		log.Fatal("Failed to create settings store: %v", err)
	}
	apply := func(next config.RuntimeSettings) error {
		if err := client.SetBaseURL(next.RemoteBaseURL); err != nil {
			return err
		}
		orchestrator.SetDefaultTitle(next.TitlePlaceholder)
		return sweep.Reschedule(next.SessionSweepCron)
	}

	var auth httpapi.Authorizer = httpapi.HeaderAuthorizer{Header: cfg.HTTP.AuthHeader}
	if cfg.HTTP.AuthDisabled {
		log.Warn("Authentication is disabled")
		auth = httpapi.AllowAll{}
	}

	server := httpapi.NewServer(sessions, queue, service.NewSummarizer(client),
		httpapi.WithAuthorizer(auth),
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIEnabled),
		httpapi.WithRuntimeSettingsStore(settingsStore),
		httpapi.WithRuntimeSettingsApplier(apply),
		httpapi.WithSweepSchedule(sweep.Expr),
	)

	workers := &queueWorker{
		queue: queue,
		exec:  service.NewExtractionExecutor(sessions, orchestrator),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runWithComponents(ctx, cfg, sweep, engine, workers, server); err != nil {
		log.Fatal("Extractor stopped: %v", err)
	}
}

// runWithComponents starts everything and blocks until ctx is done or the
// HTTP server fails.
func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	sched scheduler,
	engine cronEngine,
	workers worker,
	httpSrv httpServer,
) error {
	if err := sched.Schedule(ctx); err != nil {
		return err
	}
	engine.Start()
	workers.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		errCh <- httpSrv.ListenAndServe(cfg.HTTP.Addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown: %v", err)
	}
	workers.Stop()
	<-engine.Stop().Done()

	return runErr
}

type queueWorker struct {
	queue *jobs.Queue
	exec  jobs.Executor
}

func (w *queueWorker) Start() { w.queue.Start(w.exec) }
func (w *queueWorker) Stop()  { w.queue.Stop() }
