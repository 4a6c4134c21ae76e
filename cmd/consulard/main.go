// Command consulard serves the consular administration API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"consulardesk/internal/adapters/exports"
	"consulardesk/internal/adapters/httpapi"
	"consulardesk/internal/blob"
	"consulardesk/internal/config"
	"consulardesk/internal/core"
	"consulardesk/internal/infra/cache/redis"
	"consulardesk/internal/infra/events/kafka"
	"consulardesk/internal/infra/search/elastic"
	"consulardesk/internal/observability"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stderr)
	exitFunc(code)
}

func cli(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("consulard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	seed := fs.Bool("seed", false, "load the sample dataset before serving")
	addr := fs.String("addr", "", "listen address (overrides CONSULAR_HTTP_ADDR)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "configuration invalid: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	if *seed {
		cfg.Seed = true
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	logger := newLogger(stderr, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("consulard stopped", "error", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// app holds everything serve starts and must release.
type app struct {
	svc      *core.Service
	worker   *exports.Worker
	reporter observability.ErrorReporter
	handler  http.Handler
	closers  []io.Closer
}

func (a *app) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

// build wires storage, integrations and the HTTP handler from cfg. Optional
// integrations are enabled only when their address is configured.
func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close(logger)
		return nil, err
	}

	reporter, err := observability.NewSentryReporter(observability.SentryConfig{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     cfg.SentryRelease,
	})
	if err != nil {
		return fail(err)
	}
	a.reporter = reporter

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opMetrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return fail(fmt.Errorf("register operation metrics: %w", err))
	}
	httpMetrics, err := observability.NewHTTPMetrics(reg)
	if err != nil {
		return fail(fmt.Errorf("register http metrics: %w", err))
	}

	store, err := core.OpenPersistentStore(ctx, cfg.Storage(), core.NewDefaultRulesEngine())
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, store)

	blobs, err := blob.Open(ctx, cfg.Blob())
	if err != nil {
		return fail(fmt.Errorf("open blob store: %w", err))
	}

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMetricsRecorder(opMetrics),
		core.WithAuditRecorder(core.NewJSONAuditRecorder(os.Stdout)),
		core.WithOperationTimeout(cfg.OperationTimeout),
		core.WithBlobStore(blobs),
	}
	if cfg.RedisAddr != "" {
		cache, err := redis.New(ctx, redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, cache)
		opts = append(opts, core.WithSummaryCache(cache, cfg.SummaryTTL))
		logger.Info("dashboard cache enabled", "addr", cfg.RedisAddr)
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.New(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, publisher)
		opts = append(opts, core.WithEventPublisher(publisher))
		logger.Info("change events enabled", "topic", publisher.Topic())
	}
	var index *elastic.Index
	if len(cfg.ElasticAddresses) > 0 {
		index, err = elastic.New(ctx, elastic.Config{
			Addresses: cfg.ElasticAddresses,
			Username:  cfg.ElasticUsername,
			Password:  cfg.ElasticPassword,
			Index:     cfg.ElasticIndex,
		})
		if err != nil {
			return fail(err)
		}
		opts = append(opts, core.WithSearchIndex(index))
	}

	a.svc = core.NewService(store, opts...)
	if cfg.Seed {
		if err := seedIfEmpty(ctx, a.svc); err != nil {
			return fail(err)
		}
	}
	if index != nil {
		n, err := a.svc.Reindex(ctx)
		if err != nil {
			logger.Warn("search reindex failed", "index", index.Name(), "error", err)
		} else {
			logger.Info("search index rebuilt", "index", index.Name(), "documents", n)
		}
	}

	a.worker = exports.NewWorker(a.svc, blobs,
		exports.WithAuditRecorder(core.NewJSONAuditRecorder(os.Stdout)),
		exports.WithLogger(logger),
		exports.WithQueueSize(cfg.ExportQueueSize),
	)
	a.handler = httpapi.NewHandler(a.svc,
		httpapi.WithExports(a.worker),
		httpapi.WithErrorReporter(reporter),
		httpapi.WithMetrics(httpMetrics),
		httpapi.WithLogger(logger),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
	)
	return a, nil
}

// seedIfEmpty loads the sample dataset unless visas already exist, so that a
// restart against persistent storage does not duplicate it.
func seedIfEmpty(ctx context.Context, svc *core.Service) error {
	existing, err := svc.Visas().List(ctx)
	if err != nil {
		return fmt.Errorf("inspect store before seeding: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	return core.Seed(ctx, svc, core.DefaultSampleData())
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("shutdown requested during startup", "error", err)
			return nil
		}
		return err
	}
	defer a.close(logger)
	defer a.reporter.Flush(cfg.ShutdownTimeout)

	a.worker.Start()
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("consulard listening", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "blob", cfg.BlobDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if err := a.worker.Stop(shutdownCtx); err != nil {
		logger.Warn("export worker did not stop", "error", err)
	}
	return serveErr
}
