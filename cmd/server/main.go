// Command server wires the audit engine: stores, recorders, the secondary
// sink fan-out, the verification-code flow, and the HTTP surface. Business
// logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"chronicle/internal/audit/bus"
	"chronicle/internal/audit/fanout"
	"chronicle/internal/audit/handler"
	"chronicle/internal/audit/ports"
	"chronicle/internal/audit/registry"
	"chronicle/internal/audit/service"
	"chronicle/internal/audit/store/display"
	loginstore "chronicle/internal/audit/store/login"
	operatestore "chronicle/internal/audit/store/operate"
	passwordstore "chronicle/internal/audit/store/password"
	"chronicle/internal/platform/config"
	"chronicle/internal/platform/httpserver"
	"chronicle/internal/platform/logger"
	"chronicle/internal/platform/metrics"
	"chronicle/internal/platform/middleware"
	redisplatform "chronicle/internal/platform/redis"
	"chronicle/internal/sms"
)

// sinkQueueSize bounds the number of serialized lines waiting for the
// secondary sink. Overflow drops lines rather than blocking writes.
const sinkQueueSize = 1024

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	var (
		operate   ports.OperateStore
		logins    ports.LoginStore
		passwords ports.PasswordChangeStore
		resolver  ports.RelatedResolver
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		operate = operatestore.NewPostgres(db)
		logins = loginstore.NewPostgres(db)
		passwords = passwordstore.NewPostgres(db)
		resolver = display.NewPostgres(db)
	} else {
		log.Warn("no database configured, audit records are held in memory")
		operate = operatestore.NewMemory()
		logins = loginstore.NewMemory()
		passwords = passwordstore.NewMemory()
		resolver = display.NewStatic(nil)
	}

	recorderOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}
	var sinkWorker *fanout.Worker
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := fanout.NewKafkaSink(cfg.KafkaBrokers, cfg.SinkTopic)
		if err != nil {
			return fmt.Errorf("connect sink: %w", err)
		}
		defer sink.Close()
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			// The sink is best-effort; a missing topic only degrades mirroring.
			log.Warn("ensure sink topic", "error", err)
		}
		queue := fanout.NewQueue(sinkQueueSize)
		sinkWorker = fanout.NewWorker(sink, queue.Lines(), log)
		recorderOpts = append(recorderOpts, service.WithObserver(
			fanout.New(queue, fanout.WithLogger(log), fanout.WithMetrics(m)),
		))
	}

	recorder, err := service.New(registry.Default(), operate, logins, passwords, resolver, recorderOpts...)
	if err != nil {
		return fmt.Errorf("build recorder: %w", err)
	}

	events := bus.New()
	events.Subscribe(recorder)

	var verify *sms.VerifyService
	if cfg.RedisURL != "" {
		rdb, err := redisplatform.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		sender, err := sms.New(cfg.SMSBackend, config.EnvSettings{}, sms.NewLogGateway(log))
		if err != nil {
			log.Warn("sms backend unavailable, verification flow disabled", "error", err)
		} else {
			verify, err = sms.NewVerifyService(sender,
				sms.NewCodeStore(rdb, cfg.VerifyCodeTTL),
				sms.WithLogger(log), sms.WithMetrics(m))
			if err != nil {
				return fmt.Errorf("build verify service: %w", err)
			}
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestMeta)
	router.Use(middleware.Actor([]byte(cfg.JWTSigningKey), log))
	handler.New(operate, logins, passwords, events, verify, log).Register(router)
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	if sinkWorker != nil {
		g.Go(func() error { return sinkWorker.Run(ctx) })
	}
	g.Go(func() error {
		log.Info("starting chronicle", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
