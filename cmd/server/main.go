package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"opsdesk/internal/audit"
	"opsdesk/internal/catalog"
	"opsdesk/internal/customer"
	"opsdesk/internal/notify"
	"opsdesk/internal/outbox"
	"opsdesk/internal/platform/config"
	"opsdesk/internal/platform/httpserver"
	"opsdesk/internal/platform/kafka"
	"opsdesk/internal/platform/logger"
	platformmetrics "opsdesk/internal/platform/metrics"
	"opsdesk/internal/platform/postgres"
	"opsdesk/internal/platform/redis"
	"opsdesk/internal/platform/token"
	"opsdesk/internal/registration/handler"
	"opsdesk/internal/registration/metrics"
	"opsdesk/internal/registration/service"
	"opsdesk/internal/registration/store"
	"opsdesk/internal/ticket"
	authmw "opsdesk/pkg/platform/middleware/auth"
	channelmw "opsdesk/pkg/platform/middleware/channel"
	requestmw "opsdesk/pkg/platform/middleware/request"
	requesttimemw "opsdesk/pkg/platform/middleware/requesttime"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("connected to postgres")
	} else {
		log.Info("no DATABASE_URL set, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := producer.EnsureTopics(ctx, cfg.Kafka.EventsTopic); err != nil {
			return err
		}
	}

	var (
		registrations store.Store
		customers     customer.Store
		tickets       ticket.Store
		auditStore    audit.Store
	)
	if db != nil {
		registrations = store.NewPostgres(db)
		customers = customer.NewPostgresStore(db)
		tickets = ticket.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		registrations = store.NewInMemory()
		customers = customer.NewInMemoryStore()
		tickets = ticket.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	recorder := audit.NewRecorder(auditStore,
		audit.WithLogger(log),
		audit.WithAsyncBuffer(cfg.Audit.BufferSize),
	)
	defer recorder.Close()

	var packages catalog.Gateway = catalog.NewStatic(catalog.DefaultPackages()...)
	if redisClient != nil {
		packages = catalog.NewCache(packages, redisClient.Client,
			catalog.WithTTL(config.CatalogCacheTTL),
			catalog.WithLogger(log),
		)
	}

	var notifier service.Notifier = notify.NewLogNotifier(log)
	if producer != nil {
		notifier = notify.NewKafkaNotifier(producer, cfg.Kafka.EventsTopic, log)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithNotifier(notifier),
	}
	if db != nil {
		opts = append(opts, service.WithTx(newLifecyclePostgresTx(db)))
	}
	svc := service.New(registrations, customers, tickets, recorder, packages, opts...)

	tokens := token.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(platformmetrics.NewHTTP().Middleware)
		r.Use(requestmw.Middleware)
		r.Use(requesttimemw.Middleware)
		r.Use(channelmw.Middleware)
		r.Use(authmw.RequireStaff(tokens, log))
		handler.New(svc, log).Register(r)
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting opsdesk", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if db != nil && producer != nil {
		relay := outbox.NewRelay(db, producer, cfg.Kafka.EventsTopic, cfg.Kafka.RelayInterval, log)
		group.Go(func() error {
			if err := relay.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
