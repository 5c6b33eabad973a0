package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	credhandler "vcissuer/internal/credentials/handler"
	credmetrics "vcissuer/internal/credentials/metrics"
	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/publisher"
	credservice "vcissuer/internal/credentials/service"
	"vcissuer/internal/credentials/statuslist"
	credstore "vcissuer/internal/credentials/store"
	"vcissuer/internal/events"
	"vcissuer/internal/issuance/delivery"
	"vcissuer/internal/issuance/generator"
	issuancehandler "vcissuer/internal/issuance/handler"
	"vcissuer/internal/issuance/manager"
	issuancemetrics "vcissuer/internal/issuance/metrics"
	issuanceservice "vcissuer/internal/issuance/service"
	issuancestore "vcissuer/internal/issuance/store"
	"vcissuer/internal/participants"
	"vcissuer/internal/platform/config"
	"vcissuer/internal/platform/database"
	"vcissuer/internal/platform/health"
	"vcissuer/internal/platform/kafka"
	"vcissuer/internal/platform/kafka/producer"
	"vcissuer/internal/platform/metrics"
	"vcissuer/internal/platform/middleware"
	"vcissuer/internal/platform/redis"
	"vcissuer/pkg/platform/circuit"
	"vcissuer/pkg/platform/outbox"
	outboxmetrics "vcissuer/pkg/platform/outbox/metrics"
	outboxpostgres "vcissuer/pkg/platform/outbox/postgres"
	"vcissuer/pkg/platform/outbox/worker"
	"vcissuer/pkg/platform/tracer"
	txcontext "vcissuer/pkg/platform/tx"
)

const statsInterval = 15 * time.Second

type stores struct {
	credentials credstore.Store
	processes   issuancestore.ProcessStore
	definitions issuancestore.DefinitionStore
	holders     participants.HolderStore
	outbox      outbox.Store
	tx          txcontext.Runner
}

type application struct {
	router   http.Handler
	engine   *manager.Manager
	relay    *worker.Worker
	producer interface{ Close() error }
	pool     *database.Pool
	redis    *redis.Client
	log      *slog.Logger
	cancel   context.CancelFunc
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*application, error) {
	app := &application{log: log}

	pool, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	app.pool = pool
	st := newStores(pool, cfg)

	if cfg.Redis.URL != "" {
		if app.redis, err = redis.New(ctx, cfg.Redis); err != nil {
			return nil, err
		}
	}

	tr := tracer.NewOTel("vcissuer")
	emitter := events.NewPublisher(st.outbox, events.WithLogger(log))

	directory := participants.NewDirectory(st.holders, participants.Participant{
		ID:  cfg.Issuer.ParticipantContextID,
		DID: cfg.Issuer.DID,
	})

	keys, err := newKeyProvider(cfg.Issuer, log)
	if err != nil {
		return nil, err
	}
	generators := generator.NewRegistry(keys, directory, generator.NewJWTGenerator(time.Now))

	publishers, raw, err := newPublishers(cfg, app.redis)
	if err != nil {
		return nil, err
	}
	credMetrics := credmetrics.New()
	lists := statuslist.NewManager(st.credentials, st.tx, generators, publishers, directory,
		statuslist.WithBitstringSize(cfg.StatusList.BitstringSize),
		statuslist.WithValidity(cfg.StatusList.Validity),
		statuslist.WithEvents(emitter),
		statuslist.WithMetrics(credMetrics),
		statuslist.WithTracer(tr),
		statuslist.WithLogger(log),
	)
	infos := statuslist.NewInfoFactoryRegistry()
	infos.Register(credmodels.TypeBitstringStatusListEntry, statuslist.NewBitstringInfoFactory(st.credentials))
	status := credservice.New(st.credentials, st.tx, lists, generators, infos,
		credservice.WithEvents(emitter),
		credservice.WithMetrics(credMetrics),
		credservice.WithTracer(tr),
		credservice.WithLogger(log),
	)

	deliveryClient := delivery.New(directory, cfg.Issuance.DeliveryTimeout,
		delivery.WithBreakerOptions(circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		delivery.WithLogger(log),
	)
	app.engine = manager.New(st.processes, st.definitions, st.credentials, generators, status, deliveryClient,
		manager.WithRetryLimit(cfg.Issuance.RetryLimit),
		manager.WithBatchSize(cfg.Issuance.BatchSize),
		manager.WithConcurrency(cfg.Issuance.Concurrency),
		manager.WithPollInterval(cfg.Issuance.PollInterval),
		manager.WithWaitStrategy(manager.WaitStrategy{
			Initial:    cfg.Issuance.BackoffInitial,
			Max:        cfg.Issuance.BackoffMax,
			Multiplier: cfg.Issuance.BackoffMultiplier,
		}),
		manager.WithTxRunner(st.tx),
		manager.WithEvents(emitter),
		manager.WithMetrics(issuancemetrics.New()),
		manager.WithTracer(tr),
		manager.WithLogger(log),
	)

	prod, err := newProducer(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	if closer, ok := prod.(interface{ Close() error }); ok {
		app.producer = closer
	}
	app.relay = worker.New(st.outbox, prod,
		worker.WithTopic(cfg.Kafka.EventsTopic),
		worker.WithPollInterval(cfg.Kafka.PollInterval),
		worker.WithMetrics(outboxmetrics.New()),
		worker.WithLogger(log),
	)

	admin := issuanceservice.New(st.processes, st.definitions, directory, issuanceservice.WithLogger(log))

	healthHandler := health.New(cfg.Server.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", pool.Health)
	}
	if app.redis != nil {
		healthHandler.RegisterCheck("redis", app.redis.Health)
	}
	if cfg.Kafka.Brokers != "" {
		healthHandler.RegisterCheck("kafka", kafka.NewHealthChecker(cfg.Kafka.Brokers).Check)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log, metrics.NewHTTP()))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	publisher.NewHandler(st.credentials, raw, log).Register(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.Server.AdminToken, log))
		credhandler.New(status, log).Register(r)
		issuancehandler.New(admin, log).Register(r)
	})
	app.router = r

	return app, nil
}

func newStores(pool *database.Pool, cfg config.Config) stores {
	lease := issuancestore.WithLease(issuancestore.LeaseConfig{
		Holder:   leaseHolder(),
		Duration: cfg.Issuance.LeaseDuration,
	})
	if pool == nil {
		return stores{
			credentials: credstore.NewInMemory(),
			processes:   issuancestore.NewInMemoryProcessStore(lease),
			definitions: issuancestore.NewInMemoryDefinitionStore(),
			holders:     participants.NewInMemoryHolderStore(),
			outbox:      outbox.NewInMemoryStore(),
			tx:          txcontext.NewInMemoryRunner(),
		}
	}
	db := pool.DB()
	return stores{
		credentials: credstore.NewPostgres(db),
		processes:   issuancestore.NewPostgresProcessStore(db, lease),
		definitions: issuancestore.NewPostgresDefinitionStore(db),
		holders:     participants.NewPostgresHolderStore(db),
		outbox:      outboxpostgres.New(db),
		tx:          database.NewTxRunner(db, cfg.Database.TxTimeout),
	}
}

func newKeyProvider(cfg config.Issuer, log *slog.Logger) (*generator.InMemoryKeyProvider, error) {
	keys := generator.NewInMemoryKeyProvider()
	if cfg.SigningKeyPEM == "" {
		if _, err := keys.Generate(cfg.ParticipantContextID, cfg.KeyID); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		log.Warn("no issuer signing key configured, using an ephemeral key",
			"participant_context_id", cfg.ParticipantContextID,
			"key_id", cfg.KeyID,
		)
		return keys, nil
	}
	priv, err := generator.ParseECPrivateKeyPEM([]byte(cfg.SigningKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse issuer signing key: %w", err)
	}
	keys.Add(cfg.ParticipantContextID, &generator.KeyPair{KeyID: cfg.KeyID, PrivateKey: priv})
	return keys, nil
}

func newPublishers(cfg config.Config, client *redis.Client) (*publisher.Registry, publisher.RawLookup, error) {
	baseURL := cfg.StatusList.BaseURL
	switch cfg.StatusList.Publisher {
	case "", "local":
		return publisher.NewRegistry(publisher.NewLocal(baseURL)), nil, nil
	case "redis":
		if client == nil {
			return nil, nil, fmt.Errorf("status list publisher 'redis' requires REDIS_URL")
		}
		rp := publisher.NewRedis(client, baseURL, 0)
		// Formats Redis cannot hold fall through to the store-backed publisher.
		return publisher.NewRegistry(rp, publisher.NewLocal(baseURL)), rp, nil
	default:
		return nil, nil, fmt.Errorf("unknown status list publisher %q", cfg.StatusList.Publisher)
	}
}

func newProducer(cfg config.Kafka, log *slog.Logger) (worker.Producer, error) {
	if cfg.Brokers == "" {
		log.Warn("kafka brokers not configured, domain events stay in the outbox log only")
		return producer.NewNoopProducer(log), nil
	}
	pc := kafka.DefaultProducerConfig()
	pc.Brokers = cfg.Brokers
	pc.Acks = cfg.Acks
	p, err := producer.New(pc, log)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return p, nil
}

// start launches the background loops: the issuance engine, the outbox relay
// and periodic pool statistics.
func (a *application) start() {
	a.engine.Start()
	a.relay.Start()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.pool.RecordStats()
				if a.redis != nil {
					a.redis.RecordPoolStats()
				}
				if err := a.relay.UpdateMetrics(ctx); err != nil {
					a.log.WarnContext(ctx, "failed to update outbox metrics", "error", err)
				}
			}
		}
	}()
}

// stop drains the engine before the relay so events of the last batch are
// still published.
func (a *application) stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.engine.Stop(ctx); err != nil {
		a.log.Error("issuance engine did not stop in time", "error", err)
	}
	if err := a.relay.Stop(ctx); err != nil {
		a.log.Error("outbox relay did not stop in time", "error", err)
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Error("failed to close kafka producer", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("failed to close redis client", "error", err)
		}
	}
	if err := a.pool.Close(); err != nil {
		a.log.Error("failed to close database pool", "error", err)
	}
}

func leaseHolder() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return "vcissuer-" + host
	}
	return issuancestore.DefaultLease.Holder
}
