// The server binary wires every domain service behind one HTTP router.
// Stores are in-memory by default; DATABASE_URL, REDIS_URL and KAFKA_BROKERS
// switch the corresponding backends on.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	authhandler "rbi-platform/internal/auth/handler"
	"rbi-platform/internal/auth/jwt"
	authservice "rbi-platform/internal/auth/service"
	"rbi-platform/internal/auth/store/refresh"
	"rbi-platform/internal/auth/store/revocation"
	"rbi-platform/internal/auth/store/session"
	"rbi-platform/internal/auth/store/user"
	compliancehandler "rbi-platform/internal/compliance/handler"
	complianceservice "rbi-platform/internal/compliance/service"
	compliancestore "rbi-platform/internal/compliance/store"
	documenthandler "rbi-platform/internal/documents/handler"
	documentservice "rbi-platform/internal/documents/service"
	documentstore "rbi-platform/internal/documents/store"
	integrationhandler "rbi-platform/internal/integrations/handler"
	integrationservice "rbi-platform/internal/integrations/service"
	integrationstore "rbi-platform/internal/integrations/store"
	notificationhandler "rbi-platform/internal/notifications/handler"
	notificationservice "rbi-platform/internal/notifications/service"
	notificationstore "rbi-platform/internal/notifications/store"
	"rbi-platform/internal/platform/config"
	"rbi-platform/internal/platform/httpserver"
	"rbi-platform/internal/platform/logger"
	"rbi-platform/internal/platform/metrics"
	"rbi-platform/internal/platform/postgres"
	"rbi-platform/internal/platform/redis"
	"rbi-platform/internal/ratelimit"
	regulatoryhandler "rbi-platform/internal/regulatory/handler"
	regulatoryservice "rbi-platform/internal/regulatory/service"
	regulatorystore "rbi-platform/internal/regulatory/store"
	reportinghandler "rbi-platform/internal/reporting/handler"
	reportingservice "rbi-platform/internal/reporting/service"
	riskhandler "rbi-platform/internal/risk/handler"
	riskservice "rbi-platform/internal/risk/service"
	riskstore "rbi-platform/internal/risk/store"
	"rbi-platform/internal/seed"
	httptransport "rbi-platform/internal/transport/http"
	"rbi-platform/pkg/platform/audit"
)

const probeTimeout = 5 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		log.Info("postgres connected, migrations applied")
	}

	// Audit pipeline. Compliance events persist synchronously in Emit; the
	// worker drains the async buffer for security and operations events.
	var auditStore audit.Store
	if db != nil {
		auditStore = audit.NewPostgresStore(db)
	} else {
		auditStore = audit.NewInMemoryStore(10000)
	}
	auditMetrics := audit.NewMetrics()
	sampler := audit.NewSampler(1.0)
	sampler.SetRate(audit.ActionRateLimitExceeded, 0.1)
	auditor := audit.NewPublisher(auditStore, log,
		audit.WithSampler(sampler),
		audit.WithMetrics(auditMetrics),
	)

	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("kafka audit sink connected", "topic", cfg.Kafka.AuditTopic)
	}
	auditWorker := audit.NewWorker(auditStore, sink, auditor.Inbox(), log, auditMetrics)

	met := metrics.New()

	// Rate limiting, shared between the HTTP middleware and login lockout.
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryWindowStore(), cfg.RateLimit)
	limitMiddleware := ratelimit.New(limiter, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(met),
		ratelimit.WithAuditor(auditor),
	)

	// Auth.
	tokens := jwt.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	var revocations authservice.RevocationStore
	if redisClient != nil {
		revocations = revocation.NewRedisStore(redisClient.Client, cfg.JWT.AccessTokenTTL)
	} else {
		revocations = revocation.NewInMemoryStore(cfg.JWT.AccessTokenTTL)
	}
	userStore := user.New()
	sessionStore := session.New()
	authSvc := authservice.New(
		userStore,
		sessionStore,
		refresh.New(),
		revocations,
		tokens,
		auditor,
		limiter,
		met,
		log,
		cfg.JWT,
	)

	// Notifications come first so the other services can alert through them.
	notificationSvc := notificationservice.New(notificationstore.New(), auditor, log)

	connectorStore := integrationstore.New()
	integrationSvc := integrationservice.New(
		connectorStore,
		integrationservice.NewHTTPProber(probeTimeout),
		auditor,
		notificationSvc,
		met,
		log,
	)

	var itemStore complianceservice.ItemStore
	if db != nil {
		itemStore = compliancestore.NewPostgresItemStore(db)
	} else {
		itemStore = compliancestore.NewItemStore()
	}
	complianceSvc := complianceservice.New(itemStore, compliancestore.NewWorkflowStore(), auditor, log)

	riskStore := riskstore.New()
	riskSvc := riskservice.New(riskStore, nil, auditor, notificationSvc, met, log)

	circularStore := regulatorystore.New()
	regulatorySvc := regulatoryservice.New(circularStore, complianceSvc, auditor, notificationSvc, log)

	documentSvc := documentservice.New(
		documentstore.NewMetadataStore(),
		documentstore.NewBlobStore(),
		auditor,
		cfg.Documents,
		log,
	)

	reportingSvc := reportingservice.New(itemStore, circularStore, connectorStore, riskStore, auditStore, log)

	if cfg.SeedDemo {
		seed.Run(ctx, seed.Services{
			Auth:         authSvc,
			Integrations: integrationSvc,
			Regulatory:   regulatorySvc,
			Risk:         riskSvc,
		}, log)
	}

	router := httptransport.NewRouter(httptransport.Handlers{
		Auth:          authhandler.New(authSvc, log),
		Integrations:  integrationhandler.New(integrationSvc, log),
		Compliance:    compliancehandler.New(complianceSvc, log),
		Risk:          riskhandler.New(riskSvc, log),
		Regulatory:    regulatoryhandler.New(regulatorySvc, log),
		Documents:     documenthandler.New(documentSvc, log),
		Notifications: notificationhandler.New(notificationSvc, log),
		Reporting:     reportinghandler.New(reportingSvc, log),
	}, httptransport.Options{
		Logger:         log,
		TokenValidator: jwt.NewMiddlewareAdapter(tokens),
		Sessions:       revocations,
		RateLimiter:    limitMiddleware,
		Latency:        met,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Run returns ctx.Err() after draining; that is a clean shutdown.
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting rbi-platform", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
