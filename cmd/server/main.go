package main

import (
	"context"
	"crypto"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	assignment "workforce-console/backend/internal/assignment/service"
	"workforce-console/backend/internal/audit"
	auditrepo "workforce-console/backend/internal/audit/repository"
	bulk "workforce-console/backend/internal/bulk/service"
	"workforce-console/backend/internal/clock"
	"workforce-console/backend/internal/config"
	"workforce-console/backend/internal/db"
	"workforce-console/backend/internal/events"
	"workforce-console/backend/internal/health"
	identity "workforce-console/backend/internal/identity/client"
	"workforce-console/backend/internal/logger"
	"workforce-console/backend/internal/platform/rbac"
	"workforce-console/backend/internal/policy/engine"
	resource "workforce-console/backend/internal/resource/client"
	"workforce-console/backend/internal/roster/cache"
	rosterhandler "workforce-console/backend/internal/roster/handler"
	roster "workforce-console/backend/internal/roster/service"
	"workforce-console/backend/internal/security"
	"workforce-console/backend/internal/server"
	"workforce-console/backend/internal/server/interceptors"
	telemetry "workforce-console/backend/internal/telemetry/otel"
)

const serviceName = "workforce-console"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("config", zap.Error(err))
	}
	log, err := logger.New(logger.Config{ServiceName: serviceName, Environment: cfg.Env, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		zap.L().Fatal("logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	clk := clock.System()

	providers, err := telemetry.NewProviders(ctx, telemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	}, log)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	pub, err := loadKey(cfg)
	if err != nil {
		return err
	}
	verifier := security.NewTokenVerifier(pub, cfg.JWTIssuer, cfg.JWTAudience)

	identityClient := identity.New(cfg.IdentityAPIURL, cfg.IdentityAPIToken, cfg.ClientTimeout())
	resourceClient := resource.New(cfg.ResourceAPIURL, cfg.ResourceAPIToken, cfg.ClientTimeout())

	checks := []health.Check{}

	var viewCache cache.ViewCache = cache.NewMemory(cfg.CacheTTL(), clk)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		viewCache = cache.NewRedis(rdb, cfg.CacheTTL())
		checks = append(checks, redisCheck(rdb))
		log.Info("enrichment cache", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
	}

	var auditRepo auditrepo.Repository = auditrepo.NewMemoryRepository()
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		auditRepo = auditrepo.NewPostgresRepository(sqlDB)
		checks = append(checks, health.PingCheck("postgres", sqlDB))
	} else {
		log.Warn("DATABASE_URL not set; audit trail kept in memory")
	}
	rec := audit.NewLogger(auditRepo, interceptors.UserID, interceptors.ClientIP, clk, log)

	sinks := events.Fanout{telemetry.NewLogPublisher(providers.LoggerProvider)}
	if kp := events.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.RosterEventsTopic, log); kp != nil {
		sinks = append(sinks, kp)
	}
	defer func() { _ = sinks.Close() }()

	policy, err := engine.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return err
	}
	evaluator, err := engine.NewOPAEvaluator(ctx, policy)
	if err != nil {
		return err
	}
	checks = append(checks, health.PolicyCheck("policy", evaluator))

	pipeline := roster.NewPipeline(identityClient, resourceClient, viewCache, nil, clk, log,
		roster.Config{EnrichConcurrency: cfg.EnrichConcurrency})
	refresher := pipeline.ForCaller(rosterhandler.CallerFromContext)

	mutator := assignment.NewMutator(resourceClient, log,
		assignment.WithCache(viewCache),
		assignment.WithEvents(sinks),
		assignment.WithAudit(rec),
		assignment.WithActor(interceptors.UserID),
		assignment.WithClock(clk),
	)
	orchestrator := bulk.NewOrchestrator(identityClient, refresher, log,
		bulk.Config{Concurrency: cfg.BulkConcurrency},
		bulk.WithAuthorizer(rbac.BulkAuthorizer{Snapshots: pipeline.Store(), Evaluator: evaluator}),
		bulk.WithNotifier(bulk.LogNotifier{Log: log}),
		bulk.WithEvents(sinks),
		bulk.WithAudit(rec),
		bulk.WithActor(interceptors.UserID),
		bulk.WithClock(clk),
	)
	inviter := roster.NewInviter(identityClient, refresher, pipeline.Store(), sinks, rec, interceptors.UserID, clk, log)

	grpcServer, hs := server.NewGRPCServer(server.Deps{
		Roster: rosterhandler.Deps{
			Roster:    pipeline,
			Snapshots: pipeline.Store(),
			Mutator:   mutator,
			Bulk:      orchestrator,
			Inviter:   inviter,
			Evaluator: evaluator,
			Clock:     clk,
		},
		Verifier: verifier,
		Audit:    rec,
		Log:      log,
	})
	checker := health.NewChecker(checks, []string{"workforce.v1.RosterService"}, 2*time.Second, log)
	go checker.Watch(ctx, hs, 15*time.Second)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down gRPC server")
	hs.Shutdown()
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")
	return nil
}

func loadKey(cfg *config.Config) (crypto.PublicKey, error) {
	if cfg.JWTPublicKey == "" {
		return nil, errors.New("JWT_PUBLIC_KEY must be set")
	}
	return security.ParsePublicKey(cfg.JWTPublicKey)
}

func redisCheck(rdb *redis.Client) health.Check {
	return health.Check{Name: "redis", Probe: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}
