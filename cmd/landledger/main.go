package main

import (
	"LandLedger/internal/chain"
	"LandLedger/internal/config"
	"LandLedger/internal/core"
	"LandLedger/internal/identity"
	"LandLedger/internal/ingestion"
	"LandLedger/internal/observability"
	"LandLedger/internal/persistence"
	"LandLedger/internal/reducer"
	"LandLedger/internal/server"
	"LandLedger/internal/store"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const dependencyCheckInterval = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "landledger: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLoggerWithLevel("landledger", observability.ParseLogLevel(cfg.LogLevel))
	logger.Info().Str("store", cfg.StoreDriver).Str("land_contract", cfg.LandContract).Msg("LandLedger starting")

	// --- Context with graceful shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker()

	// --- Store ---
	dialect, err := persistence.ParseDialect(cfg.StoreDriver)
	if err != nil {
		logger.Fatal().Err(err).Msg("store driver")
	}
	db, err := openDB(ctx, dialect, cfg.StoreDSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer db.Close()
	logger.Info().Str("driver", string(dialect)).Msg("store connected")

	var migrations fs.FS = dialect.Migrations()
	if cfg.MigrationsDir != "" {
		migrations = os.DirFS(cfg.MigrationsDir)
	}
	if err := persistence.NewMigrator(db, dialect, migrations, logger).Up(ctx); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	sqlStore := persistence.NewSQLStore(db, dialect, logger, metrics)
	var entityStore store.Store = sqlStore
	var cached *store.CachedStore
	if cfg.CacheCapacity > 0 {
		cached = store.NewCachedStore(sqlStore, cfg.CacheCapacity)
		cached.Instrument(metrics.CacheHits, metrics.CacheMisses)
		entityStore = cached
	}

	// --- Chain reader ---
	ethClient, err := chain.DialEthClient(ctx, cfg.EthRPCURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial eth rpc")
	}
	defer ethClient.Close()
	contractReader := chain.NewEthReader(ethClient, cfg.CallTimeout, metrics)

	// --- Reducers + indexer ---
	deps := reducer.Deps{
		Config:   reducer.DefaultConfig(cfg.LandContract),
		Identity: identity.NewResolver(identity.DefaultConfig(), contractReader, logger),
		Reader:   contractReader,
		Logger:   logger,
		Metrics:  metrics,
	}

	var outputs chan core.Output
	opts := core.Options{Logger: logger, Metrics: metrics}
	if cfg.PublishChanges {
		outputs = make(chan core.Output, cfg.OutputBuffer)
		opts.Outputs = outputs
	}

	indexer := core.NewIndexer(entityStore, core.NewRouter(deps), opts)
	if err := indexer.Restore(ctx); err != nil {
		logger.Fatal().Err(err).Msg("restore checkpoint")
	}

	// --- NATS ---
	nc, js, err := ingestion.ConnectNATS(cfg.NATSURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("nats connect")
	}
	defer nc.Close()

	subCfg := ingestion.DefaultSubscriberConfig()
	if err := ingestion.EnsureStream(ctx, js, subCfg); err != nil {
		logger.Fatal().Err(err).Msg("ensure ingest stream")
	}
	if cfg.PublishChanges {
		if err := ingestion.EnsureChangeStream(ctx, js, logger); err != nil {
			logger.Fatal().Err(err).Msg("ensure change stream")
		}
	}

	rawEvents := make(chan ingestion.RawEvent)
	subscriber := ingestion.NewNATSSubscriber(js, rawEvents, logger)
	runner := ingestion.NewRunner(indexer, rawEvents, logger, metrics)

	// --- Servers ---
	serverDeps := server.Deps{
		Status:  indexer,
		Counter: sqlStore,
		Health:  healthChecker,
		Logger:  logger,
	}
	if cached != nil {
		serverDeps.Cache = cached
	}
	if cfg.EnableInject {
		serverDeps.Injector = ingestion.NewInjector(rawEvents)
	}
	srv, err := server.New(cfg.GRPCAddr, cfg.HTTPAddr, serverDeps)
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}

	// --- Start goroutines ---
	errChan := make(chan error, 8)

	// 1. Runner: the only caller of indexer.ProcessEvent
	go func() {
		errChan <- runner.Run(ctx)
	}()

	// 2. Change publisher
	if cfg.PublishChanges {
		publisher := ingestion.NewChangePublisher(js, outputs, logger, metrics)
		go func() {
			errChan <- publisher.Run(ctx)
		}()
	}

	// 3. gRPC health + HTTP gateway
	go func() {
		errChan <- srv.StartGRPC(ctx)
	}()
	go func() {
		errChan <- srv.StartHTTP(ctx)
	}()

	// 4. Prometheus metrics
	go func() {
		errChan <- serveMetrics(ctx, cfg.MetricsAddr, logger)
	}()

	// 5. Dependency health
	checks := map[string]func(context.Context) error{
		"store": sqlStore.Ping,
		"nats": func(context.Context) error {
			if !nc.IsConnected() {
				return fmt.Errorf("nats status %s", nc.Status())
			}
			return nil
		},
		"chain": func(ctx context.Context) error {
			_, err := ethClient.BlockNumber(ctx)
			return err
		},
	}
	go monitorDependencies(ctx, healthChecker, srv, checks, logger)

	// Subscribe last so delivery starts once everything is running.
	if err := subscriber.Subscribe(ctx, subCfg); err != nil {
		logger.Fatal().Err(err).Msg("nats subscribe")
	}
	healthChecker.SetReady(true)
	srv.SetServing(healthChecker.IsReady())

	var block uint64
	if cp := indexer.Checkpoint(); cp != nil {
		block = cp.Position.Block
	}
	logger.Info().
		Uint64("block", block).
		Str("grpc", cfg.GRPCAddr).
		Str("http", cfg.HTTPAddr).
		Str("metrics", cfg.MetricsAddr).
		Msg("LandLedger ready")

	// --- Wait for shutdown signal ---
	select {
	case <-ctx.Done():
		logger.Info().Msg("received signal, shutting down")
	case err := <-errChan:
		logger.Error().Err(err).Msg("goroutine failed, shutting down")
	}

	healthChecker.SetReady(false)
	subscriber.Stop()
	stop()

	if cp := indexer.Checkpoint(); cp != nil {
		logger.Info().Stringer("position", cp.Position).Str("chain_hash", cp.ChainHash).Msg("final checkpoint")
	}
	logger.Info().Msg("LandLedger shutdown complete")
}

// openDB opens and pings the store database.
func openDB(ctx context.Context, dialect persistence.Dialect, dsn string) (*sql.DB, error) {
	db, err := persistence.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if dialect == persistence.Postgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

func serveMetrics(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutCtx)
	}()

	logger.Info().Str("addr", addr).Msg("metrics server listening")
	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// monitorDependencies refreshes dependency health and mirrors readiness
// into the gRPC health service.
func monitorDependencies(ctx context.Context, health *observability.HealthChecker, srv *server.Server, checks map[string]func(context.Context) error, logger zerolog.Logger) {
	ticker := time.NewTicker(dependencyCheckInterval)
	defer ticker.Stop()

	for {
		for name, check := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := check(checkCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Str("dependency", name).Msg("dependency unhealthy")
			}
			health.SetDependency(name, err == nil)
		}
		srv.SetServing(health.IsReady())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
