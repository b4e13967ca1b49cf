package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/auction"
	"github.com/feral-file/ff-market-indexer/internal/bridge"
	"github.com/feral-file/ff-market-indexer/internal/config"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/mapper"
	"github.com/feral-file/ff-market-indexer/internal/messaging"
	"github.com/feral-file/ff-market-indexer/internal/order"
	natsjs "github.com/feral-file/ff-market-indexer/internal/providers/jetstream"
	"github.com/feral-file/ff-market-indexer/internal/reconciler"
	"github.com/feral-file/ff-market-indexer/internal/registry"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "market-indexer",
			"chain":   string(cfg.Chain.ChainID),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Market Indexer", zap.String("chain", string(cfg.Chain.ChainID)))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewStore(db)

	// Initialize adapters
	fs := adapter.NewFileSystem()
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()
	natsJS := adapter.NewNatsJetStream()

	// Build one mapper per indexed contract
	contracts, err := registry.LoadContractRegistry(registry.NewContractRegistryLoader(fs, jsonAdapter), cfg.Chain.ContractsPath)
	if err != nil {
		logger.Fatal("Failed to load contract registry", zap.Error(err), zap.String("path", cfg.Chain.ContractsPath))
	}
	chainContracts := contracts.Contracts(cfg.Chain.ChainID)
	if len(chainContracts) == 0 {
		logger.Fatal("No contracts configured for chain", zap.String("chain", string(cfg.Chain.ChainID)))
	}
	eventMapper, err := mapper.NewRegistry(chainContracts)
	if err != nil {
		logger.Fatal("Failed to build event mappers", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Loaded contract registry", zap.Int("contracts", len(chainContracts)))

	natsConfig := natsjs.Config{
		URL:            cfg.NATS.URL,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
		SubjectPrefix:  cfg.NATS.ChangeSubjectPrefix,
	}

	// Change events go out on their own connection
	publisher, err := natsjs.NewPublisher(natsConfig, natsJS, jsonAdapter)
	if err != nil {
		logger.Fatal("Failed to create change publisher", zap.Error(err))
	}
	defer publisher.Close()
	notifier := messaging.NewNotifier(publisher, clock, cfg.Notifier.Concurrency, cfg.Notifier.QueueSize)

	// Engines, sweeper and reconciler
	orders := order.NewEngine(dataStore)
	auctions := auction.NewEngine(dataStore)
	bidSweeper := sweeper.NewBidActivationSweeper(sweeper.BidActivationConfig{
		PageSize:             cfg.BidSweeper.PageSize,
		Interval:             cfg.BidSweeper.Interval,
		RetryInitialInterval: cfg.BidSweeper.RetryInitialInterval,
		RetryMaxInterval:     cfg.BidSweeper.RetryMaxInterval,
		RetryMaxElapsed:      cfg.BidSweeper.RetryMaxElapsed,
	}, dataStore, orders, notifier, clock)
	rec := reconciler.New(dataStore, orders, auctions, bidSweeper, notifier, clock, jsonAdapter)
	processor := reconciler.NewProcessor(eventMapper, rec, cfg.Worker.WorkerPoolSize, cfg.Worker.WorkerQueueSize)

	// Raw log consumer
	logBridge, err := bridge.NewBridge(bridge.Config{
		NATS:            natsConfig,
		StreamName:      cfg.NATS.StreamName,
		ConsumerName:    cfg.NATS.ConsumerName,
		FilterSubject:   cfg.NATS.FilterSubject,
		AckWaitTimeout:  cfg.NATS.AckWait,
		MaxDeliver:      cfg.NATS.MaxDeliver,
		RedeliveryDelay: cfg.NATS.RedeliveryDelay,
	}, natsJS, processor, jsonAdapter)
	if err != nil {
		logger.Fatal("Failed to create raw log bridge", zap.Error(err))
	}
	defer logBridge.Close()

	errCh := make(chan error, 2)
	go func() {
		if err := bidSweeper.Start(ctx); err != nil {
			errCh <- fmt.Errorf("%s: %w", bidSweeper.Name(), err)
		}
	}()
	go func() {
		if err := logBridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("bridge: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err)
	}

	// Stop pulling first, then drain in-flight work before the connections close
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := bidSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	processor.Stop()
	notifier.Close()

	logger.Info("Market indexer stopped")
}
