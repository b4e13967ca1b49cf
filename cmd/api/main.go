package main

import (
	"context"
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
	"github.com/feral-file/ff-market-indexer/internal/api/server"
	"github.com/feral-file/ff-market-indexer/internal/config"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/metadata"
	"github.com/feral-file/ff-market-indexer/internal/registry"
	"github.com/feral-file/ff-market-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "market-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Market Indexer API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	// Reads go to the replica when one is configured
	if cfg.Database.ReadHost != "" {
		err := store.RegisterReadReplica(db, postgres.Open(cfg.Database.ReadDSN()),
			cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime)
		if err != nil {
			logger.Fatal("Failed to register read replica", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Registered read replica", zap.String("read_host", cfg.Database.ReadHost))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewStore(db)

	// Initialize adapters
	fs := adapter.NewFileSystem()
	jsonAdapter := adapter.NewJSON()

	// Metadata is served for the NFT collections of the chain
	contracts, err := registry.LoadContractRegistry(registry.NewContractRegistryLoader(fs, jsonAdapter), cfg.Chain.ContractsPath)
	if err != nil {
		logger.Fatal("Failed to load contract registry", zap.Error(err), zap.String("path", cfg.Chain.ContractsPath))
	}
	nftContracts := registry.ContractIDs(contracts, cfg.Chain.ChainID, registry.FamilyNFT)
	var httpClient adapter.HTTPClient
	if cfg.Metadata.FetchRemote {
		httpClient = adapter.NewHTTPClient(cfg.Metadata.HTTPTimeout, cfg.Metadata.RetryMaxElapsed)
	}
	metadataRegistry := metadata.NewRegistry(
		metadata.NewMintProvider(nftContracts, jsonAdapter, httpClient, cfg.Metadata.IPFSGateway),
	)
	hasher := metadata.NewHasher(jsonAdapter, adapter.NewJCS())

	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  cfg.Server.CORSOrigins,
	}
	srv := server.New(serverConfig, dataStore, metadataRegistry, hasher)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// don't use the canceled ctx
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, zap.String("component", "server"))
	}

	logger.Info("API server stopped")
}
