package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadIndexerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *IndexerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5433
  user: testuser
  password: testpass
  dbname: market
  sslmode: require
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_EVENTS"
  consumer_name: "test-consumer"
  filter_subject: "flow.events.>"
  max_deliver: 9
  redelivery_delay: "1s"
  change_subject_prefix: "test.changes"
chain:
  chain_id: "flow:testnet"
  contracts_path: "config/contracts.json"
worker:
  pool_size: 8
  queue_size: 64
bid_sweeper:
  page_size: 250
  interval: "10m"
`,
			validate: func(t *testing.T, cfg *IndexerConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "market", cfg.Database.DBName)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "TEST_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, "test-consumer", cfg.NATS.ConsumerName)
				assert.Equal(t, "flow.events.>", cfg.NATS.FilterSubject)
				assert.Equal(t, 9, cfg.NATS.MaxDeliver)
				assert.Equal(t, time.Second, cfg.NATS.RedeliveryDelay)
				assert.Equal(t, "test.changes", cfg.NATS.ChangeSubjectPrefix)
				assert.Equal(t, domain.ChainFlowTestnet, cfg.Chain.ChainID)
				assert.Equal(t, "config/contracts.json", cfg.Chain.ContractsPath)
				assert.Equal(t, 8, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, 64, cfg.Worker.WorkerQueueSize)
				assert.Equal(t, 250, cfg.BidSweeper.PageSize)
				assert.Equal(t, 10*time.Minute, cfg.BidSweeper.Interval)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  dbname: market
nats:
  url: "nats://localhost:4222"
`,
			validate: func(t *testing.T, cfg *IndexerConfig) {
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
				assert.Equal(t, "FLOW_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, "market-indexer", cfg.NATS.ConsumerName)
				assert.Equal(t, 30*time.Second, cfg.NATS.AckWait)
				assert.Equal(t, 5, cfg.NATS.MaxDeliver)
				assert.Equal(t, 5*time.Second, cfg.NATS.RedeliveryDelay)
				assert.Equal(t, "market.changes", cfg.NATS.ChangeSubjectPrefix)
				assert.Equal(t, domain.ChainFlowMainnet, cfg.Chain.ChainID)
				assert.Empty(t, cfg.Chain.ContractsPath)
				assert.Equal(t, 20, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, 2048, cfg.Worker.WorkerQueueSize)
				assert.Equal(t, 4, cfg.Notifier.Concurrency)
				assert.Equal(t, 1000, cfg.BidSweeper.PageSize)
				assert.Equal(t, time.Hour, cfg.BidSweeper.Interval)
				assert.Equal(t, 500*time.Millisecond, cfg.BidSweeper.RetryInitialInterval)
				assert.Equal(t, 30*time.Second, cfg.BidSweeper.RetryMaxInterval)
				assert.Equal(t, 5*time.Minute, cfg.BidSweeper.RetryMaxElapsed)
			},
		},
		{
			name: "unsupported chain",
			configFile: `
chain:
  chain_id: "eip155:1"
`,
			expectError: true,
		},
		{
			name: "empty worker pool",
			configFile: `
worker:
  pool_size: 0
`,
			expectError: true,
		},
		{
			name: "invalid value",
			configFile: `
database:
  port: invalid
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadIndexerConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
server:
  host: 127.0.0.1
  port: 9090
  cors_origins: ["https://market.example.com"]
database:
  host: primary
  read_host: replica
  read_port: 6432
  dbname: market
chain:
  chain_id: "flow:emulator"
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, []string{"https://market.example.com"}, cfg.Server.CORSOrigins)
				assert.Equal(t, "replica", cfg.Database.ReadHost)
				assert.Equal(t, 6432, cfg.Database.ReadPort)
				assert.Equal(t, domain.ChainFlowEmulator, cfg.Chain.ChainID)
			},
		},
		{
			name:       "config with defaults",
			configFile: `debug: false`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 10, cfg.Server.ReadTimeout)
				assert.Equal(t, 10, cfg.Server.WriteTimeout)
				assert.Equal(t, 120, cfg.Server.IdleTimeout)
				assert.True(t, cfg.Metadata.FetchRemote)
				assert.Equal(t, "https://ipfs.io", cfg.Metadata.IPFSGateway)
				assert.Equal(t, 10*time.Second, cfg.Metadata.HTTPTimeout)
				assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, domain.ChainFlowMainnet, cfg.Chain.ChainID)
			},
		},
		{
			name: "unsupported chain",
			configFile: `
chain:
  chain_id: "tezos:mainnet"
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAPIConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "primary",
		Port:     5432,
		ReadHost: "replica",
		User:     "market",
		Password: "p@ssw0rd!",
		DBName:   "market",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=primary port=5432 user=market password=p@ssw0rd! dbname=market sslmode=disable", cfg.DSN())
	assert.Equal(t, "host=replica port=5432 user=market password=p@ssw0rd! dbname=market sslmode=disable", cfg.ReadDSN())

	cfg.ReadPort = 6432
	assert.Equal(t, "host=replica port=6432 user=market password=p@ssw0rd! dbname=market sslmode=disable", cfg.ReadDSN())
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	envDir := t.TempDir()
	envContent := `FF_MARKET_DEBUG=true
FF_MARKET_DATABASE_HOST=env-host
FF_MARKET_DATABASE_PORT=6543
FF_MARKET_NATS_URL=nats://env:4222
FF_MARKET_BID_SWEEPER_INTERVAL=15m
`
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600))
	// godotenv sets real process variables
	for _, key := range []string{"FF_MARKET_DEBUG", "FF_MARKET_DATABASE_HOST", "FF_MARKET_DATABASE_PORT", "FF_MARKET_NATS_URL", "FF_MARKET_BID_SWEEPER_INTERVAL"} {
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}

	configPath := writeConfig(t, `
debug: false
database:
  host: file-host
  port: 5432
nats:
  url: nats://file:4222
`)

	cfg, err := LoadIndexerConfig(configPath, envDir)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, 15*time.Minute, cfg.BidSweeper.Interval)
}
