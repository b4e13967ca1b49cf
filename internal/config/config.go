package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadHost        string        `mapstructure:"read_host"`
	ReadPort        int           `mapstructure:"read_port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // e.g. "5m", "1h"
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // e.g. "10m"
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	FilterSubject  string        `mapstructure:"filter_subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
	// RedeliveryDelay delays redelivery of logs that failed on a store outage
	RedeliveryDelay time.Duration `mapstructure:"redelivery_delay"`
	// ChangeSubjectPrefix prefixes the subjects change events are published on
	ChangeSubjectPrefix string `mapstructure:"change_subject_prefix"`
}

// ChainConfig holds the indexed network and its contracts
type ChainConfig struct {
	ChainID domain.Chain `mapstructure:"chain_id"`
	// ContractsPath points to a contract registry JSON file; the built-in contracts are used when empty
	ContractsPath string `mapstructure:"contracts_path"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// NotifierConfig holds configuration of the change event notifier
type NotifierConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	QueueSize   int `mapstructure:"queue_size"`
}

// BidSweeperConfig holds configuration for the bid activation sweeper
type BidSweeperConfig struct {
	PageSize             int           `mapstructure:"page_size"`
	Interval             time.Duration `mapstructure:"interval"` // 0 disables periodic passes
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `mapstructure:"retry_max_interval"`
	RetryMaxElapsed      time.Duration `mapstructure:"retry_max_elapsed"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int      `mapstructure:"idle_timeout"`  // in seconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// IndexerConfig holds configuration for the market indexer
type IndexerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
	BidSweeper BidSweeperConfig `mapstructure:"bid_sweeper"`
}

// MetadataConfig holds configuration for resolving item metadata documents
type MetadataConfig struct {
	// FetchRemote enables fetching documents behind http(s) and ipfs URIs
	FetchRemote     bool          `mapstructure:"fetch_remote"`
	IPFSGateway     string        `mapstructure:"ipfs_gateway"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Chain      ChainConfig    `mapstructure:"chain"`
	Metadata   MetadataConfig `mapstructure:"metadata"`
}

// LoadIndexerConfig loads configuration for the market indexer
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper("indexer", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "FLOW_EVENTS")
	v.SetDefault("nats.consumer_name", "market-indexer")
	v.SetDefault("nats.connection_name", "market-indexer")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("nats.redelivery_delay", "5s")
	v.SetDefault("nats.change_subject_prefix", "market.changes")
	v.SetDefault("chain.chain_id", string(domain.ChainFlowMainnet))
	v.SetDefault("worker.pool_size", 20)
	v.SetDefault("worker.queue_size", 2048)
	v.SetDefault("notifier.concurrency", 4)
	v.SetDefault("notifier.queue_size", 1024)
	v.SetDefault("bid_sweeper.page_size", 1000)
	v.SetDefault("bid_sweeper.interval", "1h")
	v.SetDefault("bid_sweeper.retry_initial_interval", "500ms")
	v.SetDefault("bid_sweeper.retry_max_interval", "30s")
	v.SetDefault("bid_sweeper.retry_max_elapsed", "5m")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config IndexerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("metadata.fetch_remote", true)
	v.SetDefault("metadata.ipfs_gateway", "https://ipfs.io")
	v.SetDefault("metadata.http_timeout", "10s")
	v.SetDefault("metadata.retry_max_elapsed", "20s")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("chain.chain_id", string(domain.ChainFlowMainnet))

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !config.Chain.ChainID.Valid() {
		return nil, fmt.Errorf("unsupported chain.chain_id %q", config.Chain.ChainID)
	}
	return &config, nil
}

func (c *IndexerConfig) validate() error {
	if !c.Chain.ChainID.Valid() {
		return fmt.Errorf("unsupported chain.chain_id %q", c.Chain.ChainID)
	}
	if c.Worker.WorkerPoolSize <= 0 {
		return errors.New("worker.pool_size must be positive")
	}
	if c.Worker.WorkerQueueSize <= 0 {
		return errors.New("worker.queue_size must be positive")
	}
	return nil
}

// readConfig reads the config file; a missing file falls back to environment variables
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("FF_MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// Viper only maps env vars onto struct fields for keys it knows about.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.read_host",
		"database.read_port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.filter_subject",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.redelivery_delay",
		"nats.change_subject_prefix",
		// Chain
		"chain.chain_id",
		"chain.contracts_path",
		// Workers
		"worker.pool_size",
		"worker.queue_size",
		"notifier.concurrency",
		"notifier.queue_size",
		// Bid sweeper
		"bid_sweeper.page_size",
		"bid_sweeper.interval",
		"bid_sweeper.retry_initial_interval",
		"bid_sweeper.retry_max_interval",
		"bid_sweeper.retry_max_elapsed",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_origins",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// shared base first, then local, then the optional per-service local file
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ReadDSN returns the read-replica connection string, falling back to Port when ReadPort is unset
func (c *DatabaseConfig) ReadDSN() string {
	port := c.ReadPort
	if port == 0 {
		port = c.Port
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.ReadHost, port, c.User, c.Password, c.DBName, c.SSLMode)
}
