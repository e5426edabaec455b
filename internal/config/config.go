// Package config provides configuration structures and validation for the
// synchronization services. It covers the HTTP trigger surface, the record
// store, the remote-system client, the task dispatcher and the background
// pollers.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field represents a
// major subsystem (HTTP server, databases, Kafka task dispatcher, remote
// client, pollers) and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Remote      RemoteConfig
	Poller      PollerConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains task dispatcher configuration
type KafkaConfig struct {
	Brokers           string
	TaskTopic         string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration for the sync audit log
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RemoteConfig contains the remote-system client configuration. The close
// call/endpoint/status label and the terminal status vocabulary vary by
// remote-system account configuration and must stay externally configurable.
type RemoteConfig struct {
	BaseURL          string
	AppKey           string
	AppSecret        string
	Timeout          time.Duration // Per-call HTTP timeout
	CloseStatus      string        // Target status label sent on close
	CloseCall        string        // Remote call name used for closing an order
	CloseEndpoint    string        // Endpoint the close call is posted to
	TerminalStatuses []string      // Statuses denoting a finished order, matched case-insensitively
	PageSize         int           // Page size for source entity listing
}

// PollerConfig contains the background poller intervals and batch sizing
type PollerConfig struct {
	TransferInterval time.Duration // Pending/failed transfer reprocessing
	ClosureInterval  time.Duration // Failed closure reprocessing
	OrderInterval    time.Duration // Pending internal orders advancement
	RobotInterval    time.Duration // Reconciliation robot full scan
	BatchSize        int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// IsTerminalStatus reports whether a remote order status belongs to the
// configured terminal vocabulary. Matching is case-insensitive and ignores
// surrounding whitespace.
func (c *RemoteConfig) IsTerminalStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, t := range c.TerminalStatuses {
		if s == strings.ToLower(strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.TaskTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_TASK_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate remote client config
	if c.Remote.BaseURL == "" {
		validationErrors = append(validationErrors, "REMOTE_BASE_URL is required")
	}
	if c.Remote.AppKey == "" {
		validationErrors = append(validationErrors, "REMOTE_APP_KEY is required")
	}
	if c.Remote.AppSecret == "" {
		validationErrors = append(validationErrors, "REMOTE_APP_SECRET is required")
	}
	if c.Remote.Timeout <= 0 {
		validationErrors = append(validationErrors, "REMOTE_TIMEOUT must be greater than 0")
	}
	if c.Remote.CloseStatus == "" {
		validationErrors = append(validationErrors, "REMOTE_CLOSE_STATUS is required")
	}
	if c.Remote.CloseCall == "" {
		validationErrors = append(validationErrors, "REMOTE_CLOSE_CALL is required")
	}
	if c.Remote.CloseEndpoint == "" {
		validationErrors = append(validationErrors, "REMOTE_CLOSE_ENDPOINT is required")
	}
	if len(c.Remote.TerminalStatuses) == 0 {
		validationErrors = append(validationErrors, "REMOTE_TERMINAL_STATUSES is required")
	}
	if c.Remote.PageSize <= 0 {
		validationErrors = append(validationErrors, "REMOTE_PAGE_SIZE must be greater than 0")
	}

	// Validate poller config
	if c.Poller.TransferInterval <= 0 {
		validationErrors = append(validationErrors, "POLLER_TRANSFER_INTERVAL must be greater than 0")
	}
	if c.Poller.ClosureInterval <= 0 {
		validationErrors = append(validationErrors, "POLLER_CLOSURE_INTERVAL must be greater than 0")
	}
	if c.Poller.OrderInterval <= 0 {
		validationErrors = append(validationErrors, "POLLER_ORDER_INTERVAL must be greater than 0")
	}
	if c.Poller.RobotInterval <= 0 {
		validationErrors = append(validationErrors, "POLLER_ROBOT_INTERVAL must be greater than 0")
	}
	if c.Poller.BatchSize <= 0 {
		validationErrors = append(validationErrors, "POLLER_BATCH_SIZE must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
