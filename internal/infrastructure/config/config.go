package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Tasks       TasksConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
	Logistics   LogisticsConfig
	Orian       OrianConfig
	PickAndPack PickAndPackConfig
	Webhook     WebhookConfig
	Messaging   MessagingConfig
	Storage     StorageConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// TasksConfig holds background task queue configuration
type TasksConfig struct {
	WorkerEnabled    bool
	BatchSize        int
	PollInterval     time.Duration
	MaxRetries       int
	RetryCountdown   time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
}

// SchedulerConfig holds periodic job configuration
type SchedulerConfig struct {
	Enabled              bool
	SnapshotSyncInterval time.Duration
	JobTimeout           time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
}

// LogisticsConfig selects the provider purchase orders and orders are sent to
type LogisticsConfig struct {
	ActiveProvider string
	RequestTimeout time.Duration
}

// OrianConfig holds Orian API, RabbitMQ and SFTP settings
type OrianConfig struct {
	BaseURL   string
	Token     string
	Consignee string
	IDPrefix  string
	Timezone  string

	DummyCustomerID           int64
	DummyCustomerName         string
	DummyCustomerStreet       string
	DummyCustomerStreetNumber string
	DummyCustomerCity         string
	DummyCustomerPhone        string

	AMQPURL           string
	AMQPSkipTLSVerify bool

	SFTPHost     string
	SFTPPort     int
	SFTPUser     string
	SFTPPassword string
	SFTPDir      string
	SFTPTimeout  time.Duration
	// SFTPHostKey is the server public key in authorized_keys format; the
	// host key is not checked when empty
	SFTPHostKey string
}

// PickAndPackConfig holds Pick&Pack API settings
type PickAndPackConfig struct {
	InboundURL  string
	OutboundURL string
	Token       string
	Consignee   string
	IDPrefix    string
	Timezone    string
	Verbose     bool
}

// WebhookConfig maps static API keys to provider names
type WebhookConfig struct {
	APIKeys map[string]string
}

// MessagingConfig holds the AMQP exchange used for outgoing notifications
type MessagingConfig struct {
	URL      string
	Exchange string
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GIFT_ prefix (e.g., GIFT_DATABASE_PASSWORD),
// including those loaded from a .env file
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Zero is a valid retry budget, so this default cannot live in applyDefaults
	v.SetDefault("tasks.max_retries", 2)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("GIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Tasks: TasksConfig{
			WorkerEnabled:    v.GetBool("tasks.worker_enabled"),
			BatchSize:        v.GetInt("tasks.batch_size"),
			PollInterval:     v.GetDuration("tasks.poll_interval"),
			MaxRetries:       v.GetInt("tasks.max_retries"),
			RetryCountdown:   v.GetDuration("tasks.retry_countdown"),
			CleanupEnabled:   v.GetBool("tasks.cleanup_enabled"),
			CleanupRetention: v.GetDuration("tasks.cleanup_retention"),
		},
		Scheduler: SchedulerConfig{
			Enabled:              v.GetBool("scheduler.enabled"),
			SnapshotSyncInterval: v.GetDuration("scheduler.snapshot_sync_interval"),
			JobTimeout:           v.GetDuration("scheduler.job_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Logistics: LogisticsConfig{
			ActiveProvider: v.GetString("logistics.active_provider"),
			RequestTimeout: v.GetDuration("logistics.request_timeout"),
		},
		Orian: OrianConfig{
			BaseURL:                   v.GetString("orian.base_url"),
			Token:                     v.GetString("orian.token"),
			Consignee:                 v.GetString("orian.consignee"),
			IDPrefix:                  v.GetString("orian.id_prefix"),
			Timezone:                  v.GetString("orian.timezone"),
			DummyCustomerID:           v.GetInt64("orian.dummy_customer_id"),
			DummyCustomerName:         v.GetString("orian.dummy_customer_name"),
			DummyCustomerStreet:       v.GetString("orian.dummy_customer_street"),
			DummyCustomerStreetNumber: v.GetString("orian.dummy_customer_street_number"),
			DummyCustomerCity:         v.GetString("orian.dummy_customer_city"),
			DummyCustomerPhone:        v.GetString("orian.dummy_customer_phone"),
			AMQPURL:                   v.GetString("orian.amqp_url"),
			AMQPSkipTLSVerify:         v.GetBool("orian.amqp_skip_tls_verify"),
			SFTPHost:                  v.GetString("orian.sftp_host"),
			SFTPPort:                  v.GetInt("orian.sftp_port"),
			SFTPUser:                  v.GetString("orian.sftp_user"),
			SFTPPassword:              v.GetString("orian.sftp_password"),
			SFTPDir:                   v.GetString("orian.sftp_dir"),
			SFTPTimeout:               v.GetDuration("orian.sftp_timeout"),
			SFTPHostKey:               v.GetString("orian.sftp_host_key"),
		},
		PickAndPack: PickAndPackConfig{
			InboundURL:  v.GetString("pickandpack.inbound_url"),
			OutboundURL: v.GetString("pickandpack.outbound_url"),
			Token:       v.GetString("pickandpack.token"),
			Consignee:   v.GetString("pickandpack.consignee"),
			IDPrefix:    v.GetString("pickandpack.id_prefix"),
			Timezone:    v.GetString("pickandpack.timezone"),
			Verbose:     v.GetBool("pickandpack.verbose"),
		},
		Webhook: WebhookConfig{
			APIKeys: loadAPIKeys(v),
		},
		Messaging: MessagingConfig{
			URL:      v.GetString("messaging.url"),
			Exchange: v.GetString("messaging.exchange"),
		},
		Storage: StorageConfig{
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadAPIKeys reads webhook.api_keys either as a TOML table or, from the
// environment, as "key=provider,key=provider"
func loadAPIKeys(v *viper.Viper) map[string]string {
	keys := v.GetStringMapString("webhook.api_keys")
	if len(keys) > 0 {
		return keys
	}
	raw := v.GetString("webhook.api_keys")
	if raw == "" {
		return map[string]string{}
	}
	keys = make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, provider, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" || provider == "" {
			continue
		}
		keys[key] = provider
	}
	return keys
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gift-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "gift"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Tasks.BatchSize == 0 {
		cfg.Tasks.BatchSize = 50
	}
	if cfg.Tasks.PollInterval == 0 {
		cfg.Tasks.PollInterval = 2 * time.Second
	}
	if cfg.Tasks.RetryCountdown == 0 {
		cfg.Tasks.RetryCountdown = 30 * time.Second
	}
	if cfg.Tasks.CleanupRetention == 0 {
		cfg.Tasks.CleanupRetention = 168 * time.Hour
	}
	if cfg.Scheduler.SnapshotSyncInterval == 0 {
		cfg.Scheduler.SnapshotSyncInterval = time.Hour
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "gift-backend"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Logistics.ActiveProvider == "" {
		cfg.Logistics.ActiveProvider = "PICK_AND_PACK"
	}
	if cfg.Logistics.RequestTimeout == 0 {
		cfg.Logistics.RequestTimeout = 30 * time.Second
	}
	if cfg.Orian.Timezone == "" {
		cfg.Orian.Timezone = "Asia/Jerusalem"
	}
	if cfg.Orian.DummyCustomerName == "" {
		cfg.Orian.DummyCustomerName = "Nicklas"
	}
	if cfg.Orian.SFTPPort == 0 {
		cfg.Orian.SFTPPort = 22
	}
	if cfg.Orian.SFTPTimeout == 0 {
		cfg.Orian.SFTPTimeout = 30 * time.Second
	}
	if cfg.PickAndPack.Timezone == "" {
		cfg.PickAndPack.Timezone = "Asia/Jerusalem"
	}
	if cfg.Messaging.Exchange == "" {
		cfg.Messaging.Exchange = "gift.notifications"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Logistics.ActiveProvider {
	case "ORIAN", "PICK_AND_PACK":
	default:
		return fmt.Errorf("logistics.active_provider must be ORIAN or PICK_AND_PACK, got %q", c.Logistics.ActiveProvider)
	}
	for key, provider := range c.Webhook.APIKeys {
		if provider != "ORIAN" && provider != "PICK_AND_PACK" {
			return fmt.Errorf("webhook.api_keys maps key %q to unknown provider %q", maskKey(key), provider)
		}
	}
	if c.Tasks.MaxRetries < 0 {
		return fmt.Errorf("tasks.max_retries cannot be negative")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if len(c.Webhook.APIKeys) == 0 {
			return fmt.Errorf("webhook.api_keys is required in production")
		}
		for key := range c.Webhook.APIKeys {
			if len(key) < 32 {
				return fmt.Errorf("webhook api key %q must be at least 32 characters in production", maskKey(key))
			}
		}
		if c.Logistics.ActiveProvider == "ORIAN" && (c.Orian.BaseURL == "" || c.Orian.Token == "") {
			return fmt.Errorf("orian.base_url and orian.token are required when ORIAN is the active provider")
		}
		if c.Logistics.ActiveProvider == "PICK_AND_PACK" && (c.PickAndPack.InboundURL == "" || c.PickAndPack.OutboundURL == "") {
			return fmt.Errorf("pickandpack.inbound_url and pickandpack.outbound_url are required when PICK_AND_PACK is the active provider")
		}
		// Database tracing: full SQL logging is a security risk in production
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SFTPAddr returns the Orian SFTP address
func (o *OrianConfig) SFTPAddr() string {
	return fmt.Sprintf("%s:%d", o.SFTPHost, o.SFTPPort)
}
