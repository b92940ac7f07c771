package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Mail      MailConfig      `mapstructure:"mail"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Query     QueryConfig     `mapstructure:"query"`
	Task      TaskConfig      `mapstructure:"task"`
}

// Environment names accepted by ServerConfig.Environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel       string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Environment    string        `mapstructure:"environment" validate:"required,oneof=development production"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
	BodyLimitBytes int64         `mapstructure:"body_limit_bytes" validate:"gt=0"`
	// BaseURL overrides the scheme and host used in emailed links.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// IsProduction reports whether the server runs in production mode.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"required,oneof=postgres mongo"`
	URL      string `mapstructure:"url" validate:"required,url"`
	Name     string `mapstructure:"name" validate:"required_if=Driver mongo"`
	MaxConns int32  `mapstructure:"max_conns" validate:"gte=0"`
	// MongoTransactions wraps review writes in multi-document transactions.
	// Requires a replica set.
	MongoTransactions bool `mapstructure:"mongo_transactions"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                 string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes      int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	CookieExpiresDays         int    `mapstructure:"cookie_expires_days" validate:"gte=0"`
	ResetTokenLifetimeMinutes int    `mapstructure:"reset_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// MailConfig configures outbound email. When Enabled is false, messages
// are written to the log instead of being sent.
type MailConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int           `mapstructure:"port" validate:"gte=0,lt=65536"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from" validate:"required_if=Enabled true,omitempty,email"`
	FromName string        `mapstructure:"from_name"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Rate limiter backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// RateLimitConfig bounds the number of requests per client IP.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests" validate:"gte=0"`
	Window   time.Duration `mapstructure:"window" validate:"gte=0"`
	Backend  string        `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	RedisURL string        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// QueryConfig bounds list queries.
type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"gt=0"`
	// MaxLimit caps the limit parameter. Zero disables the cap.
	MaxLimit int `mapstructure:"max_limit" validate:"gte=0"`
}

// TaskConfig sizes the background worker pool.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
}
