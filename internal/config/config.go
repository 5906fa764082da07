package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Cache    CacheConfig    `koanf:"cache"`
	Notify   NotifyConfig   `koanf:"notify"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string          `koanf:"host"`
	Port      int             `koanf:"port"`
	Mode      string          `koanf:"mode"`
	Timeout   string          `koanf:"timeout"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL string `koanf:"idle_ttl"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// RedisConfig holds the redis connection shared by the cache and the task queue.
type RedisConfig struct {
	Addr        string `koanf:"addr"`
	Password    string `koanf:"password"`
	DB          int    `koanf:"db"`
	PoolSize    int    `koanf:"pool_size"`
	DialTimeout string `koanf:"dial_timeout"`
}

// CacheConfig holds the post cache settings.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	TTL     string `koanf:"ttl"`
	Prefix  string `koanf:"prefix"`
}

// Notification drivers.
const (
	NotifyInline = "inline"
	NotifyAsynq  = "asynq"
)

// NotifyConfig holds new-post notification settings.
type NotifyConfig struct {
	Driver      string `koanf:"driver"`
	Delay       string `koanf:"delay"`
	Queue       string `koanf:"queue"`
	Concurrency int    `koanf:"concurrency"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret   string         `koanf:"jwt_secret"`
	TokenExpiry string         `koanf:"token_expiry"`
	Issuer      string         `koanf:"issuer"`
	Password    PasswordConfig `koanf:"password"`
}

// PasswordConfig selects the password hashing algorithm.
type PasswordConfig struct {
	Algorithm  string `koanf:"algorithm"`
	BcryptCost int    `koanf:"bcrypt_cost"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__AUTH__JWT_SECRET overrides auth.jwt_secret.
//
// Each dotenv file in dotenvPaths that exists is loaded into the process
// environment first. Variables already set in the environment win.
func Load(configPath string, dotenvPaths ...string) (*Config, error) {
	for _, p := range dotenvPaths {
		if err := loadDotEnv(p); err != nil {
			return nil, err
		}
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	// APP__DATABASE__POOL__MAX_IDLE_CONNS -> database.pool.max_idle_conns
	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}
	return nil
}

// Validate checks cross-field constraints and supported values, and
// normalizes whitespace and defaults in place.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateRedisAndCache,
		c.validateNotify,
		c.validateAuth,
		c.validateLog,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	if err := optionalDuration("server.timeout", &c.Server.Timeout); err != nil {
		return err
	}
	if err := optionalDuration("server.cors.max_age", &c.Server.CORS.MaxAge); err != nil {
		return err
	}

	rl := &c.Server.RateLimit
	if err := optionalDuration("server.rate_limit.idle_ttl", &rl.IdleTTL); err != nil {
		return err
	}
	if rl.Enabled {
		if rl.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", rl.RPS)
		}
		if rl.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", rl.Burst)
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "sqlite":
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	case "postgres":
		if err := c.validatePostgres(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	return optionalDuration("database.pool.conn_max_lifetime", &c.Database.Pool.ConnMaxLifetime)
}

func (c *Config) validatePostgres() error {
	pg := &c.Database.Postgres
	pg.Host = strings.TrimSpace(pg.Host)
	pg.User = strings.TrimSpace(pg.User)
	pg.DBName = strings.TrimSpace(pg.DBName)
	pg.SSLMode = strings.TrimSpace(pg.SSLMode)

	if pg.Host == "" {
		return fmt.Errorf("database.postgres.host is required when driver is postgres")
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
	}
	if pg.User == "" {
		return fmt.Errorf("database.postgres.user is required when driver is postgres")
	}
	if pg.DBName == "" {
		return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
	}

	switch pg.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of disable, allow, prefer, require, verify-ca, verify-full", pg.SSLMode)
	}
	if c.Server.Mode == gin.ReleaseMode {
		switch pg.SSLMode {
		case "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of require, verify-ca, verify-full", pg.SSLMode, gin.ReleaseMode)
		}
	}
	return nil
}

func (c *Config) validateRedisAndCache() error {
	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d: must not be negative", c.Redis.DB)
	}
	if err := optionalDuration("redis.dial_timeout", &c.Redis.DialTimeout); err != nil {
		return err
	}

	if err := optionalDuration("cache.ttl", &c.Cache.TTL); err != nil {
		return err
	}
	if c.Cache.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when cache is enabled")
		}
		if c.Cache.TTL == "" {
			return fmt.Errorf("cache.ttl is required when cache is enabled")
		}
	}
	return nil
}

func (c *Config) validateNotify() error {
	driver := strings.ToLower(strings.TrimSpace(c.Notify.Driver))
	if driver == "" {
		driver = NotifyInline
	}
	switch driver {
	case NotifyInline:
	case NotifyAsynq:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when notify.driver is %q", NotifyAsynq)
		}
	default:
		return fmt.Errorf("invalid notify.driver %q: must be one of %q, %q", c.Notify.Driver, NotifyInline, NotifyAsynq)
	}
	c.Notify.Driver = driver

	c.Notify.Queue = strings.TrimSpace(c.Notify.Queue)
	if c.Notify.Queue == "" {
		c.Notify.Queue = "default"
	}
	if c.Notify.Concurrency < 0 {
		return fmt.Errorf("invalid notify.concurrency %d: must not be negative", c.Notify.Concurrency)
	}

	c.Notify.Delay = strings.TrimSpace(c.Notify.Delay)
	if c.Notify.Delay != "" {
		d, err := time.ParseDuration(c.Notify.Delay)
		if err != nil {
			return fmt.Errorf("invalid notify.delay %q: %w", c.Notify.Delay, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid notify.delay %q: must not be negative", c.Notify.Delay)
		}
	}
	return nil
}

func (c *Config) validateAuth() error {
	jwtSecret := strings.TrimSpace(c.Auth.JWTSecret)
	if jwtSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(jwtSecret) < 32 {
		return fmt.Errorf("invalid auth.jwt_secret: must be at least 32 characters")
	}
	if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(jwtSecret) < 3 {
		return fmt.Errorf("auth.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}
	c.Auth.JWTSecret = jwtSecret

	tokenExpiry := strings.TrimSpace(c.Auth.TokenExpiry)
	if tokenExpiry == "" {
		return fmt.Errorf("auth.token_expiry is required")
	}
	c.Auth.TokenExpiry = tokenExpiry
	if err := optionalDuration("auth.token_expiry", &c.Auth.TokenExpiry); err != nil {
		return err
	}
	c.Auth.Issuer = strings.TrimSpace(c.Auth.Issuer)

	pw := &c.Auth.Password
	algorithm := strings.ToLower(strings.TrimSpace(pw.Algorithm))
	if algorithm == "" {
		algorithm = "bcrypt"
	}
	switch algorithm {
	case "bcrypt", "argon2id":
		pw.Algorithm = algorithm
	default:
		return fmt.Errorf("invalid auth.password.algorithm %q: must be one of %q, %q", pw.Algorithm, "bcrypt", "argon2id")
	}
	if pw.BcryptCost != 0 && (pw.BcryptCost < bcrypt.MinCost || pw.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("invalid auth.password.bcrypt_cost %d: must be between %d and %d", pw.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json", "custom":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q, %q", c.Log.Format, "text", "json", "custom")
	}
	return nil
}

// optionalDuration trims *v and, when it is set, checks that it is a
// positive Go duration. Whitespace-only values are normalized to unset.
func optionalDuration(name string, v *string) error {
	*v = strings.TrimSpace(*v)
	if *v == "" {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, *v, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, *v)
	}
	return nil
}

// DurationOr parses s as a duration, returning def when s is empty or invalid.
// Call it on validated configuration values.
func DurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	var hasLower, hasUpper, hasDigit, hasSymbol bool

	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if has {
			classes++
		}
	}
	return classes
}
