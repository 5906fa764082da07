package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `server:
  host: "127.0.0.1"
  port: 3000
  mode: "release"
  timeout: "15s"
  rate_limit:
    enabled: true
    rps: 2.5
    burst: 5
    idle_ttl: "5m"
database:
  driver: "postgres"
  sqlite:
    path: "data/test.db"
  postgres:
    host: "db.example.com"
    port: 5433
    user: "admin"
    password: "secret"
    dbname: "testdb"
    sslmode: "require"
  pool:
    max_idle_conns: 5
    max_open_conns: 50
    conn_max_lifetime: "30m"
redis:
  addr: "redis.example.com:6379"
  db: 2
  pool_size: 20
  dial_timeout: "3s"
cache:
  enabled: true
  ttl: "90s"
  prefix: "mb:"
notify:
  driver: "asynq"
  delay: "1s"
  queue: "notifications"
  concurrency: 4
auth:
  jwt_secret: "Release-Secret-0123456789-abcdefghij"
  token_expiry: "45m"
  issuer: "microblog-test"
  password:
    algorithm: "argon2id"
log:
  level: "info"
  format: "json"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// validBaseYAML returns a minimal valid YAML config string (sqlite, debug mode).
// Individual tests adjust it through APP__ environment overrides.
func validBaseYAML() string {
	return `server:
  host: "127.0.0.1"
  port: 3000
  mode: "debug"
database:
  driver: "sqlite"
  sqlite:
    path: "data/test.db"
  pool:
    max_idle_conns: 1
    max_open_conns: 1
    conn_max_lifetime: "1m"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  token_expiry: "30m"
log:
  level: "info"
  format: "json"
`
}

func TestLoad_FullYAML(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 3000 || cfg.Server.Mode != "release" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if rl := cfg.Server.RateLimit; !rl.Enabled || rl.RPS != 2.5 || rl.Burst != 5 || rl.IdleTTL != "5m" {
		t.Errorf("RateLimit = %+v", rl)
	}

	pg := cfg.Database.Postgres
	if cfg.Database.Driver != "postgres" || pg.Host != "db.example.com" || pg.Port != 5433 || pg.DBName != "testdb" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.Pool.MaxOpenConns != 50 || cfg.Database.Pool.ConnMaxLifetime != "30m" {
		t.Errorf("Pool = %+v", cfg.Database.Pool)
	}

	if cfg.Redis.Addr != "redis.example.com:6379" || cfg.Redis.DB != 2 || cfg.Redis.PoolSize != 20 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Prefix != "mb:" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if got := DurationOr(cfg.Cache.TTL, time.Minute); got != 90*time.Second {
		t.Errorf("cache ttl = %v, want 90s", got)
	}

	if n := cfg.Notify; n.Driver != NotifyAsynq || n.Queue != "notifications" || n.Concurrency != 4 || n.Delay != "1s" {
		t.Errorf("Notify = %+v", n)
	}

	if cfg.Auth.Issuer != "microblog-test" || cfg.Auth.TokenExpiry != "45m" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Auth.Password.Algorithm != "argon2id" {
		t.Errorf("Password.Algorithm = %q, want argon2id", cfg.Auth.Password.Algorithm)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeTestConfig(t, testYAML)

	t.Setenv("APP__SERVER__PORT", "9090")
	t.Setenv("APP__DATABASE__DRIVER", "sqlite")
	t.Setenv("APP__LOG__LEVEL", "error")

	// Fields containing underscores keep them; only double underscores nest.
	t.Setenv("APP__DATABASE__POOL__MAX_IDLE_CONNS", "20")
	t.Setenv("APP__SERVER__RATE_LIMIT__BURST", "50")
	t.Setenv("APP__AUTH__JWT_SECRET", "Overridden-Secret-0123456789-ABCDEFG")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
	if cfg.Database.Pool.MaxIdleConns != 20 {
		t.Errorf("Pool.MaxIdleConns = %d, want 20", cfg.Database.Pool.MaxIdleConns)
	}
	if cfg.Server.RateLimit.Burst != 50 {
		t.Errorf("RateLimit.Burst = %d, want 50", cfg.Server.RateLimit.Burst)
	}
	if cfg.Auth.JWTSecret != "Overridden-Secret-0123456789-ABCDEFG" {
		t.Errorf("Auth.JWTSecret = %q", cfg.Auth.JWTSecret)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1 (unchanged)", cfg.Server.Host)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	content := "APP__SERVER__PORT=7070\nAPP__LOG__LEVEL=warn\n"
	if err := os.WriteFile(dotenv, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Register cleanup for the keys godotenv will set, then clear them.
	t.Setenv("APP__SERVER__PORT", "")
	t.Setenv("APP__LOG__LEVEL", "debug")
	os.Unsetenv("APP__SERVER__PORT")

	cfg, err := Load(writeTestConfig(t, validBaseYAML()), filepath.Join(dir, "missing.env"), dotenv)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 from dotenv", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want the exported value to win over dotenv", cfg.Log.Level)
	}
}

func TestLoad_DotEnvMalformed(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("BAD-KEY=value\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(writeTestConfig(t, validBaseYAML()), dotenv); err == nil {
		t.Fatal("Load() expected error for malformed dotenv file")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, validBaseYAML()))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Notify.Driver != NotifyInline {
		t.Errorf("Notify.Driver = %q, want %q", cfg.Notify.Driver, NotifyInline)
	}
	if cfg.Notify.Queue != "default" {
		t.Errorf("Notify.Queue = %q, want default", cfg.Notify.Queue)
	}
	if cfg.Auth.Password.Algorithm != "bcrypt" {
		t.Errorf("Password.Algorithm = %q, want bcrypt", cfg.Auth.Password.Algorithm)
	}
	if cfg.Cache.Enabled || cfg.Server.RateLimit.Enabled {
		t.Error("cache and rate limiting should be off unless configured")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"server mode", map[string]string{"APP__SERVER__MODE": "production"}, "server.mode"},
		{"port zero", map[string]string{"APP__SERVER__PORT": "0"}, "server.port"},
		{"port too large", map[string]string{"APP__SERVER__PORT": "70000"}, "server.port"},
		{"blank host", map[string]string{"APP__SERVER__HOST": "   "}, "server.host"},
		{"bad timeout", map[string]string{"APP__SERVER__TIMEOUT": "soon"}, "server.timeout"},
		{"negative timeout", map[string]string{"APP__SERVER__TIMEOUT": "-1s"}, "server.timeout"},
		{"rate limit without rps", map[string]string{"APP__SERVER__RATE_LIMIT__ENABLED": "true", "APP__SERVER__RATE_LIMIT__BURST": "5"}, "server.rate_limit.rps"},
		{"rate limit without burst", map[string]string{"APP__SERVER__RATE_LIMIT__ENABLED": "true", "APP__SERVER__RATE_LIMIT__RPS": "5"}, "server.rate_limit.burst"},
		{"database driver", map[string]string{"APP__DATABASE__DRIVER": "mysql"}, "database.driver"},
		{"sqlite path", map[string]string{"APP__DATABASE__SQLITE__PATH": " "}, "database.sqlite.path"},
		{"pool lifetime", map[string]string{"APP__DATABASE__POOL__CONN_MAX_LIFETIME": "0s"}, "database.pool.conn_max_lifetime"},
		{"postgres host", map[string]string{"APP__DATABASE__DRIVER": "postgres"}, "database.postgres.host"},
		{"cache without redis", map[string]string{"APP__CACHE__ENABLED": "true", "APP__CACHE__TTL": "1m"}, "redis.addr"},
		{"cache without ttl", map[string]string{"APP__CACHE__ENABLED": "true", "APP__REDIS__ADDR": "localhost:6379"}, "cache.ttl"},
		{"negative redis db", map[string]string{"APP__REDIS__DB": "-1"}, "redis.db"},
		{"asynq without redis", map[string]string{"APP__NOTIFY__DRIVER": "asynq"}, "redis.addr"},
		{"notify driver", map[string]string{"APP__NOTIFY__DRIVER": "kafka"}, "notify.driver"},
		{"notify delay", map[string]string{"APP__NOTIFY__DELAY": "-2s"}, "notify.delay"},
		{"missing secret", map[string]string{"APP__AUTH__JWT_SECRET": "   "}, "auth.jwt_secret"},
		{"short secret", map[string]string{"APP__AUTH__JWT_SECRET": "too-short"}, "at least 32 characters"},
		{"missing expiry", map[string]string{"APP__AUTH__TOKEN_EXPIRY": " "}, "auth.token_expiry"},
		{"bad expiry", map[string]string{"APP__AUTH__TOKEN_EXPIRY": "forever"}, "auth.token_expiry"},
		{"password algorithm", map[string]string{"APP__AUTH__PASSWORD__ALGORITHM": "md5"}, "auth.password.algorithm"},
		{"bcrypt cost", map[string]string{"APP__AUTH__PASSWORD__BCRYPT_COST": "3"}, "auth.password.bcrypt_cost"},
		{"log level", map[string]string{"APP__LOG__LEVEL": "verbose"}, "log.level"},
		{"log format", map[string]string{"APP__LOG__FORMAT": "xml"}, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeTestConfig(t, validBaseYAML()))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ReleaseModeRestrictions(t *testing.T) {
	t.Run("weak secret", func(t *testing.T) {
		t.Setenv("APP__SERVER__MODE", "release")
		_, err := Load(writeTestConfig(t, validBaseYAML()))
		if err == nil || !strings.Contains(err.Error(), "character classes") {
			t.Fatalf("expected character class error, got %v", err)
		}
	})

	t.Run("postgres sslmode", func(t *testing.T) {
		path := writeTestConfig(t, testYAML)
		t.Setenv("APP__DATABASE__POSTGRES__SSLMODE", "disable")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "sslmode") {
			t.Fatalf("expected sslmode error, got %v", err)
		}
	})

	t.Run("debug mode allows plain secret", func(t *testing.T) {
		if _, err := Load(writeTestConfig(t, validBaseYAML())); err != nil {
			t.Fatalf("Load() error: %v", err)
		}
	})
}

func TestLoad_OptionalDurationWhitespace_NormalizedAsUnset(t *testing.T) {
	t.Setenv("APP__SERVER__TIMEOUT", "   ")
	t.Setenv("APP__NOTIFY__DELAY", " 250ms ")

	cfg, err := Load(writeTestConfig(t, validBaseYAML()))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Timeout != "" {
		t.Errorf("Server.Timeout = %q, want empty", cfg.Server.Timeout)
	}
	if cfg.Notify.Delay != "250ms" {
		t.Errorf("Notify.Delay = %q, want trimmed 250ms", cfg.Notify.Delay)
	}
}

func TestLoad_ProjectConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("Load() error on project config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Notify.Driver != NotifyInline || DurationOr(cfg.Notify.Delay, 0) != 2*time.Second {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
	if DurationOr(cfg.Auth.TokenExpiry, 0) != 30*time.Minute {
		t.Errorf("Auth.TokenExpiry = %q, want 30m", cfg.Auth.TokenExpiry)
	}
}

func TestDurationOr(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Minute},
		{"garbage", time.Minute},
		{"5s", 5 * time.Second},
	}
	for _, tt := range tests {
		if got := DurationOr(tt.in, time.Minute); got != tt.want {
			t.Errorf("DurationOr(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCountSecretClasses(t *testing.T) {
	tests := []struct {
		secret string
		want   int
	}{
		{"", 0},
		{"abcdef", 1},
		{"abcDEF", 2},
		{"abcDEF123", 3},
		{"abcDEF123!@#", 4},
		{"12345!", 2},
	}
	for _, tt := range tests {
		if got := CountSecretClasses(tt.secret); got != tt.want {
			t.Errorf("CountSecretClasses(%q) = %d, want %d", tt.secret, got, tt.want)
		}
	}
}
