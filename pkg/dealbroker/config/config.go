// Package config resolves settings from flags, environment variables and an
// optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is prepended to every setting's environment variable.
const EnvPrefix = "DEALBROKER"

// Setting keys, shared with the command line flags.
const (
	KeyServerAddress   = "server.address"
	KeyServerPort      = "server.port"
	KeyReadTimeout     = "server.read_timeout"
	KeyWriteTimeout    = "server.write_timeout"
	KeyAllowedOrigins  = "server.allowed_origins"
	KeyRateLimit       = "server.rate_limit"
	KeyRateBurst       = "server.rate_burst"
	KeyDatabaseURL     = "database.url"
	KeyImageDir        = "images.dir"
	KeyImageURLPrefix  = "images.url_prefix"
	KeyS3AccessKeyID   = "images.s3.access_key_id"
	KeyS3Secret        = "images.s3.secret_access_key"
	KeyS3Bucket        = "images.s3.bucket"
	KeyS3Region        = "images.s3.region"
	KeyS3Endpoint      = "images.s3.endpoint"
	KeyS3PublicBaseURL = "images.s3.public_base_url"
	KeyCacheDriver     = "cache.driver"
	KeyCacheRedisURL   = "cache.redis_url"
	KeyCacheTTL        = "cache.ttl"
	KeyAdminPassword   = "admin.password"
	KeyAdminHash       = "admin.password_hash"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyEnvironment     = "environment"
	KeyAPIBaseURL      = "api.base_url"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the resolved application configuration.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Images      ImagesConfig
	Cache       CacheConfig
	Admin       AdminConfig
	Log         LogConfig
	API         APIConfig
}

type ServerConfig struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
}

type DatabaseConfig struct {
	// URL is a mysql:// or sqlite:// URL; empty selects a local SQLite file.
	URL string
}

type ImagesConfig struct {
	Dir       string
	URLPrefix string
	S3        S3Config
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	Endpoint        string
	PublicBaseURL   string
}

// Enabled reports whether uploads should go to a bucket instead of disk.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type CacheConfig struct {
	Driver   string
	RedisURL string
	TTL      time.Duration
}

type AdminConfig struct {
	Password     string
	PasswordHash string
}

type LogConfig struct {
	Level  string
	Format string
}

type APIConfig struct {
	BaseURL string
}

// New returns a viper instance with defaults and environment bindings.
// Besides DEALBROKER_<KEY> a few conventional names are honoured, such as
// DATABASE_URL, PORT and the AWS_* variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyReadTimeout, 15*time.Second)
	v.SetDefault(KeyWriteTimeout, 15*time.Second)
	v.SetDefault(KeyAllowedOrigins, "http://localhost:5173")
	v.SetDefault(KeyRateLimit, 1.0)
	v.SetDefault(KeyRateBurst, 5)
	v.SetDefault(KeyImageDir, "uploads")
	v.SetDefault(KeyImageURLPrefix, "/images")
	v.SetDefault(KeyS3Region, "us-east-2")
	v.SetDefault(KeyCacheDriver, CacheMemory)
	v.SetDefault(KeyCacheTTL, time.Minute)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyEnvironment, "development")
	v.SetDefault(KeyAPIBaseURL, "http://localhost:8080")

	bind := func(key string, aliases ...string) {
		names := append([]string{key, envName(key)}, aliases...)
		_ = v.BindEnv(names...)
	}
	bind(KeyServerAddress, "SERVER_ADDRESS")
	bind(KeyServerPort, "PORT")
	bind(KeyDatabaseURL, "DATABASE_URL")
	bind(KeyS3AccessKeyID, "AWS_ACCESS_KEY_ID")
	bind(KeyS3Secret, "AWS_SECRET_ACCESS_KEY")
	bind(KeyS3Bucket, "AWS_BUCKET_NAME")
	bind(KeyS3Region, "AWS_REGION")
	bind(KeyS3Endpoint, "AWS_ENDPOINT_URL")
	bind(KeyCacheRedisURL, "REDIS_URL")
	bind(KeyAdminPassword, "ADMIN_PASSWORD")
	bind(KeyAdminHash, "ADMIN_PASSWORD_HASH")
	bind(KeyAPIBaseURL, "API_BASE_URL")
	return v
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadDotEnv loads the given .env files (".env" when none) without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads every setting from v and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString(KeyEnvironment),
		Server: ServerConfig{
			Address:        address(v.GetString(KeyServerAddress), v.GetString(KeyServerPort)),
			ReadTimeout:    v.GetDuration(KeyReadTimeout),
			WriteTimeout:   v.GetDuration(KeyWriteTimeout),
			AllowedOrigins: splitList(v.GetString(KeyAllowedOrigins)),
			RateLimit:      v.GetFloat64(KeyRateLimit),
			RateBurst:      v.GetInt(KeyRateBurst),
		},
		Database: DatabaseConfig{URL: v.GetString(KeyDatabaseURL)},
		Images: ImagesConfig{
			Dir:       v.GetString(KeyImageDir),
			URLPrefix: v.GetString(KeyImageURLPrefix),
			S3: S3Config{
				AccessKeyID:     v.GetString(KeyS3AccessKeyID),
				SecretAccessKey: v.GetString(KeyS3Secret),
				Bucket:          v.GetString(KeyS3Bucket),
				Region:          v.GetString(KeyS3Region),
				Endpoint:        v.GetString(KeyS3Endpoint),
				PublicBaseURL:   v.GetString(KeyS3PublicBaseURL),
			},
		},
		Cache: CacheConfig{
			Driver:   strings.ToLower(v.GetString(KeyCacheDriver)),
			RedisURL: v.GetString(KeyCacheRedisURL),
			TTL:      v.GetDuration(KeyCacheTTL),
		},
		Admin: AdminConfig{
			Password:     v.GetString(KeyAdminPassword),
			PasswordHash: v.GetString(KeyAdminHash),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		API: APIConfig{BaseURL: v.GetString(KeyAPIBaseURL)},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New("cache driver redis needs a redis url")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Server.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return errors.New("rate burst must be at least 1")
	}
	if c.Images.S3.Enabled() && (c.Images.S3.AccessKeyID == "") != (c.Images.S3.SecretAccessKey == "") {
		return errors.New("s3 access key id and secret must be set together")
	}
	return nil
}

// Hash returns the bcrypt hash of the admin password. An explicit
// hash wins over a plain password; with neither, the hash is empty and
// every login is rejected.
func (c AdminConfig) Hash() ([]byte, error) {
	if c.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		return []byte(c.PasswordHash), nil
	}
	if c.Password == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return hash, nil
}

func address(addr, port string) string {
	switch {
	case addr != "":
		return addr
	case port != "":
		return ":" + strings.TrimPrefix(port, ":")
	}
	return ":8080"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
