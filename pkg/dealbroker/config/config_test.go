package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, CacheMemory, cfg.Cache.Driver)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Database.URL)
	assert.False(t, cfg.Images.S3.Enabled())
	assert.Equal(t, "us-east-2", cfg.Images.S3.Region)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConventionalEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "mysql://user:pw@db:3306/leases")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_BUCKET_NAME", "deal-images")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("ADMIN_PASSWORD", "letmein")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "mysql://user:pw@db:3306/leases", cfg.Database.URL)
	assert.True(t, cfg.Images.S3.Enabled())
	assert.Equal(t, "deal-images", cfg.Images.S3.Bucket)
	assert.Equal(t, "us-west-2", cfg.Images.S3.Region)
	assert.Equal(t, "letmein", cfg.Admin.Password)
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEALBROKER_SERVER_ADDRESS", "127.0.0.1:7000")
	t.Setenv("DEALBROKER_SERVER_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("DEALBROKER_CACHE_TTL", "30s")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Address)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown cache", KeyCacheDriver, "memcached"},
		{"redis without url", KeyCacheDriver, CacheRedis},
		{"negative rate", KeyRateLimit, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEALBROKER_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("DEALBROKER_LOG_LEVEL", "")
	os.Unsetenv("DEALBROKER_LOG_LEVEL")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestAdminHash(t *testing.T) {
	hash, err := AdminConfig{}.Hash()
	require.NoError(t, err)
	assert.Empty(t, hash)

	hash, err = AdminConfig{Password: "letmein"}.Hash()
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("letmein")))

	stored, err := bcrypt.GenerateFromPassword([]byte("other"), bcrypt.MinCost)
	require.NoError(t, err)
	hash, err = AdminConfig{Password: "letmein", PasswordHash: string(stored)}.Hash()
	require.NoError(t, err)
	assert.Equal(t, stored, hash)

	_, err = AdminConfig{PasswordHash: "plain"}.Hash()
	assert.Error(t, err)
}
