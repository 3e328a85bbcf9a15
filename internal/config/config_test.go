package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "./uploads/packaging", cfg.Storage.LocalDir)
	assert.Equal(t, "/uploads/packaging", cfg.Storage.URLPrefix)
	assert.Equal(t, 72*time.Hour, cfg.JWT.Expire)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadEnvAliases(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "legacy")
	t.Setenv("PORT", "9100")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/ppwr.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy", cfg.JWT.Secret)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/ppwr.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite"},
			Storage:  StorageConfig{Driver: "local", LocalDir: "./uploads/packaging", URLPrefix: "/uploads/packaging"},
			JWT:      JWTConfig{Secret: "x"},
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.JWT.Secret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.Database.Driver = "mysql"
	assert.Error(t, c.Validate())

	c = base()
	c.Storage.URLPrefix = "uploads"
	assert.Error(t, c.Validate())
	c.Storage.URLPrefix = "/"
	assert.Error(t, c.Validate())

	c = base()
	c.Storage.LocalDir = ""
	assert.Error(t, c.Validate())

	c = base()
	c.Storage.Driver = "minio"
	assert.Error(t, c.Validate())
	c.MinIO.Endpoint = "localhost:9000"
	assert.NoError(t, c.Validate())
}

func TestLoadUploadLocation(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("UPLOAD_DIR", "/srv/ppwr/files")
	t.Setenv("UPLOAD_URL_PREFIX", "/files")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/ppwr/files", cfg.Storage.LocalDir)
	assert.Equal(t, "/files", cfg.Storage.URLPrefix)
}
