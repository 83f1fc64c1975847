package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 3, cfg.Plans.Free.MaxClients)
	assert.Equal(t, 5, cfg.Plans.Free.MaxRoutines)
	assert.Equal(t, 20, cfg.Plans.Free.MaxExercises)
	assert.Equal(t, 100, cfg.Plans.Premium.MaxClients)
	assert.Equal(t, 5, cfg.Invitations.LookupAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Invitations.LookupInterval)
	assert.Equal(t, 5*time.Minute, cfg.LimitsCache.TTL)
	assert.Empty(t, cfg.AMQP.URL)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  address: ":9090"
database:
  driver: memory
jwt:
  secret: s3cret
  expiration: 30m
plans:
  free:
    max_clients: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 1, cfg.Plans.Free.MaxClients)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Plans.Free.MaxRoutines)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{
		Database:    DatabaseConfig{Driver: "postgres"},
		Invitations: InvitationsConfig{LookupAttempts: 1},
	}
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "memory"
	assert.NoError(t, cfg.Validate())

	cfg.Invitations.LookupAttempts = 0
	assert.Error(t, cfg.Validate())
}
