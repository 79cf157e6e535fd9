package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanHill92/rootzone/internal/site"
)

var envKeys = []string{
	"ROOTZONE_ADDR", "ROOTZONE_STORE", "ROOTZONE_DB", "ROOTZONE_REFERENCE",
	"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_NAME",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, site.DefaultParams(), cfg.Model)
	assert.Empty(t, cfg.Reference.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigSaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "rootzone.yaml")

	cfg := DefaultConfig()
	cfg.Store.Driver = DriverSQLite
	cfg.Store.Path = "/var/lib/rootzone.db"
	cfg.Model.SoilPlasticity = "Medium"
	cfg.Model.FFL = 21.5
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rootzone.yaml")
	data := []byte("model:\n  ffl: 30\n  removal_policy: current\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Model.FFL)
	assert.Equal(t, site.RemovalCurrent, cfg.Model.RemovalPolicy)
	assert.Equal(t, 1.0, cfg.Model.MinDepth)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rootzone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("service keys", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOTZONE_ADDR", ":8080")
		t.Setenv("ROOTZONE_STORE", "sqlite")
		t.Setenv("ROOTZONE_DB", "/tmp/x.db")
		t.Setenv("ROOTZONE_REFERENCE", "/etc/rootzone/tables.yaml")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, DriverSQLite, cfg.Store.Driver)
		assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
		assert.Equal(t, "/etc/rootzone/tables.yaml", cfg.Reference.Path)
	})

	t.Run("mysql secrets", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_USER", "root")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_HOST", "db:3306")
		t.Setenv("DB_NAME", "rootzone")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "root:secret@tcp(db:3306)/rootzone?parseTime=true", cfg.Store.MySQL.DSN())
	})

	t.Run("empty values leave the file alone", func(t *testing.T) {
		clearEnv(t)
		cfg := DefaultConfig()
		cfg.Server.Addr = ":9000"
		cfg.applyEnvOverrides()
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no address", func(c *Config) { c.Server.Addr = "" }, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, true},
		{"sqlite without path", func(c *Config) { c.Store.Driver = DriverSQLite; c.Store.Path = "" }, true},
		{"mysql without secrets", func(c *Config) { c.Store.Driver = DriverMySQL }, true},
		{"mysql with secrets", func(c *Config) {
			c.Store.Driver = DriverMySQL
			c.Store.MySQL = MySQLConfig{User: "u", Password: "p", Host: "h"}
		}, false},
		{"bad model", func(c *Config) { c.Model.Resolution = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFillsRemovalPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.RemovalPolicy = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, site.RemovalMature, cfg.Model.RemovalPolicy)
}

func TestShutdownTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "10s", cfg.Server.ShutdownTimeout)
	cfg.Server.ShutdownTimeout = "3s"
	assert.Equal(t, 3.0, cfg.GetShutdownTimeout().Seconds())
	cfg.Server.ShutdownTimeout = "soon"
	assert.Equal(t, 10.0, cfg.GetShutdownTimeout().Seconds())
}
