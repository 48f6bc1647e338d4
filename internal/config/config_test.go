package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(envMap(nil))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "./data/splitpro.db", cfg.SQLiteDBPath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	cfg := Load(envMap(map[string]string{
		"PORT":           "9090",
		"STORAGE_DRIVER": "postgres",
		"DB_HOST":        "db.internal",
		"DB_NAME":        "splitpro_prod",
		"DB_SSLMODE":     "require",
	}))

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Contains(t, cfg.PostgresDSN(), "host=db.internal")
	assert.Contains(t, cfg.PostgresDSN(), "dbname=splitpro_prod")
	assert.Contains(t, cfg.PostgresDSN(), "sslmode=require")
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"bad port", map[string]string{"PORT": "nope"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongodb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load(envMap(tt.vars))
			assert.Error(t, cfg.Validate())
		})
	}
}
