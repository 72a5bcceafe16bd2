package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, "vet_clinic", cfg.MongoDatabase)
	assert.True(t, cfg.MongoTransactions)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.IsDev())
}

func TestLoad_EnvFileDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("PORT=9000\nSTORAGE_DRIVER=postgres\nDATABASE_URL=postgres://x\n"), 0o600))

	t.Setenv("PORT", "7000")
	t.Setenv("STORAGE_DRIVER", "")
	os.Unsetenv("STORAGE_DRIVER")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Port: "8080", StorageDriver: DriverMemory}, false},
		{"postgres sin url", Config{Port: "8080", StorageDriver: DriverPostgres}, true},
		{"postgres", Config{Port: "8080", StorageDriver: DriverPostgres, DatabaseURL: "postgres://x"}, false},
		{"mongo sin uri", Config{Port: "8080", StorageDriver: DriverMongo}, true},
		{"desconocido", Config{Port: "8080", StorageDriver: "sqlite"}, true},
		{"sin puerto", Config{StorageDriver: DriverMemory}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
