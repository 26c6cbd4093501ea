package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "SQLITE_PATH", "WORKER_COUNT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "tracker.db", cfg.SQLitePath)
	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level())
}

func TestLoadFile_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
port: "9000"
store_driver: postgres
database_url: postgres://tracker@db:5432/tracker
worker_count: 5
log_level: debug
`)
	t.Setenv("PORT", "9100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "env wins over the file")
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://tracker@db:5432/tracker", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.WorkerCount)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level())
}

func TestLoad_UsesConfigEnv(t *testing.T) {
	t.Setenv(FileEnv, writeFile(t, "sqlite_path: /tmp/tasks.db\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tasks.db", cfg.SQLitePath)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: "store_driver: mongo\n"},
		{name: "zero workers", body: "worker_count: 0\n"},
		{name: "bad log level", body: "log_level: chatty\n"},
		{name: "empty sqlite path", body: "sqlite_path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
