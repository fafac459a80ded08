package health

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	config "github.com/haxx668/backendmonitoring/src/production/MQT.Config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func openSQLite(t *testing.T) *DatabaseManager {
	t.Helper()
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite3", URL: filepath.Join(t.TempDir(), "h.db")}}
	db, err := ConnectDatabaseWithTimeout(cfg, 5*time.Second)
	require.NoError(t, err)
	dm := NewDatabaseManager(db, "sqlite3")
	t.Cleanup(func() { dm.Close() })
	return dm
}

func TestCreateTablesIsIdempotent(t *testing.T) {
	dm := openSQLite(t)
	require.NoError(t, dm.CreateTables(context.Background()))
	require.NoError(t, dm.CreateTables(context.Background()))

	for _, table := range []string{"userdata", "dataalat", "monitoring", "history"} {
		var name string
		err := dm.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestJenisKelaminCheckConstraint(t *testing.T) {
	dm := openSQLite(t)
	require.NoError(t, dm.CreateTables(context.Background()))

	_, err := dm.db.Exec(`INSERT INTO dataalat (idalat, username, nama_anak, usia, jeniskelamin) VALUES ('A1', 'u', 'n', 1, 'X')`)
	assert.Error(t, err)
}

func TestGetHealthStatus(t *testing.T) {
	dm := openSQLite(t)
	checker := NewHealthChecker(dm.db, "sqlite3")

	status, healthy := checker.GetHealthStatus(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "ok", status["status"])

	checker.Register("redis", pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	status, healthy = checker.GetHealthStatus(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, "degraded", status["status"])

	checks := status["checks"].(map[string]interface{})
	assert.Equal(t, "error", checks["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "ok", checks["sqlite3"].(map[string]interface{})["status"])
}

func TestConnectDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := ConnectDatabaseWithTimeout(&config.Config{Database: config.DatabaseConfig{Driver: "mysql", URL: "x"}}, time.Second)
	assert.Error(t, err)
}
