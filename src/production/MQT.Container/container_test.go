package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/haxx668/backendmonitoring/src/production/MQT.Config"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
)

func newSQLiteContainer(t *testing.T) *Container {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite3",
		URL:    filepath.Join(t.TempDir(), "c.db"),
	}}
	return NewContainer(cfg, logger.Nop())
}

func TestContainerLifecycle(t *testing.T) {
	c := newSQLiteContainer(t)
	ctx := context.Background()

	require.NoError(t, c.InitializeDatabase(ctx))

	db1, err := c.GetDatabase()
	require.NoError(t, err)
	db2, err := c.GetDatabase()
	require.NoError(t, err)
	assert.Same(t, db1, db2)

	checker, err := c.GetHealthChecker()
	require.NoError(t, err)
	_, healthy := checker.GetHealthStatus(ctx)
	assert.True(t, healthy)

	require.NoError(t, c.Shutdown(ctx))
	assert.Error(t, db1.PingContext(ctx))
}

func TestOptionalCollaboratorsDisabled(t *testing.T) {
	c := newSQLiteContainer(t)

	cache, err := c.GetLatestReadingCache()
	require.NoError(t, err)
	assert.Nil(t, cache)

	archive, err := c.GetRawReadingArchive()
	require.NoError(t, err)
	assert.Nil(t, archive)
}
