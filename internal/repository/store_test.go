package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac-platform/internal/config"
	"almanac-platform/pkg/database"
	"almanac-platform/pkg/metrics"
)

func TestOpenStore_File(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Storage.DataPath = filepath.Join(t.TempDir(), "almanac.json")
	collector := metrics.NewCollectorWith("store_test", prometheus.NewRegistry())

	// a missing artifact opens empty
	store, err := OpenStore(ctx, cfg, false, testLogger(), collector)
	require.NoError(t, err)
	require.NotNil(t, store.File)
	assert.Nil(t, store.DB)
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	require.NoError(t, store.Close())

	require.NoError(t, WriteArtifact(cfg.Storage.DataPath, sampleDays()))
	store, err = OpenStore(ctx, cfg, false, testLogger(), collector)
	require.NoError(t, err)
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sampleDays()), count)

	require.NoError(t, os.WriteFile(cfg.Storage.DataPath, []byte("{not json"), 0o644))
	_, err = OpenStore(ctx, cfg, false, testLogger(), collector)
	assert.Error(t, err)
}

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendSQL
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "almanac.db")
	collector := metrics.NewCollectorWith("store_test", prometheus.NewRegistry())

	store, err := OpenStore(ctx, cfg, true, testLogger(), collector)
	require.NoError(t, err)
	defer store.Close()
	require.NotNil(t, store.DB)
	assert.Nil(t, store.File)

	require.NoError(t, store.Repo.SaveDays(ctx, sampleDays()))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sampleDays()), count)
	assert.NoError(t, store.Repo.HealthCheck(ctx))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "s3"
	_, err := OpenStore(context.Background(), cfg, false, testLogger(), metrics.NewCollectorWith("store_test", prometheus.NewRegistry()))
	assert.Error(t, err)
}
