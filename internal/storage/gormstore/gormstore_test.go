package gormstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cxd309/vehicle-engine/internal/storage"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "samples.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func sample(vehicle string, at float64) *storage.Sample {
	return &storage.Sample{
		SimulationID: "sim",
		VehicleID:    vehicle,
		Time:         at,
		Domain:       "land",
		Gear:         "1",
		Speed:        at * 2,
		Throttle:     1,
	}
}

func TestInitRequiresDB(t *testing.T) {
	b := New(nil, Config{}, nil)
	assert.Error(t, b.Init())
	assert.Equal(t, "gorm", b.Name())
}

func TestFlushWritesBatches(t *testing.T) {
	b := New(openDB(t), Config{BatchSize: 2}, nil)
	require.NoError(t, b.Init())
	assert.Equal(t, "sqlite", b.Name())

	for i := 0; i < 5; i++ {
		require.NoError(t, b.RecordSample(sample("car", float64(i))))
	}
	require.NoError(t, b.RecordSample(sample("bus", 0)))
	assert.Equal(t, 6, b.Pending())

	require.NoError(t, b.Flush())
	assert.Zero(t, b.Pending())

	n, err := b.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	got, err := b.Samples("sim", "car")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, 4.0, got[4].Time)
	assert.Equal(t, 8.0, got[4].Speed)
	assert.Equal(t, "land", got[0].Domain)

	require.NoError(t, b.Close())
}

func TestCloseFlushes(t *testing.T) {
	b := New(openDB(t), Config{FlushInterval: time.Hour}, nil)
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordSample(sample("car", 1)))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "second close is a no-op")

	n, err := b.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBackgroundWriter(t *testing.T) {
	b := New(openDB(t), Config{FlushInterval: 10 * time.Millisecond}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.RecordSample(sample("car", 1)))
	assert.Eventually(t, func() bool {
		n, err := b.Count()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecordNil(t *testing.T) {
	b := New(openDB(t), Config{}, nil)
	assert.Error(t, b.RecordSample(nil))
}

func TestFailedFlushKeepsQueueBounded(t *testing.T) {
	db := openDB(t)
	b := New(db, Config{MaxPending: 4}, nil)
	require.NoError(t, b.Init())
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	for i := 0; i < 6; i++ {
		require.NoError(t, b.RecordSample(sample("car", float64(i))))
	}
	assert.Equal(t, 4, b.Pending())
	assert.Equal(t, 2, b.Dropped())

	b.cfg.MaxPending = 3
	assert.Error(t, b.Flush())
	assert.Equal(t, 3, b.Pending())
	assert.Equal(t, 3, b.Dropped())
	assert.Equal(t, 3.0, b.pending[0].Time, "oldest samples go first")

	assert.Error(t, b.Flush())
	assert.Equal(t, 3, b.Pending(), "retries do not grow the queue")
}
