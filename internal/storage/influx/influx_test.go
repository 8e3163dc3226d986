package influx

import (
	"bufio"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cxd309/vehicle-engine/internal/storage"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSample() *storage.Sample {
	return &storage.Sample{
		SimulationID: "sim",
		VehicleID:    "car",
		Time:         1.5,
		Domain:       "land",
		Variant:      "standard",
		Gear:         "2",
		Speed:        12.5,
	}
}

func TestPoint(t *testing.T) {
	start := time.Unix(1000, 0)
	p := Point(testSample(), start)
	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, start.Add(1500*time.Millisecond), p.Time())

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, "vehicle_state,domain=land,simulation=sim,variant=standard,vehicle=car ")
	assert.Contains(t, line, "speed=12.5")
	assert.Contains(t, line, `gear="2"`)
}

func TestBackupWhenUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.lp.gz")
	b := New(Config{URL: "http://127.0.0.1:1", Org: "o", Bucket: "b", BackupPath: path}, nil)
	require.NoError(t, b.Init())
	assert.False(t, b.Valid())

	require.NoError(t, b.RecordSample(testSample()))
	require.NoError(t, b.Flush())
	require.NoError(t, b.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	sc := bufio.NewScanner(zr)
	require.True(t, sc.Scan())
	assert.Contains(t, sc.Text(), "vehicle_state,")
	assert.False(t, sc.Scan())
}

func TestUnreachableWithoutBackup(t *testing.T) {
	b := New(Config{URL: "http://127.0.0.1:1"}, nil)
	assert.Error(t, b.Init())
	assert.Error(t, b.RecordSample(testSample()))
	assert.NoError(t, b.Close())
}
