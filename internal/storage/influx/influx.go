// Package influx records samples as InfluxDB points. When the server cannot
// be reached at Init the points are written as gzipped line protocol to a
// backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cxd309/vehicle-engine/internal/storage"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// Measurement is the measurement name of every sample point.
const Measurement = "vehicle_state"

const retentionSeconds = 60 * 60 * 24 * 90

// Config holds the connection settings.
type Config struct {
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
	// BatchSize and FlushInterval (ms) tune the client write buffer.
	BatchSize     uint
	FlushInterval uint
	// Start is the wall-clock time of simulation time zero.
	Start time.Time
}

// Backend writes samples to InfluxDB or its backup file.
type Backend struct {
	cfg Config
	log *slog.Logger

	client influxdb2.Client
	writer influxdb2_api.WriteAPI
	valid  bool

	mu         sync.Mutex
	backupFile *os.File
	backup     *gzip.Writer
}

var (
	_ storage.Backend = (*Backend)(nil)
	_ storage.Flusher = (*Backend)(nil)
)

// New creates a backend. The connection is opened by Init.
func New(cfg Config, logger *slog.Logger) *Backend {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2500
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 1000
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, log: logger}
}

func (b *Backend) Name() string { return "influx" }

// Valid reports whether points go to the server rather than the backup.
func (b *Backend) Valid() bool { return b.valid }

// Init connects, ensures the organization and bucket exist and creates the
// writer. An unreachable server switches to the backup file.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(b.cfg.URL, b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(b.cfg.BatchSize).
			SetFlushInterval(b.cfg.FlushInterval),
	)

	ctx := context.Background()
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		if b.cfg.BackupPath == "" {
			return fmt.Errorf("influxdb unreachable and no backup path set: %w", err)
		}
		file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("error creating backup file: %w", err)
		}
		b.backupFile = file
		b.backup = gzip.NewWriter(file)
		b.log.Warn("influxdb unreachable, writing to backup file", "url", b.cfg.URL, "backup", b.cfg.BackupPath)
		return nil
	}

	if err := b.setupBucket(ctx); err != nil {
		return err
	}
	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.log.Error("error sending data to influxdb", "bucket", b.cfg.Bucket, "error", writeErr)
		}
	}(b.writer.Errors())
	b.valid = true
	b.log.Info("influxdb client initialized", "url", b.cfg.URL, "bucket", b.cfg.Bucket)
	return nil
}

func (b *Backend) setupBucket(ctx context.Context) error {
	orgs := b.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.log.Info("organization not found, creating", "org", b.cfg.Org)
		if org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org); err != nil {
			return fmt.Errorf("creating organization %s: %w", b.cfg.Org, err)
		}
	}

	buckets := b.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.log.Info("bucket not found, creating", "bucket", b.cfg.Bucket)
		rule := domain.RetentionRuleTypeExpire
		_, err = buckets.CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

// Point converts s to a point timestamped start plus the simulation time.
func Point(s *storage.Sample, start time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(Measurement,
		map[string]string{
			"simulation": s.SimulationID,
			"vehicle":    s.VehicleID,
			"domain":     s.Domain,
			"variant":    s.Variant,
		},
		map[string]interface{}{
			"authority": s.Authority,
			"ai_state":  s.AIState,
			"gear":      s.Gear,
			"x":         s.X,
			"y":         s.Y,
			"z":         s.Z,
			"heading":   s.Heading,
			"speed":     s.Speed,
			"rpm":       s.RPM,
			"throttle":  s.Throttle,
			"brake":     s.Brake,
			"steer":     s.Steer,
		},
		start.Add(time.Duration(s.Time*float64(time.Second))),
	)
}

func (b *Backend) RecordSample(s *storage.Sample) error {
	if s == nil {
		return errors.New("nil sample")
	}
	point := Point(s, b.cfg.Start)
	if b.valid {
		b.writer.WritePoint(point)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return errors.New("influxdb client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := b.backup.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to influxdb backup file: %w", err)
	}
	return nil
}

// Flush pushes buffered points to the server or the backup file.
func (b *Backend) Flush() error {
	if b.valid {
		b.writer.Flush()
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return nil
	}
	return b.backup.Flush()
}

func (b *Backend) Close() error {
	var err error
	if b.valid {
		b.writer.Flush()
	}
	b.mu.Lock()
	if b.backup != nil {
		err = errors.Join(b.backup.Close(), b.backupFile.Close())
		b.backup, b.backupFile = nil, nil
	}
	b.mu.Unlock()
	if b.client != nil {
		b.client.Close()
	}
	b.valid = false
	return err
}
