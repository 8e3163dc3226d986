// Package gormstore records samples into any GORM database. Writes are
// buffered and inserted in batches by a background writer; the sqlite and
// postgres backends wrap it with their own connection handling.
package gormstore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cxd309/vehicle-engine/internal/storage"
	"gorm.io/gorm"
)

const (
	// DefaultBatchSize is the insert batch size when Config leaves it zero.
	DefaultBatchSize = 1000
	// DefaultMaxPending bounds the queue when Config leaves it zero.
	DefaultMaxPending = 100 * DefaultBatchSize
)

// SampleRecord is the table row of one sample.
type SampleRecord struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	SimulationID string  `gorm:"size:64;index:idx_samples_sim_vehicle,priority:1"`
	VehicleID    string  `gorm:"size:64;index:idx_samples_sim_vehicle,priority:2"`
	Time         float64 `gorm:"index"`
	Domain       string  `gorm:"size:16"`
	Variant      string  `gorm:"size:16"`
	Authority    string  `gorm:"size:8"`
	AIState      string  `gorm:"size:16"`
	Gear         string  `gorm:"size:8"`
	X            float64
	Y            float64
	Z            float64
	Heading      float64
	Speed        float64
	RPM          float64
	Throttle     float64
	Brake        float64
	Steer        float64
}

// TableName sets the table name.
func (SampleRecord) TableName() string { return "vehicle_samples" }

func toRecord(s *storage.Sample) SampleRecord {
	return SampleRecord{
		SimulationID: s.SimulationID,
		VehicleID:    s.VehicleID,
		Time:         s.Time,
		Domain:       s.Domain,
		Variant:      s.Variant,
		Authority:    s.Authority,
		AIState:      s.AIState,
		Gear:         s.Gear,
		X:            s.X,
		Y:            s.Y,
		Z:            s.Z,
		Heading:      s.Heading,
		Speed:        s.Speed,
		RPM:          s.RPM,
		Throttle:     s.Throttle,
		Brake:        s.Brake,
		Steer:        s.Steer,
	}
}

func (r SampleRecord) sample() storage.Sample {
	return storage.Sample{
		SimulationID: r.SimulationID,
		VehicleID:    r.VehicleID,
		Time:         r.Time,
		Domain:       r.Domain,
		Variant:      r.Variant,
		Authority:    r.Authority,
		AIState:      r.AIState,
		Gear:         r.Gear,
		X:            r.X,
		Y:            r.Y,
		Z:            r.Z,
		Heading:      r.Heading,
		Speed:        r.Speed,
		RPM:          r.RPM,
		Throttle:     r.Throttle,
		Brake:        r.Brake,
		Steer:        r.Steer,
	}
}

// Config controls batching.
type Config struct {
	// FlushInterval is the period of the background writer. Zero disables
	// it; samples are then written by Flush and Close only.
	FlushInterval time.Duration
	BatchSize     int
	// MaxPending caps the queue. Past it the oldest samples are dropped.
	MaxPending int
}

// Backend buffers samples and inserts them with GORM.
type Backend struct {
	db  *gorm.DB
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	pending []SampleRecord
	dropped int

	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ storage.Backend = (*Backend)(nil)
	_ storage.Flusher = (*Backend)(nil)
)

// New creates a backend over db.
func New(db *gorm.DB, cfg Config, logger *slog.Logger) *Backend {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{db: db, cfg: cfg, log: logger}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB { return b.db }

func (b *Backend) Name() string {
	if b.db == nil || b.db.Dialector == nil {
		return "gorm"
	}
	return b.db.Name()
}

// Init migrates the schema and starts the background writer.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend has no database")
	}
	if err := b.db.AutoMigrate(&SampleRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	if b.cfg.FlushInterval > 0 {
		go b.writeLoop()
	} else {
		close(b.done)
	}
	return nil
}

// RecordSample queues s for the next batch.
func (b *Backend) RecordSample(s *storage.Sample) error {
	if s == nil {
		return errors.New("nil sample")
	}
	b.mu.Lock()
	b.pending = append(b.pending, toRecord(s))
	b.trimLocked()
	b.mu.Unlock()
	return nil
}

// Pending returns the number of queued samples.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Dropped returns the number of samples discarded because the queue was
// full.
func (b *Backend) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// trimLocked drops the oldest queued samples beyond MaxPending. b.mu must
// be held.
func (b *Backend) trimLocked() {
	n := len(b.pending) - b.cfg.MaxPending
	if n <= 0 {
		return
	}
	b.pending = append(b.pending[:0:0], b.pending[n:]...)
	b.dropped += n
	b.log.Warn("sample queue full, dropped oldest samples",
		"backend", b.Name(), "dropped", n, "total_dropped", b.dropped)
}

// Flush inserts every queued sample. On failure the batch is put back at
// the head of the queue, which stays capped at MaxPending.
func (b *Backend) Flush() error {
	b.mu.Lock()
	rows := b.pending
	b.pending = nil
	b.mu.Unlock()
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	if err := b.db.CreateInBatches(rows, b.cfg.BatchSize).Error; err != nil {
		b.mu.Lock()
		b.pending = append(rows, b.pending...)
		b.trimLocked()
		b.mu.Unlock()
		return fmt.Errorf("inserting %d samples: %w", len(rows), err)
	}
	b.log.Debug("samples written", "backend", b.Name(), "count", len(rows), "duration", time.Since(start))
	return nil
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.log.Error("failed to write samples", "backend", b.Name(), "error", err)
			}
		}
	}
}

// Close stops the writer and flushes what is left.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
		if b.db != nil {
			err = b.Flush()
		}
	})
	return err
}

// Samples reads back the samples of one vehicle in time order.
func (b *Backend) Samples(simulationID, vehicleID string) ([]storage.Sample, error) {
	var rows []SampleRecord
	err := b.db.
		Where("simulation_id = ? AND vehicle_id = ?", simulationID, vehicleID).
		Order("time").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	out := make([]storage.Sample, len(rows))
	for i, r := range rows {
		out[i] = r.sample()
	}
	return out, nil
}

// Count returns the number of stored samples.
func (b *Backend) Count() (int64, error) {
	var n int64
	if err := b.db.Model(&SampleRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting samples: %w", err)
	}
	return n, nil
}
