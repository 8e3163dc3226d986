// Package postgres records samples into PostgreSQL through the GORM
// backend.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cxd309/vehicle-engine/internal/storage"
	"github.com/cxd309/vehicle-engine/internal/storage/gormstore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string

	FlushInterval time.Duration
	BatchSize     int
}

// DSN returns the libpq connection string of c.
func (c Config) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

var errNotReady = errors.New("postgres backend not initialized")

// Backend implements storage.Backend against PostgreSQL.
type Backend struct {
	cfg   Config
	db    *gorm.DB
	log   *slog.Logger
	inner *gormstore.Backend
}

var (
	_ storage.Backend = (*Backend)(nil)
	_ storage.Flusher = (*Backend)(nil)
)

// New creates a backend. The connection is opened by Init.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, log: logger}
}

// NewWithDB creates a backend over an existing connection.
func NewWithDB(db *gorm.DB, cfg Config, logger *slog.Logger) *Backend {
	b := New(cfg, logger)
	b.db = db
	return b
}

func (b *Backend) Name() string { return "postgres" }

// Init connects unless a connection was injected, validates it, migrates
// the schema and starts the background writer.
func (b *Backend) Init() error {
	if b.db == nil {
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  b.cfg.DSN(),
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			SkipDefaultTransaction: true,
			CreateBatchSize:        10000,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.db = db
	}

	inner := gormstore.New(b.db, gormstore.Config{
		FlushInterval: b.cfg.FlushInterval,
		BatchSize:     b.cfg.BatchSize,
	}, b.log)
	if err := inner.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.inner = inner
	b.log.Info("postgres storage ready", "host", b.cfg.Host, "database", b.cfg.Database)
	return nil
}

func (b *Backend) RecordSample(s *storage.Sample) error {
	if b.inner == nil {
		return errNotReady
	}
	return b.inner.RecordSample(s)
}

func (b *Backend) Flush() error {
	if b.inner == nil {
		return errNotReady
	}
	return b.inner.Flush()
}

// Samples reads back the stored samples of one vehicle.
func (b *Backend) Samples(simulationID, vehicleID string) ([]storage.Sample, error) {
	if b.inner == nil {
		return nil, errNotReady
	}
	return b.inner.Samples(simulationID, vehicleID)
}

func (b *Backend) Close() error {
	if b.inner == nil {
		return nil
	}
	return b.inner.Close()
}
