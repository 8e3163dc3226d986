// Package sqlitestorage records samples into SQLite. An in-memory database
// is dumped to disk periodically with VACUUM INTO; a file database is
// written in place. Batching is delegated to the embedded GORM backend.
package sqlitestorage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cxd309/vehicle-engine/internal/storage"
	"github.com/cxd309/vehicle-engine/internal/storage/gormstore"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds configuration for the SQLite backend.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path          string
	DumpInterval  time.Duration
	DumpPath      string // target of VACUUM INTO dumps
	FlushInterval time.Duration
	BatchSize     int
}

var pragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
}

// Backend wraps the GORM backend with SQLite connection handling and
// periodic dumps.
type Backend struct {
	*gormstore.Backend
	db        *gorm.DB
	cfg       Config
	log       *slog.Logger
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ storage.Backend = (*Backend)(nil)

// Open connects to the database described by cfg and applies the pragmas.
func Open(cfg Config) (*gorm.DB, error) {
	dsn := cfg.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		// every connection to :memory: is a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// New opens the database and creates the backend.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	return &Backend{
		Backend: gormstore.New(db, gormstore.Config{
			FlushInterval: cfg.FlushInterval,
			BatchSize:     cfg.BatchSize,
		}, logger),
		db:       db,
		cfg:      cfg,
		log:      logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (b *Backend) Name() string { return "sqlite" }

// Init migrates the schema and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}
	return nil
}

// Close stops the dump goroutine, flushes the queue, writes a last dump
// when one is configured and closes the connection.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopChan)
		<-b.done
		err = b.Backend.Close()
		if b.cfg.DumpPath != "" {
			err = errors.Join(err, b.Dump())
		}
		if sqlDB, dbErr := b.db.DB(); dbErr == nil {
			err = errors.Join(err, sqlDB.Close())
		}
	})
	return err
}

// Dump flushes the queue and writes a point-in-time copy of the database
// to DumpPath, replacing any previous dump.
func (b *Backend) Dump() error {
	if b.cfg.DumpPath == "" {
		return errors.New("sqlite dump path not set")
	}
	if err := b.Flush(); err != nil {
		return err
	}
	if err := os.Remove(b.cfg.DumpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing existing dump: %w", err)
	}
	if err := b.db.Exec("VACUUM INTO 'file:" + b.cfg.DumpPath + "';").Error; err != nil {
		return fmt.Errorf("error dumping DB to disk: %w", err)
	}
	return nil
}

func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.Error("error dumping to disk", "error", err)
			} else {
				b.log.Debug("dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
			}
		}
	}
}
