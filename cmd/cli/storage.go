package main

import (
	"fmt"
	"log/slog"

	"github.com/cxd309/vehicle-engine/internal/config"
	"github.com/cxd309/vehicle-engine/internal/storage"
	"github.com/cxd309/vehicle-engine/internal/storage/influx"
	"github.com/cxd309/vehicle-engine/internal/storage/memory"
	"github.com/cxd309/vehicle-engine/internal/storage/postgres"
	sqlitestorage "github.com/cxd309/vehicle-engine/internal/storage/sqlite"
)

// newBackend creates the storage backend selected by cfg. A nil backend
// with a nil error means recording is disabled.
func newBackend(cfg *config.Config, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Type {
	case config.StorageNone, "":
		return nil, nil
	case config.StorageMemory:
		return memory.New(cfg.Storage.Memory.Limit), nil
	case config.StorageSQLite:
		sc := cfg.Storage.SQLite
		b, err := sqlitestorage.New(sqlitestorage.Config{
			Path:          sc.Path,
			DumpPath:      sc.DumpPath,
			DumpInterval:  sc.DumpInterval,
			FlushInterval: sc.FlushInterval,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.StoragePostgres:
		db := cfg.DB
		return postgres.New(postgres.Config{
			Host:          db.Host,
			Port:          db.Port,
			Username:      db.Username,
			Password:      db.Password,
			Database:      db.Database,
			FlushInterval: db.FlushInterval,
		}, logger), nil
	case config.StorageInflux:
		ic := cfg.Influx
		return influx.New(influx.Config{
			URL:        ic.URL,
			Token:      ic.Token,
			Org:        ic.Org,
			Bucket:     ic.Bucket,
			BackupPath: ic.BackupPath,
		}, logger), nil
	}
	return nil, fmt.Errorf("%w: %q", storage.ErrUnknownType, cfg.Storage.Type)
}
