// Package backend selects and opens the configured storage backend.
package backend

import (
	"fmt"

	"jangbu/internal/config"
	"jangbu/internal/ledger"
	applog "jangbu/internal/log"
	"jangbu/internal/storage"
)

type Type string

const (
	TypeMemory Type = "memory"
	TypeSQLite Type = "sqlite"
)

func (t Type) IsValid() bool {
	return t == TypeMemory || t == TypeSQLite
}

// Open returns the store for the configured backend. The caller owns the
// store and must Close it on shutdown.
func Open(cfg *config.Config, logger *applog.Logger) (ledger.Store, error) {
	logger = logger.WithComponent(applog.ComponentBackend)

	switch Type(cfg.DataBackend) {
	case TypeSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		logger.Info("sqlite backend ready",
			applog.FieldBackend, cfg.DataBackend,
			"db_path", cfg.SQLiteDBPath)
		return repo, nil
	case TypeMemory:
		logger.Info("memory backend ready", applog.FieldBackend, cfg.DataBackend)
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.DataBackend)
	}
}
