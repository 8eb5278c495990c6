package storage

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/internal/database"
	gormstorage "github.com/sanscraft/trappedtnt/internal/storage/gorm"
	"github.com/sanscraft/trappedtnt/internal/storage/memory"
)

// ServerInfo identifies the server in a database journal.
type ServerInfo struct {
	Name    string
	Version string
}

// NewBackend creates a journal backend based on configuration
func NewBackend(cfg config.StorageConfig, info ServerInfo, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(), nil
	case "sqlite", "postgres":
		mgr := database.NewManager(log)
		if err := mgr.Connect(cfg); err != nil {
			return nil, fmt.Errorf("connecting journal database: %w", err)
		}
		if err := mgr.Setup(info.Name, info.Version); err != nil {
			mgr.Close()
			return nil, fmt.Errorf("setting up journal database: %w", err)
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:     mgr.DB,
			Logger: log,
			Closer: mgr,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
