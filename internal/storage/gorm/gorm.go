// Package gormstorage implements the storage.Backend interface on top of GORM,
// used for both the SQLite and the PostgreSQL journal.
package gormstorage

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/sanscraft/trappedtnt/internal/model"
	"github.com/sanscraft/trappedtnt/internal/model/convert"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
	// Closer, when set, releases the connection on Close.
	Closer io.Closer
}

// Backend implements storage.Backend with one row per trap event.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init makes sure the journal table exists.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend has no database")
	}
	if b.deps.DB.Migrator().HasTable(&model.TrapEvent{}) {
		return nil
	}
	if err := b.deps.DB.AutoMigrate(&model.TrapEvent{}); err != nil {
		return fmt.Errorf("failed to migrate trap_events: %w", err)
	}
	b.deps.Logger.Info().Msg("Created trap_events table")
	return nil
}

// Close releases the database connection if the backend owns it.
func (b *Backend) Close() error {
	if b.deps.Closer == nil {
		return nil
	}
	return b.deps.Closer.Close()
}

// Record inserts e and copies the generated row id back into it.
func (b *Backend) Record(e *core.TrapEvent) error {
	row := convert.CoreToTrapEvent(*e)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		b.deps.Logger.Error().Err(err).Str("kind", row.Kind).Msg("Failed to insert trap event")
		return fmt.Errorf("inserting trap event: %w", err)
	}
	e.ID = row.ID
	return nil
}

// Events loads the full journal ordered by id.
func (b *Backend) Events() ([]core.TrapEvent, error) {
	var rows []model.TrapEvent
	if err := b.deps.DB.Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading trap events: %w", err)
	}
	out := make([]core.TrapEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.TrapEventToCore(r))
	}
	return out, nil
}
