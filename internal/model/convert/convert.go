// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/sanscraft/trappedtnt/internal/model"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"gorm.io/datatypes"
)

// detailsToJSON converts event details to datatypes.JSON for DB storage.
func detailsToJSON(details map[string]any) datatypes.JSON {
	if len(details) == 0 {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(details)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToTrapEvent converts a core.TrapEvent to a GORM model.TrapEvent.
func CoreToTrapEvent(e core.TrapEvent) model.TrapEvent {
	return model.TrapEvent{
		ID:       e.ID,
		Time:     e.Time,
		Tick:     int64(e.Tick),
		Kind:     string(e.Kind),
		EntityID: uint64(e.Entity),
		PlacerID: string(e.Placer),
		PlayerID: string(e.Player),
		World:    e.World,
		PosX:     e.Position.X,
		PosY:     e.Position.Y,
		PosZ:     e.Position.Z,
		Amount:   e.Amount,
		Details:  detailsToJSON(e.Details),
	}
}

// TrapEventToCore converts a GORM model.TrapEvent back to a core.TrapEvent.
// Details that fail to decode are dropped.
func TrapEventToCore(m model.TrapEvent) core.TrapEvent {
	e := core.TrapEvent{
		ID:       m.ID,
		Kind:     core.TrapEventKind(m.Kind),
		Tick:     core.Tick(m.Tick),
		Time:     m.Time,
		Entity:   core.EntityID(m.EntityID),
		Placer:   core.PlayerID(m.PlacerID),
		Player:   core.PlayerID(m.PlayerID),
		World:    m.World,
		Position: core.Vec3{X: m.PosX, Y: m.PosY, Z: m.PosZ},
		Amount:   m.Amount,
	}
	if len(m.Details) > 0 {
		var details map[string]any
		if err := json.Unmarshal(m.Details, &details); err == nil && len(details) > 0 {
			e.Details = details
		}
	}
	return e
}
