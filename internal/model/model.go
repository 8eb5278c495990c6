package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&PluginInfo{},
	&TrapEvent{},
}

// PluginInfo is a single row describing the server that owns the journal.
type PluginInfo struct {
	gorm.Model
	ServerName    string `json:"serverName" gorm:"size:128"`
	PluginVersion string `json:"pluginVersion" gorm:"size:32"`
}

func (*PluginInfo) TableName() string {
	return "plugin_info"
}

// TrapEvent is one journaled trap lifecycle step.
type TrapEvent struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time      `json:"createdAt"`
	Time      time.Time      `json:"time" gorm:"index:idx_trap_event_time"`
	Tick      int64          `json:"tick" gorm:"index:idx_trap_event_tick"`
	Kind      string         `json:"kind" gorm:"size:32;index:idx_trap_event_kind"`
	EntityID  uint64         `json:"entityId" gorm:"index:idx_trap_event_entity"`
	PlacerID  string         `json:"placerId" gorm:"size:64"`
	PlayerID  string         `json:"playerId" gorm:"size:64"`
	World     string         `json:"world" gorm:"size:64"`
	PosX      float64        `json:"posX"`
	PosY      float64        `json:"posY"`
	PosZ      float64        `json:"posZ"`
	Amount    float64        `json:"amount"`
	Details   datatypes.JSON `json:"details"`
}

func (*TrapEvent) TableName() string {
	return "trap_events"
}
