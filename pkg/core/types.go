package core

import (
	"fmt"
	"math"
)

// Tick is a server tick number. The host advances it by one per game loop iteration.
type Tick int64

// EntityID is the host's handle for a live entity. It carries no ownership.
type EntityID uint64

// PlayerID is a player's stable unique id.
type PlayerID string

// Vec3 is a continuous world-space position or direction.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v*f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func (v Vec3) String() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f", v.X, v.Y, v.Z)
}

// BlockPos is a discrete block coordinate.
type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Corner returns the block's minimum corner as a continuous position.
func (b BlockPos) Corner() Vec3 {
	return Vec3{X: float64(b.X), Y: float64(b.Y), Z: float64(b.Z)}
}

// Center returns the centre of the block's footprint at floor height.
// This is where the host spawns entities that replace a block.
func (b BlockPos) Center() Vec3 {
	return b.Corner().Add(Vec3{X: 0.5, Z: 0.5})
}

func (b BlockPos) String() string {
	return fmt.Sprintf("%d,%d,%d", b.X, b.Y, b.Z)
}

// Location is a continuous position inside a named world.
type Location struct {
	World string `json:"world"`
	Pos   Vec3   `json:"pos"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s@%s", l.World, l.Pos)
}

// BlockLocation is a block coordinate inside a named world.
type BlockLocation struct {
	World string   `json:"world"`
	Pos   BlockPos `json:"pos"`
}

func (l BlockLocation) String() string {
	return fmt.Sprintf("%s@%s", l.World, l.Pos)
}
