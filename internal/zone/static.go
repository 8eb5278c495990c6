package zone

import (
	"fmt"
	"log/slog"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/pkg/core"
)

// area is a configured zone. The polygon lives in the X/Z plane.
type area struct {
	name    string
	polygon geom.Geometry
	minY    int
	maxY    int
}

func (a area) containsY(y int) bool {
	if a.minY == 0 && a.maxY == 0 {
		return true
	}
	return y >= a.minY && y <= a.maxY
}

// StaticService serves zones defined in the config file.
type StaticService struct {
	worlds map[string][]area
}

// NewStaticService builds a StaticService from config definitions.
// Invalid definitions are logged and skipped.
func NewStaticService(defs []config.ZoneDefinition, logger *slog.Logger) *StaticService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &StaticService{worlds: make(map[string][]area)}
	for _, def := range defs {
		a, err := parseDefinition(def)
		if err != nil {
			logger.Warn("Skipping zone definition", "zone", def.Name, "error", err)
			continue
		}
		s.worlds[def.World] = append(s.worlds[def.World], a)
	}
	return s
}

func parseDefinition(def config.ZoneDefinition) (area, error) {
	if def.Name == "" {
		return area{}, fmt.Errorf("zone has no name")
	}
	if def.World == "" {
		return area{}, fmt.Errorf("zone %q has no world", def.Name)
	}
	if def.MinY > def.MaxY {
		return area{}, fmt.Errorf("zone %q has minY %d above maxY %d", def.Name, def.MinY, def.MaxY)
	}

	g, err := geom.UnmarshalWKT(def.Polygon)
	if err != nil {
		return area{}, fmt.Errorf("parsing polygon of zone %q: %w", def.Name, err)
	}
	if !g.IsPolygon() && !g.IsMultiPolygon() {
		return area{}, fmt.Errorf("zone %q is a %s, want a polygon", def.Name, g.Type())
	}

	return area{name: def.Name, polygon: g, minY: def.MinY, maxY: def.MaxY}, nil
}

// Len returns the number of usable zones.
func (s *StaticService) Len() int {
	n := 0
	for _, areas := range s.worlds {
		n += len(areas)
	}
	return n
}

// RegionsAt returns the names of zones whose polygon covers the centre of the block.
func (s *StaticService) RegionsAt(loc core.BlockLocation) ([]string, error) {
	areas, ok := s.worlds[loc.World]
	if !ok {
		return nil, ErrNoRegionData
	}

	c := loc.Pos.Center()
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: c.X, Y: c.Z},
		Type: geom.DimXY,
	})
	if err != nil {
		return nil, fmt.Errorf("zone point at %s: %w", loc, err)
	}

	var names []string
	for _, a := range areas {
		if !a.containsY(loc.Pos.Y) {
			continue
		}
		if geom.Intersects(a.polygon, pt.AsGeometry()) {
			names = append(names, a.name)
		}
	}
	return names, nil
}
