// Package zone decides whether a trap may be armed at a location.
//
// Zone data comes from an optional Service. Without one, or when the service
// misbehaves, placement is allowed everywhere.
package zone

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sanscraft/trappedtnt/pkg/core"
)

// ErrNoRegionData is returned by a Service that has no zones for the location's world.
var ErrNoRegionData = errors.New("no region data for world")

// Service lists the zones covering a block.
type Service interface {
	RegionsAt(loc core.BlockLocation) ([]string, error)
}

// Authorizer applies the allowed-zone policy on top of an optional Service.
type Authorizer struct {
	service Service
	logger  *slog.Logger
}

// NewAuthorizer creates an Authorizer. service may be nil.
func NewAuthorizer(service Service, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{service: service, logger: logger}
}

// SetService swaps the zone service, for example after a config reload.
func (a *Authorizer) SetService(service Service) {
	a.service = service
}

// Available reports whether a zone service is attached.
func (a *Authorizer) Available() bool {
	return a.service != nil
}

// CanArm reports whether a trap may be armed at loc.
// An empty allowed list permits every location.
func (a *Authorizer) CanArm(loc core.BlockLocation, allowed []string) bool {
	if !a.Available() || len(allowed) == 0 {
		return true
	}

	regions, err := a.regionsAt(loc)
	if errors.Is(err, ErrNoRegionData) {
		return true
	}
	if err != nil {
		a.logger.Warn("Error checking zones, allowing placement", "location", loc.String(), "error", err)
		return true
	}

	for _, r := range regions {
		if slices.Contains(allowed, r) {
			return true
		}
	}
	return false
}

// Describe returns a readable list of the zones at loc.
func (a *Authorizer) Describe(loc core.BlockLocation) string {
	if !a.Available() {
		return "Zone service not available"
	}

	regions, err := a.regionsAt(loc)
	switch {
	case errors.Is(err, ErrNoRegionData):
		return "No zones in this world"
	case err != nil:
		return "Error checking zones: " + err.Error()
	case len(regions) == 0:
		return "No zones at this location"
	}
	return strings.Join(regions, ", ")
}

// regionsAt queries the service, reporting a panic inside it as an error.
func (a *Authorizer) regionsAt(loc core.BlockLocation) (regions []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			regions, err = nil, fmt.Errorf("zone service panicked: %v", r)
		}
	}()
	return a.service.RegionsAt(loc)
}
