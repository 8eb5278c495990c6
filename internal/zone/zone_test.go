package zone

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/stretchr/testify/assert"
)

// fakeService returns canned answers.
type fakeService struct {
	regions []string
	err     error
	calls   int
}

func (f *fakeService) RegionsAt(core.BlockLocation) ([]string, error) {
	f.calls++
	return f.regions, f.err
}

var _ Service = (*fakeService)(nil)

type panickingService struct{}

func (panickingService) RegionsAt(core.BlockLocation) ([]string, error) {
	panic("region index corrupted")
}

var spawn = core.BlockLocation{World: "world", Pos: core.BlockPos{X: 10, Y: 64, Z: -3}}

func TestCanArm(t *testing.T) {
	tests := []struct {
		name    string
		service Service
		allowed []string
		want    bool
	}{
		{"no service", nil, []string{"arena"}, true},
		{"empty allowed list", &fakeService{regions: []string{"spawn"}}, nil, true},
		{"empty allowed list outside zones", &fakeService{}, []string{}, true},
		{"zone matches", &fakeService{regions: []string{"spawn", "arena"}}, []string{"arena"}, true},
		{"zones present none match", &fakeService{regions: []string{"spawn"}}, []string{"arena"}, false},
		{"no zones at location", &fakeService{}, []string{"arena"}, false},
		{"world without zone data", &fakeService{err: ErrNoRegionData}, []string{"arena"}, true},
		{"service failure", &fakeService{err: errors.New("connection refused")}, []string{"arena"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthorizer(tt.service, nil)
			assert.Equal(t, tt.want, a.CanArm(spawn, tt.allowed))
		})
	}
}

func TestCanArm_EmptyAllowedListSkipsService(t *testing.T) {
	svc := &fakeService{err: errors.New("should not be called")}
	a := NewAuthorizer(svc, nil)

	assert.True(t, a.CanArm(spawn, nil))
	assert.Zero(t, svc.calls)
}

func TestCanArm_ServiceFailureLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	a := NewAuthorizer(&fakeService{err: errors.New("timeout")}, logger)

	assert.True(t, a.CanArm(spawn, []string{"arena"}))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "timeout")
}

func TestCanArm_ServicePanicAllows(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	a := NewAuthorizer(panickingService{}, logger)

	assert.NotPanics(t, func() {
		assert.True(t, a.CanArm(spawn, []string{"arena"}))
	})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "region index corrupted")
	assert.Equal(t, "Error checking zones: zone service panicked: region index corrupted", a.Describe(spawn))
}

func TestAvailable(t *testing.T) {
	assert.False(t, NewAuthorizer(nil, nil).Available())
	assert.True(t, NewAuthorizer(&fakeService{}, nil).Available())

	a := NewAuthorizer(&fakeService{}, nil)
	a.SetService(nil)
	assert.False(t, a.Available())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		service Service
		want    string
	}{
		{"no service", nil, "Zone service not available"},
		{"no world data", &fakeService{err: ErrNoRegionData}, "No zones in this world"},
		{"failure", &fakeService{err: errors.New("boom")}, "Error checking zones: boom"},
		{"empty", &fakeService{}, "No zones at this location"},
		{"several", &fakeService{regions: []string{"spawn", "arena"}}, "spawn, arena"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewAuthorizer(tt.service, nil).Describe(spawn))
		})
	}
}
