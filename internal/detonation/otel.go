package detonation

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/sanscraft/trappedtnt/internal/detonation"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
