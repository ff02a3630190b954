// Package telemetry bootstraps OpenTelemetry and records session metrics.
package telemetry

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/honeycombio/otel-config-go/otelconfig"
)

// ServiceName is the service name reported to OpenTelemetry.
const ServiceName = "worldtap"

// Init configures the global OpenTelemetry providers. Exporters and
// endpoints are taken from the standard OTEL_* environment variables.
// When disabled it installs nothing and returns a no-op cleanup.
func Init(ctx context.Context, enabled bool, serviceVersion string) (cleanup func(), err error) {
	if !enabled {
		return func() {}, nil // Return no-op cleanup if telemetry disabled
	}
	log := logr.FromContextOrDiscard(ctx)
	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(ServiceName),
		otelconfig.WithServiceVersion(serviceVersion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	log.Info("initialized OpenTelemetry", "service", ServiceName, "version", serviceVersion)
	return shutdown, nil
}
