package telemetry

import (
	"context"

	"github.com/robinbraemer/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"go.minekube.com/worldtap/pkg/proxy"
	"go.minekube.com/worldtap/pkg/session"
)

// Options configure Instrument.
type Options struct {
	// MeterProvider defaults to the global provider.
	MeterProvider metric.MeterProvider
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Instrumentation records session metrics from proxy and session events.
type Instrumentation struct {
	tracer trace.Tracer

	activeSessions metric.Int64UpDownCounter
	sessions       metric.Int64Counter
	transitions    metric.Int64Counter
	snapshots      metric.Int64Counter

	unsubscribe []func()
}

// Instrument subscribes to the events fired on mgr.
func Instrument(mgr event.Manager, opts Options) (*Instrumentation, error) {
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	meter := opts.MeterProvider.Meter(ServiceName)
	i := &Instrumentation{tracer: opts.TracerProvider.Tracer(ServiceName)}

	var err error
	if i.activeSessions, err = meter.Int64UpDownCounter("sessions.active",
		metric.WithDescription("Number of sessions currently recording")); err != nil {
		return nil, err
	}
	if i.sessions, err = meter.Int64Counter("sessions.total",
		metric.WithDescription("Number of sessions opened")); err != nil {
		return nil, err
	}
	if i.transitions, err = meter.Int64Counter("sessions.state_changes",
		metric.WithDescription("Number of connection state changes")); err != nil {
		return nil, err
	}
	if i.snapshots, err = meter.Int64Counter("snapshots.total",
		metric.WithDescription("Number of closed sessions by whether they stored world data")); err != nil {
		return nil, err
	}

	i.unsubscribe = append(i.unsubscribe,
		event.Subscribe(mgr, 0, i.onSessionOpened),
		event.Subscribe(mgr, 0, i.onStateChanged),
		event.Subscribe(mgr, 0, i.onSessionClosed),
		event.Subscribe(mgr, 0, i.onSnapshot),
	)
	return i, nil
}

// Close unsubscribes from all events.
func (i *Instrumentation) Close() {
	for _, fn := range i.unsubscribe {
		fn()
	}
	i.unsubscribe = nil
}

func (i *Instrumentation) onSessionOpened(e *proxy.SessionOpenedEvent) {
	ctx := context.Background()
	protocol := attribute.Int("protocol", int(e.Handshake.ProtocolVersion))
	_, span := i.tracer.Start(ctx, "session.Open", trace.WithAttributes(
		attribute.String("session", e.Session.ID().String()),
		attribute.String("address", e.Handshake.ServerAddress),
		protocol,
	))
	defer span.End()
	i.sessions.Add(ctx, 1, metric.WithAttributes(protocol))
	i.activeSessions.Add(ctx, 1)
}

func (i *Instrumentation) onStateChanged(e *session.StateChangedEvent) {
	i.transitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("state", e.State.String()),
	))
}

func (i *Instrumentation) onSessionClosed(e *proxy.SessionClosedEvent) {
	i.activeSessions.Add(context.Background(), -1)
}

func (i *Instrumentation) onSnapshot(e *session.SnapshotEvent) {
	i.snapshots.Add(context.Background(), 1, metric.WithAttributes(attribute.Bool("written", e.Written)))
}
