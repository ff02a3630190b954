package telemetry

import (
	"context"
	"testing"

	"github.com/robinbraemer/event"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"go.minekube.com/worldtap/pkg/handler"
	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/packetid"
	"go.minekube.com/worldtap/pkg/proto/version"
	"go.minekube.com/worldtap/pkg/proxy"
	"go.minekube.com/worldtap/pkg/session"
)

func TestInitDisabled(t *testing.T) {
	cleanup, err := Init(context.Background(), false, "test")
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	cleanup()
}

func sums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out
}

func TestInstrumentCountsSessions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mgr := event.New()
	i, err := Instrument(mgr, Options{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	})
	require.NoError(t, err)

	tables, err := handler.Default()
	require.NoError(t, err)
	names, err := packetid.Default()
	require.NoError(t, err)
	s, err := session.New(session.Options{
		Protocol: version.Minecraft_1_20_5.Protocol,
		State:    proto.LoginState,
		Tables:   tables,
		Names:    names,
		Event:    mgr,
	})
	require.NoError(t, err)

	mgr.Fire(&proxy.SessionOpenedEvent{
		Session:   s,
		Handshake: &proxy.Handshake{ProtocolVersion: s.Protocol(), ServerAddress: "localhost"},
	})
	s.SetState(proto.ConfigurationState)
	s.SetState(proto.PlayState)

	got := sums(t, reader)
	require.Equal(t, int64(1), got["sessions.total"])
	require.Equal(t, int64(1), got["sessions.active"])
	require.Equal(t, int64(2), got["sessions.state_changes"])

	mgr.Fire(&session.SnapshotEvent{Session: s, Written: true})
	mgr.Fire(&proxy.SessionClosedEvent{Session: s})
	got = sums(t, reader)
	require.Equal(t, int64(0), got["sessions.active"])
	require.Equal(t, int64(1), got["snapshots.total"])

	i.Close()
	mgr.Fire(&proxy.SessionClosedEvent{Session: s})
	require.Equal(t, int64(0), sums(t, reader)["sessions.active"], "unsubscribed")
}
