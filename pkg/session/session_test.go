package session

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/robinbraemer/event"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/worldtap/pkg/handler"
	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/packetid"
	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/proto/version"
	"go.minekube.com/worldtap/pkg/proto/wire"
	"go.minekube.com/worldtap/pkg/world/dimension"
)

func newSession(t *testing.T, v *proto.Version, opts Options) *Session {
	t.Helper()
	tables, err := handler.Default()
	require.NoError(t, err)
	names, err := packetid.Default()
	require.NoError(t, err)
	opts.Protocol = v.Protocol
	opts.Tables = tables
	opts.Names = names
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestNewRequiresTables(t *testing.T) {
	_, err := New(Options{Protocol: version.Minecraft_1_20_5.Protocol})
	require.Error(t, err)
}

func TestStateTransitionsFireEvents(t *testing.T) {
	mgr := event.New()
	var changes []*StateChangedEvent
	event.Subscribe(mgr, 0, func(e *StateChangedEvent) {
		changes = append(changes, e)
	})
	s := newSession(t, version.Minecraft_1_20_2, Options{State: proto.LoginState, Event: mgr})
	assert.Equal(t, proto.LoginState, s.State())

	ack := wire.NewBuilder(s.Protocol(), 0x03) // LoginAcknowledged
	out, err := s.Handle(context.Background(), proto.ServerBound, ack.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ack.Bytes(), out)
	assert.Equal(t, proto.ConfigurationState, s.State())

	s.SetState(proto.ConfigurationState) // no change, no event
	require.Len(t, changes, 1)
	assert.Equal(t, proto.LoginState, changes[0].Previous)
	assert.Equal(t, proto.ConfigurationState, changes[0].State)
	assert.Same(t, s, changes[0].Session)
}

func TestCompressionAndPassthroughRequests(t *testing.T) {
	s := newSession(t, version.Minecraft_1_16_2, Options{State: proto.LoginState})
	_, ok := s.TakeCompression()
	assert.False(t, ok)

	b := wire.NewBuilder(s.Protocol(), 0x03) // SetCompression
	b.WriteVarInt(256)
	_, err := s.Handle(context.Background(), proto.ClientBound, b.Bytes())
	require.NoError(t, err)

	threshold, ok := s.TakeCompression()
	require.True(t, ok)
	assert.Equal(t, 256, threshold)
	_, ok = s.TakeCompression()
	assert.False(t, ok)

	assert.False(t, s.PassthroughRequested())
	s.Passthrough()
	assert.True(t, s.PassthroughRequested())
}

func TestSettingsAreReadPerPacket(t *testing.T) {
	dist := 8
	s := newSession(t, version.Minecraft_1_20_5, Options{
		State:    proto.PlayState,
		Settings: func() handler.Settings { return handler.Settings{ExtendedViewDistance: dist} },
	})
	assert.Equal(t, 8, s.Settings().ExtendedViewDistance)
	dist = 24
	assert.Equal(t, 24, s.Settings().ExtendedViewDistance)
}

func TestHistoryIsBounded(t *testing.T) {
	s := newSession(t, version.Minecraft_1_20_5, Options{State: proto.PlayState, HistorySize: 3})
	for id := 0x70; id < 0x75; id++ {
		_, err := s.Handle(context.Background(), proto.ClientBound, wire.NewBuilder(s.Protocol(), proto.PacketID(id)).Bytes())
		require.NoError(t, err)
	}
	h := s.History()
	require.Len(t, h, 3)
	assert.Contains(t, h[0], "0x72")
	assert.Contains(t, h[2], "0x74")
}

func TestHandleDecodeError(t *testing.T) {
	s := newSession(t, version.Minecraft_1_20_5, Options{State: proto.PlayState})
	b := wire.NewBuilder(s.Protocol(), 0x2B) // Login
	b.WriteInt(1)
	_, err := s.Handle(context.Background(), proto.ClientBound, b.Bytes())
	require.ErrorIs(t, err, wire.ErrDecode)
}

func TestCloseWritesSnapshotOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := event.New()
	var snapshots []*SnapshotEvent
	event.Subscribe(mgr, 0, func(e *SnapshotEvent) {
		snapshots = append(snapshots, e)
	})
	s := newSession(t, version.Minecraft_1_21_4, Options{
		State:     proto.PlayState,
		Fs:        fs,
		OutputDir: "/downloads",
		Event:     mgr,
	})
	biome := biomeTag(t)
	s.World().Registry().LoadBiomes([]dimension.RegistryEntry{{Name: "minecraft:plains", Data: &biome}})

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Len(t, snapshots, 1)
	assert.True(t, snapshots[0].Written)
	assert.Equal(t, filepath.Join("/downloads", s.ID().String()), snapshots[0].Path)

	ok, err := afero.Exists(fs, filepath.Join(s.SnapshotDir(), dimension.DatapackDir, "minecraft", "worldgen", "biome", "plains.json"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func biomeTag(t *testing.T) util.BinaryTag {
	t.Helper()
	b, err := nbt.Marshal(map[string]any{"temperature": float32(0.8)})
	require.NoError(t, err)
	bt, err := util.ReadBinaryTagFormat(bytes.NewReader(b), false)
	require.NoError(t, err)
	return bt
}

func TestCloseWithoutRecordedData(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newSession(t, version.Minecraft_1_21_4, Options{State: proto.PlayState, Fs: fs, OutputDir: "/downloads"})
	// known pack entries carry no definition
	s.World().Registry().LoadBiomes([]dimension.RegistryEntry{{Name: "minecraft:plains"}})
	require.NoError(t, s.Close())
	ok, err := afero.DirExists(fs, s.SnapshotDir())
	require.NoError(t, err)
	assert.False(t, ok)
}
