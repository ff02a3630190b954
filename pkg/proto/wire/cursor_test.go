package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/proto/version"
)

func body(t *testing.T, fn func(w *bytes.Buffer)) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	fn(buf)
	return buf.Bytes()
}

func TestCursorPrimitives(t *testing.T) {
	name := faker.Word()
	b := body(t, func(w *bytes.Buffer) {
		require.NoError(t, util.WriteBool(w, true))
		require.NoError(t, util.WriteInt8(w, -3))
		require.NoError(t, util.WriteInt16(w, 513))
		require.NoError(t, util.WriteInt32(w, -70000))
		require.NoError(t, util.WriteInt64(w, 1<<40))
		require.NoError(t, util.WriteVarInt(w, 300))
		require.NoError(t, util.WriteString(w, name))
		require.NoError(t, util.WriteStrings(w, []string{"a", "bc"}))
	})
	c := NewCursor(b, version.Minecraft_1_20_5.Protocol)

	v, err := c.Bool()
	require.NoError(t, err)
	assert.True(t, v)
	i8, err := c.Byte()
	require.NoError(t, err)
	assert.Equal(t, int8(-3), i8)
	i16, err := c.Short()
	require.NoError(t, err)
	assert.Equal(t, int16(513), i16)
	i32, err := c.Int()
	require.NoError(t, err)
	assert.Equal(t, int32(-70000), i32)
	i64, err := c.Long()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), i64)
	vi, err := c.VarInt()
	require.NoError(t, err)
	assert.Equal(t, 300, vi)
	s, err := c.String()
	require.NoError(t, err)
	assert.Equal(t, name, s)
	ss, err := c.Strings(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "bc"}, ss)

	assert.Zero(t, c.Remaining())
	assert.Equal(t, len(b), c.Offset())
}

func TestCursorUnderrun(t *testing.T) {
	c := NewCursor([]byte{0x00, 0x01}, version.Minecraft_1_16_2.Protocol)
	_, err := c.Int()
	require.ErrorIs(t, err, ErrDecode)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Int", de.Type)
	assert.Equal(t, 0, de.Offset)
}

func TestCursorMalformedVarInt(t *testing.T) {
	c := NewCursor([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, version.Minecraft_1_16_2.Protocol)
	_, err := c.VarInt()
	require.ErrorIs(t, err, ErrDecode)
	require.ErrorIs(t, err, util.ErrVarIntTooBig)
}

func TestCursorSub(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02, 0x03, 0x04, 0x05}, version.Minecraft_1_21_4.Protocol)
	require.NoError(t, c.Skip(1))

	sub, err := c.Sub(3)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Remaining(), "parent advances past the sub-view")
	assert.Equal(t, c.Codec(), sub.Codec())
	assert.Equal(t, c.Protocol(), sub.Protocol())

	_, err = sub.Short()
	require.NoError(t, err)
	_, err = sub.Short()
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.Offset, "offset is relative to the outer body")

	_, err = c.Sub(2)
	require.ErrorIs(t, err, ErrDecode)
}

func TestCursorSince(t *testing.T) {
	c := NewCursor([]byte{0xAC, 0x02, 0x07}, version.Minecraft_1_16_2.Protocol)
	mark := c.Offset()
	_, err := c.VarInt()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAC, 0x02}, c.Since(mark))
	assert.Equal(t, []byte{0x07}, c.Rest())
	assert.Zero(t, c.Remaining())
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		version *proto.Version
		want    Codec
	}{
		{version.Minecraft_1_16_2, legacyCodec{}},
		{version.Minecraft_1_20, legacyCodec{}},
		{version.Minecraft_1_20_2, networkNBTCodec{}},
		{version.Minecraft_1_20_3, networkNBTCodec{}},
		{version.Minecraft_1_20_5, componentCodec{}},
		{version.Minecraft_1_21_4, componentCodec{}},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CodecFor(tt.version.Protocol))
		})
	}
}

func TestSlotEmpty(t *testing.T) {
	for _, v := range version.SupportedVersions {
		c := NewCursor([]byte{0x00, 0xAA}, v.Protocol)
		s, err := c.Slot()
		require.NoError(t, err, v)
		assert.Nil(t, s, v)
		assert.Equal(t, 1, c.Offset(), v)
	}
}

func TestSlotLegacy(t *testing.T) {
	b := []byte{
		0x01,       // present
		0x81, 0x01, // item 129
		0x05, // count
		nbt.TagEnd,
		0xAA, // next field
	}
	c := NewCursor(b, version.Minecraft_1_16_2.Protocol)
	s, err := c.Slot()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 129, s.ItemID)
	assert.Equal(t, int8(5), s.Count)
	assert.Nil(t, s.NBT)
	assert.Equal(t, 5, c.Offset())
}

func TestSlotLegacyWithNBT(t *testing.T) {
	b := []byte{
		0x01, 0x01, 0x40,
		nbt.TagCompound, 0x00, 0x00, // named root
		nbt.TagByte, 0x00, 0x01, 'x', 0x01,
		nbt.TagEnd,
	}
	c := NewCursor(b, version.Minecraft_1_19.Protocol)
	s, err := c.Slot()
	require.NoError(t, err)
	require.NotNil(t, s.NBT)
	assert.Equal(t, byte(nbt.TagCompound), s.NBT.Type)
	assert.Zero(t, c.Remaining())

	// network format drops the root name
	b = append(b[:3:3], append([]byte{nbt.TagCompound}, b[6:]...)...)
	c = NewCursor(b, version.Minecraft_1_20_2.Protocol)
	s, err = c.Slot()
	require.NoError(t, err)
	require.NotNil(t, s.NBT)
	assert.Zero(t, c.Remaining())
}

func TestSlotComponentsEmpty(t *testing.T) {
	b := []byte{
		0x01,       // present
		0xFF, 0x01, // item 255
		0x01, // count
		0x00, // no components
		0xAA, 0xBB,
	}
	c := NewCursor(b, version.Minecraft_1_21_4.Protocol)
	s, err := c.Slot()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 255, s.ItemID)
	assert.Empty(t, s.Components)
	assert.Equal(t, 1+2+1+1, c.Offset())
}

func TestSlotComponents(t *testing.T) {
	b := []byte{
		0x01, 0x02, 0x01,
		0x02,                    // two components
		nbt.TagInt, 0, 0, 0, 42, // first
		nbt.TagString, 0x00, 0x02, 'h', 'i', // second
	}
	c := NewCursor(b, version.Minecraft_1_21_2.Protocol)
	s, err := c.Slot()
	require.NoError(t, err)
	require.Len(t, s.Components, 2)
	assert.Equal(t, byte(nbt.TagInt), s.Components[0].Type)
	assert.Equal(t, []byte{0, 0, 0, 42}, s.Components[0].Data)
	assert.Zero(t, c.Remaining())
}

func TestSlotTruncated(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02}, version.Minecraft_1_21_4.Protocol)
	_, err := c.Slot()
	require.ErrorIs(t, err, ErrDecode)
}

func TestCursorPosition(t *testing.T) {
	for _, p := range []Position{
		{},
		{X: 1, Y: 2, Z: 3},
		{X: -30, Y: -64, Z: 1200},
		{X: 33554431, Y: 2047, Z: -33554432},
	} {
		b := NewBuilder(version.Minecraft_1_20_5.Protocol, 0)
		b.WritePosition(p)
		c := NewCursor(b.Bytes()[1:], version.Minecraft_1_20_5.Protocol)
		got, err := c.Position()
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.Zero(t, c.Remaining())
	}
}
