package wire

import (
	"bytes"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/proto/version"
)

// allTypes writes one value of every field type and returns them in order.
func allTypes(t *testing.T, protocol proto.Protocol) ([]byte, []Type) {
	t.Helper()
	w := new(bytes.Buffer)
	require.NoError(t, util.WriteBool(w, true))
	require.NoError(t, util.WriteInt8(w, -1))
	require.NoError(t, util.WriteUint8(w, 200))
	require.NoError(t, util.WriteInt16(w, -300))
	require.NoError(t, util.WriteUint16(w, 60000))
	require.NoError(t, util.WriteInt32(w, 123456))
	require.NoError(t, util.WriteInt64(w, -9876543210))
	require.NoError(t, util.WriteFloat32(w, 3.5))
	require.NoError(t, util.WriteFloat64(w, 2.25))
	require.NoError(t, util.WriteVarInt(w, 2097151))
	require.NoError(t, util.WriteVarLong(w, 1<<50))
	require.NoError(t, util.WriteString(w, faker.Sentence()))
	require.NoError(t, util.WriteUUID(w, uuid.New()))
	require.NoError(t, util.WriteBinaryTag(w, protocol, util.BinaryTag{
		Type: nbt.TagCompound,
		Data: []byte{nbt.TagInt, 0x00, 0x01, 'n', 0, 0, 0, 7, nbt.TagEnd},
	}))
	require.NoError(t, util.WriteInt64(w, Position{X: -30, Y: 64, Z: 1200}.pack()))
	require.NoError(t, util.WriteString(w, "minecraft:overworld"))
	codec := CodecFor(protocol)
	require.NoError(t, codec.WriteSlot(w, &Slot{ItemID: 812, Count: 64}))
	require.NoError(t, codec.WriteSlot(w, nil))
	return w.Bytes(), []Type{
		TypeBool, TypeByte, TypeUnsignedByte, TypeShort, TypeUnsignedShort,
		TypeInt, TypeLong, TypeFloat, TypeDouble, TypeVarInt, TypeVarLong,
		TypeString, TypeUUID, TypeNBT, TypePosition, TypeIdentifier, TypeSlot, TypeSlot,
	}
}

func TestBuilderCopyIsByteExact(t *testing.T) {
	for _, v := range []*proto.Version{
		version.Minecraft_1_16_2,
		version.Minecraft_1_20_2,
		version.Minecraft_1_21_4,
	} {
		t.Run(v.String(), func(t *testing.T) {
			src, types := allTypes(t, v.Protocol)

			// whole sequence at once
			b := NewBuilder(v.Protocol, 0x2A)
			c := NewCursor(src, v.Protocol)
			require.NoError(t, b.Copy(c, types...))
			assert.Zero(t, c.Remaining())
			assert.Equal(t, append([]byte{0x2A}, src...), b.Bytes())

			// field by field, the result is the same
			b = NewBuilder(v.Protocol, 0x2A)
			c = NewCursor(src, v.Protocol)
			for _, typ := range types {
				require.NoError(t, b.Copy(c, typ), typ)
			}
			assert.Equal(t, append([]byte{0x2A}, src...), b.Bytes())
		})
	}
}

func TestBuilderCopyPrefixThenRemainder(t *testing.T) {
	src, types := allTypes(t, version.Minecraft_1_21_4.Protocol)
	for i := range types {
		b := NewBuilder(version.Minecraft_1_21_4.Protocol, 0x00)
		c := NewCursor(src, version.Minecraft_1_21_4.Protocol)
		require.NoError(t, b.Copy(c, types[:i]...))
		b.CopyRemainder(c)
		assert.Zero(t, c.Remaining())
		assert.Equal(t, append([]byte{0x00}, src...), b.Bytes())
	}
}

func TestBuilderCopyUnderrun(t *testing.T) {
	b := NewBuilder(version.Minecraft_1_16_2.Protocol, 0x01)
	c := NewCursor([]byte{0x01, 0x02}, version.Minecraft_1_16_2.Protocol)
	err := b.Copy(c, TypeShort, TypeInt)
	require.ErrorIs(t, err, ErrDecode)
}

func TestBuilderRewriteField(t *testing.T) {
	src := new(bytes.Buffer)
	require.NoError(t, util.WriteInt32(src, 99))
	require.NoError(t, util.WriteVarInt(src, 8))
	src.Write([]byte{0xDE, 0xAD})

	c := NewCursor(src.Bytes(), version.Minecraft_1_20_5.Protocol)
	b := NewBuilder(c.Protocol(), 0x2B)
	require.NoError(t, b.Copy(c, TypeInt))
	_, err := c.VarInt()
	require.NoError(t, err)
	b.WriteVarInt(32)
	b.CopyRemainder(c)

	want := new(bytes.Buffer)
	want.WriteByte(0x2B)
	require.NoError(t, util.WriteInt32(want, 99))
	require.NoError(t, util.WriteVarInt(want, 32))
	want.Write([]byte{0xDE, 0xAD})
	assert.Equal(t, want.Bytes(), b.Bytes())
}

func TestBuilderSlotRoundTrip(t *testing.T) {
	tag := util.BinaryTag{Type: nbt.TagString, Data: []byte{0x00, 0x01, 'z'}}
	for _, v := range []*proto.Version{version.Minecraft_1_20_2, version.Minecraft_1_21_4} {
		b := NewBuilder(v.Protocol, 0x00)
		s := &Slot{ItemID: 1, Count: 2}
		if CodecFor(v.Protocol) == (componentCodec{}) {
			s.Components = []util.BinaryTag{tag}
		} else {
			s.NBT = &tag
		}
		b.WriteSlot(s)

		c := NewCursor(b.Bytes()[1:], v.Protocol)
		got, err := c.Slot()
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.Zero(t, c.Remaining())
	}
}
