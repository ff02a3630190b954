package wire

import (
	"bytes"

	"github.com/google/uuid"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/util"
)

// Builder accumulates one replacement packet: the packet id followed by its body.
//
// Writes to the in-memory buffer cannot fail, so writers do not return errors.
// Copy methods return the decode error of the source cursor.
type Builder struct {
	buf      bytes.Buffer
	protocol proto.Protocol
	codec    Codec
}

// NewBuilder starts a packet with the given id in the wire format of protocol.
func NewBuilder(protocol proto.Protocol, id proto.PacketID) *Builder {
	b := &Builder{protocol: protocol, codec: CodecFor(protocol)}
	b.WriteVarInt(int(id))
	return b
}

// Bytes returns the packet built so far.
func (b *Builder) Bytes() []byte { return b.buf.Bytes() }

// Len returns the number of bytes built so far.
func (b *Builder) Len() int { return b.buf.Len() }

// Protocol returns the protocol version the builder encodes.
func (b *Builder) Protocol() proto.Protocol { return b.protocol }

func (b *Builder) WriteBool(v bool)            { _ = util.WriteBool(&b.buf, v) }
func (b *Builder) WriteInt8(v int8)            { _ = util.WriteInt8(&b.buf, v) }
func (b *Builder) WriteUint8(v uint8)          { _ = b.buf.WriteByte(v) }
func (b *Builder) WriteShort(v int16)          { _ = util.WriteInt16(&b.buf, v) }
func (b *Builder) WriteUnsignedShort(v uint16) { _ = util.WriteUint16(&b.buf, v) }
func (b *Builder) WriteInt(v int32)            { _ = util.WriteInt32(&b.buf, v) }
func (b *Builder) WriteLong(v int64)           { _ = util.WriteInt64(&b.buf, v) }
func (b *Builder) WriteFloat(v float32)        { _ = util.WriteFloat32(&b.buf, v) }
func (b *Builder) WriteDouble(v float64)       { _ = util.WriteFloat64(&b.buf, v) }
func (b *Builder) WriteVarInt(v int)           { _ = util.WriteVarInt(&b.buf, v) }
func (b *Builder) WriteVarLong(v int64)        { _ = util.WriteVarLong(&b.buf, v) }
func (b *Builder) WriteString(v string)        { _ = util.WriteString(&b.buf, v) }
func (b *Builder) WriteUUID(v uuid.UUID)       { _ = util.WriteUUID(&b.buf, v) }

// WriteStrings writes each string without a count prefix, mirroring Cursor.Strings.
func (b *Builder) WriteStrings(a []string) { _ = util.WriteStrings(&b.buf, a) }

// WriteStringArray writes a VarInt count followed by the strings.
func (b *Builder) WriteStringArray(a []string) { _ = util.WriteStringArray(&b.buf, a) }

// WriteNBT writes a tag in the builder's version format.
func (b *Builder) WriteNBT(bt util.BinaryTag) { _ = b.codec.WriteNBT(&b.buf, bt) }

// WriteSlot writes a slot in the builder's version format. Nil is an empty slot.
func (b *Builder) WriteSlot(s *Slot) { _ = b.codec.WriteSlot(&b.buf, s) }

// WriteRaw appends p unchanged. Together with Cursor.Since it re-emits
// fields that were decoded for inspection.
func (b *Builder) WriteRaw(p []byte) { b.buf.Write(p) }

// Copy reads each field of types in order from c and
// appends exactly the bytes that encoded it.
func (b *Builder) Copy(c *Cursor, types ...Type) error {
	for _, t := range types {
		mark := c.Offset()
		if err := c.SkipType(t); err != nil {
			return err
		}
		b.buf.Write(c.Since(mark))
	}
	return nil
}

// CopyRemainder appends every unread byte of c and consumes them.
func (b *Builder) CopyRemainder(c *Cursor) {
	b.buf.Write(c.Rest())
}
