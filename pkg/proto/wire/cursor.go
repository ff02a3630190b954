// Package wire decodes and re-encodes packet bodies field by field.
//
// A Cursor reads one fully buffered packet body front to back. A Builder
// assembles a replacement packet, either from new values or by copying
// fields verbatim from a Cursor. The encodings that changed between
// protocol versions live in a Codec selected once per Cursor.
package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/util"
)

// ErrDecode matches every *DecodeError with errors.Is.
var ErrDecode = errors.New("decode error")

// DecodeError reports a field that could not be decoded.
// A DecodeError means the stream is desynchronized and
// the owning session cannot continue.
type DecodeError struct {
	Type   string // Field type that failed, e.g. "VarInt".
	Offset int    // Byte offset of the field within the packet body.
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v", e.Type, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Cursor is a forward-only reader over one packet body.
// It is not safe for concurrent use.
type Cursor struct {
	buf      []byte
	off      int
	base     int // offset of buf[0] within the outermost body
	protocol proto.Protocol
	codec    Codec
}

var (
	_ io.Reader      = (*Cursor)(nil)
	_ io.ByteScanner = (*Cursor)(nil)
)

// NewCursor returns a Cursor over b decoding the wire format of protocol.
func NewCursor(b []byte, protocol proto.Protocol) *Cursor {
	return &Cursor{buf: b, protocol: protocol, codec: CodecFor(protocol)}
}

// Protocol returns the protocol version the cursor decodes.
func (c *Cursor) Protocol() proto.Protocol { return c.protocol }

// Codec returns the versioned codec the cursor decodes with.
func (c *Cursor) Codec() Codec { return c.codec }

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Len returns the length of the whole body.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Since returns the bytes consumed between offset mark and the current position.
// The returned slice aliases the body and must not be modified.
func (c *Cursor) Since(mark int) []byte {
	if mark < 0 || mark > c.off {
		return nil
	}
	return c.buf[mark:c.off]
}

// Rest consumes and returns all unread bytes.
// The returned slice aliases the body and must not be modified.
func (c *Cursor) Rest() []byte {
	b := c.buf[c.off:]
	c.off = len(c.buf)
	return b
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.off >= len(c.buf) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, c.buf[c.off:])
	c.off += n
	return n, nil
}

// ReadByte implements io.ByteReader.
func (c *Cursor) ReadByte() (byte, error) {
	if c.off >= len(c.buf) {
		return 0, io.EOF
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

// UnreadByte implements io.ByteScanner.
// Only the most recently read byte may be unread.
func (c *Cursor) UnreadByte() error {
	if c.off <= 0 {
		return errors.New("wire: UnreadByte at beginning of body")
	}
	c.off--
	return nil
}

func (c *Cursor) fail(typ string, at int, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Type: typ, Offset: c.base + at, Err: err}
}

func read[T any](c *Cursor, typ string, fn func(io.Reader) (T, error)) (T, error) {
	at := c.off
	v, err := fn(c)
	if err != nil {
		return v, c.fail(typ, at, err)
	}
	return v, nil
}

func (c *Cursor) Bool() (bool, error)            { return read(c, "Bool", util.ReadBool) }
func (c *Cursor) Byte() (int8, error)            { return read(c, "Byte", util.ReadInt8) }
func (c *Cursor) UnsignedByte() (uint8, error)   { return read(c, "UnsignedByte", util.ReadUint8) }
func (c *Cursor) Short() (int16, error)          { return read(c, "Short", util.ReadInt16) }
func (c *Cursor) UnsignedShort() (uint16, error) { return read(c, "UnsignedShort", util.ReadUint16) }
func (c *Cursor) Int() (int32, error)            { return read(c, "Int", util.ReadInt32) }
func (c *Cursor) Long() (int64, error)           { return read(c, "Long", util.ReadInt64) }
func (c *Cursor) Float() (float32, error)        { return read(c, "Float", util.ReadFloat32) }
func (c *Cursor) Double() (float64, error)       { return read(c, "Double", util.ReadFloat64) }
func (c *Cursor) VarInt() (int, error)           { return read(c, "VarInt", util.ReadVarInt) }
func (c *Cursor) VarLong() (int64, error)        { return read(c, "VarLong", util.ReadVarLong) }
func (c *Cursor) String() (string, error)        { return read(c, "String", util.ReadString) }
func (c *Cursor) UUID() (uuid.UUID, error)       { return read(c, "UUID", util.ReadUUID) }

// Strings reads exactly n length-prefixed strings.
func (c *Cursor) Strings(n int) ([]string, error) {
	return read(c, "Strings", func(rd io.Reader) ([]string, error) {
		return util.ReadStrings(rd, n)
	})
}

// StringArray reads a VarInt count followed by that many strings.
func (c *Cursor) StringArray() ([]string, error) {
	return read(c, "StringArray", util.ReadStringArray)
}

// Bytes consumes exactly n bytes.
// The returned slice aliases the body and must not be modified.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, c.fail("Bytes", c.off, fmt.Errorf("negative length %d", n))
	}
	if n > c.Remaining() {
		return nil, c.fail("Bytes", c.off, fmt.Errorf("need %d bytes, have %d: %w",
			n, c.Remaining(), io.ErrUnexpectedEOF))
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// Skip consumes n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	_, err := c.Bytes(n)
	return err
}

// Sub carves the next n bytes into an independent cursor of the same
// protocol version. The parent advances past them regardless of how much
// of the sub-view is later read.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	at := c.off
	b, err := c.Bytes(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		buf:      b,
		base:     c.base + at,
		protocol: c.protocol,
		codec:    c.codec,
	}, nil
}

// NBT reads a structured-data tag in the cursor's version format.
func (c *Cursor) NBT() (util.BinaryTag, error) {
	at := c.off
	bt, err := c.codec.ReadNBT(c)
	if err != nil {
		return bt, c.fail("NBT", at, err)
	}
	return bt, nil
}

// Slot reads an inventory slot in the cursor's version format.
// An empty slot yields nil.
func (c *Cursor) Slot() (*Slot, error) {
	at := c.off
	s, err := c.codec.ReadSlot(c)
	if err != nil {
		return nil, c.fail("Slot", at, err)
	}
	return s, nil
}

// Slots reads exactly n slots.
func (c *Cursor) Slots(n int) ([]*Slot, error) {
	if n < 0 {
		return nil, c.fail("Slots", c.off, fmt.Errorf("negative count %d", n))
	}
	slots := make([]*Slot, 0, min(n, c.Remaining()))
	for i := 0; i < n; i++ {
		s, err := c.Slot()
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}
