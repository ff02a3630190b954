package util

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/google/uuid"
)

func WriteString(wr io.Writer, val string) error {
	return WriteBytes(wr, []byte(val))
}

func WriteVarInt(wr io.Writer, val int) (err error) {
	uval := uint32(val)
	for uval >= 0x80 {
		if err = WriteUint8(wr, byte(uval)|0x80); err != nil {
			return
		}
		uval >>= 7
	}
	return WriteUint8(wr, byte(uval))
}

func WriteVarLong(wr io.Writer, val int64) (err error) {
	uval := uint64(val)
	for uval >= 0x80 {
		if err = WriteUint8(wr, byte(uval)|0x80); err != nil {
			return
		}
		uval >>= 7
	}
	return WriteUint8(wr, byte(uval))
}

// VarIntSize returns the number of bytes val occupies as a VarInt.
func VarIntSize(val int) int {
	uval := uint32(val)
	n := 1
	for uval >= 0x80 {
		uval >>= 7
		n++
	}
	return n
}

func WriteBool(wr io.Writer, val bool) error {
	if val {
		return WriteUint8(wr, 1)
	}
	return WriteUint8(wr, 0)
}

func WriteInt8(wr io.Writer, val int8) error {
	return WriteUint8(wr, uint8(val))
}

func WriteUint8(wr io.Writer, val uint8) (err error) {
	if bw, ok := wr.(io.ByteWriter); ok {
		return bw.WriteByte(val)
	}
	_, err = wr.Write([]byte{val})
	return
}

func WriteInt16(wr io.Writer, val int16) error {
	return WriteUint16(wr, uint16(val))
}

func WriteUint16(wr io.Writer, val uint16) (err error) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], val)
	_, err = wr.Write(b[:])
	return
}

func WriteInt32(wr io.Writer, val int32) (err error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(val))
	_, err = wr.Write(b[:])
	return
}

func WriteInt64(wr io.Writer, val int64) (err error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(val))
	_, err = wr.Write(b[:])
	return
}

func WriteFloat32(wr io.Writer, val float32) error {
	return WriteInt32(wr, int32(math.Float32bits(val)))
}

func WriteFloat64(wr io.Writer, val float64) error {
	return WriteInt64(wr, int64(math.Float64bits(val)))
}

// WriteBytes writes b prefixed by its VarInt length.
func WriteBytes(wr io.Writer, b []byte) error {
	if err := WriteVarInt(wr, len(b)); err != nil {
		return err
	}
	_, err := wr.Write(b)
	return err
}

// WriteRawBytes writes b with no length prefix.
func WriteRawBytes(wr io.Writer, b []byte) error {
	_, err := wr.Write(b)
	return err
}

// WriteStrings writes each string of a without a count prefix,
// the counterpart of ReadStrings.
func WriteStrings(wr io.Writer, a []string) error {
	for _, s := range a {
		if err := WriteString(wr, s); err != nil {
			return err
		}
	}
	return nil
}

// WriteStringArray writes a VarInt count followed by the strings,
// the counterpart of ReadStringArray.
func WriteStringArray(wr io.Writer, a []string) error {
	if err := WriteVarInt(wr, len(a)); err != nil {
		return err
	}
	return WriteStrings(wr, a)
}

// WriteUUID writes id as an unsigned 128-bit integer
// (the most significant 64 bits and then the least significant 64 bits).
func WriteUUID(wr io.Writer, id uuid.UUID) error {
	_, err := wr.Write(id[:])
	return err
}
