package util

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
)

var (
	// ErrVarIntTooBig is returned when a VarInt continues past 5 bytes.
	ErrVarIntTooBig = errors.New("decode: VarInt is too big")
	// ErrVarLongTooBig is returned when a VarLong continues past 10 bytes.
	ErrVarLongTooBig = errors.New("decode: VarLong is too big")
)

func ReadString(rd io.Reader) (string, error) {
	return ReadStringMax(rd, bufio.MaxScanTokenSize)
}

func ReadStringMax(rd io.Reader, max int) (string, error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("decode: negative string length %d", length)
	}
	if length > max*4 { // *4 since UTF8 character has up to 4 bytes
		return "", fmt.Errorf("bad string length (got %d, max. %d)", length, max)
	}
	str := make([]byte, length)
	if _, err = io.ReadFull(rd, str); err != nil {
		return "", err
	}
	return string(str), nil
}

// ReadStrings reads exactly n strings. The count is not read from the wire.
func ReadStrings(rd io.Reader, n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("decode: negative string count %d", n)
	}
	a := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := ReadString(rd)
		if err != nil {
			return nil, err
		}
		a = append(a, s)
	}
	return a, nil
}

// ReadStringArray reads a VarInt count followed by that many strings.
func ReadStringArray(rd io.Reader) ([]string, error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return nil, err
	}
	return ReadStrings(rd, length)
}

func ReadBytesLen(rd io.Reader, maxLength int) (bytes []byte, err error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return
	}
	if length < 0 {
		err = fmt.Errorf("decode, bytes/string length is < 0: %d", length)
		return
	}
	if length > maxLength {
		err = fmt.Errorf("decode, bytes/string length %d is above given maximum: %d", length, maxLength)
		return
	}
	bytes = make([]byte, length)
	_, err = io.ReadFull(rd, bytes)
	return
}

func ReadVarInt(rd io.Reader) (int, error) {
	var n uint32
	for i := 0; ; i++ {
		b, err := ReadUint8(rd)
		if err != nil {
			return 0, err
		}
		n |= uint32(b&0x7F) << uint32(7*i)
		if b&0x80 == 0 {
			break
		}
		if i >= 4 {
			return 0, ErrVarIntTooBig
		}
	}
	return int(int32(n)), nil
}

func ReadVarLong(rd io.Reader) (int64, error) {
	var n uint64
	for i := 0; ; i++ {
		b, err := ReadUint8(rd)
		if err != nil {
			return 0, err
		}
		n |= uint64(b&0x7F) << uint64(7*i)
		if b&0x80 == 0 {
			break
		}
		if i >= 9 {
			return 0, ErrVarLongTooBig
		}
	}
	return int64(n), nil
}

func ReadBool(rd io.Reader) (bool, error) {
	v, err := ReadUint8(rd)
	return v != 0, err
}

func ReadInt8(rd io.Reader) (int8, error) {
	v, err := ReadUint8(rd)
	return int8(v), err
}

func ReadUint8(rd io.Reader) (uint8, error) {
	if br, ok := rd.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	if _, err := io.ReadFull(rd, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func ReadInt16(rd io.Reader) (int16, error) {
	v, err := ReadUint16(rd)
	return int16(v), err
}

func ReadUint16(rd io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(rd, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func ReadInt32(rd io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(rd, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func ReadInt64(rd io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(rd, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func ReadFloat32(rd io.Reader) (float32, error) {
	v, err := ReadInt32(rd)
	return math.Float32frombits(uint32(v)), err
}

func ReadFloat64(rd io.Reader) (float64, error) {
	v, err := ReadInt64(rd)
	return math.Float64frombits(uint64(v)), err
}

// ReadUUID reads a UUID encoded as two big endian 64-bit integers.
func ReadUUID(rd io.Reader) (id uuid.UUID, err error) {
	_, err = io.ReadFull(rd, id[:])
	return
}
