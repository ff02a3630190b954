package util

import (
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/version"
)

// BinaryTag is an NBT tag kept in its encoded form.
// Data holds the payload without the type byte or root name.
type BinaryTag = nbt.RawMessage

// ErrNotByteScanner is returned when a binary tag is read from a reader
// that cannot unread bytes. The NBT decoder would otherwise buffer past
// the end of the tag.
var ErrNotByteScanner = errors.New("binary tag reader must implement io.ByteScanner")

type byteScanReader interface {
	io.Reader
	io.ByteScanner
}

// NetworkFormat reports whether protocol sends NBT roots without a name.
func NetworkFormat(protocol proto.Protocol) bool {
	return protocol.GreaterEqual(version.Minecraft_1_20_2)
}

// ReadBinaryTag reads a single NBT root tag in the format of protocol.
func ReadBinaryTag(rd io.Reader, protocol proto.Protocol) (BinaryTag, error) {
	return ReadBinaryTagFormat(rd, NetworkFormat(protocol))
}

// ReadBinaryTagFormat reads a single NBT root tag. A root of type TAG_End
// is a lone zero byte and yields an empty tag of that type.
func ReadBinaryTagFormat(rd io.Reader, network bool) (bt BinaryTag, err error) {
	br, ok := rd.(byteScanReader)
	if !ok {
		return bt, ErrNotByteScanner
	}
	typ, err := br.ReadByte()
	if err != nil {
		return bt, err
	}
	if typ == nbt.TagEnd {
		return BinaryTag{Type: nbt.TagEnd}, nil
	}
	if err = br.UnreadByte(); err != nil {
		return bt, err
	}
	dec := nbt.NewDecoder(br)
	dec.NetworkFormat(network)
	if _, err = dec.Decode(&bt); err != nil {
		return bt, fmt.Errorf("error decoding binary tag: %w", err)
	}
	return bt, nil
}

// WriteBinaryTag writes bt in the format of protocol.
func WriteBinaryTag(wr io.Writer, protocol proto.Protocol, bt BinaryTag) error {
	return WriteBinaryTagFormat(wr, NetworkFormat(protocol), bt)
}

// WriteBinaryTagFormat writes bt, giving it an empty root name
// unless network is set.
func WriteBinaryTagFormat(wr io.Writer, network bool, bt BinaryTag) error {
	if err := WriteUint8(wr, bt.Type); err != nil {
		return err
	}
	if bt.Type == nbt.TagEnd {
		return nil
	}
	if !network {
		if err := WriteUint16(wr, 0); err != nil {
			return err
		}
	}
	return WriteRawBytes(wr, bt.Data)
}
