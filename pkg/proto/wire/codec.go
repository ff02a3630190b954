package wire

import (
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/proto/version"
)

// Codec holds the field encodings that changed between protocol versions.
//
// Codecs form a chain: each one embeds its predecessor and overrides only
// the encodings that changed in its version. Implementations read nested
// values back through the Cursor so an override further down the chain
// applies everywhere.
type Codec interface {
	// Since is the first version the codec applies to.
	Since() *proto.Version
	ReadNBT(c *Cursor) (util.BinaryTag, error)
	WriteNBT(w io.Writer, bt util.BinaryTag) error
	ReadSlot(c *Cursor) (*Slot, error)
	WriteSlot(w io.Writer, s *Slot) error
}

// Codecs lists every codec from oldest to newest.
var Codecs = []Codec{
	legacyCodec{},
	networkNBTCodec{},
	componentCodec{},
}

// CodecFor returns the newest codec that applies to protocol.
// Protocols older than every codec get the oldest one.
func CodecFor(protocol proto.Protocol) Codec {
	for i := len(Codecs) - 1; i > 0; i-- {
		if protocol.GreaterEqual(Codecs[i].Since()) {
			return Codecs[i]
		}
	}
	return Codecs[0]
}

// legacyCodec sends NBT roots with a name and slot
// metadata as a single optional NBT compound.
type legacyCodec struct{}

func (legacyCodec) Since() *proto.Version { return version.Minecraft_1_16_2 }

func (legacyCodec) ReadNBT(c *Cursor) (util.BinaryTag, error) {
	return util.ReadBinaryTagFormat(c, false)
}

func (legacyCodec) WriteNBT(w io.Writer, bt util.BinaryTag) error {
	return util.WriteBinaryTagFormat(w, false, bt)
}

func (legacyCodec) ReadSlot(c *Cursor) (*Slot, error) {
	present, err := c.Bool()
	if err != nil || !present {
		return nil, err
	}
	s := new(Slot)
	if s.ItemID, err = c.VarInt(); err != nil {
		return nil, err
	}
	if s.Count, err = c.Byte(); err != nil {
		return nil, err
	}
	tag, err := c.NBT()
	if err != nil {
		return nil, err
	}
	if tag.Type != nbt.TagEnd {
		s.NBT = &tag
	}
	return s, nil
}

func (legacyCodec) WriteSlot(w io.Writer, s *Slot) error {
	if err := writeSlotHeader(w, s); err != nil || s == nil {
		return err
	}
	if s.NBT == nil {
		return util.WriteUint8(w, nbt.TagEnd)
	}
	return util.WriteBinaryTagFormat(w, false, *s.NBT)
}

// networkNBTCodec drops the root name from NBT (1.20.2).
type networkNBTCodec struct{ legacyCodec }

func (networkNBTCodec) Since() *proto.Version { return version.Minecraft_1_20_2 }

func (networkNBTCodec) ReadNBT(c *Cursor) (util.BinaryTag, error) {
	return util.ReadBinaryTagFormat(c, true)
}

func (networkNBTCodec) WriteNBT(w io.Writer, bt util.BinaryTag) error {
	return util.WriteBinaryTagFormat(w, true, bt)
}

func (networkNBTCodec) WriteSlot(w io.Writer, s *Slot) error {
	if err := writeSlotHeader(w, s); err != nil || s == nil {
		return err
	}
	if s.NBT == nil {
		return util.WriteUint8(w, nbt.TagEnd)
	}
	return util.WriteBinaryTagFormat(w, true, *s.NBT)
}

// componentCodec replaces slot NBT with a list of item components (1.20.5).
// Components are kept opaque.
type componentCodec struct{ networkNBTCodec }

func (componentCodec) Since() *proto.Version { return version.Minecraft_1_20_5 }

func (componentCodec) ReadSlot(c *Cursor) (*Slot, error) {
	present, err := c.Bool()
	if err != nil || !present {
		return nil, err
	}
	s := new(Slot)
	if s.ItemID, err = c.VarInt(); err != nil {
		return nil, err
	}
	if s.Count, err = c.Byte(); err != nil {
		return nil, err
	}
	n, err := c.VarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative component count %d", n)
	}
	s.Components = make([]util.BinaryTag, 0, min(n, c.Remaining()))
	for i := 0; i < n; i++ {
		tag, err := c.NBT()
		if err != nil {
			return nil, err
		}
		s.Components = append(s.Components, tag)
	}
	return s, nil
}

func (componentCodec) WriteSlot(w io.Writer, s *Slot) error {
	if err := writeSlotHeader(w, s); err != nil || s == nil {
		return err
	}
	if err := util.WriteVarInt(w, len(s.Components)); err != nil {
		return err
	}
	for _, tag := range s.Components {
		if err := util.WriteBinaryTagFormat(w, true, tag); err != nil {
			return err
		}
	}
	return nil
}

func writeSlotHeader(w io.Writer, s *Slot) error {
	if err := util.WriteBool(w, s != nil); err != nil || s == nil {
		return err
	}
	if err := util.WriteVarInt(w, s.ItemID); err != nil {
		return err
	}
	return util.WriteInt8(w, s.Count)
}
