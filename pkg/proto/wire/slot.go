package wire

import "go.minekube.com/worldtap/pkg/proto/util"

// Slot is a non-empty inventory slot.
type Slot struct {
	ItemID int
	Count  int8
	// NBT is the item's metadata before item components existed.
	// Nil if the item carried none.
	NBT *util.BinaryTag
	// Components are the item's components, each kept as an opaque tag.
	Components []util.BinaryTag
}
