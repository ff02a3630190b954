package wire

import "fmt"

// Type is a wire field type that a Cursor can skip and a Builder can copy.
type Type uint8

// Field types.
const (
	TypeBool Type = iota + 1
	TypeByte
	TypeUnsignedByte
	TypeShort
	TypeUnsignedShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeVarInt
	TypeVarLong
	TypeString
	TypeUUID
	TypeNBT
	TypeSlot
	TypePosition
	TypeIdentifier
)

var typeNames = [...]string{
	TypeBool:          "Bool",
	TypeByte:          "Byte",
	TypeUnsignedByte:  "UnsignedByte",
	TypeShort:         "Short",
	TypeUnsignedShort: "UnsignedShort",
	TypeInt:           "Int",
	TypeLong:          "Long",
	TypeFloat:         "Float",
	TypeDouble:        "Double",
	TypeVarInt:        "VarInt",
	TypeVarLong:       "VarLong",
	TypeString:        "String",
	TypeUUID:          "UUID",
	TypeNBT:           "NBT",
	TypeSlot:          "Slot",
	TypePosition:      "Position",
	TypeIdentifier:    "Identifier",
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// SkipType consumes one field of type t.
func (c *Cursor) SkipType(t Type) (err error) {
	switch t {
	case TypeBool, TypeByte, TypeUnsignedByte:
		_, err = c.Bytes(1)
	case TypeShort, TypeUnsignedShort:
		_, err = c.Bytes(2)
	case TypeInt, TypeFloat:
		_, err = c.Bytes(4)
	case TypeLong, TypeDouble, TypePosition:
		_, err = c.Bytes(8)
	case TypeUUID:
		_, err = c.Bytes(16)
	case TypeVarInt:
		_, err = c.VarInt()
	case TypeVarLong:
		_, err = c.VarLong()
	case TypeString, TypeIdentifier:
		_, err = c.String()
	case TypeNBT:
		_, err = c.NBT()
	case TypeSlot:
		_, err = c.Slot()
	default:
		err = c.fail(t.String(), c.off, fmt.Errorf("unknown field type"))
	}
	return err
}
