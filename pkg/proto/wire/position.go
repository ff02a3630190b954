package wire

import "fmt"

// Position is a block position packed into one Long as
// 26 bits x, 26 bits z and 12 bits y.
type Position struct {
	X, Y, Z int
}

func (p Position) String() string { return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z) }

func (p Position) pack() int64 {
	return (int64(p.X)&0x3FFFFFF)<<38 | (int64(p.Z)&0x3FFFFFF)<<12 | int64(p.Y)&0xFFF
}

func unpackPosition(v int64) Position {
	return Position{
		X: int(v >> 38),
		Y: int(v << 52 >> 52),
		Z: int(v << 26 >> 38),
	}
}

// Position reads a packed block position.
func (c *Cursor) Position() (Position, error) {
	at := c.off
	v, err := c.Long()
	if err != nil {
		return Position{}, c.fail("Position", at, err)
	}
	return unpackPosition(v), nil
}

// Identifier reads a namespaced resource location such as minecraft:overworld.
// It shares the wire format of String.
func (c *Cursor) Identifier() (string, error) {
	at := c.off
	s, err := c.String()
	if err != nil {
		return "", c.fail("Identifier", at, err)
	}
	return s, nil
}

// WritePosition writes a packed block position.
func (b *Builder) WritePosition(p Position) { b.WriteLong(p.pack()) }
