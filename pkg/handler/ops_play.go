package handler

import (
	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/proto/wire"
	"go.minekube.com/worldtap/pkg/world/dimension"
)

// dimensionRef is the dimension a Login or Respawn moves the player to.
// Exactly one of props, typeName and typeID identifies its type,
// depending on the protocol version.
type dimensionRef struct {
	name string
	seed int64

	props     *util.BinaryTag
	typeName  string
	typeID    int
	hasTypeID bool
}

// typeReader reads the dimension type reference of a dimensionRef.
type typeReader func(c *wire.Cursor, ref *dimensionRef) error

// typeByProperties reads a dimension type given as its full definition.
func typeByProperties(c *wire.Cursor, ref *dimensionRef) error {
	props, err := c.NBT()
	if err != nil {
		return err
	}
	ref.props = &props
	return nil
}

// typeByName reads a dimension type given by name.
func typeByName(c *wire.Cursor, ref *dimensionRef) (err error) {
	ref.typeName, err = c.Identifier()
	return err
}

// typeByID reads a dimension type given by registry index.
func typeByID(c *wire.Cursor, ref *dimensionRef) (err error) {
	ref.typeID, err = c.VarInt()
	ref.hasTypeID = err == nil
	return err
}

func readDimension(c *wire.Cursor, readType typeReader) (ref dimensionRef, err error) {
	if err = readType(c, &ref); err != nil {
		return ref, err
	}
	if ref.name, err = c.Identifier(); err != nil {
		return ref, err
	}
	ref.seed, err = c.Long()
	return ref, err
}

// enterDimension records the player moving to ref.
// A dimension type that is not known leaves the dimension untyped.
func enterDimension(c *Context, ref dimensionRef) error {
	w := c.World()
	reg := w.Registry()
	d := reg.DimensionForSeed(ref.name, &ref.seed)

	var (
		t  *dimension.DimensionType
		ok bool
	)
	switch {
	case ref.props != nil:
		var err error
		if t, ok, err = reg.DimensionTypeByProperties(*ref.props); err != nil {
			return err
		}
	case ref.typeName != "":
		t, ok = reg.DimensionTypeByName(ref.typeName)
	case ref.hasTypeID:
		t, ok = reg.DimensionType(ref.typeID)
	}
	if ok {
		d.SetType(t.Identifier.String())
	} else {
		t = nil
		c.Log.V(1).Info("dimension type unknown", "dimension", d.Identifier,
			"type", ref.typeName, "typeId", ref.typeID)
	}
	w.SetDimension(d, t)
	return nil
}

// loginLayout locates the fields of a Login packet that are read or rewritten.
type loginLayout struct {
	head  []wire.Type // fields before the level names
	codec bool        // the registry codec follows the level names
	// dimensionFirst places the dimension before the player limits.
	// Otherwise afterView separates the view distance from the dimension.
	dimensionFirst bool
	afterView      []wire.Type
	readType       typeReader
}

var (
	loginLayout_1_16_2 = loginLayout{
		head:           []wire.Type{wire.TypeInt, wire.TypeBool, wire.TypeUnsignedByte, wire.TypeByte},
		codec:          true,
		dimensionFirst: true,
		readType:       typeByProperties,
	}
	loginLayout_1_19 = loginLayout{
		head:           []wire.Type{wire.TypeInt, wire.TypeBool, wire.TypeUnsignedByte, wire.TypeByte},
		codec:          true,
		dimensionFirst: true,
		readType:       typeByName,
	}
	loginLayout_1_20_2 = loginLayout{
		head:      []wire.Type{wire.TypeInt, wire.TypeBool},
		afterView: []wire.Type{wire.TypeVarInt, wire.TypeBool, wire.TypeBool, wire.TypeBool},
		readType:  typeByName,
	}
	loginLayout_1_20_5 = loginLayout{
		head:      loginLayout_1_20_2.head,
		afterView: loginLayout_1_20_2.afterView,
		readType:  typeByID,
	}
)

// login records the level names, the registry codec where the version
// sends one, and the dimension the player spawns in. It raises the view
// distance advertised to the client to the extended view distance.
func (l loginLayout) login(c *Context) (Result, error) {
	cur, b := c.Cursor, c.NewFrame()
	if err := b.Copy(cur, l.head...); err != nil {
		return Result{}, err
	}

	mark := cur.Offset()
	levels, err := cur.StringArray()
	if err != nil {
		return Result{}, err
	}
	var codec util.BinaryTag
	if l.codec {
		if codec, err = cur.NBT(); err != nil {
			return Result{}, err
		}
	}
	b.WriteRaw(cur.Since(mark))

	reg := c.World().Registry()
	if l.codec {
		if err = reg.ReadCodec(codec); err != nil {
			return Result{}, err
		}
	}
	reg.SetDimensionNames(levels)

	var ref dimensionRef
	readDim := func() error {
		mark := cur.Offset()
		r, err := readDimension(cur, l.readType)
		if err != nil {
			return err
		}
		ref = r
		b.WriteRaw(cur.Since(mark))
		return nil
	}
	if l.dimensionFirst {
		if err = readDim(); err != nil {
			return Result{}, err
		}
	}

	if err = b.Copy(cur, wire.TypeVarInt); err != nil { // max players
		return Result{}, err
	}
	dist, err := cur.VarInt()
	if err != nil {
		return Result{}, err
	}
	viewDist := max(dist, c.Session.Settings().ExtendedViewDistance)
	b.WriteVarInt(viewDist)

	if !l.dimensionFirst {
		if err = b.Copy(cur, l.afterView...); err != nil {
			return Result{}, err
		}
		if err = readDim(); err != nil {
			return Result{}, err
		}
	}
	b.CopyRemainder(cur)

	if err = enterDimension(c, ref); err != nil {
		return Result{}, err
	}
	if viewDist == dist {
		return Forward(), nil
	}
	c.Log.V(1).Info("extended view distance", "server", dist, "client", viewDist)
	return Replace(b), nil
}

func respawn(readType typeReader) Operator {
	return func(c *Context) (Result, error) {
		ref, err := readDimension(c.Cursor, readType)
		if err != nil {
			return Result{}, err
		}
		if err = enterDimension(c, ref); err != nil {
			return Result{}, err
		}
		return Forward(), nil
	}
}
