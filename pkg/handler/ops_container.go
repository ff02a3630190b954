package handler

import (
	"fmt"

	"go.minekube.com/worldtap/pkg/proto/wire"
	"go.minekube.com/worldtap/pkg/world"
)

// containerContent reads a ContainerSetContent packet.
// windowVarInt selects a VarInt window id over an unsigned byte, stateID
// the state id and carried item added in 1.17.1.
func containerContent(windowVarInt, stateID bool) Operator {
	return func(c *Context) (Result, error) {
		cur := c.Cursor
		var window int
		if windowVarInt {
			id, err := cur.VarInt()
			if err != nil {
				return Result{}, err
			}
			window = id
		} else {
			id, err := cur.UnsignedByte()
			if err != nil {
				return Result{}, err
			}
			window = int(id)
		}

		var count int
		if stateID {
			if err := cur.SkipType(wire.TypeVarInt); err != nil {
				return Result{}, err
			}
			n, err := cur.VarInt()
			if err != nil {
				return Result{}, err
			}
			count = n
		} else {
			n, err := cur.Short()
			if err != nil {
				return Result{}, err
			}
			count = int(n)
		}
		if count < 0 || count > cur.Remaining() {
			return Result{}, fmt.Errorf("invalid slot count %d", count)
		}

		slots, err := cur.Slots(count)
		if err != nil {
			return Result{}, err
		}
		containers := c.World().Containers()
		containers.SetItems(window, slots)

		if stateID {
			carried, err := cur.Slot()
			if err != nil {
				return Result{}, err
			}
			containers.SetCursorItem(carried)
		}
		return Forward(), nil
	}
}

func setCursorItem(c *Context) (Result, error) {
	s, err := c.Cursor.Slot()
	if err != nil {
		return Result{}, err
	}
	c.World().Containers().SetCursorItem(s)
	return Forward(), nil
}

func setPlayerInventory(c *Context) (Result, error) {
	index, err := c.Cursor.VarInt()
	if err != nil {
		return Result{}, err
	}
	s, err := c.Cursor.Slot()
	if err != nil {
		return Result{}, err
	}
	if err = c.World().Containers().SetSlot(world.PlayerInventory, index, s); err != nil {
		return Result{}, err
	}
	return Forward(), nil
}

// movePlayer reads the position every player movement packet starts with.
func movePlayer(c *Context) (Result, error) {
	var xyz [3]float64
	for i := range xyz {
		v, err := c.Cursor.Double()
		if err != nil {
			return Result{}, err
		}
		xyz[i] = v
	}
	c.World().SetPlayerPosition(world.Coordinates{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	return Forward(), nil
}
