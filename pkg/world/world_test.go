package world

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/worldtap/pkg/proto/wire"
	"go.minekube.com/worldtap/pkg/world/dimension"
)

func TestWorldDimension(t *testing.T) {
	w := New(dimension.Options{})
	assert.Nil(t, w.Dimension())
	assert.Nil(t, w.DimensionType())

	w.Registry().LoadDimensionTypes([]dimension.RegistryEntry{{Name: "minecraft:overworld"}})
	typ, ok := w.Registry().DimensionType(0)
	require.True(t, ok)

	seed := int64(99)
	d := w.Registry().DimensionForSeed("minecraft:overworld", &seed)
	w.SetDimension(d, typ)
	assert.Same(t, d, w.Dimension())
	assert.Same(t, typ, w.DimensionType())

	// an unknown type keeps the previous one
	nether := w.Registry().Dimension("minecraft:the_nether")
	w.SetDimension(nether, nil)
	assert.Same(t, nether, w.Dimension())
	assert.Same(t, typ, w.DimensionType())
}

func TestWorldPlayerPosition(t *testing.T) {
	w := New(dimension.Options{})
	_, ok := w.PlayerPosition()
	assert.False(t, ok)

	w.SetPlayerPosition(Coordinates{X: 1.5, Y: 64, Z: -20})
	p, ok := w.PlayerPosition()
	require.True(t, ok)
	assert.Equal(t, Coordinates{X: 1.5, Y: 64, Z: -20}, p)
	assert.Equal(t, "(1.5, 64.0, -20.0)", p.String())
}

func TestContainers(t *testing.T) {
	c := New(dimension.Options{}).Containers()
	_, ok := c.Items(3)
	assert.False(t, ok)

	stone := &wire.Slot{ItemID: 1, Count: 64}
	slots := []*wire.Slot{nil, stone}
	c.SetItems(3, slots)
	slots[0] = stone // the container keeps its own copy

	items, ok := c.Items(3)
	require.True(t, ok)
	assert.Equal(t, []*wire.Slot{nil, stone}, items)

	require.NoError(t, c.SetSlot(3, 4, stone))
	items, _ = c.Items(3)
	assert.Len(t, items, 5)
	assert.Same(t, stone, items[4])

	require.NoError(t, c.SetSlot(PlayerInventory, 0, stone))
	assert.Equal(t, 2, c.Windows())

	assert.Nil(t, c.CursorItem())
	c.SetCursorItem(stone)
	assert.Same(t, stone, c.CursorItem())
}

func TestContainersRejectSlotIndexOutOfRange(t *testing.T) {
	c := New(dimension.Options{}).Containers()
	stone := &wire.Slot{ItemID: 1, Count: 1}
	for _, index := range []int{-1, MaxWindowSlots, math.MaxInt32} {
		require.Error(t, c.SetSlot(PlayerInventory, index, stone), "index %d", index)
	}
	_, ok := c.Items(PlayerInventory)
	assert.False(t, ok, "rejected updates must not create the window")

	require.NoError(t, c.SetSlot(PlayerInventory, MaxWindowSlots-1, stone))
	items, _ := c.Items(PlayerInventory)
	assert.Len(t, items, MaxWindowSlots)
}

func TestWorldConcurrentAccess(t *testing.T) {
	w := New(dimension.Options{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.SetDimension(w.Registry().Dimension("minecraft:overworld"), nil)
				w.SetPlayerPosition(Coordinates{X: float64(j)})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = w.Containers().SetSlot(j%3, j, nil)
				_, _ = w.PlayerPosition()
				_ = w.Dimension()
			}
		}()
	}
	wg.Wait()
}
