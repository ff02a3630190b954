package world

import (
	"fmt"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"

	"go.minekube.com/worldtap/pkg/proto/wire"
)

// PlayerInventory is the window id of the player's own inventory.
const PlayerInventory = 0

// MaxWindowSlots bounds the slot index of a single slot update.
// The largest vanilla window, a double chest with the player inventory,
// has 90 slots.
const MaxWindowSlots = 256

// Containers records the slots of every open container window.
type Containers struct {
	log logr.Logger

	mu      sync.Mutex
	windows map[int][]*wire.Slot
	cursor  *wire.Slot
}

func newContainers(log logr.Logger) *Containers {
	return &Containers{log: log, windows: map[int][]*wire.Slot{}}
}

// SetItems replaces the contents of a window. Nil slots are empty.
func (c *Containers) SetItems(windowID int, slots []*wire.Slot) {
	items := make([]*wire.Slot, len(slots))
	copy(items, slots)
	c.mu.Lock()
	c.windows[windowID] = items
	c.mu.Unlock()

	c.log.V(1).Info("container contents", "window", windowID, "slots", len(items))
	if v := c.log.V(2); v.Enabled() {
		v.Info("container dump", "window", windowID, "items", spew.Sdump(items))
	}
}

// SetSlot sets a single slot of a window, growing the window if needed.
// It fails for an index outside [0, MaxWindowSlots).
func (c *Containers) SetSlot(windowID, index int, s *wire.Slot) error {
	if index < 0 || index >= MaxWindowSlots {
		return fmt.Errorf("slot index %d out of range [0, %d)", index, MaxWindowSlots)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.windows[windowID]
	if index >= len(items) {
		items = append(items, make([]*wire.Slot, index+1-len(items))...)
	}
	items[index] = s
	c.windows[windowID] = items
	return nil
}

// Items returns a copy of the slots of a window.
func (c *Containers) Items(windowID int) ([]*wire.Slot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.windows[windowID]
	if !ok {
		return nil, false
	}
	return append([]*wire.Slot(nil), items...), true
}

// SetCursorItem records the item held by the mouse cursor.
func (c *Containers) SetCursorItem(s *wire.Slot) {
	c.mu.Lock()
	c.cursor = s
	c.mu.Unlock()
}

// CursorItem returns the item held by the mouse cursor, nil if none.
func (c *Containers) CursorItem() *wire.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Windows returns the number of windows with recorded contents.
func (c *Containers) Windows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}
