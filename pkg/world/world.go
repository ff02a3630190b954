// Package world holds the game state a session observes: the current
// dimension, container contents and the player's position.
package world

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"

	"go.minekube.com/worldtap/pkg/world/dimension"
)

// Coordinates is a player position in block units.
type Coordinates struct {
	X, Y, Z float64
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", c.X, c.Y, c.Z)
}

// World is the state of one session's world. It is safe for concurrent use.
type World struct {
	log        logr.Logger
	containers *Containers

	registry *dimension.Registry

	mu            sync.RWMutex
	dimension     *dimension.Dimension
	dimensionType *dimension.DimensionType
	position      *Coordinates
}

// New returns a World with a registry that knows only the vanilla dimensions.
func New(opts dimension.Options) *World {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Event == nil {
		opts.Event = event.Nop
	}
	return &World{
		log:        opts.Logger,
		containers: newContainers(opts.Logger.WithName("containers")),
		registry:   dimension.New(opts),
	}
}

// Registry returns the dimension registry of the world.
func (w *World) Registry() *dimension.Registry { return w.registry }

// Dimension returns the dimension the player is in, nil before the first login.
func (w *World) Dimension() *dimension.Dimension {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dimension
}

// DimensionType returns the type of the current dimension, nil if unknown.
func (w *World) DimensionType() *dimension.DimensionType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dimensionType
}

// SetDimension records a dimension change. A nil type leaves the
// previous dimension type in place.
func (w *World) SetDimension(d *dimension.Dimension, t *dimension.DimensionType) {
	w.mu.Lock()
	w.dimension = d
	if t != nil {
		w.dimensionType = t
	}
	w.mu.Unlock()
	w.log.V(1).Info("dimension changed", "dimension", d.Identifier, "world", d.StoragePath())
}

// PlayerPosition returns the last known player position.
func (w *World) PlayerPosition() (Coordinates, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.position == nil {
		return Coordinates{}, false
	}
	return *w.position, true
}

// SetPlayerPosition records the player position.
func (w *World) SetPlayerPosition(c Coordinates) {
	w.mu.Lock()
	w.position = &c
	w.mu.Unlock()
}

// Containers returns the container state of the world.
func (w *World) Containers() *Containers { return w.containers }
