package handler

import (
	"context"

	"github.com/go-logr/logr"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/wire"
	"go.minekube.com/worldtap/pkg/world"
)

// Session is the proxied connection pairing operators act on.
// Implementations must be safe for use from both directions at once.
type Session interface {
	// Protocol returns the protocol version negotiated at handshake.
	Protocol() proto.Protocol
	// State returns the connection phase that selects packet ids.
	State() proto.State
	// SetState switches the connection phase for packets received afterwards.
	SetState(proto.State)
	// World returns the world state of the session.
	World() *world.World
	// Settings returns the current runtime settings.
	Settings() Settings
	// SetCompression enables compression with the given threshold once
	// the current packet has been forwarded. A negative threshold disables it.
	SetCompression(threshold int)
	// Passthrough switches the pairing to relaying opaque bytes once the
	// current packet has been forwarded.
	Passthrough()
}

// Settings are the runtime settings operators read.
type Settings struct {
	// ExtendedViewDistance is the minimum view distance advertised to the
	// client. Zero leaves the server's value alone.
	ExtendedViewDistance int
}

// Context is the packet an Operator handles.
type Context struct {
	ctx context.Context

	// Cursor is positioned at the start of the packet body.
	Cursor    *wire.Cursor
	Protocol  proto.Protocol
	Direction proto.Direction
	State     proto.State
	ID        proto.PacketID
	Name      string
	Session   Session
	Log       logr.Logger
}

// Context returns the context of the dispatch.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// World is shorthand for Session.World.
func (c *Context) World() *world.World { return c.Session.World() }

// NewFrame starts a replacement packet with the id of the handled packet.
func (c *Context) NewFrame() *wire.Builder {
	return wire.NewBuilder(c.Protocol, c.ID)
}

// Operator handles one named packet. It must consume every field it
// needs before returning, since a replacement built with
// wire.Builder.CopyRemainder starts at the cursor's final position.
// An error is fatal for the session.
type Operator func(*Context) (Result, error)
