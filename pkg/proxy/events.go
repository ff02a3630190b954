package proxy

import (
	"net"

	"go.minekube.com/worldtap/pkg/session"
)

// ReadyEvent is fired once the proxy listens for connections.
type ReadyEvent struct {
	Addr net.Addr
}

// SessionOpenedEvent is fired when a client's login starts being recorded.
type SessionOpenedEvent struct {
	Session    *session.Session
	Handshake  *Handshake
	RemoteAddr net.Addr
}

// SessionClosedEvent is fired after a session ended and stored its world.
// Err is the error that ended the session, nil for a clean end.
type SessionClosedEvent struct {
	Session *session.Session
	Err     error
}
