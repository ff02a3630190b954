package session

import "go.minekube.com/worldtap/pkg/proto"

// StateChangedEvent is fired when an operator moves the session
// to another connection state.
type StateChangedEvent struct {
	Session  *Session
	Previous proto.State
	State    proto.State
}

// SnapshotEvent is fired when a closed session has stored its world.
// Written is false if the session recorded nothing worth storing.
type SnapshotEvent struct {
	Session *Session
	Path    string
	Written bool
}
