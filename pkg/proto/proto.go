// Package proto holds the vocabulary shared by every layer that touches
// the Minecraft Java edition wire protocol: directions, protocol versions,
// packet ids and connection states.
package proto

import (
	"fmt"
	"strconv"
)

// PacketID identifies a packet in a protocol version and state.
// PacketIDs vary by Protocol version.
type PacketID int

// String implements fmt.Stringer.
func (id PacketID) String() string {
	return fmt.Sprintf("0x%02X", int(id))
}

// Direction is the direction a packet is bound to.
//   - Receiving a packet from a client is ServerBound.
//   - Receiving a packet from a server is ClientBound.
type Direction uint8

// Available packet bound directions.
const (
	ClientBound Direction = iota // A packet is bound to a client.
	ServerBound                  // A packet is bound to a server.
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case ServerBound:
		return "ServerBound"
	case ClientBound:
		return "ClientBound"
	}
	return "UnknownBound"
}

// State is the phase a connection is in. It selects which packet id
// table applies to a received packet.
type State uint8

// Connection states in the order a connection passes through them.
const (
	HandshakeState State = iota
	StatusState
	LoginState
	ConfigurationState // Since 1.20.2.
	PlayState
)

var stateNames = map[State]string{
	HandshakeState:     "handshake",
	StatusState:        "status",
	LoginState:         "login",
	ConfigurationState: "configuration",
	PlayState:          "play",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseState parses the name of a State as returned by State.String.
func ParseState(name string) (State, bool) {
	for s, n := range stateNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Protocol is a Minecraft protocol version number specified by Mojang.
type Protocol int

// String implements fmt.Stringer.
func (p Protocol) String() string {
	return strconv.Itoa(int(p))
}

// GreaterEqual is true when this Protocol is
// greater or equal then another Version's Protocol.
func (p Protocol) GreaterEqual(then *Version) bool {
	return p >= then.Protocol
}

// LowerEqual is true when this Protocol is
// lower or equal then another Version's Protocol.
func (p Protocol) LowerEqual(then *Version) bool {
	return p <= then.Protocol
}

// Lower is true when this Protocol is
// lower then another Version's Protocol.
func (p Protocol) Lower(then *Version) bool {
	return p < then.Protocol
}

// Greater is true when this Protocol is
// greater then another Version's Protocol.
func (p Protocol) Greater(then *Version) bool {
	return p > then.Protocol
}

// Version is a named protocol version.
type Version struct {
	Protocol          // The protocol number of the version.
	Names    []string // The names in this protocol version (at least one).
}

// FirstName returns the user-friendly name of
// the version this protocol was introduced in.
func (v *Version) FirstName() string {
	if len(v.Names) == 0 {
		return ""
	}
	return v.Names[0]
}

// LastName returns the user-friendly name of
// the last version of this protocol.
func (v *Version) LastName() string {
	if len(v.Names) == 0 {
		return ""
	}
	return v.Names[len(v.Names)-1]
}

// String returns the user-friendly name of this protocol version.
// If this version has multiple names it returns {first}-{last} version.
func (v Version) String() string {
	if len(v.Names) > 1 {
		return fmt.Sprintf("%s-%s", v.FirstName(), v.LastName())
	}
	return v.FirstName()
}
