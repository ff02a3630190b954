package proxy

import (
	"bufio"
	"fmt"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/codec"
	"go.minekube.com/worldtap/pkg/proto/wire"
)

// Intents a client announces in its handshake.
const (
	StatusIntent   = 1
	LoginIntent    = 2
	TransferIntent = 3 // Since 1.20.5, a login redirected from another server.
)

// legacyPingID starts the pre-netty server list ping.
const legacyPingID = 0xFE

// Handshake is the first packet of every connection.
type Handshake struct {
	ProtocolVersion proto.Protocol
	ServerAddress   string
	Port            uint16
	NextStatus      int

	payload []byte // the packet as received, replayed to the backend
}

// Login reports whether the client continues with a login.
func (h *Handshake) Login() bool {
	return h.NextStatus == LoginIntent || h.NextStatus == TransferIntent
}

// Payload returns the packet id and data the handshake was decoded from.
func (h *Handshake) Payload() []byte { return h.payload }

func (h *Handshake) String() string {
	return fmt.Sprintf("Handshake{protocol=%d, address=%s:%d, next=%d}",
		h.ProtocolVersion, h.ServerAddress, h.Port, h.NextStatus)
}

// isLegacyPing reports whether the client speaks the pre-netty ping protocol.
func isLegacyPing(rd *bufio.Reader) (bool, error) {
	b, err := rd.Peek(1)
	if err != nil {
		return false, err
	}
	return b[0] == legacyPingID, nil
}

// readHandshake reads the handshake frame from dec.
// Handshakes are never compressed.
func readHandshake(dec *codec.Decoder) (*Handshake, error) {
	payload, err := dec.ReadPayload()
	if err != nil {
		return nil, err
	}
	return parseHandshake(payload)
}

func parseHandshake(payload []byte) (h *Handshake, err error) {
	c := wire.NewCursor(payload, 0)
	id, err := c.VarInt()
	if err != nil {
		return nil, err
	}
	if id != 0 {
		return nil, fmt.Errorf("expected handshake packet 0x00, got %s", proto.PacketID(id))
	}
	h = &Handshake{payload: payload}
	protocol, err := c.VarInt()
	if err != nil {
		return nil, err
	}
	h.ProtocolVersion = proto.Protocol(protocol)
	if h.ServerAddress, err = c.String(); err != nil {
		return nil, err
	}
	if h.Port, err = c.UnsignedShort(); err != nil {
		return nil, err
	}
	if h.NextStatus, err = c.VarInt(); err != nil {
		return nil, err
	}
	return h, nil
}
