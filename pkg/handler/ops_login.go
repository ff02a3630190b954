package handler

import (
	"go.minekube.com/worldtap/pkg/proto"
)

func setCompression(c *Context) (Result, error) {
	threshold, err := c.Cursor.VarInt()
	if err != nil {
		return Result{}, err
	}
	c.Session.SetCompression(threshold)
	c.Log.V(1).Info("compression enabled", "threshold", threshold)
	return Forward(), nil
}

// encryptionRequest gives up on decoding: the backend runs in online mode
// and everything after this packet is encrypted end to end.
func encryptionRequest(c *Context) (Result, error) {
	c.Log.Info("backend requested encryption, relaying the connection without inspection")
	c.Session.Passthrough()
	return Forward(), nil
}

func enterState(state proto.State) Operator {
	return func(c *Context) (Result, error) {
		c.Session.SetState(state)
		c.Log.V(1).Info("connection state changed", "state", state)
		return Forward(), nil
	}
}
