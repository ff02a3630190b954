// Package handler decides for every packet of a proxied connection
// whether it is forwarded, replaced or dropped.
//
// Operators are bound to packet names in per-version Tables. Each
// version's table is built from the one before it plus a Delta, so a
// protocol change is written down as the operators it touches.
package handler

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/packetid"
	"go.minekube.com/worldtap/pkg/proto/version"
	"go.minekube.com/worldtap/pkg/proto/wire"
)

// Dispatcher routes the packets of one direction of a session to operators.
// Calls to Dispatch must not overlap.
type Dispatcher struct {
	log     logr.Logger
	dir     proto.Direction
	session Session
	names   packetid.Names
	table   *Table
}

// NewDispatcher returns a Dispatcher for the packets travelling in dir.
// The operator table is selected once from the session's protocol.
func NewDispatcher(log logr.Logger, dir proto.Direction, session Session, tables *Tables, names packetid.Names) (*Dispatcher, error) {
	protocol := session.Protocol()
	table, ok := tables.For(protocol)
	if !ok {
		return nil, fmt.Errorf("no operator table for protocol %s", version.Protocol(protocol))
	}
	return &Dispatcher{
		log:     log.WithName("dispatcher").WithValues("direction", dir),
		dir:     dir,
		session: session,
		names:   names,
		table:   table,
	}, nil
}

// Table returns the operator table the dispatcher uses.
func (d *Dispatcher) Table() *Table { return d.table }

// Dispatch handles one uncompressed packet (id and body) and returns the
// bytes to send downstream in its place. A nil result with a nil error
// means nothing is sent. An error means the stream can not be followed
// any further.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte) ([]byte, error) {
	protocol := d.session.Protocol()
	c := wire.NewCursor(payload, protocol)
	rawID, err := c.VarInt()
	if err != nil {
		return nil, fmt.Errorf("error reading packet id: %w", err)
	}
	id := proto.PacketID(rawID)
	state := d.session.State()

	name, ok := d.names.Name(protocol, state, d.dir, id)
	if !ok {
		return payload, nil
	}
	op, ok := d.table.Operator(state, d.dir, name)
	if !ok {
		return payload, nil
	}

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("packet.id", id.String()),
		attribute.Int("packet.size", len(payload)),
		attribute.String("packet.direction", d.dir.String()),
		attribute.String("connection.state", state.String()),
	))
	defer span.End()

	log := d.log.WithValues("packet", name, "id", id)
	pc := &Context{
		ctx:       ctx,
		Cursor:    wire.NewCursor(c.Rest(), protocol),
		Protocol:  protocol,
		Direction: d.dir,
		State:     state,
		ID:        id,
		Name:      name,
		Session:   d.session,
		Log:       log,
	}
	res, err := op(pc)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s(%s): %w", name, id, err)
	}

	packetCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("packet.name", name),
		attribute.String("result", res.Kind().String()),
	))
	log.V(1).Info("handled packet", "result", res.Kind())

	switch res.Kind() {
	case ResultReplace:
		return res.Frame().Bytes(), nil
	case ResultConsumed:
		return nil, nil
	default:
		return payload, nil
	}
}
