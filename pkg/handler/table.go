package handler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/exp/maps"

	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/packetid"
)

// Entry binds an Operator to a packet name. A nil Op removes an
// inherited binding.
type Entry struct {
	State     proto.State
	Direction proto.Direction
	Name      string
	Op        Operator
}

func clientbound(state proto.State, name string, op Operator) Entry {
	return Entry{State: state, Direction: proto.ClientBound, Name: name, Op: op}
}

func serverbound(state proto.State, name string, op Operator) Entry {
	return Entry{State: state, Direction: proto.ServerBound, Name: name, Op: op}
}

// Delta lists the operators that changed in a protocol version.
type Delta struct {
	Since   *proto.Version
	Entries []Entry
}

type opKey struct {
	state proto.State
	dir   proto.Direction
	name  string
}

// Table is the immutable set of operators of one protocol version.
type Table struct {
	version *proto.Version
	ops     map[opKey]Operator
}

// Version returns the protocol version the table was introduced in.
func (t *Table) Version() *proto.Version { return t.version }

// Operator returns the operator bound to the named packet.
func (t *Table) Operator(state proto.State, dir proto.Direction, name string) (Operator, bool) {
	op, ok := t.ops[opKey{state, dir, name}]
	return op, ok
}

// Len returns the number of bound operators.
func (t *Table) Len() int { return len(t.ops) }

// Entries returns the bindings of the table ordered by state, direction and name.
func (t *Table) Entries() []Entry {
	keys := maps.Keys(t.ops)
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.state != b.state {
			return a.state < b.state
		}
		if a.dir != b.dir {
			return a.dir < b.dir
		}
		return a.name < b.name
	})
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{State: k.state, Direction: k.dir, Name: k.name, Op: t.ops[k]}
	}
	return entries
}

// Tables holds one Table per Delta, ascending by version.
type Tables struct {
	tables []*Table
}

// Build applies deltas in order, each on top of the complete table of
// the delta before it. Deltas must be in strictly ascending version order.
func Build(deltas ...Delta) (*Tables, error) {
	ts := &Tables{tables: make([]*Table, 0, len(deltas))}
	prev := map[opKey]Operator{}
	for i, d := range deltas {
		if d.Since == nil {
			return nil, fmt.Errorf("delta %d has no version", i)
		}
		if i > 0 && d.Since.Protocol <= deltas[i-1].Since.Protocol {
			return nil, fmt.Errorf("delta %s is not newer than %s", d.Since, deltas[i-1].Since)
		}
		ops := make(map[opKey]Operator, len(prev)+len(d.Entries))
		for k, op := range prev {
			ops[k] = op
		}
		for _, e := range d.Entries {
			k := opKey{e.State, e.Direction, e.Name}
			if e.Op == nil {
				delete(ops, k)
				continue
			}
			ops[k] = e.Op
		}
		ts.tables = append(ts.tables, &Table{version: d.Since, ops: ops})
		prev = ops
	}
	return ts, nil
}

// For returns the table of the newest version not newer than protocol.
func (ts *Tables) For(protocol proto.Protocol) (*Table, bool) {
	i := sort.Search(len(ts.tables), func(i int) bool {
		return ts.tables[i].version.Protocol > protocol
	})
	if i == 0 {
		return nil, false
	}
	return ts.tables[i-1], true
}

// All returns every table ascending by version.
func (ts *Tables) All() []*Table {
	return append([]*Table(nil), ts.tables...)
}

// Validate checks that every bound packet name exists in names for the
// version of its table.
func (ts *Tables) Validate(names *packetid.Table) error {
	var errs []error
	for _, t := range ts.tables {
		for _, e := range t.Entries() {
			if _, ok := names.ID(t.version.Protocol, e.State, e.Direction, e.Name); ok {
				continue
			}
			err := fmt.Errorf("%s: %s %s packet %q has no id", t.version, e.State, e.Direction, e.Name)
			if s := names.Suggest(t.version.Protocol, e.State, e.Direction, e.Name); len(s) != 0 {
				err = fmt.Errorf("%w (did you mean %s?)", err, strings.Join(s, ", "))
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the tables of every supported version.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Build(Deltas()...)
	})
	return defaultTables, defaultErr
}
