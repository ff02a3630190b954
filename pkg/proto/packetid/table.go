// Package packetid maps numeric packet ids to packet names
// per protocol version, connection state and direction.
package packetid

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"go.minekube.com/worldtap/pkg/proto"
)

// Names resolves packet ids to names and back.
type Names interface {
	// Name returns the name of packet id, false if the id is not tracked.
	Name(protocol proto.Protocol, state proto.State, dir proto.Direction, id proto.PacketID) (string, bool)
	// ID returns the id of the named packet, false if it does not exist in protocol.
	ID(protocol proto.Protocol, state proto.State, dir proto.Direction, name string) (proto.PacketID, bool)
}

//go:embed packets.yml
var defaultTable []byte

var (
	defaultOnce sync.Once
	defaultTbl  *Table
	defaultErr  error
)

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTbl, defaultErr = Parse(defaultTable)
	})
	return defaultTbl, defaultErr
}

type key struct {
	state proto.State
	dir   proto.Direction
}

type versionTable struct {
	protocol proto.Protocol
	byName   map[key]map[string]proto.PacketID
	byID     map[key]map[proto.PacketID]string
}

// Table is an immutable packet id table. It implements Names.
type Table struct {
	versions []*versionTable // ascending by protocol
}

var _ Names = (*Table)(nil)

type fileVersion struct {
	Protocol      proto.Protocol       `yaml:"protocol"`
	Handshake     map[string]idsByName `yaml:"handshake"`
	Status        map[string]idsByName `yaml:"status"`
	Login         map[string]idsByName `yaml:"login"`
	Configuration map[string]idsByName `yaml:"configuration"`
	Play          map[string]idsByName `yaml:"play"`
}

type idsByName map[string]int

type file struct {
	Versions []fileVersion `yaml:"versions"`
}

// Load reads a table definition from rd.
func Load(rd io.Reader) (*Table, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// LoadFile reads a table definition from path on fs.
func LoadFile(fs afero.Fs, path string) (*Table, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading packet table %q: %w", path, err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("error parsing packet table %q: %w", path, err)
	}
	return t, nil
}

// Parse parses a table definition.
// Each version inherits the ids of the version before it.
func Parse(b []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if len(f.Versions) == 0 {
		return nil, errors.New("packet table has no versions")
	}
	t := &Table{}
	prev := &versionTable{byName: map[key]map[string]proto.PacketID{}}
	for _, fv := range f.Versions {
		if len(t.versions) != 0 && fv.Protocol <= prev.protocol {
			return nil, fmt.Errorf("protocol %d is not listed after %d in ascending order", fv.Protocol, prev.protocol)
		}
		vt := &versionTable{
			protocol: fv.Protocol,
			byName:   make(map[key]map[string]proto.PacketID, len(prev.byName)),
			byID:     map[key]map[proto.PacketID]string{},
		}
		for k, ids := range prev.byName {
			vt.byName[k] = maps.Clone(ids)
		}
		for state, dirs := range map[proto.State]map[string]idsByName{
			proto.HandshakeState:     fv.Handshake,
			proto.StatusState:        fv.Status,
			proto.LoginState:         fv.Login,
			proto.ConfigurationState: fv.Configuration,
			proto.PlayState:          fv.Play,
		} {
			for dirName, ids := range dirs {
				dir, err := parseDirection(dirName)
				if err != nil {
					return nil, fmt.Errorf("protocol %d %s: %w", fv.Protocol, state, err)
				}
				k := key{state, dir}
				if vt.byName[k] == nil {
					vt.byName[k] = map[string]proto.PacketID{}
				}
				for name, id := range ids {
					if id < 0 {
						delete(vt.byName[k], name)
						continue
					}
					vt.byName[k][name] = proto.PacketID(id)
				}
			}
		}
		for k, ids := range vt.byName {
			rev := make(map[proto.PacketID]string, len(ids))
			for name, id := range ids {
				if other, ok := rev[id]; ok {
					return nil, fmt.Errorf("protocol %d %s %s: packets %s and %s share id %s",
						fv.Protocol, k.state, k.dir, other, name, id)
				}
				rev[id] = name
			}
			vt.byID[k] = rev
		}
		t.versions = append(t.versions, vt)
		prev = vt
	}
	return t, nil
}

func parseDirection(s string) (proto.Direction, error) {
	switch strings.ToLower(s) {
	case "clientbound":
		return proto.ClientBound, nil
	case "serverbound":
		return proto.ServerBound, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// lookup returns the newest version table not newer than protocol.
func (t *Table) lookup(protocol proto.Protocol) *versionTable {
	i := sort.Search(len(t.versions), func(i int) bool {
		return t.versions[i].protocol > protocol
	})
	if i == 0 {
		return nil
	}
	return t.versions[i-1]
}

// Name implements Names.
func (t *Table) Name(protocol proto.Protocol, state proto.State, dir proto.Direction, id proto.PacketID) (string, bool) {
	vt := t.lookup(protocol)
	if vt == nil {
		return "", false
	}
	name, ok := vt.byID[key{state, dir}][id]
	return name, ok
}

// ID implements Names.
func (t *Table) ID(protocol proto.Protocol, state proto.State, dir proto.Direction, name string) (proto.PacketID, bool) {
	vt := t.lookup(protocol)
	if vt == nil {
		return 0, false
	}
	id, ok := vt.byName[key{state, dir}][name]
	return id, ok
}

// Packets returns the sorted packet names known for protocol in state and direction.
func (t *Table) Packets(protocol proto.Protocol, state proto.State, dir proto.Direction) []string {
	vt := t.lookup(protocol)
	if vt == nil {
		return nil
	}
	names := maps.Keys(vt.byName[key{state, dir}])
	sort.Strings(names)
	return names
}

// Suggest returns the known packet names closest to name, best match first.
// It helps spot misspelled names in custom table definitions.
func (t *Table) Suggest(protocol proto.Protocol, state proto.State, dir proto.Direction, name string) []string {
	type scored struct {
		name  string
		score float64
	}
	var result []scored
	for _, candidate := range t.Packets(protocol, state, dir) {
		score := levenshtein.Similarity(strings.ToLower(name), strings.ToLower(candidate), nil)
		if score < 0.5 {
			continue
		}
		result = append(result, scored{candidate, score})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].score > result[j].score
	})
	names := make([]string, len(result))
	for i, s := range result {
		names[i] = s.name
	}
	return names
}
