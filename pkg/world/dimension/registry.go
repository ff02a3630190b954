// Package dimension tracks the dimensions, dimension types and biomes a
// server announces and writes them out as a datapack.
package dimension

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"

	"go.minekube.com/worldtap/pkg/internal/hashutil"
	"go.minekube.com/worldtap/pkg/proto/nbtconv"
	"go.minekube.com/worldtap/pkg/proto/util"
)

// Options configure a Registry.
type Options struct {
	Logger logr.Logger   // Defaults to a discarding logger.
	Event  event.Manager // Receives DimensionFallbackEvent. Defaults to event.Nop.
}

// Registry holds the dimension metadata of one session.
// It is safe for concurrent use.
//
// Both bulk loads replace what they load: a codec replaces all
// dimension types and biomes, a registry stream replaces the
// dimension types or the biomes. Dimensions are never removed.
type Registry struct {
	log   logr.Logger
	event event.Manager

	mu           sync.RWMutex
	dimensions   map[string][]*Dimension // first entry is the prototype if one exists
	typesByID    map[int]*DimensionType
	typesByName  map[string]*DimensionType
	biomes       *BiomeRegistry
	storageRoots map[int64]string
	overworld    *Dimension
}

// New returns a Registry that knows the three vanilla dimensions.
func New(opts Options) *Registry {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Event == nil {
		opts.Event = event.Nop
	}
	r := &Registry{
		log:          opts.Logger,
		event:        opts.Event,
		dimensions:   map[string][]*Dimension{},
		typesByID:    map[int]*DimensionType{},
		typesByName:  map[string]*DimensionType{},
		biomes:       newBiomeRegistry(nil),
		storageRoots: map[int64]string{},
	}
	r.overworld = r.registerPrototype(Overworld)
	r.registerPrototype(Nether)
	r.registerPrototype(End)
	return r
}

// FromNBT returns a Registry populated from a whole registry codec.
func FromNBT(codec util.BinaryTag, opts Options) (*Registry, error) {
	r := New(opts)
	if err := r.ReadCodec(codec); err != nil {
		return nil, err
	}
	return r, nil
}

// registerPrototype must be called with r.mu held or before r is shared.
func (r *Registry) registerPrototype(id Identifier) *Dimension {
	d := &Dimension{Identifier: id, mu: &r.mu}
	key := id.String()
	r.dimensions[key] = append(r.dimensions[key], d)
	return d
}

// DimensionFallbackEvent is fired when a dimension was looked up by a
// name the registry does not know and the overworld is used instead.
type DimensionFallbackEvent struct {
	Name     string
	Fallback *Dimension
}

// Dimension returns the first known variant of name.
// An unknown name falls back to the overworld prototype.
func (r *Registry) Dimension(name string) *Dimension {
	key := ParseIdentifier(name).String()
	r.mu.RLock()
	dims := r.dimensions[key]
	var d *Dimension
	if len(dims) != 0 {
		d = dims[0]
	}
	r.mu.RUnlock()
	if d != nil {
		return d
	}
	r.log.Info("dimension not found, using overworld", "dimension", name)
	r.event.Fire(&DimensionFallbackEvent{Name: name, Fallback: r.overworld})
	return r.overworld
}

// DimensionForSeed returns the variant of name for a world seed hash,
// deriving it from the prototype the first time the seed is seen.
// A nil hashedSeed behaves like Dimension.
func (r *Registry) DimensionForSeed(name string, hashedSeed *int64) *Dimension {
	if hashedSeed == nil {
		return r.Dimension(name)
	}
	id := ParseIdentifier(name)
	key := id.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dimensions[key] {
		if d.hashedSeed != nil && *d.hashedSeed == *hashedSeed {
			return d
		}
	}
	var base *Dimension
	if dims := r.dimensions[key]; len(dims) != 0 {
		base = dims[0]
	} else {
		base = r.registerPrototype(id)
	}
	variant := base.withWorldContext(*hashedSeed, r.storageRoot(*hashedSeed))
	r.dimensions[key] = append(r.dimensions[key], variant)
	return variant
}

// storageRoot must be called with r.mu held.
func (r *Registry) storageRoot(hashedSeed int64) string {
	p, ok := r.storageRoots[hashedSeed]
	if !ok {
		p = storageKey(hashedSeed)
		r.storageRoots[hashedSeed] = p
	}
	return p
}

// SetDimensionNames registers a prototype for every name
// that does not have one yet.
func (r *Registry) SetDimensionNames(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		id := ParseIdentifier(name)
		hasPrototype := false
		for _, d := range r.dimensions[id.String()] {
			if d.Prototype() {
				hasPrototype = true
				break
			}
		}
		if !hasPrototype {
			r.registerPrototype(id)
		}
	}
}

// Dimensions returns every prototype and variant, ordered by name.
func (r *Registry) Dimensions() []*Dimension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var all []*Dimension
	for _, k := range keys {
		all = append(all, r.dimensions[k]...)
	}
	return all
}

// DimensionType returns the dimension type with id, which is a
// registry index or, for types read from a codec, a signature.
func (r *Registry) DimensionType(id int) (*DimensionType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.typesByID[id]
	return t, ok
}

// DimensionTypeByName returns the dimension type named name.
func (r *Registry) DimensionTypeByName(name string) (*DimensionType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.typesByName[ParseIdentifier(name).String()]
	return t, ok
}

// DimensionTypeByProperties returns the codec dimension type whose
// properties equal the given tag.
func (r *Registry) DimensionTypeByProperties(properties util.BinaryTag) (*DimensionType, bool, error) {
	sig, err := Signature(properties)
	if err != nil {
		return nil, false, err
	}
	t, ok := r.DimensionType(sig)
	return t, ok, nil
}

// Biomes returns the current biome registry.
func (r *Registry) Biomes() *BiomeRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.biomes
}

// Signature hashes the properties of a dimension type.
// Equal properties always give equal signatures regardless of tag order.
func Signature(properties util.BinaryTag) (int, error) {
	v, err := nbtconv.ToValue(properties)
	if err != nil {
		return 0, err
	}
	sig, err := hashutil.Signature(v)
	if err != nil {
		return 0, fmt.Errorf("error hashing dimension type properties: %w", err)
	}
	return sig, nil
}

type codecEntry struct {
	Name    string         `nbt:"name"`
	ID      int32          `nbt:"id"`
	Element util.BinaryTag `nbt:"element"`
}

type codecRegistry struct {
	Type  string       `nbt:"type"`
	Value []codecEntry `nbt:"value"`
}

type registryCodec struct {
	DimensionTypes codecRegistry `nbt:"minecraft:dimension_type"`
	Biomes         codecRegistry `nbt:"minecraft:worldgen/biome"`
}

// ReadCodec replaces all dimension types and biomes with the
// ones in a whole registry codec.
func (r *Registry) ReadCodec(codec util.BinaryTag) error {
	var c registryCodec
	if err := codec.Unmarshal(&c); err != nil {
		return fmt.Errorf("error decoding registry codec: %w", err)
	}

	typesByID := make(map[int]*DimensionType, len(c.DimensionTypes.Value))
	typesByName := make(map[string]*DimensionType, len(c.DimensionTypes.Value))
	for _, e := range c.DimensionTypes.Value {
		sig, err := Signature(e.Element)
		if err != nil {
			return fmt.Errorf("dimension type %s: %w", e.Name, err)
		}
		t := &DimensionType{
			Identifier: ParseIdentifier(e.Name),
			ID:         sig,
			Legacy:     true,
			Data:       e.Element,
		}
		typesByID[t.ID] = t
		typesByName[t.Identifier.String()] = t
	}

	biomes := make([]*Biome, 0, len(c.Biomes.Value))
	for _, e := range c.Biomes.Value {
		biomes = append(biomes, &Biome{
			Identifier: ParseIdentifier(e.Name),
			ID:         int(e.ID),
			Data:       e.Element,
		})
	}

	r.mu.Lock()
	r.typesByID, r.typesByName = typesByID, typesByName
	r.biomes = newBiomeRegistry(biomes)
	r.mu.Unlock()

	r.log.V(1).Info("read registry codec",
		"dimensionTypes", len(typesByID), "biomes", len(biomes))
	return nil
}

// LoadDimensionTypes replaces all dimension types with the entries of
// a registry stream. Each entry's position is its id.
func (r *Registry) LoadDimensionTypes(entries []RegistryEntry) {
	typesByID := make(map[int]*DimensionType, len(entries))
	typesByName := make(map[string]*DimensionType, len(entries))
	for id, e := range entries {
		t := &DimensionType{Identifier: ParseIdentifier(e.Name), ID: id}
		if e.Data != nil {
			t.Data = *e.Data
		}
		typesByID[id] = t
		typesByName[t.Identifier.String()] = t
	}
	r.mu.Lock()
	r.typesByID, r.typesByName = typesByID, typesByName
	r.mu.Unlock()
	r.log.V(1).Info("loaded dimension types", "count", len(entries))
}

// LoadBiomes replaces all biomes with the entries of a registry stream.
// Each entry's position is its id.
func (r *Registry) LoadBiomes(entries []RegistryEntry) {
	biomes := make([]*Biome, len(entries))
	for id, e := range entries {
		b := &Biome{Identifier: ParseIdentifier(e.Name), ID: id}
		if e.Data != nil {
			b.Data = *e.Data
		}
		biomes[id] = b
	}
	br := newBiomeRegistry(biomes)
	r.mu.Lock()
	r.biomes = br
	r.mu.Unlock()
	r.log.V(1).Info("loaded biomes", "count", len(entries))
}
