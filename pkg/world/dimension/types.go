package dimension

import (
	"path"
	"strconv"
	"sync"

	"github.com/Tnze/go-mc/nbt"

	"go.minekube.com/worldtap/pkg/proto/util"
)

// Vanilla dimension names.
var (
	Overworld = Identifier{Namespace: "minecraft", Name: "overworld"}
	Nether    = Identifier{Namespace: "minecraft", Name: "the_nether"}
	End       = Identifier{Namespace: "minecraft", Name: "the_end"}
)

// vanillaTypes are the dimension types every client ships with.
var vanillaTypes = map[string]bool{
	"minecraft:overworld":       true,
	"minecraft:overworld_caves": true,
	"minecraft:the_nether":      true,
	"minecraft:the_end":         true,
}

// Dimension is a named world partition.
//
// A Dimension without a hashed seed is a prototype. Variants for a
// specific world seed are derived from the prototype of the same name
// and stored under their own world path.
type Dimension struct {
	Identifier
	hashedSeed  *int64
	storagePath string

	mu       *sync.RWMutex // the owning registry's lock
	typeName string
}

// HashedSeed returns the world seed hash of a variant, false for a prototype.
func (d *Dimension) HashedSeed() (int64, bool) {
	if d.hashedSeed == nil {
		return 0, false
	}
	return *d.hashedSeed, true
}

// Prototype reports whether d is not bound to a world seed.
func (d *Dimension) Prototype() bool { return d.hashedSeed == nil }

// StoragePath returns the world-relative directory of a variant,
// empty for a prototype.
func (d *Dimension) StoragePath() string { return d.storagePath }

// Type returns the name of the dimension type assigned to d, empty if unknown.
func (d *Dimension) Type() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.typeName
}

// SetType assigns the dimension type name.
func (d *Dimension) SetType(name string) {
	d.mu.Lock()
	d.typeName = name
	d.mu.Unlock()
}

// withWorldContext derives a variant of prototype d.
func (d *Dimension) withWorldContext(hashedSeed int64, storagePath string) *Dimension {
	return &Dimension{
		Identifier:  d.Identifier,
		hashedSeed:  &hashedSeed,
		storagePath: storagePath,
		mu:          d.mu,
		typeName:    d.typeName,
	}
}

// DimensionType is a dimension type definition.
type DimensionType struct {
	Identifier
	// ID is the registry index, or the signature of Data when Legacy is set.
	ID int
	// Legacy marks a type read from a whole registry codec, where dimensions
	// reference their type by properties rather than by index.
	Legacy bool
	Data   util.BinaryTag
}

// HasData reports whether the server sent the definition. Entries of a
// pack the client already knows only carry their name.
func (t *DimensionType) HasData() bool { return t.Data.Type != nbt.TagEnd }

// Biome is a biome definition.
type Biome struct {
	Identifier
	ID   int
	Data util.BinaryTag
}

// HasData reports whether the server sent the definition.
func (b *Biome) HasData() bool { return b.Data.Type != nbt.TagEnd }

// BiomeRegistry looks up the biomes of one registry snapshot.
type BiomeRegistry struct {
	byID   map[int]*Biome
	byName map[string]*Biome
}

func newBiomeRegistry(biomes []*Biome) *BiomeRegistry {
	r := &BiomeRegistry{
		byID:   make(map[int]*Biome, len(biomes)),
		byName: make(map[string]*Biome, len(biomes)),
	}
	for _, b := range biomes {
		r.byID[b.ID] = b
		r.byName[b.Identifier.String()] = b
	}
	return r
}

// Biome returns the biome with registry id.
func (r *BiomeRegistry) Biome(id int) (*Biome, bool) {
	b, ok := r.byID[id]
	return b, ok
}

// BiomeByName returns the biome named name.
func (r *BiomeRegistry) BiomeByName(name string) (*Biome, bool) {
	b, ok := r.byName[ParseIdentifier(name).String()]
	return b, ok
}

// Len returns the number of biomes.
func (r *BiomeRegistry) Len() int { return len(r.byID) }

// RegistryEntry is one entry of an indexed registry stream.
// Its position in the stream is its id.
type RegistryEntry struct {
	Name string
	Data *util.BinaryTag // nil if the entry is known to the client already
}

func storageKey(hashedSeed int64) string {
	return path.Join("worlds", "seed_"+strconv.FormatUint(uint64(hashedSeed), 16))
}
