package dimension

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"go.minekube.com/worldtap/pkg/proto/nbtconv"
)

// DatapackDir is where Write places definitions, relative to a world directory.
var DatapackDir = filepath.Join("datapacks", "downloaded", "data")

// voidGenerator keeps a restored custom dimension from generating
// terrain outside the downloaded chunks. Vanilla dimensions are not
// written and keep their own generator.
var voidGenerator = map[string]any{
	"type": "minecraft:flat",
	"settings": map[string]any{
		"biome":               "minecraft:the_void",
		"layers":              []any{},
		"features":            false,
		"lakes":               false,
		"structure_overrides": []any{},
	},
}

// Write stores the custom dimensions and every dimension type and biome
// the server sent a definition for as JSON below dest on fs. Entries the
// client already knew are only named on the wire and are left out, as are
// vanilla dimensions of a vanilla type. Nothing is written if no definition
// was ever recorded; the result reports whether anything was.
func (r *Registry) Write(fs afero.Fs, dest string) (bool, error) {
	r.mu.RLock()
	types := make([]*DimensionType, 0, len(r.typesByID))
	for _, t := range r.typesByID {
		if t.HasData() {
			types = append(types, t)
		}
	}
	biomes := make([]*Biome, 0, r.biomes.Len())
	for _, b := range r.biomes.byID {
		if b.HasData() {
			biomes = append(biomes, b)
		}
	}
	r.mu.RUnlock()

	if len(types) == 0 && len(biomes) == 0 {
		return false, nil
	}

	for _, d := range r.Dimensions() {
		if d.vanilla() {
			continue
		}
		if err := writeDimension(fs, dest, d); err != nil {
			return false, err
		}
	}
	for _, t := range types {
		p := definitionPath(dest, "", t.Identifier, "dimension_type")
		j, err := nbtconv.ToJSON(t.Data)
		if err != nil {
			return false, fmt.Errorf("dimension type %s: %w", t.Identifier, err)
		}
		if err = writeFile(fs, p, j); err != nil {
			return false, err
		}
	}
	for _, b := range biomes {
		p := definitionPath(dest, "", b.Identifier, filepath.Join("worldgen", "biome"))
		j, err := nbtconv.ToJSON(b.Data)
		if err != nil {
			return false, fmt.Errorf("biome %s: %w", b.Identifier, err)
		}
		if err = writeFile(fs, p, j); err != nil {
			return false, err
		}
	}
	r.log.Info("wrote dimension data", "path", dest,
		"dimensionTypes", len(types), "biomes", len(biomes))
	return true, nil
}

// vanilla reports whether d is one of the vanilla dimensions with a
// vanilla type, which a client can restore without a definition.
func (d *Dimension) vanilla() bool {
	switch d.Identifier {
	case Overworld, Nether, End:
	default:
		return false
	}
	typeName := d.Type()
	return typeName == "" || vanillaTypes[ParseIdentifier(typeName).String()]
}

func writeDimension(fs afero.Fs, dest string, d *Dimension) error {
	typeName := d.Type()
	if typeName == "" {
		typeName = d.Identifier.String()
	}
	j, err := json.MarshalIndent(map[string]any{
		"type":      ParseIdentifier(typeName).String(),
		"generator": voidGenerator,
	}, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(fs, definitionPath(dest, d.StoragePath(), d.Identifier, "dimension"), j)
}

func definitionPath(dest, world string, id Identifier, kind string) string {
	return filepath.Join(dest, world, DatapackDir, id.Namespace, kind, filepath.FromSlash(id.Name)+".json")
}

func writeFile(fs afero.Fs, path string, b []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directory for %q: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, b, 0o644); err != nil {
		return fmt.Errorf("error writing %q: %w", path, err)
	}
	return nil
}
