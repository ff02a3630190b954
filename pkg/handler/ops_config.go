package handler

import (
	"fmt"

	"go.minekube.com/worldtap/pkg/world/dimension"
)

// Registries read from an indexed RegistryData stream.
const (
	dimensionTypeRegistry = "minecraft:dimension_type"
	biomeRegistry         = "minecraft:worldgen/biome"
)

// registryCodec reads the whole registry codec sent as one tag.
func registryCodec(c *Context) (Result, error) {
	codec, err := c.Cursor.NBT()
	if err != nil {
		return Result{}, err
	}
	if err = c.World().Registry().ReadCodec(codec); err != nil {
		return Result{}, err
	}
	return Forward(), nil
}

// registryStream reads one registry of the indexed registry stream.
func registryStream(c *Context) (Result, error) {
	cur := c.Cursor
	registry, err := cur.Identifier()
	if err != nil {
		return Result{}, err
	}
	id := dimension.ParseIdentifier(registry).String()
	if id != dimensionTypeRegistry && id != biomeRegistry {
		return Forward(), nil
	}

	n, err := cur.VarInt()
	if err != nil {
		return Result{}, err
	}
	if n < 0 || n > cur.Remaining() {
		return Result{}, fmt.Errorf("registry %s: invalid entry count %d", id, n)
	}
	entries := make([]dimension.RegistryEntry, n)
	for i := range entries {
		if entries[i].Name, err = cur.Identifier(); err != nil {
			return Result{}, err
		}
		hasData, err := cur.Bool()
		if err != nil {
			return Result{}, err
		}
		if !hasData {
			continue
		}
		data, err := cur.NBT()
		if err != nil {
			return Result{}, err
		}
		entries[i].Data = &data
	}

	reg := c.World().Registry()
	if id == dimensionTypeRegistry {
		reg.LoadDimensionTypes(entries)
	} else {
		reg.LoadBiomes(entries)
	}
	return Forward(), nil
}
