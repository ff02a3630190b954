package dimension

import (
	"strings"

	"go.minekube.com/common/minecraft/key"
)

// Identifier is a namespaced name such as minecraft:overworld.
type Identifier struct {
	Namespace string
	Name      string
}

// ParseIdentifier parses s, defaulting the namespace to minecraft.
// Identifiers that are not valid resource locations are split
// at the first colon rather than rejected.
func ParseIdentifier(s string) Identifier {
	if k, err := key.Parse(s); err == nil {
		return Identifier{Namespace: k.Namespace(), Name: k.Value()}
	}
	ns, name, ok := strings.Cut(s, ":")
	if !ok {
		return Identifier{Namespace: key.MinecraftNamespace, Name: s}
	}
	return Identifier{Namespace: ns, Name: name}
}

func (i Identifier) String() string {
	return i.Namespace + ":" + i.Name
}
