package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureIgnoresKeyOrder(t *testing.T) {
	a := map[string]any{"height": 256, "natural": true, "effects": "minecraft:overworld"}
	b := map[string]any{"effects": "minecraft:overworld", "natural": true, "height": 256}

	sa, err := Signature(a)
	require.NoError(t, err)
	sb, err := Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sa, sb)

	b["height"] = 384
	sc, err := Signature(b)
	require.NoError(t, err)
	assert.NotEqual(t, sa, sc)
}

func TestSignatureRejectsUnencodable(t *testing.T) {
	_, err := Signature(map[string]any{"f": func() {}})
	require.Error(t, err)
}
