package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/util/errs"
)

func payload(id int, data []byte) []byte {
	var b bytes.Buffer
	_ = util.WriteVarInt(&b, id)
	b.Write(data)
	return b.Bytes()
}

func TestRoundTrip(t *testing.T) {
	small := payload(0x01, []byte(faker.Word()))
	large := payload(0x2B, bytes.Repeat([]byte(faker.Sentence()), 100))

	for _, threshold := range []int{-1, 0, 256} {
		var wire bytes.Buffer
		enc := NewEncoder(&wire, logr.Discard())
		require.NoError(t, enc.SetCompression(threshold, -1))
		for _, p := range [][]byte{small, large, small} {
			_, err := enc.Write(p)
			require.NoError(t, err)
		}

		dec := NewDecoder(&wire, logr.Discard())
		dec.SetCompressionThreshold(threshold)
		for _, want := range [][]byte{small, large, small} {
			got, err := dec.ReadPayload()
			require.NoError(t, err)
			assert.Equal(t, want, got, "threshold %d", threshold)
		}

		_, err := dec.ReadPayload()
		var silent *errs.SilentError
		require.ErrorAs(t, err, &silent)
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestCompressedFrameIsSmaller(t *testing.T) {
	large := payload(0x2B, bytes.Repeat([]byte{'a'}, 4096))
	var wire bytes.Buffer
	enc := NewEncoder(&wire, logr.Discard())
	require.NoError(t, enc.SetCompression(256, -1))
	n, err := enc.Write(large)
	require.NoError(t, err)
	assert.Less(t, n, len(large))
	assert.Equal(t, wire.Len(), n)
}

func TestUncompressedFrameLayout(t *testing.T) {
	var wire bytes.Buffer
	enc := NewEncoder(&wire, logr.Discard())
	_, err := enc.Write([]byte{0x00, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x00, 0x01, 0x02}, wire.Bytes())

	wire.Reset()
	require.NoError(t, enc.SetCompression(64, -1))
	_, err = enc.Write([]byte{0x00, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x00, 0x00, 0x01, 0x02}, wire.Bytes())
}

func TestDecoderSkipsEmptyFrames(t *testing.T) {
	dec := NewDecoder(bytes.NewReader([]byte{0x00, 0x00, 0x02, 0x05, 0x06}), logr.Discard())
	got, err := dec.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0x06}, got)
}

func TestDecoderRejectsInvalidFrames(t *testing.T) {
	// negative length
	dec := NewDecoder(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}), logr.Discard())
	_, err := dec.ReadPayload()
	require.Error(t, err)

	// truncated payload
	dec = NewDecoder(bytes.NewReader([]byte{0x05, 0x01}), logr.Discard())
	_, err = dec.ReadPayload()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// uncompressed payload above the threshold
	dec = NewDecoder(bytes.NewReader([]byte{0x04, 0x00, 0x01, 0x02, 0x03}), logr.Discard())
	dec.SetCompressionThreshold(2)
	_, err = dec.ReadPayload()
	require.Error(t, err)
}
