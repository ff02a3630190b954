package codec

import (
	"bytes"
	"compress/zlib"
	"io"
	"sync"

	"github.com/go-logr/logr"

	"go.minekube.com/worldtap/pkg/proto/util"
)

// Encoder is a synchronized frame encoder.
type Encoder struct {
	log logr.Logger

	mu          sync.Mutex // Protects following fields
	wr          io.Writer
	compression struct {
		enabled   bool
		threshold int
		writer    *zlib.Writer
	}
}

// NewEncoder returns an Encoder writing frames to w.
func NewEncoder(w io.Writer, log logr.Logger) *Encoder {
	return &Encoder{wr: w, log: log.WithName("encoder")}
}

// SetCompression enables compression of frames written afterwards.
// A negative threshold disables it.
func (e *Encoder) SetCompression(threshold, level int) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compression.threshold = threshold
	e.compression.enabled = threshold >= 0
	if e.compression.enabled {
		e.compression.writer, err = zlib.NewWriterLevel(e.wr, level)
	}
	return err
}

// Write encodes payload as one frame and writes it to the underlying writer.
// The payload must start with the packet id VarInt followed by the packet data.
func (e *Encoder) Write(payload []byte) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.compression.enabled {
		return e.writeCompressed(payload)
	}
	var frame bytes.Buffer
	frame.Grow(util.VarIntSize(len(payload)) + len(payload))
	_ = util.WriteVarInt(&frame, len(payload)) // frame length
	frame.Write(payload)
	m, err := frame.WriteTo(e.wr)
	return int(m), err
}

// see https://minecraft.wiki/w/Java_Edition_protocol#With_compression
func (e *Encoder) writeCompressed(payload []byte) (int, error) {
	var frame bytes.Buffer
	uncompressedSize := len(payload)
	if uncompressedSize < e.compression.threshold {
		_ = util.WriteVarInt(&frame, uncompressedSize+1) // frame length
		_ = util.WriteVarInt(&frame, 0)                  // not compressed
		frame.Write(payload)
		m, err := frame.WriteTo(e.wr)
		return int(m), err
	}

	var body bytes.Buffer
	_ = util.WriteVarInt(&body, uncompressedSize) // data length
	e.compression.writer.Reset(&body)
	if _, err := e.compression.writer.Write(payload); err != nil {
		return 0, err
	}
	if err := e.compression.writer.Close(); err != nil {
		return 0, err
	}
	_ = util.WriteVarInt(&frame, body.Len()) // frame length
	_, _ = body.WriteTo(&frame)
	m, err := frame.WriteTo(e.wr)
	return int(m), err
}
