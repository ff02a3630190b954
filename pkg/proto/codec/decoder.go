// Package codec reads and writes length-prefixed Minecraft frames,
// handling the optional zlib compression negotiated at login.
package codec

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
	"go.uber.org/atomic"

	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/util/errs"
)

const (
	VanillaMaximumUncompressedSize = 8 * 1024 * 1024 // 8MiB
	UncompressedCap                = VanillaMaximumUncompressedSize
	maxFrameLength                 = 2097151 // 3 byte VarInt
)

// Decoder is a synchronized frame decoder.
//
// The compression threshold may be changed while a read is blocked;
// it applies to the frame that read returns.
type Decoder struct {
	log                  logr.Logger
	compressionThreshold atomic.Int64 // negative if compression is disabled

	mu  sync.Mutex // Protects following fields and locked while reading a frame.
	rd  io.Reader
	zrd io.ReadCloser
}

// NewDecoder returns a Decoder reading frames from r.
func NewDecoder(r io.Reader, log logr.Logger) *Decoder {
	d := &Decoder{rd: r, log: log.WithName("decoder")}
	d.compressionThreshold.Store(-1)
	return d
}

// Reader returns the underlying reader. Bytes of frames not yet
// decoded are still buffered there.
func (d *Decoder) Reader() io.Reader {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rd
}

// SetCompressionThreshold enables compression for frames read afterwards.
// A negative threshold disables it.
func (d *Decoder) SetCompressionThreshold(threshold int) {
	d.compressionThreshold.Store(int64(threshold))
}

// ReadPayload reads the next frame and returns its uncompressed payload,
// the packet id followed by the packet data. Empty frames are skipped.
func (d *Decoder) ReadPayload() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var retries int
	for {
		payload, err := d.readPayload()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errs.WrapSilent(err)
			}
			return nil, err
		}
		if len(payload) != 0 {
			return payload, nil
		}
		if retries > 10 {
			return nil, errors.New("got too many empty frames")
		}
		retries++
	}
}

func (d *Decoder) readPayload() ([]byte, error) {
	payload, err := readVarIntFrame(d.rd)
	if err != nil {
		return nil, err
	}
	threshold := int(d.compressionThreshold.Load())
	if len(payload) == 0 || threshold < 0 {
		return payload, nil
	}
	// payload contains: claimedUncompressedSize + (compressed packet id & data)
	buf := bytes.NewBuffer(payload)
	claimedUncompressedSize, err := util.ReadVarInt(buf)
	if err != nil {
		return nil, fmt.Errorf("error reading claimed uncompressed size varint: %w", err)
	}
	if claimedUncompressedSize <= 0 {
		if actual := buf.Len(); actual > threshold {
			return nil, fmt.Errorf("actual uncompressed size %d is greater than threshold %d",
				actual, threshold)
		}
		return buf.Bytes(), nil
	}
	return d.decompress(claimedUncompressedSize, threshold, buf)
}

func readVarIntFrame(rd io.Reader) ([]byte, error) {
	length, err := util.ReadVarInt(rd)
	if err != nil {
		return nil, fmt.Errorf("error reading frame length: %w", err)
	}
	if length == 0 {
		return nil, nil
	}
	if length < 0 || length > maxFrameLength {
		return nil, fmt.Errorf("received invalid frame length %d", length)
	}
	payload := make([]byte, length)
	if _, err = io.ReadFull(rd, payload); err != nil {
		return nil, fmt.Errorf("error reading payload: %w", err)
	}
	return payload, nil
}

func (d *Decoder) decompress(claimedUncompressedSize, threshold int, rd io.Reader) (decompressed []byte, err error) {
	if claimedUncompressedSize < threshold {
		return nil, fmt.Errorf("uncompressed size %d is less than set threshold %d",
			claimedUncompressedSize, threshold)
	}
	if claimedUncompressedSize > UncompressedCap {
		return nil, fmt.Errorf("uncompressed size %d exceeds hard threshold of %d",
			claimedUncompressedSize, UncompressedCap)
	}

	if d.zrd == nil {
		d.zrd, err = zlib.NewReader(rd)
		if err != nil {
			return nil, err
		}
	} else if err = d.zrd.(zlib.Resetter).Reset(rd, nil); err != nil {
		return nil, fmt.Errorf("error reseting zlib reader: %w", err)
	}

	decompressed = make([]byte, claimedUncompressedSize)
	if _, err = io.ReadFull(d.zrd, decompressed); err != nil {
		return nil, fmt.Errorf("error decompressing payload: %w", err)
	}
	return decompressed, d.zrd.Close()
}
