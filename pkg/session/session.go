// Package session ties one proxied client and server pairing to its
// world state and to the dispatchers of both directions.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gammazero/deque"
	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/atomic"

	"go.minekube.com/worldtap/pkg/handler"
	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/packetid"
	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/world"
	"go.minekube.com/worldtap/pkg/world/dimension"
)

// DefaultHistorySize is the number of packets a session remembers for diagnostics.
const DefaultHistorySize = 16

const noCompression = math.MinInt32

// Options configure a Session.
type Options struct {
	Protocol proto.Protocol
	State    proto.State // State the session starts in, usually login.
	Tables   *handler.Tables
	Names    packetid.Names
	// Settings returns the current runtime settings. It is called for
	// every packet that needs them, so reloaded settings apply at once.
	Settings func() handler.Settings

	// Fs and OutputDir locate the snapshot written by Close.
	// Nothing is written if OutputDir is empty.
	Fs        afero.Fs
	OutputDir string

	HistorySize int
	Logger      logr.Logger
	Event       event.Manager
}

// Session is one proxied pairing. It implements handler.Session.
type Session struct {
	id        xid.ID
	log       logr.Logger
	event     event.Manager
	protocol  proto.Protocol
	settings  func() handler.Settings
	world     *world.World
	fs        afero.Fs
	outputDir string

	state       atomic.Uint32
	compression atomic.Int32
	passthrough atomic.Bool

	clientbound *handler.Dispatcher
	serverbound *handler.Dispatcher

	historyMu   sync.Mutex
	history     deque.Deque[string]
	historySize int

	closeOnce sync.Once
	closeErr  error
}

var _ handler.Session = (*Session)(nil)

// New returns a Session for a pairing that negotiated opts.Protocol.
func New(opts Options) (*Session, error) {
	if opts.Tables == nil || opts.Names == nil {
		return nil, errors.New("session needs operator tables and packet names")
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Event == nil {
		opts.Event = event.Nop
	}
	if opts.Settings == nil {
		opts.Settings = func() handler.Settings { return handler.Settings{} }
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}

	id := xid.New()
	log := opts.Logger.WithValues("session", id.String())
	s := &Session{
		id:          id,
		log:         log,
		event:       opts.Event,
		protocol:    opts.Protocol,
		settings:    opts.Settings,
		fs:          opts.Fs,
		outputDir:   opts.OutputDir,
		historySize: opts.HistorySize,
		world: world.New(dimension.Options{
			Logger: log.WithName("world"),
			Event:  opts.Event,
		}),
	}
	s.state.Store(uint32(opts.State))
	s.compression.Store(noCompression)

	var err error
	if s.clientbound, err = handler.NewDispatcher(log, proto.ClientBound, s, opts.Tables, opts.Names); err != nil {
		return nil, err
	}
	if s.serverbound, err = handler.NewDispatcher(log, proto.ServerBound, s, opts.Tables, opts.Names); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the unique id of the session.
func (s *Session) ID() xid.ID { return s.id }

// Protocol implements handler.Session.
func (s *Session) Protocol() proto.Protocol { return s.protocol }

// State implements handler.Session.
func (s *Session) State() proto.State { return proto.State(s.state.Load()) }

// SetState implements handler.Session.
func (s *Session) SetState(state proto.State) {
	prev := proto.State(s.state.Swap(uint32(state)))
	if prev != state {
		s.event.Fire(&StateChangedEvent{Session: s, Previous: prev, State: state})
	}
}

// World implements handler.Session.
func (s *Session) World() *world.World { return s.world }

// Settings implements handler.Session.
func (s *Session) Settings() handler.Settings { return s.settings() }

// SetCompression implements handler.Session.
func (s *Session) SetCompression(threshold int) {
	s.compression.Store(int32(threshold))
}

// TakeCompression returns and clears the compression threshold requested
// by the last packet.
func (s *Session) TakeCompression() (int, bool) {
	threshold := s.compression.Swap(noCompression)
	return int(threshold), threshold != noCompression
}

// Passthrough implements handler.Session.
func (s *Session) Passthrough() { s.passthrough.Store(true) }

// PassthroughRequested reports whether packets must no longer be decoded.
func (s *Session) PassthroughRequested() bool { return s.passthrough.Load() }

// Handle dispatches one packet payload received from dir's source and
// returns the bytes to send on, nil to send nothing.
func (s *Session) Handle(ctx context.Context, dir proto.Direction, payload []byte) ([]byte, error) {
	d := s.clientbound
	if dir == proto.ServerBound {
		d = s.serverbound
	}
	s.record(dir, payload)
	out, err := d.Dispatch(ctx, payload)
	if err != nil {
		s.log.Error(err, "could not follow the packet stream",
			"direction", dir, "state", s.State(), "lastPackets", strings.Join(s.History(), ", "))
		return nil, err
	}
	return out, nil
}

func (s *Session) record(dir proto.Direction, payload []byte) {
	entry := fmt.Sprintf("%s/%s/? (%d bytes)", dir, s.State(), len(payload))
	if id, err := util.ReadVarInt(bytes.NewReader(payload)); err == nil {
		entry = fmt.Sprintf("%s/%s/%s (%d bytes)", dir, s.State(), proto.PacketID(id), len(payload))
	}
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	if s.history.Len() >= s.historySize {
		s.history.PopFront()
	}
	s.history.PushBack(entry)
}

// History returns the most recent packets, oldest first.
func (s *Session) History() []string {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	h := make([]string, s.history.Len())
	for i := range h {
		h[i] = s.history.At(i)
	}
	return h
}

// SnapshotDir returns the directory Close writes the world snapshot to.
func (s *Session) SnapshotDir() string {
	if s.outputDir == "" {
		return ""
	}
	return filepath.Join(s.outputDir, s.id.String())
}

// Close writes the world snapshot once. Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		dir := s.SnapshotDir()
		if dir == "" {
			return
		}
		written, err := s.world.Registry().Write(s.fs, dir)
		if err != nil {
			s.closeErr = fmt.Errorf("error writing world snapshot: %w", err)
			return
		}
		if written {
			s.log.Info("wrote world snapshot", "path", dir)
		}
		s.event.Fire(&SnapshotEvent{Session: s, Path: dir, Written: written})
	})
	return s.closeErr
}
