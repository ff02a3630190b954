// Package proxy accepts Minecraft clients, pairs each with a connection
// to the configured backend and relays their packet streams through a
// session that records the world the server describes.
package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"golang.org/x/net/netutil"

	"go.minekube.com/worldtap/pkg/config"
	"go.minekube.com/worldtap/pkg/handler"
	"go.minekube.com/worldtap/pkg/internal/addrquota"
	"go.minekube.com/worldtap/pkg/proto/codec"
	"go.minekube.com/worldtap/pkg/proto/packetid"
	"go.minekube.com/worldtap/pkg/proto/version"
	"go.minekube.com/worldtap/pkg/session"
	"go.minekube.com/worldtap/pkg/util/errs"
)

// Options configure a Proxy.
type Options struct {
	// Config returns the current config. Bind, quota and session cap are
	// read once when serving starts; everything else for every connection.
	Config func() *config.Config
	Tables *handler.Tables
	Names  packetid.Names
	Fs     afero.Fs // Receives world snapshots. Defaults to the OS filesystem.
	Logger logr.Logger
	Event  event.Manager
}

// Proxy is a world downloading proxy in front of a single backend.
type Proxy struct {
	log    logr.Logger
	event  event.Manager
	config func() *config.Config
	tables *handler.Tables
	names  packetid.Names
	fs     afero.Fs

	mu       sync.RWMutex // Protects following fields
	sessions map[xid.ID]*session.Session
}

// New returns a new Proxy.
func New(opts Options) (*Proxy, error) {
	if opts.Config == nil {
		return nil, errors.New("proxy needs a config")
	}
	if opts.Tables == nil || opts.Names == nil {
		return nil, errors.New("proxy needs operator tables and packet names")
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Event == nil {
		opts.Event = event.Nop
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &Proxy{
		log:      opts.Logger,
		event:    opts.Event,
		config:   opts.Config,
		tables:   opts.Tables,
		names:    opts.Names,
		fs:       opts.Fs,
		sessions: map[xid.ID]*session.Session{},
	}, nil
}

// ListenAndServe listens on the configured bind address and serves
// connections until ctx is canceled.
func (p *Proxy) ListenAndServe(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	ln, err := net.Listen("tcp", p.config().Bind)
	if err != nil {
		return err
	}
	return p.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled. It closes ln.
func (p *Proxy) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	cfg := p.config()
	if cfg.MaxSessions > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxSessions)
	}
	var quota *addrquota.Quota
	if q := cfg.Quota.Connections; q.Enabled {
		quota = addrquota.NewQuota(q.OPS, q.Burst, q.MaxEntries)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	p.event.Fire(&ReadyEvent{Addr: ln.Addr()})
	p.log.Info("listening for connections", "addr", ln.Addr().String(), "backend", cfg.Backend)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errs.IsConnClosedErr(err) {
				// Listener was closed
				return nil
			}
			return fmt.Errorf("error accepting new connection: %w", err)
		}
		if quota != nil && quota.Blocked(conn.RemoteAddr()) {
			_ = conn.Close()
			p.log.Info("a connection exceeded the rate limit", "remoteAddr", conn.RemoteAddr().String())
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.HandleConn(ctx, conn)
		}()
	}
}

// HandleConn serves a just-accepted client connection that has not
// had any I/O performed on it yet. It closes conn.
func (p *Proxy) HandleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	cfg := p.config()
	log := p.log.WithValues("remoteAddr", conn.RemoteAddr().String())

	clientRd := bufio.NewReader(conn)
	legacy, err := isLegacyPing(clientRd)
	if err != nil {
		errs.V(log, err).Info("failed to read from client", "error", err)
		return
	}

	var hs *Handshake
	if !legacy {
		if hs, err = readHandshake(codec.NewDecoder(clientRd, log)); err != nil {
			errs.V(log, err).Info("failed to read handshake", "error", err)
			return
		}
		log = log.WithValues("protocol", version.Protocol(hs.ProtocolVersion).String())
	}

	backend, err := dialBackend(ctx, cfg.ConnectionTimeout, conn.RemoteAddr(), cfg.Backend, cfg.ProxyProtocol)
	if err != nil {
		errs.V(log, err).Info("failed to connect to backend", "error", err)
		return
	}
	defer backend.Close()

	if hs != nil {
		if err = writePacket(backend, hs.Payload()); err != nil {
			errs.V(log, err).Info("failed to replay handshake", "error", err)
			return
		}
	}

	switch {
	case hs == nil:
		log.V(1).Info("relaying legacy ping")
	case !hs.Login():
		log.V(1).Info("relaying status request")
	case !version.Protocol(hs.ProtocolVersion).Supported():
		log.Info("unsupported protocol version, relaying without recording",
			"supported", version.SupportedVersionsString)
	default:
		p.intercept(ctx, log, conn, backend, clientRd, hs)
		return
	}
	pipe(log, conn, backend, clientRd, backend)
}

// Sessions returns the sessions currently relaying.
func (p *Proxy) Sessions() []*session.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := make([]*session.Session, 0, len(p.sessions))
	for _, ss := range p.sessions {
		s = append(s, ss)
	}
	return s
}

func (p *Proxy) track(s *session.Session) (untrack func()) {
	p.mu.Lock()
	p.sessions[s.ID()] = s
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.sessions, s.ID())
		p.mu.Unlock()
	}
}
