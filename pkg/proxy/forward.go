package proxy

import (
	"bufio"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"go.minekube.com/worldtap/pkg/handler"
	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/codec"
	"go.minekube.com/worldtap/pkg/session"
	"go.minekube.com/worldtap/pkg/util/errs"
)

// errPassthrough ends a packet pump that switched to raw relaying.
var errPassthrough = errs.NewSilentErr("switched to raw relay")

// pairing holds the four codec ends of one intercepted connection.
type pairing struct {
	log     logr.Logger
	session *session.Session

	client, backend       net.Conn
	clientDec, backendDec *codec.Decoder
	clientEnc, backendEnc *codec.Encoder
}

// intercept relays a login through a new session, recording the world
// the backend describes, and writes the snapshot on teardown.
func (p *Proxy) intercept(
	ctx context.Context,
	log logr.Logger,
	client, backend net.Conn,
	clientRd *bufio.Reader,
	hs *Handshake,
) {
	cfg := p.config()
	s, err := session.New(session.Options{
		Protocol:  hs.ProtocolVersion,
		State:     proto.LoginState,
		Tables:    p.tables,
		Names:     p.names,
		Settings:  func() handler.Settings { return p.config().Settings() },
		Fs:        p.fs,
		OutputDir: cfg.OutputDir,
		Logger:    log,
		Event:     p.event,
	})
	if err != nil {
		log.Error(err, "failed to create session")
		pipe(log, client, backend, clientRd, backend)
		return
	}
	log = log.WithValues("session", s.ID().String())
	defer p.track(s)()
	p.event.Fire(&SessionOpenedEvent{Session: s, Handshake: hs, RemoteAddr: client.RemoteAddr()})
	log.Info("intercepting session", "address", hs.ServerAddress)

	pr := &pairing{
		log:        log,
		session:    s,
		client:     client,
		backend:    backend,
		clientDec:  codec.NewDecoder(clientRd, log),
		backendDec: codec.NewDecoder(bufio.NewReader(backend), log),
		clientEnc:  codec.NewEncoder(client, log),
		backendEnc: codec.NewEncoder(backend, log),
	}
	runErr := pr.run(ctx)
	errs.V(log, runErr).Info("session ended", "error", runErr)

	if err = s.Close(); err != nil {
		log.Error(err, "failed to write world snapshot", "path", s.SnapshotDir())
	}
	p.event.Fire(&SessionClosedEvent{Session: s, Err: runErr})
}

// run pumps both directions until either fails, then closes both
// connections and waits for the other pump.
func (pr *pairing) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := make(chan struct{})
	go func() {
		select {
		case <-gctx.Done():
		case <-stop:
		}
		_ = pr.client.Close()
		_ = pr.backend.Close()
	}()
	defer close(stop)

	g.Go(func() error {
		return pr.pump(gctx, proto.ClientBound, pr.backendDec, pr.clientEnc, pr.client)
	})
	g.Go(func() error {
		return pr.pump(gctx, proto.ServerBound, pr.clientDec, pr.backendEnc, pr.backend)
	})
	err := g.Wait()
	if errors.Is(err, errPassthrough) {
		return nil
	}
	return err
}

// pump relays the packets of one direction through the session.
// It always returns a non-nil error so the other direction stops too.
func (pr *pairing) pump(ctx context.Context, dir proto.Direction, dec *codec.Decoder, enc *codec.Encoder, dst io.Writer) error {
	for {
		if pr.session.PassthroughRequested() {
			return pr.relay(dir, dec, dst)
		}
		payload, err := dec.ReadPayload()
		if err != nil {
			return fmt.Errorf("error reading %s packet: %w", dir, err)
		}
		out, err := pr.session.Handle(ctx, dir, payload)
		if err != nil {
			return err
		}

		threshold, compress := 0, false
		if dir == proto.ClientBound {
			threshold, compress = pr.session.TakeCompression()
		}
		if compress {
			// The client compresses as soon as it has read this packet
			// and the backend already does.
			pr.clientDec.SetCompressionThreshold(threshold)
			if err = pr.backendEnc.SetCompression(threshold, zlib.DefaultCompression); err != nil {
				return err
			}
		}
		if out != nil {
			if _, err = enc.Write(out); err != nil {
				return fmt.Errorf("error writing %s packet: %w", dir, errs.WrapSilent(err))
			}
		}
		if compress {
			if err = pr.clientEnc.SetCompression(threshold, zlib.DefaultCompression); err != nil {
				return err
			}
			pr.backendDec.SetCompressionThreshold(threshold)
			pr.log.V(1).Info("enabled compression", "threshold", threshold)
		}
	}
}

// relay copies the remaining bytes of one direction unmodified.
func (pr *pairing) relay(dir proto.Direction, dec *codec.Decoder, dst io.Writer) error {
	pr.log.V(1).Info("relaying raw bytes", "direction", dir)
	n, err := io.Copy(dst, dec.Reader())
	pr.log.V(1).Info("done relaying", "direction", dir, "bytes", n, "error", err)
	return errPassthrough
}
