package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/pires/go-proxyproto"

	"go.minekube.com/worldtap/pkg/proto/util"
	"go.minekube.com/worldtap/pkg/util/errs"
)

// IsConnectionRefused returns true if err indicates a connection refused error.
func IsConnectionRefused(err error) bool {
	return err != nil && (errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(strings.ToLower(err.Error()), "connection refused"))
}

// dialBackend connects to the backend and, when proxyProtocol is set,
// announces the client address with a PROXY protocol v2 header.
func dialBackend(
	ctx context.Context,
	dialTimeout time.Duration,
	srcAddr net.Addr,
	backendAddr string,
	proxyProtocol bool,
) (dst net.Conn, err error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	var dialer net.Dialer
	dst, err = dialer.DialContext(dialCtx, "tcp", backendAddr)
	if err != nil {
		err = fmt.Errorf("failed to connect to backend %s: %w", backendAddr, err)
		if IsConnectionRefused(err) {
			err = errs.WrapSilent(err)
		}
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = dst.Close()
		}
	}()

	if proxyProtocol {
		header := proxyHeader(srcAddr, dst.RemoteAddr())
		if _, err = header.WriteTo(dst); err != nil {
			return nil, fmt.Errorf("failed to write proxy protocol header to backend: %w", err)
		}
	}
	return dst, nil
}

func proxyHeader(srcAddr, destAddr net.Addr) *proxyproto.Header {
	header := proxyproto.HeaderProxyFromAddrs(2, srcAddr, destAddr)
	src, srcOK := srcAddr.(*net.TCPAddr)
	dst, dstOK := destAddr.(*net.TCPAddr)
	// on mismatch v4 to v6: use v6
	if srcOK && dstOK && len(src.IP.To4()) == net.IPv4len && dst.IP.To4() == nil {
		header.TransportProtocol = proxyproto.TCPv6
		header.SourceAddr = &net.TCPAddr{IP: src.IP.To16(), Port: src.Port, Zone: src.Zone}
	}
	return header
}

// writePacket writes payload as one uncompressed frame.
func writePacket(dst io.Writer, payload []byte) error {
	err := util.WriteVarInt(dst, len(payload))
	if err != nil {
		return fmt.Errorf("failed to write packet length: %w", err)
	}
	_, err = dst.Write(payload)
	if err != nil {
		return fmt.Errorf("failed to write packet payload: %w", err)
	}
	return nil
}

// pipe copies bytes in both directions until either side ends,
// then closes both.
func pipe(log logr.Logger, client, backend net.Conn, clientRd, backendRd io.Reader) {
	var zero time.Time
	_ = client.SetDeadline(zero)
	_ = backend.SetDeadline(zero)

	done := make(chan struct{}, 2)
	go func() {
		n, err := io.Copy(client, backendRd)
		log.V(1).Info("done copying backend -> client", "bytes", n, "error", err)
		done <- struct{}{}
	}()
	go func() {
		n, err := io.Copy(backend, clientRd)
		log.V(1).Info("done copying client -> backend", "bytes", n, "error", err)
		done <- struct{}{}
	}()

	<-done
	_ = client.Close()
	_ = backend.Close()
	<-done
}
