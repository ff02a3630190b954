// Package errs holds error helpers shared by the proxy layers.
package errs

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/go-logr/logr"
)

// SilentError is an error wrapper type that silences an
// error and only logs them in the debug log.
//
// It is used for connections that end the way connections end:
// a peer hanging up or a read racing a close.
type SilentError struct{ error }

func (e *SilentError) Error() string {
	return e.error.Error()
}

func NewSilentErr(format string, a ...interface{}) error {
	return &SilentError{fmt.Errorf(format, a...)}
}

func WrapSilent(wrappedErr error) error {
	if wrappedErr == nil {
		return nil
	}
	return &SilentError{wrappedErr}
}

func (e *SilentError) Unwrap() error { return e.error }

// IsSilent reports whether err only belongs in the debug log.
func IsSilent(err error) bool {
	var s *SilentError
	return errors.As(err, &s) || IsConnClosedErr(err)
}

// IsConnClosedErr reports whether err stems from a connection that was closed.
// see https://github.com/golang/go/issues/4373 for details
func IsConnClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return true
	}
	return err.Error() == "use of closed network connection" ||
		err.Error() == "read: connection reset by peer"
}

// V returns the logger to report err with: the debug level
// for silent errors, the default level otherwise.
func V(log logr.Logger, err error) logr.Logger {
	if IsSilent(err) {
		return log.V(1)
	}
	return log
}
