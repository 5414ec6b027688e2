package opcuaclient

import (
	"errors"
	"fmt"
)

// ErrNotConnected signals an operation that requires a live connection
// was invoked while the Main Client was not Connected (spec.md §7, kind 1).
var ErrNotConnected = errors.New("opcuaclient: not connected")

// ErrDisposed signals an operation invoked after Close (spec.md §7, kind 9).
var ErrDisposed = errors.New("opcuaclient: client disposed")

// ErrPoolExhausted is the sentinel behind PoolExhaustedError.
var ErrPoolExhausted = errors.New("opcuaclient: session pool exhausted")

// PoolExhaustedError reports that the Session Pool could not initialize
// or recreate a session, carrying the server's own complaint when one
// was available (spec.md §4.3, §7 kind 6).
type PoolExhaustedError struct {
	PoolSize int
	Cause    error
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("opcuaclient: session pool (size %d) exhausted, reduce MaxPoolSize or check server session limits: %v", e.PoolSize, e.Cause)
}

func (e *PoolExhaustedError) Unwrap() error { return ErrPoolExhausted }

// ErrCertificateRejected is the sentinel behind CertificateRejectedError
// (spec.md §7, kind 7).
var ErrCertificateRejected = errors.New("opcuaclient: server certificate rejected")

// CertificateRejectedError reports a host-name mismatch or an untrusted
// certificate with auto-accept disabled.
type CertificateRejectedError struct {
	Endpoint string
	Reason   string
}

func (e *CertificateRejectedError) Error() string {
	return fmt.Sprintf("opcuaclient: certificate for %s rejected: %s", e.Endpoint, e.Reason)
}

func (e *CertificateRejectedError) Unwrap() error { return ErrCertificateRejected }

// ProtocolError wraps an OPC UA Bad status code returned by a call
// (spec.md §7, kind 5).
type ProtocolError struct {
	Operation string
	Code      uint32
	Symbol    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("opcuaclient: %s returned %s (0x%08x)", e.Operation, e.Symbol, e.Code)
}
