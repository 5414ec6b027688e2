// Package ports declares the narrow interfaces through which this module
// reaches collaborators it does not own: the OPC UA stack and the host
// file system. Production callers supply
// concrete adapters; tests supply the fakes in ports/fake.
package ports

import (
	"context"
	"io"
	"time"
)

// BrowseMask narrows a Browse call to a reference class, e.g. variables
// only or objects only. The zero value browses everything.
type BrowseMask uint8

const (
	BrowseAny BrowseMask = iota
	BrowseVariables
	BrowseObjects
)

// NodeRef is a single browse result: a child reference together with
// enough attribute data to build a Shell (see package discover).
type NodeRef struct {
	NodeID      string
	DisplayName string
	IsVariable  bool
	// ArrayDimensions mirrors the OPC UA VariableAttributes field of the
	// same name, when the referenced node is a variable. Empty for
	// scalars and for object references.
	ArrayDimensions []int
}

// DataValue is a single read result.
type DataValue struct {
	NodeID  string
	Value   Value
	Quality Quality
}

// Quality mirrors the OPC UA StatusCode severity bucket the spec surfaces
// on every Variable (spec.md §3: Good/Bad/Uncertain).
type Quality uint8

const (
	QualityGood Quality = iota
	QualityUncertain
	QualityBad
)

// StatusCode is a raw OPC UA status code together with its symbolic name,
// the shape the persistence format serializes it in (spec.md §6).
type StatusCode struct {
	Code   uint32
	Symbol string
}

// Notification is a single monitored-item value-change delivery.
type Notification struct {
	NodeID    string
	Value     Value
	Quality   Quality
	Timestamp time.Time
}

// SubscriptionHandle opaquely identifies a server-side subscription.
type SubscriptionHandle uint32

// OPCUAConn is the subset of an OPC UA client session this module drives.
// A concrete implementation wraps whatever underlying OPC UA stack the
// host chooses; this module never constructs the wire protocol itself.
type OPCUAConn interface {
	Browse(ctx context.Context, nodeID string, mask BrowseMask) ([]NodeRef, error)
	Read(ctx context.Context, nodeIDs []string) ([]DataValue, error)
	Write(ctx context.Context, nodeID string, v Value) (StatusCode, error)

	CreateSubscription(ctx context.Context, interval time.Duration) (SubscriptionHandle, error)
	AddMonitoredItem(ctx context.Context, sub SubscriptionHandle, nodeID string, sampling time.Duration) error
	RemoveMonitoredItem(ctx context.Context, sub SubscriptionHandle, nodeID string) error
	Notifications() <-chan Notification

	// KeepAlive streams a nil error on every successful keep-alive beat,
	// and a non-nil, terminal error exactly once when the underlying
	// channel is judged dead. The channel is closed after that one error.
	KeepAlive() <-chan error

	Close(ctx context.Context, leaveChannelOpen bool) error
	Connected() bool
}

// SessionFactory opens a fresh OPCUAConn against one pre-selected
// endpoint and application identity. The Session Pool and the Main
// Client both consume sessions through this indirection so that tests
// can substitute ports/fake without a live server.
type SessionFactory interface {
	NewSession(ctx context.Context) (OPCUAConn, error)
	EndpointURL() string
}

// CertificateFailure is the error a concrete SessionFactory returns from
// NewSession when the underlying OPC UA stack's handshake rejected the
// peer certificate, rather than some other connection failure (refused,
// timed out, protocol mismatch). This module owns no TLS stack itself,
// so it cannot classify a failure as certificate-related on its own; a
// real factory wraps the library's own certificate error in this type so
// the Main Client can weigh it against its configured security policy
// instead of treating every NewSession error the same way (spec.md §4.4,
// §7 kind 7).
type CertificateFailure struct {
	// HostNameMismatch is true when the certificate is otherwise trusted
	// but its subject does not match the connection's host name.
	HostNameMismatch bool
	// Untrusted is true when the certificate chain does not terminate in
	// a trusted issuer (self-signed, unknown CA, expired).
	Untrusted bool
	Reason    string
}

func (e *CertificateFailure) Error() string {
	return "ports: certificate rejected: " + e.Reason
}

// FileSystem is the minimal streaming abstraction named in spec.md §6.
type FileSystem interface {
	Exists(path string) bool
	Create(path string) (io.WriteCloser, error)
	OpenRead(path string) (io.ReadCloser, error)
}
