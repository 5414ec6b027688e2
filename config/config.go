// Package config holds the shape the Session Pool and Main Client share
// to reach a PLC: application identity, security posture, client
// behavior, and transport quotas (spec.md §6). Check applies the
// teacher's "default each unspecified value, panic on anything out of
// range" pattern (session/config.go TCPConfig.check()).
package config

import "time"

// SecurityConfiguration controls certificate handling (spec.md §6).
type SecurityConfiguration struct {
	// ApplicationCertificateStore is the path the client's own
	// certificate and private key are loaded from.
	ApplicationCertificateStore string
	// TrustedCertificateStore is the path of server certificates this
	// client accepts without further prompting.
	TrustedCertificateStore string
	// AutoAcceptUntrustedCertificates skips the trust-store check
	// entirely. Defaults false; never silently enabled by Check.
	AutoAcceptUntrustedCertificates bool
	// MinimumKeySize in bits. The standard recommends 2048.
	MinimumKeySize int
	// RejectSHA1SignedCertificates refuses certificates signed with the
	// deprecated SHA-1 algorithm.
	RejectSHA1SignedCertificates bool
	// SkipDomainValidation disables the host-name-matches-certificate
	// check (spec.md §4.4: "host-name-invalid errors are fatal iff
	// domain validation is enabled").
	SkipDomainValidation bool
}

func (s *SecurityConfiguration) check() {
	if s.MinimumKeySize == 0 {
		s.MinimumKeySize = 2048
	} else if s.MinimumKeySize < 1024 {
		panic("config: MinimumKeySize below 1024 bits is not supported")
	}
}

// ClientConfiguration controls session behavior (spec.md §6).
type ClientConfiguration struct {
	// SessionTimeout is the OPC UA session's requested lifetime.
	SessionTimeout time.Duration
	// DiscoveryURLs seeds endpoint discovery when the connect URL itself
	// does not answer GetEndpoints.
	DiscoveryURLs []string
	// OperationLimitMaxNodesPerRead/Write/Browse cap batch sizes; zero
	// means "let the server decide".
	OperationLimitMaxNodesPerRead  uint32
	OperationLimitMaxNodesPerWrite uint32
	OperationLimitMaxNodesPerBrowse uint32
}

func (c *ClientConfiguration) check() {
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 60 * time.Second
	} else if c.SessionTimeout < time.Second {
		panic("config: SessionTimeout below 1s is not supported")
	}
}

// TransportQuotas bounds message and buffer sizes exchanged with the
// server (spec.md §6).
type TransportQuotas struct {
	MaxMessageSize   uint32
	MaxBufferSize    uint32
	ChannelLifetime  time.Duration
	SecurityTokenLifetime time.Duration
}

func (t *TransportQuotas) check() {
	if t.MaxMessageSize == 0 {
		t.MaxMessageSize = 4 * 1024 * 1024
	}
	if t.MaxBufferSize == 0 {
		t.MaxBufferSize = 64 * 1024
	}
	if t.ChannelLifetime == 0 {
		t.ChannelLifetime = 6 * time.Hour
	}
	if t.SecurityTokenLifetime == 0 {
		t.SecurityTokenLifetime = 1 * time.Hour
	}
}

// ApplicationConfiguration is the top-level value type the Session Pool
// and Main Client both build sessions from, so they share one identity
// (spec.md §4.3, §4.4, §6).
type ApplicationConfiguration struct {
	ApplicationName string
	ApplicationURI  string
	ProductURI      string

	Security  SecurityConfiguration
	Client    ClientConfiguration
	Transport TransportQuotas

	// MaxPoolSize is the Session Pool's fixed session count.
	MaxPoolSize int
	// ReconnectPeriod is the base delay the Main Client waits between
	// reconnect attempts after a keep-alive failure.
	ReconnectPeriod time.Duration
	// ReconnectBackoffMax caps the exponential backoff applied on
	// repeated reconnect failures; zero disables backoff growth.
	ReconnectBackoffMax time.Duration
}

// Check applies defaults for every unspecified value and panics for
// anything out of range, the same contract as the teacher's
// TCPConfig.check (session/config.go).
func (a *ApplicationConfiguration) Check() *ApplicationConfiguration {
	if a.ApplicationName == "" {
		a.ApplicationName = "s7ua-client"
	}
	if a.ApplicationURI == "" {
		a.ApplicationURI = "urn:" + a.ApplicationName
	}
	if a.ProductURI == "" {
		a.ProductURI = "urn:s7ua-go:s7ua"
	}

	if a.MaxPoolSize == 0 {
		a.MaxPoolSize = 4
	} else if a.MaxPoolSize < 1 {
		panic("config: MaxPoolSize must be >= 1")
	}

	if a.ReconnectPeriod == 0 {
		a.ReconnectPeriod = 5 * time.Second
	} else if a.ReconnectPeriod < 100*time.Millisecond {
		panic("config: ReconnectPeriod below 100ms is not supported")
	}

	a.Security.check()
	a.Client.check()
	a.Transport.check()
	return a
}
