package opcuaclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua/config"
	"github.com/s7ua-go/s7ua/internal/metrics"
	"github.com/s7ua-go/s7ua/ports"
)

// ConnState is the Main Client's connection lifecycle (spec.md §4.4).
// Unlike the teacher's three-level {Down, Up, Exit} signal
// (session/tcp.go), the spec calls for a fourth, observable state that
// distinguishes the initial attempt from a later recovery attempt.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Reconnecting
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Reconnecting:
		return "Reconnecting"
	default:
		return "Unknown"
	}
}

// ConnStateListener is notified on every state transition. Listeners run
// synchronously on the client's own goroutine, in registration order —
// the same call-them-all-in-a-slice shape as the teacher's Delegate
// (delegate.go), generalized from "one handler per object address" to
// "every handler for every transition".
type ConnStateListener func(from, to ConnState)

// Client owns one logical connection to a PLC: a session pool for data
// operations plus a single supervisory session whose keep-alive stream
// drives reconnection (spec.md §4.4). Where the teacher's tcp.run drives
// its state machine from a channel of Level values, Client drives it
// from context cancellation, per the module's context-first idiom.
type Client struct {
	cfg     *config.ApplicationConfiguration
	factory ports.SessionFactory
	log     *zap.SugaredLogger
	metrics *metrics.Metrics

	Pool *SessionPool
	Subs *SubscriptionManager

	mu        sync.Mutex
	state     ConnState
	conn      ports.OPCUAConn
	listeners []ConnStateListener
	disposed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// PublishingInterval is the subscription's server-side publishing rate;
// individual monitored items then sample at their own interval
// (spec.md §4.4).
const PublishingInterval = time.Second

// NewClient builds a Client against cfg and factory. cfg is checked (and
// defaulted) in place before use.
func NewClient(cfg *config.ApplicationConfiguration, factory ports.SessionFactory, log *zap.SugaredLogger, m *metrics.Metrics) *Client {
	cfg.Check()
	return &Client{
		cfg:     cfg,
		factory: factory,
		log:     log,
		metrics: m,
		Pool:    NewSessionPool(factory, cfg.MaxPoolSize, log, m),
		state:   Disconnected,
	}
}

// OnStateChange registers a listener invoked on every transition,
// returning a function that detaches it (spec.md §9: explicit
// registration/deregistration, no weak references or finalizers).
func (c *Client) OnStateChange(l ConnStateListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
	idx := len(c.listeners) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.listeners) {
			c.listeners[idx] = nil
		}
	}
}

// State returns the client's current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(to ConnState) {
	from := c.state
	c.state = to
	for _, l := range c.listeners {
		if l != nil {
			l(from, to)
		}
	}
}

// Connect establishes the supervisory session and initializes the
// session pool, then starts the background keep-alive/reconnect loop.
// Returns once the initial connection succeeds or ctx is done.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.setState(Connecting)
	c.mu.Unlock()

	conn, err := c.factory.NewSession(ctx)
	if err != nil {
		err = c.classifyConnectError(err)
		c.mu.Lock()
		c.setState(Disconnected)
		c.mu.Unlock()
		return err
	}

	if err := c.Pool.Initialize(ctx); err != nil {
		_ = conn.Close(ctx, false)
		c.mu.Lock()
		c.setState(Disconnected)
		c.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.done = make(chan struct{})
	if c.Subs == nil {
		c.Subs = NewSubscriptionManager(conn, c.log)
	}
	c.setState(Connected)
	c.mu.Unlock()

	go c.supervise(runCtx, conn)
	return nil
}

// classifyConnectError weighs a NewSession failure against the client's
// security policy, turning a *ports.CertificateFailure the factory
// reports into a *CertificateRejectedError unless the configured policy
// says to tolerate it: SkipDomainValidation tolerates a host-name
// mismatch, AutoAcceptUntrustedCertificates tolerates an untrusted
// chain (spec.md §4.4, §7 kind 7). Any other error passes through
// unchanged.
func (c *Client) classifyConnectError(err error) error {
	var certErr *ports.CertificateFailure
	if !errors.As(err, &certErr) {
		return err
	}
	if certErr.HostNameMismatch && c.cfg.Security.SkipDomainValidation {
		return err
	}
	if certErr.Untrusted && c.cfg.Security.AutoAcceptUntrustedCertificates {
		return err
	}
	return &CertificateRejectedError{
		Endpoint: c.factory.EndpointURL(),
		Reason:   certErr.Reason,
	}
}

// Subscribe delegates to the supervisory session's subscription
// manager, lazily creating the backing subscription (spec.md §4.4).
func (c *Client) Subscribe(ctx context.Context, nodeID string, sampling time.Duration) error {
	c.mu.Lock()
	subs := c.Subs
	c.mu.Unlock()
	if subs == nil {
		return ErrNotConnected
	}
	return subs.Subscribe(ctx, nodeID, sampling, PublishingInterval)
}

// Unsubscribe delegates to the supervisory session's subscription manager.
func (c *Client) Unsubscribe(ctx context.Context, nodeID string) error {
	c.mu.Lock()
	subs := c.Subs
	c.mu.Unlock()
	if subs == nil {
		return nil
	}
	return subs.Unsubscribe(ctx, nodeID)
}

// Notifications exposes the supervisory session's monitored-item
// notification stream.
func (c *Client) Notifications() <-chan ports.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Subs == nil {
		return nil
	}
	return c.Subs.Notifications()
}

// supervise watches the supervisory session's keep-alive stream and
// drives Reconnecting/Connected transitions, grounded on the teacher's
// tcp.run() recv/send supervisory loop (session/tcp.go) but cancelled
// via context instead of a Level channel.
func (c *Client) supervise(ctx context.Context, conn ports.OPCUAConn) {
	defer close(c.done)
	keepAlive := conn.KeepAlive()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-keepAlive:
			if !ok {
				return
			}
			if err == nil {
				continue
			}

			if c.log != nil {
				c.log.Warnw("keep-alive failed, reconnecting", "error", err)
			}
			if c.metrics != nil {
				c.metrics.Reconnects.Inc()
			}

			c.mu.Lock()
			c.setState(Reconnecting)
			c.mu.Unlock()

			newConn, rerr := c.reconnect(ctx)
			if rerr != nil {
				if c.log != nil {
					c.log.Errorw("reconnect failed", "error", rerr)
				}
				c.mu.Lock()
				c.setState(Disconnected)
				c.mu.Unlock()
				return
			}

			conn = newConn
			keepAlive = conn.KeepAlive()
			c.mu.Lock()
			c.conn = conn
			subs := c.Subs
			c.setState(Connected)
			c.mu.Unlock()

			if subs != nil {
				if err := subs.Resubscribe(ctx, conn, PublishingInterval); err != nil && c.log != nil {
					c.log.Errorw("resubscribe after reconnect failed", "error", err)
				}
			}
		}
	}
}

// reconnect retries NewSession with the client's configured base delay
// until ctx is done, a session is obtained, or the server's certificate
// is rejected under the configured security policy (retrying against a
// certificate that will never be trusted just wastes the backoff
// budget).
func (c *Client) reconnect(ctx context.Context) (ports.OPCUAConn, error) {
	delay := c.cfg.ReconnectPeriod
	for {
		conn, err := c.factory.NewSession(ctx)
		if err == nil {
			return conn, nil
		}
		if classified := c.classifyConnectError(err); classified != err {
			return nil, classified
		}
		if c.log != nil {
			c.log.Warnw("reconnect attempt failed", "error", err, "retry_in", delay)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if c.cfg.ReconnectBackoffMax > 0 && delay*2 <= c.cfg.ReconnectBackoffMax {
			delay *= 2
		}
	}
}

// Execute runs op against a pooled data session (spec.md §4.3). Returns
// ErrDisposed once Close has been called, and ErrNotConnected while the
// client is Disconnected (never connected, or a connect or reconnect
// failed).
func (c *Client) Execute(ctx context.Context, op func(ports.OPCUAConn) error) error {
	c.mu.Lock()
	state := c.state
	disposed := c.disposed
	c.mu.Unlock()

	if disposed {
		return ErrDisposed
	}
	if state == Disconnected {
		return ErrNotConnected
	}
	return c.Pool.Execute(ctx, op)
}

// Close stops the reconnect loop, then tears down the pool, then the
// supervisory session. Idempotent.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	cancel := c.cancel
	conn := c.conn
	c.setState(Disconnected)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c.done != nil {
		<-c.done
	}
	poolErr := c.Pool.Close(ctx)
	if conn != nil {
		_ = conn.Close(ctx, false)
	}
	return poolErr
}
