package opcuaclient

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/s7ua-go/s7ua/internal/metrics"
	"github.com/s7ua-go/s7ua/ports"
)

// interCreationPause spaces out session creation during Initialize so a
// burst of CreateSession calls does not trip a server's connect-rate
// limiting (spec.md §4.3).
const interCreationPause = 50 * time.Millisecond

// SessionPool hands out a fixed number of concurrently usable
// ports.OPCUAConn sessions, serialized by a weighted semaphore sized to
// the pool (spec.md §4.3). Safe for concurrent use.
type SessionPool struct {
	factory ports.SessionFactory
	size    int64
	log     *zap.SugaredLogger
	metrics *metrics.Metrics

	sem *semaphore.Weighted

	mu   chan struct{} // 1-buffered mutex, see lock/unlock
	free []ports.OPCUAConn
}

// NewSessionPool builds an unstarted pool; call Initialize before Execute.
func NewSessionPool(factory ports.SessionFactory, size int, log *zap.SugaredLogger, m *metrics.Metrics) *SessionPool {
	return &SessionPool{
		factory: factory,
		size:    int64(size),
		log:     log,
		metrics: m,
		sem:     semaphore.NewWeighted(int64(size)),
		mu:      make(chan struct{}, 1),
	}
}

func (p *SessionPool) lock()   { p.mu <- struct{}{} }
func (p *SessionPool) unlock() { <-p.mu }

// Initialize pre-creates exactly size sessions, pacing each creation by
// interCreationPause. If any creation fails, every session successfully
// created so far is disposed and the call returns a *PoolExhaustedError
// (spec.md §4.3: "On any per-session creation failure, all successfully
// created sessions are disposed and the call fails").
func (p *SessionPool) Initialize(ctx context.Context) error {
	created := make([]ports.OPCUAConn, 0, p.size)
	for i := int64(0); i < p.size; i++ {
		conn, err := p.factory.NewSession(ctx)
		if err != nil {
			for _, c := range created {
				_ = c.Close(ctx, false)
			}
			return &PoolExhaustedError{PoolSize: int(p.size), Cause: err}
		}
		created = append(created, conn)

		if i+1 < p.size {
			select {
			case <-ctx.Done():
				for _, c := range created {
					_ = c.Close(ctx, false)
				}
				return ctx.Err()
			case <-time.After(interCreationPause):
			}
		}
	}

	p.lock()
	p.free = created
	p.unlock()

	if p.log != nil {
		p.log.Infow("session pool initialized", "size", p.size)
	}
	return nil
}

// Execute blocks until a session is available, runs op against it, and
// always returns the session to the pool and releases the semaphore —
// including when op returns an error (spec.md §4.3: "no permit leaks on
// exception paths"). If the acquired session is no longer connected it
// is disposed and replaced inline before op runs.
func (p *SessionPool) Execute(ctx context.Context, op func(ports.OPCUAConn) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		if p.metrics != nil {
			p.metrics.PoolExhaustions.Inc()
		}
		return err
	}
	defer p.sem.Release(1)

	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer p.release(conn)

	return op(conn)
}

func (p *SessionPool) acquire(ctx context.Context) (ports.OPCUAConn, error) {
	p.lock()
	n := len(p.free)
	var conn ports.OPCUAConn
	if n > 0 {
		conn = p.free[n-1]
		p.free = p.free[:n-1]
	}
	p.unlock()

	if conn == nil {
		return nil, &PoolExhaustedError{PoolSize: int(p.size), Cause: context.Canceled}
	}

	if !conn.Connected() {
		_ = conn.Close(ctx, false)
		fresh, err := p.factory.NewSession(ctx)
		if err != nil {
			return nil, &PoolExhaustedError{PoolSize: int(p.size), Cause: err}
		}
		return fresh, nil
	}
	return conn, nil
}

func (p *SessionPool) release(conn ports.OPCUAConn) {
	p.lock()
	p.free = append(p.free, conn)
	p.unlock()
}

// Close disposes every pooled session. Safe to call once after no more
// Execute calls are in flight.
func (p *SessionPool) Close(ctx context.Context) error {
	p.lock()
	defer p.unlock()
	var firstErr error
	for _, c := range p.free {
		if err := c.Close(ctx, false); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.free = nil
	return firstErr
}
