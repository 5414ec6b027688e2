package opcuaclient

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua/ports"
)

// SubscriptionManager owns exactly one OPC UA subscription per Client
// and tracks its monitored items by node id, so re-subscribing a node
// already being watched is a no-op rather than a duplicate monitored
// item (spec.md §4.4). A monitored item is added with its node id and
// sampling interval only; queue size and discard policy are not set
// here and are whatever the ports.OPCUAConn implementation applies.
type SubscriptionManager struct {
	conn ports.OPCUAConn
	log  *zap.SugaredLogger

	mu    sync.Mutex
	sub   ports.SubscriptionHandle
	open  bool
	nodes map[string]time.Duration // nodeID -> sampling interval
}

// NewSubscriptionManager builds a manager bound to one session (the
// Main Client passes its supervisory session, not a pooled one).
func NewSubscriptionManager(conn ports.OPCUAConn, log *zap.SugaredLogger) *SubscriptionManager {
	return &SubscriptionManager{conn: conn, log: log, nodes: make(map[string]time.Duration)}
}

// ensure creates the backing subscription on first use.
func (m *SubscriptionManager) ensure(ctx context.Context, publishingInterval time.Duration) error {
	if m.open {
		return nil
	}
	sub, err := m.conn.CreateSubscription(ctx, publishingInterval)
	if err != nil {
		return err
	}
	m.sub = sub
	m.open = true
	return nil
}

// Subscribe adds nodeID to the subscription at the given sampling
// interval, creating the subscription itself on first use. Re-subscribing
// an already-watched node is a no-op (spec.md §4.4).
func (m *SubscriptionManager) Subscribe(ctx context.Context, nodeID string, sampling, publishingInterval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[nodeID]; ok {
		return nil
	}
	if err := m.ensure(ctx, publishingInterval); err != nil {
		return err
	}
	if err := m.conn.AddMonitoredItem(ctx, m.sub, nodeID, sampling); err != nil {
		return err
	}
	m.nodes[nodeID] = sampling
	return nil
}

// Unsubscribe removes nodeID from the subscription. A node that was
// never subscribed is a no-op.
func (m *SubscriptionManager) Unsubscribe(ctx context.Context, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[nodeID]; !ok {
		return nil
	}
	if err := m.conn.RemoveMonitoredItem(ctx, m.sub, nodeID); err != nil {
		return err
	}
	delete(m.nodes, nodeID)
	return nil
}

// Subscribed reports whether nodeID currently has a monitored item.
func (m *SubscriptionManager) Subscribed(nodeID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[nodeID]
	return ok
}

// Count returns the number of currently monitored nodes.
func (m *SubscriptionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// Notifications exposes the underlying session's notification stream,
// unfiltered; callers match Notification.NodeID against the store's
// node-id map to route a value to its Variable (spec.md §4.6).
func (m *SubscriptionManager) Notifications() <-chan ports.Notification {
	return m.conn.Notifications()
}

// Resubscribe replays every tracked node onto a freshly (re)connected
// session, used after the Main Client recovers from a dropped
// connection: the old subscription dies with the old session, so the
// new one must be rebuilt from the set of node ids the caller still
// wants watched.
func (m *SubscriptionManager) Resubscribe(ctx context.Context, conn ports.OPCUAConn, publishingInterval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conn = conn
	m.open = false
	m.sub = 0

	if len(m.nodes) == 0 {
		return nil
	}
	if err := m.ensure(ctx, publishingInterval); err != nil {
		return err
	}
	for nodeID, sampling := range m.nodes {
		if err := m.conn.AddMonitoredItem(ctx, m.sub, nodeID, sampling); err != nil {
			if m.log != nil {
				m.log.Errorw("resubscribe failed for node", "node_id", nodeID, "error", err)
			}
			return err
		}
	}
	return nil
}
