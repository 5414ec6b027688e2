// Package fake provides an in-memory ports.OPCUAConn and
// ports.SessionFactory, grounded on the teacher's Pipe synchronous
// in-memory transport (session/session.go): a mutex-guarded state
// machine plus a channel for pushed notifications, standing in for a
// real OPC UA session in tests.
package fake

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/s7ua-go/s7ua/ports"
)

// Node is one entry of a fake server's address space.
type Node struct {
	NodeID      string
	DisplayName string
	Parent      string
	IsVariable  bool
	Dims        []int
	Value       ports.Value
}

// Server is the shared, mutex-guarded backing store every Conn created
// from the same Factory reads and writes, modeling a single PLC's
// address space across however many sessions a test pulls from the
// pool.
type Server struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

// NewServer returns an empty fake address space.
func NewServer() *Server {
	return &Server{nodes: make(map[string]*Node)}
}

// AddNode registers a node, keyed by its node id.
func (s *Server) AddNode(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := n
	s.nodes[n.NodeID] = &cp
}

// SetValue updates a variable's current value, as if the PLC's program
// had written it, and returns whether a node with that id exists.
func (s *Server) SetValue(nodeID string, v ports.Value) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return false
	}
	n.Value = v
	return true
}

// Factory implements ports.SessionFactory over a shared fake Server.
type Factory struct {
	Server   *Server
	Endpoint string

	mu          sync.Mutex
	failNext    bool
	sessesMade  int
}

func NewFactory(server *Server, endpoint string) *Factory {
	return &Factory{Server: server, Endpoint: endpoint}
}

func (f *Factory) EndpointURL() string { return f.Endpoint }

// FailNextSession makes the next NewSession call return an error, for
// exercising Session Pool failure paths.
func (f *Factory) FailNextSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = true
}

func (f *Factory) NewSession(ctx context.Context) (ports.OPCUAConn, error) {
	f.mu.Lock()
	if f.failNext {
		f.failNext = false
		f.mu.Unlock()
		return nil, &SessionCreateError{Endpoint: f.Endpoint}
	}
	f.sessesMade++
	f.mu.Unlock()

	return &Conn{
		server:   f.Server,
		notify:   make(chan ports.Notification, 64),
		keepAlive: make(chan error, 1),
		connected: true,
	}, nil
}

// SessionCreateError reports that a fake session could not be created,
// the counterpart of a real stack's "too many sessions" response.
type SessionCreateError struct{ Endpoint string }

func (e *SessionCreateError) Error() string {
	return "fake: session creation refused for " + e.Endpoint
}

// Conn implements ports.OPCUAConn against a shared fake Server.
type Conn struct {
	server *Server

	mu         sync.Mutex
	connected  bool
	subs       map[ports.SubscriptionHandle]map[string]time.Duration
	nextSub    ports.SubscriptionHandle
	notify     chan ports.Notification
	keepAlive  chan error
}

func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Conn) Browse(ctx context.Context, nodeID string, mask ports.BrowseMask) ([]ports.NodeRef, error) {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()

	var refs []ports.NodeRef
	for _, n := range c.server.nodes {
		if n.Parent != nodeID {
			continue
		}
		if mask == ports.BrowseVariables && !n.IsVariable {
			continue
		}
		if mask == ports.BrowseObjects && n.IsVariable {
			continue
		}
		refs = append(refs, ports.NodeRef{
			NodeID:          n.NodeID,
			DisplayName:     n.DisplayName,
			IsVariable:      n.IsVariable,
			ArrayDimensions: n.Dims,
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].DisplayName < refs[j].DisplayName })
	return refs, nil
}

func (c *Conn) Read(ctx context.Context, nodeIDs []string) ([]ports.DataValue, error) {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()

	out := make([]ports.DataValue, len(nodeIDs))
	for i, id := range nodeIDs {
		n, ok := c.server.nodes[id]
		if !ok {
			out[i] = ports.DataValue{NodeID: id, Quality: ports.QualityBad}
			continue
		}
		out[i] = ports.DataValue{NodeID: id, Value: n.Value, Quality: ports.QualityGood}
	}
	return out, nil
}

func (c *Conn) Write(ctx context.Context, nodeID string, v ports.Value) (ports.StatusCode, error) {
	if !c.server.SetValue(nodeID, v) {
		return ports.StatusCode{Code: 0x80340000, Symbol: "BadNodeIdUnknown"}, nil
	}
	return ports.StatusCode{Code: 0, Symbol: "Good"}, nil
}

func (c *Conn) CreateSubscription(ctx context.Context, interval time.Duration) (ports.SubscriptionHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[ports.SubscriptionHandle]map[string]time.Duration)
	}
	c.nextSub++
	c.subs[c.nextSub] = make(map[string]time.Duration)
	return c.nextSub, nil
}

func (c *Conn) AddMonitoredItem(ctx context.Context, sub ports.SubscriptionHandle, nodeID string, sampling time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.subs[sub]
	if !ok {
		return &UnknownSubscriptionError{Handle: sub}
	}
	items[nodeID] = sampling
	return nil
}

func (c *Conn) RemoveMonitoredItem(ctx context.Context, sub ports.SubscriptionHandle, nodeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.subs[sub]
	if !ok {
		return nil
	}
	delete(items, nodeID)
	return nil
}

func (c *Conn) Notifications() <-chan ports.Notification { return c.notify }

func (c *Conn) KeepAlive() <-chan error { return c.keepAlive }

func (c *Conn) Close(ctx context.Context, leaveChannelOpen bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

// Push synthesizes a monitored-item notification, as if the fake PLC's
// program changed the value: it updates the server's value and sends the
// notification on this session's channel, whether or not nodeID is
// under one of this session's subscriptions.
func (c *Conn) Push(nodeID string, v ports.Value) {
	c.server.SetValue(nodeID, v)
	c.notify <- ports.Notification{NodeID: nodeID, Value: v, Quality: ports.QualityGood}
}

// Disconnect simulates a keep-alive failure, the trigger for the Main
// Client's reconnect path.
func (c *Conn) Disconnect(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.keepAlive <- err
}

// UnknownSubscriptionError reports a monitored-item operation against a
// subscription handle this session never created.
type UnknownSubscriptionError struct{ Handle ports.SubscriptionHandle }

func (e *UnknownSubscriptionError) Error() string {
	return "fake: unknown subscription handle"
}

// PathToNodeID is a small helper for tests: joins parent and display as
// "parent/display", or returns display alone when parent is empty.
func PathToNodeID(parent, display string) string {
	if parent == "" {
		return display
	}
	return strings.Join([]string{parent, display}, "/")
}
