package opcuaclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/ports/fake"
)

func TestSubscriptionManagerSubscribeAndNotify(t *testing.T) {
	server := fake.NewServer()
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1.Temp", DisplayName: "Temp", IsVariable: true})
	factory := fake.NewFactory(server, "fake://plc")
	conn, err := factory.NewSession(context.Background())
	require.NoError(t, err)

	mgr := NewSubscriptionManager(conn, nil)
	require.NoError(t, mgr.Subscribe(context.Background(), "ns=3;s=DB1.Temp", 100*time.Millisecond, time.Second))
	assert.True(t, mgr.Subscribed("ns=3;s=DB1.Temp"))
	assert.Equal(t, 1, mgr.Count())

	// Re-subscribing the same node is a no-op.
	require.NoError(t, mgr.Subscribe(context.Background(), "ns=3;s=DB1.Temp", 100*time.Millisecond, time.Second))
	assert.Equal(t, 1, mgr.Count())

	conn.(*fake.Conn).Push("ns=3;s=DB1.Temp", ports.Int64Value(42))
	select {
	case n := <-mgr.Notifications():
		assert.Equal(t, "ns=3;s=DB1.Temp", n.NodeID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}

	require.NoError(t, mgr.Unsubscribe(context.Background(), "ns=3;s=DB1.Temp"))
	assert.False(t, mgr.Subscribed("ns=3;s=DB1.Temp"))
	assert.Equal(t, 0, mgr.Count())
}

func TestSubscriptionManagerResubscribeReplaysNodes(t *testing.T) {
	server := fake.NewServer()
	factory := fake.NewFactory(server, "fake://plc")
	conn1, err := factory.NewSession(context.Background())
	require.NoError(t, err)

	mgr := NewSubscriptionManager(conn1, nil)
	require.NoError(t, mgr.Subscribe(context.Background(), "ns=3;s=DB1.A", time.Second, time.Second))
	require.NoError(t, mgr.Subscribe(context.Background(), "ns=3;s=DB1.B", time.Second, time.Second))

	conn2, err := factory.NewSession(context.Background())
	require.NoError(t, err)
	require.NoError(t, mgr.Resubscribe(context.Background(), conn2, time.Second))

	assert.Equal(t, 2, mgr.Count())
	assert.True(t, mgr.Subscribed("ns=3;s=DB1.A"))
	assert.True(t, mgr.Subscribed("ns=3;s=DB1.B"))
}
