package opcuaclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/config"
	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/ports/fake"
)

func newTestClient(t *testing.T) (*Client, *fake.Factory) {
	t.Helper()
	server := fake.NewServer()
	factory := fake.NewFactory(server, "fake://plc")
	cfg := &config.ApplicationConfiguration{
		MaxPoolSize:     2,
		ReconnectPeriod: 10 * time.Millisecond,
	}
	return NewClient(cfg, factory, nil, nil), factory
}

func TestClientConnectReachesConnected(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, Connected, c.State())
	_ = c.Close(context.Background())
}

func TestClientConnectFailurePropagates(t *testing.T) {
	c, factory := newTestClient(t)
	factory.FailNextSession()
	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, Disconnected, c.State())
}

func TestClientExecuteBeforeConnectFails(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.Execute(context.Background(), func(conn ports.OPCUAConn) error { return nil })
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClientReconnectsOnKeepAliveFailure(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.Connect(context.Background()))

	var transitions []ConnState
	done := make(chan struct{})
	c.OnStateChange(func(from, to ConnState) {
		transitions = append(transitions, to)
		if to == Connected && len(transitions) > 1 {
			close(done)
		}
	})

	c.mu.Lock()
	conn := c.conn.(*fake.Conn)
	c.mu.Unlock()
	conn.Disconnect(errors.New("link down"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reconnect")
	}

	assert.Equal(t, Connected, c.State())
	_ = c.Close(context.Background())
}

func TestClientCloseIsIdempotent(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, Disconnected, c.State())
}
