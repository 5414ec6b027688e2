package opcuaclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/ports/fake"
)

func TestSessionPoolInitializeAndExecute(t *testing.T) {
	server := fake.NewServer()
	factory := fake.NewFactory(server, "fake://plc")
	pool := NewSessionPool(factory, 3, nil, nil)

	require.NoError(t, pool.Initialize(context.Background()))

	var sawConnected bool
	err := pool.Execute(context.Background(), func(conn ports.OPCUAConn) error {
		sawConnected = conn.Connected()
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sawConnected)
}

func TestSessionPoolInitializeFailureReturnsPoolExhausted(t *testing.T) {
	server := fake.NewServer()
	factory := fake.NewFactory(server, "fake://plc")
	pool := NewSessionPool(factory, 3, nil, nil)

	factory.FailNextSession()
	err := pool.Initialize(context.Background())
	require.Error(t, err)

	var poolErr *PoolExhaustedError
	require.ErrorAs(t, err, &poolErr)
	assert.Equal(t, 3, poolErr.PoolSize)
}

func TestSessionPoolExecutePropagatesOpError(t *testing.T) {
	server := fake.NewServer()
	factory := fake.NewFactory(server, "fake://plc")
	pool := NewSessionPool(factory, 1, nil, nil)
	require.NoError(t, pool.Initialize(context.Background()))

	wantErr := assert.AnError
	err := pool.Execute(context.Background(), func(conn ports.OPCUAConn) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// The permit and the session must both have been returned: a second
	// Execute call must still succeed.
	err = pool.Execute(context.Background(), func(conn ports.OPCUAConn) error {
		return nil
	})
	assert.NoError(t, err)
}
