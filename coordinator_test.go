package s7ua

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/config"
	"github.com/s7ua-go/s7ua/discover"
	"github.com/s7ua-go/s7ua/internal/metrics"
	"github.com/s7ua-go/s7ua/opcuaclient"
	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/ports/fake"
	"github.com/s7ua-go/s7ua/s7type"
	"github.com/s7ua-go/s7ua/store"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *fake.Server) {
	t.Helper()
	server := fake.NewServer()
	factory := fake.NewFactory(server, "fake://plc")
	cfg := &config.ApplicationConfiguration{MaxPoolSize: 2, ReconnectPeriod: 10 * time.Millisecond}
	client := opcuaclient.NewClient(cfg, factory, nil, nil)
	require.NoError(t, client.Connect(context.Background()))

	st := store.New(nil)
	registry := s7type.NewRegistry(nil)
	engine := discover.NewEngine(nil)

	c := New(client, st, registry, engine, nil, metrics.New(), nil)
	return c, server
}

func TestDiscoverStructureThenReadAllVariables(t *testing.T) {
	c, server := newTestCoordinator(t)
	defer c.Close(context.Background())

	server.AddNode(fake.Node{NodeID: "ns=3;s=DataBlocksGlobal", DisplayName: "DataBlocksGlobal"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1", DisplayName: "DB1", Parent: "ns=3;s=DataBlocksGlobal"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1.TestVar", DisplayName: "TestVar", Parent: "ns=3;s=DB1", IsVariable: true, Value: ports.Int32Value(100)})
	server.AddNode(fake.Node{NodeID: "ns=3;s=DataBlocksInstance", DisplayName: "DataBlocksInstance"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=Inputs", DisplayName: "Inputs"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=Outputs", DisplayName: "Outputs"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=Memory", DisplayName: "Memory"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=Timers", DisplayName: "Timers"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=Counters", DisplayName: "Counters"})

	require.NoError(t, c.DiscoverStructure(context.Background()))

	v, ok := c.store.TryGetByPath("DataBlocksGlobal.DB1.TestVar")
	require.True(t, ok)
	assert.Equal(t, s7type.UNKNOWN, v.S7Type)

	require.NoError(t, c.UpdateVariableType(context.Background(), "DataBlocksGlobal.DB1.TestVar", s7type.DINT))

	var changes []VariableValueChanged
	c.Events.OnVariableChanged(func(e VariableValueChanged) { changes = append(changes, e) })

	require.NoError(t, c.ReadAllVariables(context.Background()))
	v, ok = c.store.TryGetByPath("DataBlocksGlobal.DB1.TestVar")
	require.True(t, ok)
	assert.EqualValues(t, 100, v.Value)
	require.NotEmpty(t, changes)

	server.SetValue("ns=3;s=DB1.TestVar", ports.Int32Value(200))
	changes = nil
	require.NoError(t, c.ReadAllVariables(context.Background()))
	require.Len(t, changes, 1)
	assert.Equal(t, "DataBlocksGlobal.DB1.TestVar", changes[0].Path)
	assert.EqualValues(t, 100, changes[0].Old.Value)
	assert.EqualValues(t, 200, changes[0].New.Value)
}

func TestWriteVariableUnknownPathReturnsFalse(t *testing.T) {
	c, _ := newTestCoordinator(t)
	defer c.Close(context.Background())
	assert.False(t, c.WriteVariable(context.Background(), "DataBlocksGlobal.Nope", int32(1)))
}

func TestSubscribeAndPushNotification(t *testing.T) {
	c, server := newTestCoordinator(t)
	defer c.Close(context.Background())

	require.NoError(t, c.store.RegisterGlobalDataBlock(&store.StructureElement{
		DisplayName: "DB1",
		FullPath:    "DataBlocksGlobal.DB1",
	}))
	require.NoError(t, c.store.RegisterVariable(&store.Variable{
		DisplayName: "TestVar",
		FullPath:    "DataBlocksGlobal.DB1.TestVar",
		NodeID:      "ns=3;s=DB1.TestVar",
		S7Type:      s7type.DINT,
	}))
	c.store.BuildCache()
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1.TestVar", DisplayName: "TestVar", IsVariable: true})

	require.NoError(t, c.Subscribe(context.Background(), "DataBlocksGlobal.DB1.TestVar", nil))

	var changes []VariableValueChanged
	c.Events.OnVariableChanged(func(e VariableValueChanged) { changes = append(changes, e) })

	c.HandlePushNotification(ports.Notification{NodeID: "ns=3;s=DB1.TestVar", Value: ports.Int32Value(42), Quality: ports.QualityGood})

	require.Len(t, changes, 1)
	assert.EqualValues(t, 42, changes[0].New.Value)
}

func TestHandlePushNotificationUnknownNodeIDIsDropped(t *testing.T) {
	c, _ := newTestCoordinator(t)
	defer c.Close(context.Background())
	assert.NotPanics(t, func() {
		c.HandlePushNotification(ports.Notification{NodeID: "ns=3;s=Nope"})
	})
}
