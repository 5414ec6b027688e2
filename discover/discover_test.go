package discover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/ports/fake"
	"github.com/s7ua-go/s7ua/s7type"
)

func newTestConn(t *testing.T) (*fake.Server, ports.OPCUAConn) {
	t.Helper()
	server := fake.NewServer()
	factory := fake.NewFactory(server, "fake://plc")
	conn, err := factory.NewSession(context.Background())
	require.NoError(t, err)
	return server, conn
}

func TestDiscoverStructureElementWrapsUnknownVariables(t *testing.T) {
	server, conn := newTestConn(t)
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1", DisplayName: "DB1"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1.Temp", DisplayName: "Temp", Parent: "ns=3;s=DB1", IsVariable: true})
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1.Running", DisplayName: "Running", Parent: "ns=3;s=DB1", IsVariable: true})

	eng := NewEngine(nil)
	se := eng.DiscoverStructureElement(context.Background(), conn, "DataBlocksGlobal", &Shell{
		NodeID: "ns=3;s=DB1", DisplayName: "DB1", Tag: TagGlobalDataBlock,
	})

	require.NotNil(t, se)
	assert.Equal(t, "DataBlocksGlobal.DB1", se.FullPath)
	require.Len(t, se.Variables, 2)
	for _, v := range se.Variables {
		assert.Equal(t, s7type.UNKNOWN, v.S7Type)
		assert.Empty(t, v.FullPath)
	}
}

func TestDiscoverInstanceDataBlockPopulatesSections(t *testing.T) {
	server, conn := newTestConn(t)
	server.AddNode(fake.Node{NodeID: "ns=3;s=MOTOR1", DisplayName: "MOTOR1"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=MOTOR1.Input", DisplayName: "Input", Parent: "ns=3;s=MOTOR1"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=MOTOR1.Static", DisplayName: "Static", Parent: "ns=3;s=MOTOR1"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=MOTOR1.Input.Start", DisplayName: "Start", Parent: "ns=3;s=MOTOR1.Input", IsVariable: true})

	eng := NewEngine(nil)
	idb := eng.DiscoverInstanceDataBlock(context.Background(), conn, "DataBlocksInstance", &Shell{
		NodeID: "ns=3;s=MOTOR1", DisplayName: "MOTOR1", Tag: TagInstanceDataBlock,
	})

	require.NotNil(t, idb)
	assert.Equal(t, "DataBlocksInstance.MOTOR1", idb.FullPath)
	require.NotNil(t, idb.Input)
	assert.Equal(t, "DataBlocksInstance.MOTOR1.Input", idb.Input.FullPath)
	require.Len(t, idb.Input.Variables, 1)
	require.NotNil(t, idb.Static)
	assert.Nil(t, idb.Output)
	assert.Nil(t, idb.InOut)
}

func TestDiscoverShellListReturnsShellsOnly(t *testing.T) {
	server, conn := newTestConn(t)
	server.AddNode(fake.Node{NodeID: "ns=3;s=DataBlocksGlobal", DisplayName: "DataBlocksGlobal"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB1", DisplayName: "DB1", Parent: "ns=3;s=DataBlocksGlobal"})
	server.AddNode(fake.Node{NodeID: "ns=3;s=DB2", DisplayName: "DB2", Parent: "ns=3;s=DataBlocksGlobal"})

	eng := NewEngine(nil)
	shells, err := eng.DiscoverShellList(context.Background(), conn, "ns=3;s=DataBlocksGlobal", TagGlobalDataBlock)
	require.NoError(t, err)
	require.Len(t, shells, 2)
	assert.Equal(t, TagGlobalDataBlock, shells[0].Tag)
}

func TestDiscoverStructureElementBrowseFailureReturnsShellUnchanged(t *testing.T) {
	server, conn := newTestConn(t)
	_ = server

	brokenConn := &brokenBrowseConn{OPCUAConn: conn}
	eng := NewEngine(nil)
	se := eng.DiscoverStructureElement(context.Background(), brokenConn, "DataBlocksGlobal", &Shell{
		NodeID: "ns=3;s=DB1", DisplayName: "DB1", Tag: TagGlobalDataBlock,
	})

	require.NotNil(t, se)
	assert.Equal(t, "DataBlocksGlobal.DB1", se.FullPath)
	assert.Nil(t, se.Variables)
}

func TestDiscoverNilShellReturnsNil(t *testing.T) {
	_, conn := newTestConn(t)
	eng := NewEngine(nil)
	assert.Nil(t, eng.DiscoverStructureElement(context.Background(), conn, "", nil))
	assert.Nil(t, eng.DiscoverInstanceDataBlock(context.Background(), conn, "", nil))
}

// brokenBrowseConn forces Browse to fail, exercising the "log and
// return shell unchanged" error path.
type brokenBrowseConn struct {
	ports.OPCUAConn
}

func (b *brokenBrowseConn) Browse(ctx context.Context, nodeID string, mask ports.BrowseMask) ([]ports.NodeRef, error) {
	return nil, assert.AnError
}
