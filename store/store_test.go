package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/s7type"
)

func newGlobalDB(name string) *StructureElement {
	path := RootDataBlocksGlobal + "." + name
	return &StructureElement{DisplayName: name, FullPath: path, NodeID: "ns=3;s=" + name}
}

func TestRegisterVariableSynthesizesNodeID(t *testing.T) {
	// spec scenario 5.
	st := New(nil)
	st.SetStructure([]*StructureElement{newGlobalDB("DB1")}, nil, nil, nil, nil, nil, nil)

	err := st.RegisterVariable(&Variable{
		DisplayName: "Temp",
		FullPath:    "DataBlocksGlobal.DB1.Temp",
		S7Type:      s7type.REAL,
	})
	require.NoError(t, err)

	v, ok := st.TryGetByPath("DataBlocksGlobal.DB1.Temp")
	require.True(t, ok)
	assert.Equal(t, "ns=3;s=DB1.Temp", v.NodeID)
}

func TestRegisterVariableRejectsMissingParent(t *testing.T) {
	st := New(nil)
	st.SetStructure(nil, nil, nil, nil, nil, nil, nil)

	err := st.RegisterVariable(&Variable{
		DisplayName: "Temp",
		FullPath:    "DataBlocksGlobal.DB1.Temp",
	})
	assert.ErrorIs(t, err, ErrParentMissing)
}

func TestRegisterVariableRejectsDuplicate(t *testing.T) {
	st := New(nil)
	st.SetStructure([]*StructureElement{newGlobalDB("DB1")}, nil, nil, nil, nil, nil, nil)

	v := &Variable{DisplayName: "Temp", FullPath: "DataBlocksGlobal.DB1.Temp"}
	require.NoError(t, st.RegisterVariable(v))

	err := st.RegisterVariable(&Variable{DisplayName: "Temp", FullPath: "DataBlocksGlobal.DB1.Temp"})
	assert.ErrorIs(t, err, ErrPathExists)
}

func TestRegisterStructRecursesMembers(t *testing.T) {
	st := New(nil)
	st.SetStructure([]*StructureElement{newGlobalDB("DB1")}, nil, nil, nil, nil, nil, nil)

	coord := &Variable{
		DisplayName: "Coord",
		FullPath:    "DataBlocksGlobal.DB1.Coord",
		S7Type:      s7type.STRUCT,
		StructMembers: []*Variable{
			{DisplayName: "X", S7Type: s7type.REAL},
			{DisplayName: "Y", S7Type: s7type.REAL},
		},
	}
	require.NoError(t, st.RegisterVariable(coord))

	x, ok := st.TryGetByPath("DataBlocksGlobal.DB1.Coord.X")
	require.True(t, ok)
	assert.Equal(t, "ns=3;s=DB1.Coord.X", x.NodeID)

	y, ok := st.TryGetByPath("datablocksglobal.db1.coord.y")
	require.True(t, ok)
	assert.Equal(t, "Y", y.DisplayName)
}

func TestAreaVariableKeepsRootSegmentInNodeID(t *testing.T) {
	st := New(nil)
	st.SetStructure(nil, nil, nil, nil, nil, nil, nil)

	err := st.RegisterVariable(&Variable{DisplayName: "Alarm", FullPath: "Inputs.Alarm", S7Type: s7type.BOOL})
	require.NoError(t, err)

	v, ok := st.TryGetByPath("Inputs.Alarm")
	require.True(t, ok)
	assert.Equal(t, "ns=3;s=Inputs.Alarm", v.NodeID)
}

func TestUpdateVariablePreservesSiblings(t *testing.T) {
	st := New(nil)
	db := newGlobalDB("DB1")
	db.Variables = []*Variable{
		{DisplayName: "A", FullPath: "DataBlocksGlobal.DB1.A"},
		{DisplayName: "B", FullPath: "DataBlocksGlobal.DB1.B"},
	}
	st.SetStructure([]*StructureElement{db}, nil, nil, nil, nil, nil, nil)
	st.BuildCache()

	err := st.UpdateVariable("DataBlocksGlobal.DB1.A", &Variable{DisplayName: "A", Value: 42})
	require.NoError(t, err)

	a, ok := st.TryGetByPath("DataBlocksGlobal.DB1.A")
	require.True(t, ok)
	assert.Equal(t, 42, a.Value)

	b, ok := st.TryGetByPath("DataBlocksGlobal.DB1.B")
	require.True(t, ok)
	assert.Equal(t, "B", b.DisplayName)
}

func TestUpdateVariableUnknownPathFails(t *testing.T) {
	st := New(nil)
	st.SetStructure(nil, nil, nil, nil, nil, nil, nil)
	err := st.UpdateVariable("DataBlocksGlobal.DB1.Missing", &Variable{})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFindWhereInsertionOrder(t *testing.T) {
	st := New(nil)
	st.SetStructure([]*StructureElement{newGlobalDB("DB1")}, nil, nil, nil, nil, nil, nil)

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, st.RegisterVariable(&Variable{DisplayName: name, FullPath: "DataBlocksGlobal.DB1." + name}))
	}

	found := st.FindWhere(func(v *Variable) bool { return true })
	require.Len(t, found, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{found[0].DisplayName, found[1].DisplayName, found[2].DisplayName})
}

func TestBuildCacheIsIdempotent(t *testing.T) {
	db := newGlobalDB("DB1")
	db.Variables = []*Variable{{DisplayName: "A", FullPath: "DataBlocksGlobal.DB1.A"}}
	st := New(nil)
	st.SetStructure([]*StructureElement{db}, nil, nil, nil, nil, nil, nil)

	st.BuildCache()
	st.BuildCache()

	assert.Len(t, st.GetAll(), 1)
}

// TestConcurrentRegisterVariable is spec scenario 7: 100 concurrent
// register_variable calls into the same global data block must leave the
// store with exactly 100 variables, no duplicates, no deadlock within 5s.
func TestConcurrentRegisterVariable(t *testing.T) {
	st := New(nil)
	st.SetStructure([]*StructureElement{newGlobalDB("DB1")}, nil, nil, nil, nil, nil, nil)

	const n = 100
	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				name := fmt.Sprintf("Var%d", i)
				_ = st.RegisterVariable(&Variable{
					DisplayName: name,
					FullPath:    "DataBlocksGlobal.DB1." + name,
					S7Type:      s7type.INT,
				})
			}(i)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("register_variable deadlocked")
	}

	all := st.GetAll()
	assert.Len(t, all, n)
}
