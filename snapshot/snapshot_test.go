package snapshot

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/s7type"
	"github.com/s7ua-go/s7ua/store"
)

func buildSampleStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(nil)
	s.SetStructure(
		[]*store.StructureElement{{
			DisplayName: "DB1",
			FullPath:    "DataBlocksGlobal.DB1",
			NodeID:      "ns=3;s=DB1",
			Variables: []*store.Variable{{
				DisplayName: "Temp",
				FullPath:    "DataBlocksGlobal.DB1.Temp",
				NodeID:      "ns=3;s=DB1.Temp",
				S7Type:      s7type.REAL,
				Value:       float32(21.5),
				Quality:     ports.QualityGood,
			}},
		}},
		nil, nil, nil, nil, nil, nil,
	)
	s.BuildCache()
	return s
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	fs := ports.NewAferoFileSystem(afero.NewMemMapFs())
	orig := buildSampleStore(t)

	require.NoError(t, SaveStructure(orig, fs, "/snapshots/plant.json"))

	loaded := store.New(nil)
	require.NoError(t, LoadStructure(loaded, fs, "/snapshots/plant.json"))

	v, ok := loaded.TryGetByPath("DataBlocksGlobal.DB1.Temp")
	require.True(t, ok)
	assert.Equal(t, s7type.REAL, v.S7Type)
	assert.Equal(t, "ns=3;s=DB1.Temp", v.NodeID)
}

func TestLoadMissingFileFails(t *testing.T) {
	fs := ports.NewAferoFileSystem(afero.NewMemMapFs())
	s := store.New(nil)
	err := LoadStructure(s, fs, "/nope.json")
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestLoadMalformedContentFails(t *testing.T) {
	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, "/bad.json", []byte("{not json"), 0o644))
	fs := ports.NewAferoFileSystem(memFs)

	s := store.New(nil)
	err := LoadStructure(s, fs, "/bad.json")
	assert.ErrorIs(t, err, ErrSerialization)
}
