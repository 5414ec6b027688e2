package store

// Canonical display names for the five area Structure Elements and the
// two data-block roots, used both when materializing empty placeholders
// in SetStructure and when synthesizing node ids from a full path
// (spec.md §4.2).
const (
	RootDataBlocksGlobal   = "DataBlocksGlobal"
	RootDataBlocksInstance = "DataBlocksInstance"
	RootInputs             = "Inputs"
	RootOutputs            = "Outputs"
	RootMemory             = "Memory"
	RootTimers             = "Timers"
	RootCounters           = "Counters"
)

// StructureElement is a named container of Variables: a global data
// block, or one of the five area elements (spec.md §3).
type StructureElement struct {
	DisplayName string
	FullPath    string
	NodeID      string
	Variables   []*Variable
}

// InstanceDataBlock is a data block composed of up to four named
// sections, each itself a Structure Element. Sections may be absent
// (spec.md §3).
type InstanceDataBlock struct {
	DisplayName string
	FullPath    string
	NodeID      string

	Input  *StructureElement
	Output *StructureElement
	InOut  *StructureElement
	Static *StructureElement
}

// sections returns the present sections in a fixed order, for
// depth-first walks shared by cache building and registration.
func (db *InstanceDataBlock) sections() []*StructureElement {
	var out []*StructureElement
	for _, s := range []*StructureElement{db.Input, db.Output, db.InOut, db.Static} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func emptyArea(displayName string) *StructureElement {
	return &StructureElement{DisplayName: displayName, FullPath: displayName}
}
