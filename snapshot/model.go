// Package snapshot implements the Snapshot Codec: save_structure and
// load_structure serialize/deserialize a store.Root to/from the
// seven-key JSON persistence format (spec.md §6), through the
// ports.FileSystem abstraction so production code streams to a real
// disk (via ports.AferoFileSystem) and tests round-trip through an
// in-memory afero.MemMapFs. Grounded on the teacher's
// info.ASDU.MarshalBinary/UnmarshalBinary pair (info/info.go),
// generalized from a fixed binary wire layout to a JSON document.
package snapshot

import "time"

// variableDTO mirrors store.Variable for JSON round-tripping, using
// camel-case field names and omitting null/zero fields per spec.md §6.
type variableDTO struct {
	DisplayName string `json:"displayName"`
	FullPath    string `json:"fullPath"`
	NodeID      string `json:"nodeId,omitempty"`

	S7Type     string `json:"s7Type"`
	SystemType string `json:"systemType,omitempty"`

	Value   any    `json:"value,omitempty"`
	Quality string `json:"quality,omitempty"`

	IsSubscribed     bool          `json:"isSubscribed,omitempty"`
	SamplingInterval time.Duration `json:"samplingInterval,omitempty"`

	StructMembers []variableDTO `json:"structMembers,omitempty"`

	Comment string `json:"comment,omitempty"`

	ArrayDimensions []int `json:"arrayDimensions,omitempty"`
}

// structureElementDTO mirrors store.StructureElement.
type structureElementDTO struct {
	DisplayName string        `json:"displayName"`
	FullPath    string        `json:"fullPath"`
	NodeID      string        `json:"nodeId,omitempty"`
	Variables   []variableDTO `json:"variables,omitempty"`
}

// instanceDataBlockDTO mirrors store.InstanceDataBlock.
type instanceDataBlockDTO struct {
	DisplayName string               `json:"displayName"`
	FullPath    string               `json:"fullPath"`
	NodeID      string               `json:"nodeId,omitempty"`
	Input       *structureElementDTO `json:"input,omitempty"`
	Output      *structureElementDTO `json:"output,omitempty"`
	InOut       *structureElementDTO `json:"inOut,omitempty"`
	Static      *structureElementDTO `json:"static,omitempty"`
}

// rootDTO is the top-level seven-key JSON document (spec.md §6):
// DataBlocksGlobal/DataBlocksInstance are arrays, the five area keys
// are objects that may be null.
type rootDTO struct {
	DataBlocksGlobal   []structureElementDTO  `json:"DataBlocksGlobal,omitempty"`
	DataBlocksInstance []instanceDataBlockDTO `json:"DataBlocksInstance,omitempty"`
	Inputs             *structureElementDTO   `json:"Inputs,omitempty"`
	Outputs            *structureElementDTO   `json:"Outputs,omitempty"`
	Memory             *structureElementDTO   `json:"Memory,omitempty"`
	Timers             *structureElementDTO   `json:"Timers,omitempty"`
	Counters           *structureElementDTO   `json:"Counters,omitempty"`
}
