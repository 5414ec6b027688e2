package store

// Root is the Store Root (spec.md §3): the seven collections that make
// up one Data Store snapshot. Exactly one Root exists per Store
// lifetime; SetStructure replaces it atomically.
type Root struct {
	DataBlocksGlobal   []*StructureElement
	DataBlocksInstance []*InstanceDataBlock

	Inputs   *StructureElement
	Outputs  *StructureElement
	Memory   *StructureElement
	Timers   *StructureElement
	Counters *StructureElement
}

// areas returns the five area elements in a fixed order, skipping any
// that are nil (set_structure always materializes placeholders, so this
// is mostly relevant before the first SetStructure call).
func (r *Root) areas() []*StructureElement {
	var out []*StructureElement
	for _, a := range []*StructureElement{r.Inputs, r.Outputs, r.Memory, r.Timers, r.Counters} {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
