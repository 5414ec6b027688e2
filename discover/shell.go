package discover

// Tag discriminates what kind of server-side node a Shell stands in
// for, driving the Discovery Engine's dispatch (spec.md §4.5).
type Tag int

const (
	TagGlobalDataBlock Tag = iota
	TagAreaElement
	TagGenericStructureElement
	TagInstanceDataBlock
	TagGlobalDataBlockList
	TagInstanceDataBlockList
)

func (t Tag) String() string {
	switch t {
	case TagGlobalDataBlock:
		return "GlobalDataBlock"
	case TagAreaElement:
		return "AreaElement"
	case TagGenericStructureElement:
		return "GenericStructureElement"
	case TagInstanceDataBlock:
		return "InstanceDataBlock"
	case TagGlobalDataBlockList:
		return "GlobalDataBlockList"
	case TagInstanceDataBlockList:
		return "InstanceDataBlockList"
	default:
		return "Unknown"
	}
}

// Shell is an un-materialized tree node: just enough to fetch the rest
// (spec.md §4.5). The Discovery Engine turns one Shell into a fully
// populated StructureElement or InstanceDataBlock, or a list of child
// Shells when Tag names a list node.
type Shell struct {
	NodeID      string
	DisplayName string
	Tag         Tag
}
