package store

import "strings"

// nodeIDPrefix is the OPC UA namespace the server exposes the S7 symbol
// space under (spec.md §4.2 scenario: "ns=3;s=DB1.Temp").
const nodeIDPrefix = "ns=3;s="

// synthesizeNodeID derives a node id from a variable's full path, the
// same rule for top-level variables and recursively for struct members
// (spec.md §4.2): a global data block loses its DataBlocksGlobal root
// segment, an area element keeps its root segment, and anything else
// (instance data block sections) gets no synthesized id.
func synthesizeNodeID(fullPath string) string {
	segs := strings.Split(fullPath, ".")
	if len(segs) < 2 {
		return ""
	}

	switch segs[0] {
	case RootDataBlocksGlobal:
		return nodeIDPrefix + strings.Join(segs[1:], ".")
	case RootInputs, RootOutputs, RootMemory, RootTimers, RootCounters:
		return nodeIDPrefix + fullPath
	default:
		return ""
	}
}
