// Package discover implements the Discovery Engine: turning a shallow
// Shell reference into a fully populated store.StructureElement or
// store.InstanceDataBlock by browsing the server's address space
// (spec.md §4.5). Grounded on the teacher's notify.go dispatch, which
// logs and skips an unrecognized ASDU rather than aborting the whole
// decode loop — here, a failed individual element discovery is logged
// and the shell returned unchanged so the rest of the tree still
// materializes.
package discover

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/s7type"
	"github.com/s7ua-go/s7ua/store"
)

// Engine walks shells into populated containers.
type Engine struct {
	log *zap.SugaredLogger
}

// NewEngine builds a Discovery Engine. log may be nil.
func NewEngine(log *zap.SugaredLogger) *Engine {
	return &Engine{log: log}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// DiscoverShellList browses rootNodeID once and maps every child
// reference to a Shell tagged childTag, without materializing each one
// (spec.md §4.5: "browse once at the root ... return shells only").
func (e *Engine) DiscoverShellList(ctx context.Context, conn ports.OPCUAConn, rootNodeID string, childTag Tag) ([]Shell, error) {
	refs, err := conn.Browse(ctx, rootNodeID, ports.BrowseObjects)
	if err != nil {
		return nil, fmt.Errorf("discover: browse shell list %s: %w", rootNodeID, err)
	}
	shells := make([]Shell, len(refs))
	for i, r := range refs {
		shells[i] = Shell{NodeID: r.NodeID, DisplayName: r.DisplayName, Tag: childTag}
	}
	return shells, nil
}

// DiscoverStructureElement materializes a global data block, an area
// element, or a generic structure element: its variable-class children,
// each wrapped as a fresh Variable with S7Type UNKNOWN, in browse order
// (spec.md §4.5). parentPath seeds the container's own FullPath; member
// Variables are left with an empty FullPath, computed later by
// store.BuildCache.
func (e *Engine) DiscoverStructureElement(ctx context.Context, conn ports.OPCUAConn, parentPath string, shell *Shell) *store.StructureElement {
	if shell == nil {
		if e.log != nil {
			e.log.Warnw("discover: nil shell for structure element")
		}
		return nil
	}

	se := &store.StructureElement{
		DisplayName: shell.DisplayName,
		FullPath:    joinPath(parentPath, shell.DisplayName),
		NodeID:      shell.NodeID,
	}

	refs, err := conn.Browse(ctx, shell.NodeID, ports.BrowseVariables)
	if err != nil {
		if e.log != nil {
			e.log.Errorw("discover: structure element browse failed", "node_id", shell.NodeID, "display_name", shell.DisplayName, "error", err)
		}
		return se
	}

	se.Variables = make([]*store.Variable, 0, len(refs))
	for _, r := range refs {
		se.Variables = append(se.Variables, &store.Variable{
			DisplayName: r.DisplayName,
			NodeID:      r.NodeID,
			S7Type:      s7type.UNKNOWN,
		})
	}
	return se
}

// DiscoverInstanceDataBlock materializes an instance data block: up to
// four named sections (Input, Output, InOut, Static), each recursed into
// as a structure element (spec.md §4.5). A section the server does not
// expose is left nil.
func (e *Engine) DiscoverInstanceDataBlock(ctx context.Context, conn ports.OPCUAConn, parentPath string, shell *Shell) *store.InstanceDataBlock {
	if shell == nil {
		if e.log != nil {
			e.log.Warnw("discover: nil shell for instance data block")
		}
		return nil
	}

	idb := &store.InstanceDataBlock{
		DisplayName: shell.DisplayName,
		FullPath:    joinPath(parentPath, shell.DisplayName),
		NodeID:      shell.NodeID,
	}

	refs, err := conn.Browse(ctx, shell.NodeID, ports.BrowseObjects)
	if err != nil {
		if e.log != nil {
			e.log.Errorw("discover: instance data block browse failed", "node_id", shell.NodeID, "display_name", shell.DisplayName, "error", err)
		}
		return idb
	}

	for _, r := range refs {
		section := &Shell{NodeID: r.NodeID, DisplayName: r.DisplayName, Tag: TagGenericStructureElement}
		switch r.DisplayName {
		case "Input":
			idb.Input = e.DiscoverStructureElement(ctx, conn, idb.FullPath, section)
		case "Output":
			idb.Output = e.DiscoverStructureElement(ctx, conn, idb.FullPath, section)
		case "InOut":
			idb.InOut = e.DiscoverStructureElement(ctx, conn, idb.FullPath, section)
		case "Static":
			idb.Static = e.DiscoverStructureElement(ctx, conn, idb.FullPath, section)
		}
	}
	return idb
}

// Discover dispatches on shell.Tag, the single entry point the Service
// Coordinator drives for any element whose materialization shape isn't
// already known to the caller. Returns either a *store.StructureElement,
// a *store.InstanceDataBlock, or a []Shell, matching the three
// dispatch branches in spec.md §4.5.
func (e *Engine) Discover(ctx context.Context, conn ports.OPCUAConn, parentPath string, shell *Shell) (any, error) {
	if shell == nil {
		if e.log != nil {
			e.log.Warnw("discover: nil shell")
		}
		return nil, nil
	}

	switch shell.Tag {
	case TagGlobalDataBlock, TagAreaElement, TagGenericStructureElement:
		return e.DiscoverStructureElement(ctx, conn, parentPath, shell), nil
	case TagInstanceDataBlock:
		return e.DiscoverInstanceDataBlock(ctx, conn, parentPath, shell), nil
	case TagGlobalDataBlockList:
		return e.DiscoverShellList(ctx, conn, shell.NodeID, TagGlobalDataBlock)
	case TagInstanceDataBlockList:
		return e.DiscoverShellList(ctx, conn, shell.NodeID, TagInstanceDataBlock)
	default:
		return nil, fmt.Errorf("discover: unrecognized tag %s", shell.Tag)
	}
}
