// Package store implements the symbolic data store: a concurrently
// mutable model of a PLC's address space, with a flat path→variable
// cache and automatic node-id synthesis (spec.md §3, §4.2).
package store

import (
	"time"

	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/s7type"
)

// Variable is the fundamental tag (spec.md §3). FullPath is the
// canonical, case-insensitive identity key within one store snapshot;
// for a struct member it is always parent.FullPath + "." + DisplayName.
type Variable struct {
	DisplayName string
	FullPath    string
	NodeID      string

	S7Type     s7type.S7Type
	SystemType string

	RawWireValue ports.Value
	Value        any
	Quality      ports.Quality

	IsSubscribed     bool
	SamplingInterval time.Duration

	// StructMembers holds the ordered child variables when S7Type is
	// s7type.STRUCT; nil otherwise.
	StructMembers []*Variable
}

// Clone returns a shallow copy of v, safe for handing to a caller as a
// borrow-free snapshot (store ownership stays exclusive, spec.md §3).
// StructMembers are copied one level deep; grandchildren are shared.
func (v *Variable) Clone() *Variable {
	if v == nil {
		return nil
	}
	cp := *v
	if v.StructMembers != nil {
		cp.StructMembers = make([]*Variable, len(v.StructMembers))
		copy(cp.StructMembers, v.StructMembers)
	}
	return &cp
}
