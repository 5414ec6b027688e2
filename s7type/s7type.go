// Package s7type implements the bidirectional converter registry between
// S7 wire representations and host language values (spec.md §4.1). It is
// the tagged-variant dispatch replacement for the source's reflection-based
// converter selection (spec.md §9): every S7Type maps to exactly one Codec
// through a closed lookup table.
package s7type

import (
	"fmt"

	"github.com/s7ua-go/s7ua/ports"
)

// S7Type enumerates the closed set of S7 data types this module knows how
// to convert. UNKNOWN is explicitly permitted (spec.md §3) and resolves to
// the pass-through identity codec so values flow unchanged until a caller
// re-types the variable.
type S7Type uint8

const (
	UNKNOWN S7Type = iota
	BOOL
	BYTE
	WORD
	DWORD
	CHAR
	WCHAR
	INT
	DINT
	LINT
	USINT
	UINT
	UDINT
	ULINT
	REAL
	LREAL
	DATE
	TIME_OF_DAY
	LTIME_OF_DAY
	TIME
	LTIME
	S5TIME
	DATE_AND_TIME
	DTL
	COUNTER
	TIMER
	STRUCT
)

var names = [...]string{
	UNKNOWN:       "UNKNOWN",
	BOOL:          "BOOL",
	BYTE:          "BYTE",
	WORD:          "WORD",
	DWORD:         "DWORD",
	CHAR:          "CHAR",
	WCHAR:         "WCHAR",
	INT:           "INT",
	DINT:          "DINT",
	LINT:          "LINT",
	USINT:         "USINT",
	UINT:          "UINT",
	UDINT:         "UDINT",
	ULINT:         "ULINT",
	REAL:          "REAL",
	LREAL:         "LREAL",
	DATE:          "DATE",
	TIME_OF_DAY:   "TIME_OF_DAY",
	LTIME_OF_DAY:  "LTIME_OF_DAY",
	TIME:          "TIME",
	LTIME:         "LTIME",
	S5TIME:        "S5TIME",
	DATE_AND_TIME: "DATE_AND_TIME",
	DTL:           "DTL",
	COUNTER:       "COUNTER",
	TIMER:         "TIMER",
	STRUCT:        "STRUCT",
}

// String implements fmt.Stringer.
func (t S7Type) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return fmt.Sprintf("S7Type(%d)", uint8(t))
}

// ParseS7Type is the inverse of String, used by the Snapshot Codec to
// read back a type name persisted in a structure file (spec.md §6).
func ParseS7Type(name string) (S7Type, bool) {
	for t, n := range names {
		if n == name {
			return S7Type(t), true
		}
	}
	return UNKNOWN, false
}

// Codec is the bidirectional converter contract from spec.md §4.1: every
// codec exposes the host type it produces plus decode/encode. Null passes
// through as null in both directions; type mismatches are reported as
// errors and never panic.
type Codec interface {
	// TargetType names the host representation this codec produces,
	// e.g. "duration", "calendar date", "ordered sequence of uint8".
	TargetType() string
	Decode(wire ports.Value) (any, error)
	Encode(host any) (ports.Value, error)
}
