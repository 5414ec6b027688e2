package store

import "errors"

// ErrInvalidPath is returned whenever a path resolves to no variable or
// an ineligible container (spec.md §7, kind 2).
var ErrInvalidPath = errors.New("store: path resolves to no variable or container")

// ErrPathExists is returned by registration when a path is already
// occupied.
var ErrPathExists = errors.New("store: path already registered")

// ErrParentMissing is returned by RegisterVariable when the container
// implied by a variable's full path does not exist.
var ErrParentMissing = errors.New("store: parent container does not exist")
