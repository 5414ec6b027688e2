package store

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua/s7type"
)

// cacheEntry pairs a Variable with the exact-case path it was registered
// under, since the index itself is keyed by the lowercased path
// (spec.md §3, Path Cache: "case-insensitive").
type cacheEntry struct {
	path     string
	variable *Variable
}

// Store is the Data Store: a Root plus its derived Path Cache and
// node-id map, serialized by a single writer lock (spec.md §4.2,
// §5). Every exported method is safe for concurrent use; readers never
// observe a partially-updated tree.
type Store struct {
	mu sync.RWMutex

	root *Root

	// entries preserves insertion order for FindWhere; index maps a
	// lowercased path to its slot in entries for O(1) lookup.
	entries []*cacheEntry
	index   map[string]int

	// nodeIndex maps node id to full path, populated for subscribed
	// variables (spec.md §3, "Node-id map").
	nodeIndex map[string]string

	log *zap.SugaredLogger
}

// New returns an empty Store. log may be nil.
func New(log *zap.SugaredLogger) *Store {
	return &Store{
		root:      &Root{},
		index:     make(map[string]int),
		nodeIndex: make(map[string]string),
		log:       log,
	}
}

// SetStructure atomically replaces the Store Root. Absent area elements
// are materialized as empty placeholders with their canonical display
// names (spec.md §4.2). It does not rebuild the cache.
func (s *Store) SetStructure(dbsGlobal []*StructureElement, dbsInstance []*InstanceDataBlock, inputs, outputs, memory, timers, counters *StructureElement) {
	if inputs == nil {
		inputs = emptyArea(RootInputs)
	}
	if outputs == nil {
		outputs = emptyArea(RootOutputs)
	}
	if memory == nil {
		memory = emptyArea(RootMemory)
	}
	if timers == nil {
		timers = emptyArea(RootTimers)
	}
	if counters == nil {
		counters = emptyArea(RootCounters)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = &Root{
		DataBlocksGlobal:   dbsGlobal,
		DataBlocksInstance: dbsInstance,
		Inputs:             inputs,
		Outputs:            outputs,
		Memory:             memory,
		Timers:             timers,
		Counters:           counters,
	}
}

// Root returns the current Store Root. Callers must treat it as
// read-only: the Store owns its tree (spec.md §3, "Ownership is
// exclusive"). SetStructure replaces the whole Root, while
// RegisterVariable, RegisterGlobalDataBlock, UpdateVariable and
// BuildCache modify the current one in place under the write lock, so a
// caller holding the returned pointer can observe those changes.
func (s *Store) Root() *Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// BuildCache clears and repopulates the Path Cache by walking the Store
// Root depth-first. A variable with an empty FullPath is given its
// computed path (parent path + "." + DisplayName). Idempotent (spec.md
// §4.2).
func (s *Store) BuildCache() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.index = make(map[string]int)

	for _, db := range s.root.DataBlocksGlobal {
		s.walkContainer(db)
	}
	for _, idb := range s.root.DataBlocksInstance {
		for _, sec := range idb.sections() {
			s.walkContainer(sec)
		}
	}
	for _, area := range s.root.areas() {
		s.walkContainer(area)
	}
}

func (s *Store) walkContainer(se *StructureElement) {
	for _, v := range se.Variables {
		s.walkVariable(v, se.FullPath)
	}
}

func (s *Store) walkVariable(v *Variable, parentPath string) {
	path := v.FullPath
	if path == "" {
		path = parentPath + "." + v.DisplayName
		v.FullPath = path
	}
	s.appendEntry(path, v)
	for _, m := range v.StructMembers {
		s.walkVariable(m, path)
	}
}

// appendEntry must be called with the write lock held.
func (s *Store) appendEntry(path string, v *Variable) {
	lower := strings.ToLower(path)
	if idx, ok := s.index[lower]; ok {
		s.entries[idx] = &cacheEntry{path: path, variable: v}
		return
	}
	s.index[lower] = len(s.entries)
	s.entries = append(s.entries, &cacheEntry{path: path, variable: v})
}

// TryGetByPath is a case-insensitive, O(1) cache lookup.
func (s *Store) TryGetByPath(path string) (*Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[strings.ToLower(path)]
	if !ok {
		return nil, false
	}
	return s.entries[idx].variable, true
}

// GetAll returns a snapshot of the current cache, keyed by each
// variable's exact-case path.
func (s *Store) GetAll() map[string]*Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Variable, len(s.entries))
	for _, e := range s.entries {
		out[e.path] = e.variable
	}
	return out
}

// FindWhere performs a linear scan, returning matches in insertion
// order (spec.md §4.2).
func (s *Store) FindWhere(predicate func(*Variable) bool) []*Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Variable
	for _, e := range s.entries {
		if predicate(e.variable) {
			out = append(out, e.variable)
		}
	}
	return out
}

// RegisterVariable inserts a new variable at the location implied by its
// FullPath, synthesizing a node id when eligible and recursively
// registering struct members (spec.md §4.2).
func (s *Store) RegisterVariable(v *Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerVariableLocked(v, true)
}

func (s *Store) registerVariableLocked(v *Variable, checkParent bool) error {
	if v == nil || v.FullPath == "" {
		return ErrInvalidPath
	}
	lower := strings.ToLower(v.FullPath)
	if _, exists := s.index[lower]; exists {
		return ErrPathExists
	}

	if checkParent {
		segs := strings.Split(v.FullPath, ".")
		if len(segs) < 2 {
			return ErrInvalidPath
		}
		parentPath := strings.Join(segs[:len(segs)-1], ".")
		if !s.containerExists(parentPath) {
			return ErrParentMissing
		}
		if !s.attachToContainer(parentPath, v) {
			return ErrParentMissing
		}
	}

	if v.NodeID == "" {
		v.NodeID = synthesizeNodeID(v.FullPath)
	}
	s.appendEntry(v.FullPath, v)

	if v.S7Type == s7type.STRUCT {
		for _, m := range v.StructMembers {
			if m.FullPath == "" {
				m.FullPath = v.FullPath + "." + m.DisplayName
			}
			if err := s.registerVariableLocked(m, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// attachToContainer appends v to the Variables slice of the container
// named by path: an area root, a global data block, an instance data
// block section, or an already-registered (struct) variable's
// StructMembers. Must be called with the write lock held, and only
// after containerExists(path) has confirmed the container is known.
// Without this, a variable registered via RegisterVariable would only
// ever reach the flat path cache and vanish the next time BuildCache
// walks the tree from scratch (spec.md §4.2).
func (s *Store) attachToContainer(path string, v *Variable) bool {
	for _, name := range []string{RootInputs, RootOutputs, RootMemory, RootTimers, RootCounters} {
		if strings.EqualFold(name, path) {
			area := s.areaSlot(name)
			area.Variables = append(area.Variables, v)
			return true
		}
	}
	for _, db := range s.root.DataBlocksGlobal {
		if strings.EqualFold(db.FullPath, path) {
			db.Variables = append(db.Variables, v)
			return true
		}
	}
	for _, idb := range s.root.DataBlocksInstance {
		for _, sec := range idb.sections() {
			if strings.EqualFold(sec.FullPath, path) {
				sec.Variables = append(sec.Variables, v)
				return true
			}
		}
	}
	if idx, ok := s.index[strings.ToLower(path)]; ok {
		parent := s.entries[idx].variable
		parent.StructMembers = append(parent.StructMembers, v)
		return true
	}
	return false
}

// areaSlot returns the Root's StructureElement for the named area,
// materializing an empty placeholder in place if SetStructure has not
// run yet (mirrors SetStructure's own nil-area defaulting).
func (s *Store) areaSlot(name string) *StructureElement {
	switch name {
	case RootInputs:
		if s.root.Inputs == nil {
			s.root.Inputs = emptyArea(RootInputs)
		}
		return s.root.Inputs
	case RootOutputs:
		if s.root.Outputs == nil {
			s.root.Outputs = emptyArea(RootOutputs)
		}
		return s.root.Outputs
	case RootMemory:
		if s.root.Memory == nil {
			s.root.Memory = emptyArea(RootMemory)
		}
		return s.root.Memory
	case RootTimers:
		if s.root.Timers == nil {
			s.root.Timers = emptyArea(RootTimers)
		}
		return s.root.Timers
	default:
		if s.root.Counters == nil {
			s.root.Counters = emptyArea(RootCounters)
		}
		return s.root.Counters
	}
}

// containerExists reports whether path names a known container: an area
// root, an existing global data block, an existing instance data block
// section, or an already-registered (struct) variable.
func (s *Store) containerExists(path string) bool {
	for _, name := range []string{RootInputs, RootOutputs, RootMemory, RootTimers, RootCounters} {
		if strings.EqualFold(path, name) {
			return true
		}
	}
	for _, db := range s.root.DataBlocksGlobal {
		if strings.EqualFold(db.FullPath, path) {
			return true
		}
	}
	for _, idb := range s.root.DataBlocksInstance {
		for _, sec := range idb.sections() {
			if strings.EqualFold(sec.FullPath, path) {
				return true
			}
		}
	}
	_, ok := s.index[strings.ToLower(path)]
	return ok
}

// RegisterGlobalDataBlock adds a top-level global data block. Rejects an
// invalid full path (must have exactly two segments, first segment
// "DataBlocksGlobal") and duplicate paths (spec.md §4.2).
func (s *Store) RegisterGlobalDataBlock(db *StructureElement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segs := strings.Split(db.FullPath, ".")
	if len(segs) != 2 || !strings.EqualFold(segs[0], RootDataBlocksGlobal) {
		return ErrInvalidPath
	}
	for _, existing := range s.root.DataBlocksGlobal {
		if strings.EqualFold(existing.FullPath, db.FullPath) {
			return ErrPathExists
		}
	}
	if db.NodeID == "" {
		db.NodeID = synthesizeNodeID(db.FullPath)
	}
	s.root.DataBlocksGlobal = append(s.root.DataBlocksGlobal, db)
	return nil
}

// UpdateVariable replaces the variable at path in both the hierarchy and
// the cache. Case-insensitive; preserves siblings and ancestors
// (spec.md §4.2).
func (s *Store) UpdateVariable(path string, newVar *Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(path)
	idx, ok := s.index[lower]
	if !ok {
		return ErrInvalidPath
	}
	canonical := s.entries[idx].path
	newVar.FullPath = canonical

	replaced := false
	for _, db := range s.root.DataBlocksGlobal {
		if replaceInVariables(db.Variables, lower, newVar) {
			replaced = true
			break
		}
	}
	if !replaced {
	outer:
		for _, idb := range s.root.DataBlocksInstance {
			for _, sec := range idb.sections() {
				if replaceInVariables(sec.Variables, lower, newVar) {
					replaced = true
					break outer
				}
			}
		}
	}
	if !replaced {
		for _, area := range s.root.areas() {
			if replaceInVariables(area.Variables, lower, newVar) {
				replaced = true
				break
			}
		}
	}
	if !replaced {
		return ErrInvalidPath
	}

	s.entries[idx] = &cacheEntry{path: canonical, variable: newVar}
	return nil
}

// replaceInVariables searches vars and each variable's struct members
// depth-first for lowerPath, swapping in newVar in place.
func replaceInVariables(vars []*Variable, lowerPath string, newVar *Variable) bool {
	for i, v := range vars {
		if strings.ToLower(v.FullPath) == lowerPath {
			vars[i] = newVar
			return true
		}
		if replaceInVariables(v.StructMembers, lowerPath, newVar) {
			return true
		}
	}
	return false
}

// TrackSubscription records a subscribed variable's node id in the
// node-id map, so the Service Coordinator's push path can resolve an
// incoming notification back to a path (spec.md §3, §4.6).
func (s *Store) TrackSubscription(nodeID, fullPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeIndex[nodeID] = fullPath
}

// PathForNodeID resolves a node id to the full path it was last tracked
// under via TrackSubscription.
func (s *Store) PathForNodeID(nodeID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.nodeIndex[nodeID]
	return path, ok
}
