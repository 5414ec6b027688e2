package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/s7type"
	"github.com/s7ua-go/s7ua/store"
)

// ErrSerialization is the sentinel behind a malformed or unreadable
// snapshot file (spec.md §7, kind 8).
var ErrSerialization = errors.New("snapshot: unreadable or malformed structure file")

func qualityString(q ports.Quality) string {
	switch q {
	case ports.QualityGood:
		return "Good"
	case ports.QualityUncertain:
		return "Uncertain"
	case ports.QualityBad:
		return "Bad"
	default:
		return ""
	}
}

func parseQuality(s string) ports.Quality {
	switch s {
	case "Uncertain":
		return ports.QualityUncertain
	case "Bad":
		return ports.QualityBad
	default:
		return ports.QualityGood
	}
}

func variableToDTO(v *store.Variable) variableDTO {
	dto := variableDTO{
		DisplayName:      v.DisplayName,
		FullPath:         v.FullPath,
		NodeID:           v.NodeID,
		S7Type:           v.S7Type.String(),
		SystemType:       v.SystemType,
		Quality:          qualityString(v.Quality),
		IsSubscribed:     v.IsSubscribed,
		SamplingInterval: v.SamplingInterval,
	}
	if !v.RawWireValue.Null() {
		dto.Value = v.Value
	}
	for _, m := range v.StructMembers {
		dto.StructMembers = append(dto.StructMembers, variableToDTO(m))
	}
	return dto
}

func variableFromDTO(dto variableDTO) *store.Variable {
	s7t, _ := s7type.ParseS7Type(dto.S7Type)
	v := &store.Variable{
		DisplayName:      dto.DisplayName,
		FullPath:         dto.FullPath,
		NodeID:           dto.NodeID,
		S7Type:           s7t,
		SystemType:       dto.SystemType,
		Value:            dto.Value,
		Quality:          parseQuality(dto.Quality),
		IsSubscribed:     dto.IsSubscribed,
		SamplingInterval: dto.SamplingInterval,
	}
	for _, m := range dto.StructMembers {
		v.StructMembers = append(v.StructMembers, variableFromDTO(m))
	}
	return v
}

func structureElementToDTO(se *store.StructureElement) *structureElementDTO {
	if se == nil {
		return nil
	}
	dto := &structureElementDTO{
		DisplayName: se.DisplayName,
		FullPath:    se.FullPath,
		NodeID:      se.NodeID,
	}
	for _, v := range se.Variables {
		dto.Variables = append(dto.Variables, variableToDTO(v))
	}
	return dto
}

func structureElementFromDTO(dto *structureElementDTO) *store.StructureElement {
	if dto == nil {
		return nil
	}
	se := &store.StructureElement{
		DisplayName: dto.DisplayName,
		FullPath:    dto.FullPath,
		NodeID:      dto.NodeID,
	}
	for _, v := range dto.Variables {
		se.Variables = append(se.Variables, variableFromDTO(v))
	}
	return se
}

func instanceDataBlockToDTO(idb *store.InstanceDataBlock) instanceDataBlockDTO {
	return instanceDataBlockDTO{
		DisplayName: idb.DisplayName,
		FullPath:    idb.FullPath,
		NodeID:      idb.NodeID,
		Input:       structureElementToDTO(idb.Input),
		Output:      structureElementToDTO(idb.Output),
		InOut:       structureElementToDTO(idb.InOut),
		Static:      structureElementToDTO(idb.Static),
	}
}

func instanceDataBlockFromDTO(dto instanceDataBlockDTO) *store.InstanceDataBlock {
	return &store.InstanceDataBlock{
		DisplayName: dto.DisplayName,
		FullPath:    dto.FullPath,
		NodeID:      dto.NodeID,
		Input:       structureElementFromDTO(dto.Input),
		Output:      structureElementFromDTO(dto.Output),
		InOut:       structureElementFromDTO(dto.InOut),
		Static:      structureElementFromDTO(dto.Static),
	}
}

func rootToDTO(r *store.Root) rootDTO {
	dto := rootDTO{
		Inputs:   structureElementToDTO(r.Inputs),
		Outputs:  structureElementToDTO(r.Outputs),
		Memory:   structureElementToDTO(r.Memory),
		Timers:   structureElementToDTO(r.Timers),
		Counters: structureElementToDTO(r.Counters),
	}
	for _, db := range r.DataBlocksGlobal {
		dto.DataBlocksGlobal = append(dto.DataBlocksGlobal, *structureElementToDTO(db))
	}
	for _, idb := range r.DataBlocksInstance {
		dto.DataBlocksInstance = append(dto.DataBlocksInstance, instanceDataBlockToDTO(idb))
	}
	return dto
}

// SaveStructure serializes s's current Root to path through fs, as a
// UTF-8 JSON document in the seven-key format (spec.md §6).
func SaveStructure(s *store.Store, fs ports.FileSystem, path string) error {
	dto := rootToDTO(s.Root())

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrSerialization, path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto); err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrSerialization, path, err)
	}
	return nil
}

// LoadStructure deserializes path through fs, replaces s's Root via
// SetStructure, and rebuilds the cache (spec.md §6: "load_structure(path)
// deserializes, replaces via set_structure, and rebuilds the cache").
// A missing file or malformed content is a fatal error wrapping
// ErrSerialization.
func LoadStructure(s *store.Store, fs ports.FileSystem, path string) error {
	if !fs.Exists(path) {
		return fmt.Errorf("%w: %s does not exist", ErrSerialization, path)
	}

	f, err := fs.OpenRead(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrSerialization, path, err)
	}
	defer f.Close()

	var dto rootDTO
	if err := json.NewDecoder(f).Decode(&dto); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrSerialization, path, err)
	}

	var dbsGlobal []*store.StructureElement
	for i := range dto.DataBlocksGlobal {
		dbsGlobal = append(dbsGlobal, structureElementFromDTO(&dto.DataBlocksGlobal[i]))
	}
	var dbsInstance []*store.InstanceDataBlock
	for _, idbDTO := range dto.DataBlocksInstance {
		dbsInstance = append(dbsInstance, instanceDataBlockFromDTO(idbDTO))
	}

	s.SetStructure(
		dbsGlobal,
		dbsInstance,
		structureElementFromDTO(dto.Inputs),
		structureElementFromDTO(dto.Outputs),
		structureElementFromDTO(dto.Memory),
		structureElementFromDTO(dto.Timers),
		structureElementFromDTO(dto.Counters),
	)
	s.BuildCache()
	return nil
}
