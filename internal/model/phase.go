package model

import "strconv"

// PhaseKey identifies a phase grouping. The zero value is Unassigned, the
// bucket for records with no phase reference.
type PhaseKey struct {
	id       int64
	assigned bool
}

// Unassigned groups records that carry no phase id.
var Unassigned = PhaseKey{}

// Phase returns the key for a concrete phase id.
func Phase(id int64) PhaseKey {
	return PhaseKey{id: id, assigned: true}
}

// PhaseOf converts a nullable phase id into a key.
func PhaseOf(id *int64) PhaseKey {
	if id == nil {
		return Unassigned
	}
	return Phase(*id)
}

// ID returns the phase id and whether the key is assigned.
func (k PhaseKey) ID() (int64, bool) {
	return k.id, k.assigned
}

// Ptr returns the phase id as a nullable value.
func (k PhaseKey) Ptr() *int64 {
	if !k.assigned {
		return nil
	}
	id := k.id
	return &id
}

// IsUnassigned reports whether k is the Unassigned bucket.
func (k PhaseKey) IsUnassigned() bool {
	return !k.assigned
}

// Less orders keys by ascending id with Unassigned last.
func (k PhaseKey) Less(o PhaseKey) bool {
	if k.assigned != o.assigned {
		return k.assigned
	}
	return k.id < o.id
}

func (k PhaseKey) String() string {
	if !k.assigned {
		return "Unassigned"
	}
	return strconv.FormatInt(k.id, 10)
}
