package store

import (
	"LandLedger/internal/entity"
	"encoding/binary"
)

// Op is a staged store operation.
type Op int8

const (
	OpSave Op = iota + 1
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpSave:
		return "save"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

type recordKey struct {
	kind entity.Kind
	id   string
}

// Change is one staged write. Doc is nil for removals.
type Change struct {
	Kind entity.Kind
	ID   string
	Op   Op
	Doc  []byte
}

// Changeset is the ordered set of writes produced by one event. A later
// write to the same record replaces the earlier one in place.
type Changeset struct {
	Changes    []Change
	Checkpoint *Checkpoint

	index map[recordKey]int
}

func NewChangeset() *Changeset {
	return &Changeset{index: make(map[recordKey]int)}
}

func (cs *Changeset) put(c Change) {
	k := recordKey{c.Kind, c.ID}
	if i, ok := cs.index[k]; ok {
		cs.Changes[i] = c
		return
	}
	cs.index[k] = len(cs.Changes)
	cs.Changes = append(cs.Changes, c)
}

func (cs *Changeset) lookup(kind entity.Kind, id string) (Change, bool) {
	i, ok := cs.index[recordKey{kind, id}]
	if !ok {
		return Change{}, false
	}
	return cs.Changes[i], true
}

// Len returns the number of distinct records touched.
func (cs *Changeset) Len() int {
	return len(cs.Changes)
}

// Empty reports whether the event produced no writes.
func (cs *Changeset) Empty() bool {
	return len(cs.Changes) == 0
}

// Digest returns canonical bytes for hashing: for each change in order,
// len(kind)||kind||len(id)||id||op||len(doc)||doc.
func (cs *Changeset) Digest() []byte {
	size := 0
	for _, c := range cs.Changes {
		size += len(c.Kind) + len(c.ID) + len(c.Doc) + 13
	}
	digest := make([]byte, 0, size)

	for _, c := range cs.Changes {
		digest = binary.LittleEndian.AppendUint16(digest, uint16(len(c.Kind)))
		digest = append(digest, string(c.Kind)...)
		digest = binary.LittleEndian.AppendUint16(digest, uint16(len(c.ID)))
		digest = append(digest, c.ID...)
		digest = append(digest, byte(c.Op))
		digest = binary.LittleEndian.AppendUint64(digest, uint64(len(c.Doc)))
		digest = append(digest, c.Doc...)
	}
	return digest
}

// CountByKind returns saves and removes per record kind.
func (cs *Changeset) CountByKind() (saved, removed map[entity.Kind]int) {
	saved = make(map[entity.Kind]int)
	removed = make(map[entity.Kind]int)
	for _, c := range cs.Changes {
		if c.Op == OpRemove {
			removed[c.Kind]++
		} else {
			saved[c.Kind]++
		}
	}
	return saved, removed
}
