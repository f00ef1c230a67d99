package tablet

import (
	"merkledb/family"
	"merkledb/keycodec"
)

// Change is one (key, value-or-tombstone) mutation awaiting merge.
type Change struct {
	Key   keycodec.Key
	Value family.Record // nil/absent meaning: see Tombstone below
	Tomb  bool
}

// Tombstone constructs a deleting Change for key.
func Tombstone(key keycodec.Key) Change {
	return Change{Key: key, Tomb: true}
}

// Set constructs an upserting Change for key.
func Set(key keycodec.Key, value family.Record) Change {
	return Change{Key: key, Value: value}
}

// ApplyPatch applies a key-ordered sequence of changes to t, splitting
// tombstones from additions and delegating to Update. Returns nil if
// changes is empty, signalling "unchanged" to the caller.
func ApplyPatch(t *Tablet, changes []Change) *Tablet {
	if len(changes) == 0 {
		return nil
	}

	additions := make([]Entry, 0, len(changes))
	var deleted []keycodec.Key
	for _, c := range changes {
		if c.Tomb {
			deleted = append(deleted, c.Key)
			continue
		}
		additions = append(additions, Entry{Key: c.Key, Value: c.Value})
	}

	return t.Update(additions, deleted)
}
