// Package tablet implements the immutable, sorted key to partial-record
// map that backs every column family, and doubles as the in-memory
// "virtual tablet" carry buffer the update engine threads between
// inputs.
package tablet

import (
	"sort"

	"merkledb/family"
	"merkledb/keycodec"
)

// Entry is a single (key, value) pair held by a tablet. Value is either
// a full record or a single family's fragment of one, depending on
// context; both share the same map[string]interface{} shape.
type Entry struct {
	Key   keycodec.Key
	Value family.Record
}

// Tablet is an immutable, sorted mapping from key to value. Values
// never alias a caller's backing slice once constructed.
type Tablet struct {
	entries []Entry
}

// Empty is the tablet with no entries.
var Empty = &Tablet{}

// FromRecords builds a tablet from an arbitrary (unsorted, possibly
// duplicate-keyed) sequence of entries, sorting and de-duplicating so
// that the last occurrence of each key wins. If presorted is true the
// caller attests the input is already sorted ascending by key with
// unique keys, and the sort/dedupe pass is skipped.
func FromRecords(seq []Entry, presorted bool) *Tablet {
	if len(seq) == 0 {
		return Empty
	}

	entries := make([]Entry, len(seq))
	copy(entries, seq)

	if !presorted {
		sort.SliceStable(entries, func(i, j int) bool {
			return keycodec.Before(entries[i].Key, entries[j].Key)
		})
		entries = dedupeLastWins(entries)
	}

	return &Tablet{entries: entries}
}

// dedupeLastWins assumes entries is sorted ascending by key and
// collapses runs of equal keys to their last occurrence.
func dedupeLastWins(sorted []Entry) []Entry {
	out := sorted[:0:0]
	for i := 0; i < len(sorted); i++ {
		if i+1 < len(sorted) && keycodec.Equal(sorted[i].Key, sorted[i+1].Key) {
			continue
		}
		out = append(out, sorted[i])
	}
	return out
}

// Count returns the number of keys held.
func (t *Tablet) Count() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// FirstKey returns the smallest key, if any.
func (t *Tablet) FirstKey() (keycodec.Key, bool) {
	if t.Count() == 0 {
		return nil, false
	}
	return t.entries[0].Key, true
}

// LastKey returns the largest key, if any.
func (t *Tablet) LastKey() (keycodec.Key, bool) {
	if t.Count() == 0 {
		return nil, false
	}
	return t.entries[len(t.entries)-1].Key, true
}

// Entries returns the tablet's sorted entries. Callers must not mutate
// the returned slice or its Value maps.
func (t *Tablet) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}

func (t *Tablet) search(key keycodec.Key) int {
	return sort.Search(len(t.entries), func(i int) bool {
		return !keycodec.Before(t.entries[i].Key, key)
	})
}

// Update applies additions and deletions to t and returns the resulting
// tablet: deletions are removed first, then additions are unioned in,
// winning any collision with a surviving key.
func (t *Tablet) Update(additions []Entry, deletedKeys []keycodec.Key) *Tablet {
	deleted := make(map[string]bool, len(deletedKeys))
	for _, k := range deletedKeys {
		deleted[string(k)] = true
	}

	merged := make([]Entry, 0, t.Count()+len(additions))
	for _, e := range t.Entries() {
		if deleted[string(e.Key)] {
			continue
		}
		merged = append(merged, e)
	}
	merged = append(merged, additions...)

	return FromRecords(merged, false)
}

// Join unions a and b by key; where both define a key, b's value wins.
func Join(a, b *Tablet) *Tablet {
	if a.Count() == 0 {
		return FromRecords(b.Entries(), true)
	}
	if b.Count() == 0 {
		return FromRecords(a.Entries(), true)
	}

	merged := make([]Entry, 0, a.Count()+b.Count())
	ai, bi := a.Entries(), b.Entries()
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch keycodec.Compare(ai[i].Key, bi[j].Key) {
		case -1:
			merged = append(merged, ai[i])
			i++
		case 1:
			merged = append(merged, bi[j])
			j++
		default:
			merged = append(merged, bi[j]) // b wins on collision
			i++
			j++
		}
	}
	merged = append(merged, ai[i:]...)
	merged = append(merged, bi[j:]...)

	return &Tablet{entries: merged}
}

// Prune removes entries whose value is an empty fragment. Only
// meaningful for non-base families: the base tablet stays authoritative
// on key existence and must never be pruned.
func (t *Tablet) Prune() *Tablet {
	out := make([]Entry, 0, t.Count())
	for _, e := range t.Entries() {
		if len(e.Value) == 0 {
			continue
		}
		out = append(out, e)
	}
	return &Tablet{entries: out}
}

// Equal reports whether t and o hold the same sorted (key, value)
// pairs. Used by the update engine to detect a no-op merge so the
// original, already-persisted tablet can be re-emitted untouched.
func (t *Tablet) Equal(o *Tablet) bool {
	te, oe := t.Entries(), o.Entries()
	if len(te) != len(oe) {
		return false
	}
	for i := range te {
		if !keycodec.Equal(te[i].Key, oe[i].Key) {
			return false
		}
		if !recordsEqual(te[i].Value, oe[i].Value) {
			return false
		}
	}
	return true
}
