package tablet

import (
	"sort"

	"merkledb/family"
	"merkledb/keycodec"
)

// Iterator is a pull-based, lazy, ordered, non-restartable sequence of
// (key, value) pairs, with typed accessors (Key/Value) in place of a
// generic Item().
type Iterator interface {
	// Valid reports whether Key/Value may be called.
	Valid() bool
	// Next advances to the following entry and returns the new Valid().
	Next() bool
	Key() keycodec.Key
	Value() family.Record
	Close() error
}

// sliceIterator walks entries already materialized in memory; ReadAll,
// ReadRange and ReadBatch all resolve to one of these.
type sliceIterator struct {
	entries []Entry
	pos     int
}

func newSliceIterator(entries []Entry) *sliceIterator {
	return &sliceIterator{entries: entries, pos: -1}
}

func (it *sliceIterator) Valid() bool { return it.pos >= 0 && it.pos < len(it.entries) }

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.Valid()
}

func (it *sliceIterator) Key() keycodec.Key    { return it.entries[it.pos].Key }
func (it *sliceIterator) Value() family.Record { return it.entries[it.pos].Value }
func (it *sliceIterator) Close() error         { return nil }

// ReadAll returns every (key, value) pair in ascending key order.
func (t *Tablet) ReadAll() Iterator {
	return newSliceIterator(t.Entries())
}

// ReadRange returns every pair with lo <= key <= hi. A nil bound is
// open on that side.
func (t *Tablet) ReadRange(lo, hi keycodec.Key) Iterator {
	entries := t.Entries()
	start := 0
	if lo != nil {
		start = sort.Search(len(entries), func(i int) bool {
			return !keycodec.Before(entries[i].Key, lo)
		})
	}
	end := len(entries)
	if hi != nil {
		end = sort.Search(len(entries), func(i int) bool {
			return keycodec.After(entries[i].Key, hi)
		})
	}
	if start > end {
		start = end
	}
	return newSliceIterator(entries[start:end])
}

// ReadBatch returns the pairs whose key is in keys, in ascending key
// order, regardless of the order keys was given in.
func (t *Tablet) ReadBatch(keys []keycodec.Key) Iterator {
	wanted := make([]keycodec.Key, len(keys))
	copy(wanted, keys)
	sort.Slice(wanted, func(i, j int) bool { return keycodec.Before(wanted[i], wanted[j]) })

	entries := t.Entries()
	out := make([]Entry, 0, len(wanted))
	i := 0
	for _, k := range wanted {
		for i < len(entries) && keycodec.Before(entries[i].Key, k) {
			i++
		}
		if i < len(entries) && keycodec.Equal(entries[i].Key, k) {
			out = append(out, entries[i])
		}
	}
	return newSliceIterator(out)
}

// Collect materializes an iterator into a sorted, deduplicated Tablet.
// The iterator is assumed to already yield ascending, unique keys (true
// of every Iterator this package or the merge below produces), so no
// further sort/dedupe pass is needed.
func Collect(it Iterator) (*Tablet, error) {
	var entries []Entry
	for it.Next() {
		entries = append(entries, Entry{Key: it.Key(), Value: it.Value()})
	}
	if err := it.Close(); err != nil {
		return nil, err
	}
	return FromRecords(entries, true), nil
}

// mergeSource is one of the per-family iterators being merged, paired
// with the cached state of its current head.
type mergeSource struct {
	it    Iterator
	valid bool
}

// mergeIterator performs a k-way streaming merge across per-family
// iterators: at each step it finds the minimum current key across every
// non-exhausted source, unions the values of every source whose head
// equals that key (a later source in the list wins on a field-name
// collision, though families partition fields so this never actually
// happens), and advances exactly those sources.
type mergeIterator struct {
	sources []*mergeSource
	key     keycodec.Key
	value   family.Record
	started bool
}

// NewMergeIterator merges iters by key, unioning colliding values. Pass
// per-family iterators in a stable order (e.g. sorted family name) so
// collision resolution is deterministic.
func NewMergeIterator(iters []Iterator) Iterator {
	sources := make([]*mergeSource, len(iters))
	for i, it := range iters {
		sources[i] = &mergeSource{it: it}
	}
	return &mergeIterator{sources: sources}
}

func (m *mergeIterator) Valid() bool { return m.started && m.value != nil }

func (m *mergeIterator) Next() bool {
	if !m.started {
		m.started = true
		for _, s := range m.sources {
			s.valid = s.it.Next()
		}
	} else {
		for _, s := range m.sources {
			if s.valid && keycodec.Equal(s.it.Key(), m.key) {
				s.valid = s.it.Next()
			}
		}
	}

	var min keycodec.Key
	any := false
	for _, s := range m.sources {
		if !s.valid {
			continue
		}
		if !any || keycodec.Before(s.it.Key(), min) {
			min = s.it.Key()
			any = true
		}
	}
	if !any {
		m.key, m.value = nil, nil
		return false
	}

	merged := make(family.Record)
	for _, s := range m.sources {
		if s.valid && keycodec.Equal(s.it.Key(), min) {
			for k, v := range s.it.Value() {
				merged[k] = v
			}
		}
	}
	m.key, m.value = min, merged
	return true
}

func (m *mergeIterator) Key() keycodec.Key    { return m.key }
func (m *mergeIterator) Value() family.Record { return m.value }

func (m *mergeIterator) Close() error {
	var first error
	for _, s := range m.sources {
		if err := s.it.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ProjectIterator wraps it, restricting every yielded value to fields
// and dropping entries whose projection becomes empty.
func ProjectIterator(it Iterator, fields []string) Iterator {
	if len(fields) == 0 {
		return it
	}
	return &projectIterator{inner: it, fields: fields}
}

type projectIterator struct {
	inner  Iterator
	fields []string
	key    keycodec.Key
	value  family.Record
}

func (p *projectIterator) Valid() bool { return p.value != nil }

func (p *projectIterator) Next() bool {
	for p.inner.Next() {
		proj := family.Project(p.inner.Value(), p.fields)
		if len(proj) == 0 {
			continue
		}
		p.key, p.value = p.inner.Key(), proj
		return true
	}
	p.key, p.value = nil, nil
	return false
}

func (p *projectIterator) Key() keycodec.Key    { return p.key }
func (p *projectIterator) Value() family.Record { return p.value }
func (p *projectIterator) Close() error         { return p.inner.Close() }
