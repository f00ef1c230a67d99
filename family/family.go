// Package family implements the record/field-family layout: it splits
// a record map into per-family fragments given a family to fields
// mapping, and defines a tombstone sentinel value (Deleted,
// IsTombstone).
package family

import "merkledb/keycodec"

// Base is the reserved family that holds any field not claimed by a
// named family, and is always present on a partition.
const Base = "base"

// Record is a mapping from field name to value. A fragment is simply a
// Record restricted to the fields one family claims.
type Record map[string]interface{}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Tombstone is the distinguished value marking a deletion.
type Tombstone struct{}

// Deleted is the sentinel tombstone value.
var Deleted = Tombstone{}

// IsTombstone reports whether v is the tombstone sentinel.
func IsTombstone(v interface{}) bool {
	_, ok := v.(Tombstone)
	return ok
}

// Families maps a family name to the set of fields it claims. The
// reserved family Base is implicit and must not be listed explicitly:
// any field not claimed by another family belongs to it automatically.
type Families map[string][]string

// Entry pairs a key with the record (or fragment) value stored at it.
type Entry struct {
	Key   keycodec.Key
	Value Record
}

// fieldOwners inverts families into field -> owning family.
func (f Families) fieldOwners() map[string]string {
	owners := make(map[string]string, len(f))
	for fam, fields := range f {
		for _, field := range fields {
			owners[field] = fam
		}
	}
	return owners
}

// SplitData splits each record into one fragment per family, collecting
// any field not claimed by a named family into Base. Fragments that
// would be empty are omitted, except for Base, which is always emitted
// for every surviving key so that a tablet's presence can answer
// existence queries.
func SplitData(families Families, records []Entry) map[string][]Entry {
	owners := families.fieldOwners()
	result := make(map[string][]Entry)

	for _, rec := range records {
		perFamily := make(map[string]Record)
		base := make(Record)

		for field, val := range rec.Value {
			if fam, ok := owners[field]; ok {
				if perFamily[fam] == nil {
					perFamily[fam] = make(Record)
				}
				perFamily[fam][field] = val
				continue
			}
			base[field] = val
		}

		for fam, frag := range perFamily {
			if len(frag) == 0 {
				continue
			}
			result[fam] = append(result[fam], Entry{Key: rec.Key, Value: frag})
		}
		result[Base] = append(result[Base], Entry{Key: rec.Key, Value: base})
	}

	return result
}

// ChooseTablets decides which families must be read to satisfy a
// projection onto fields. An empty fields selection means "everything":
// every name in present is returned. Otherwise, every present family
// whose claimed fields intersect the projection is selected; if any
// requested field is not covered by a named family, Base is added too
// when present (it may hold that field, or the field simply does not
// exist).
func ChooseTablets(families Families, present []string, fields []string) []string {
	if len(fields) == 0 {
		return append([]string(nil), present...)
	}

	owners := families.fieldOwners()

	selected := make(map[string]bool)
	needsBase := false
	for _, f := range fields {
		if fam, ok := owners[f]; ok {
			selected[fam] = true
		} else {
			needsBase = true
		}
	}

	presentSet := make(map[string]bool, len(present))
	for _, p := range present {
		presentSet[p] = true
	}

	out := make([]string, 0, len(selected)+1)
	for fam := range selected {
		if presentSet[fam] {
			out = append(out, fam)
		}
	}
	if needsBase && presentSet[Base] {
		out = append(out, Base)
	}
	return out
}

// Project restricts rec to exactly the named fields. An empty fields
// list returns rec unchanged.
func Project(rec Record, fields []string) Record {
	if len(fields) == 0 {
		return rec
	}
	out := make(Record)
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
