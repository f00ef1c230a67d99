package partition

import (
	"context"
	"sort"

	"merkledb/bloom"
	"merkledb/family"
	"merkledb/internal/xlog"
	"merkledb/keycodec"
	"merkledb/store"
	"merkledb/tablet"
)

// FromRecords builds a single partition from records: tombstones are
// stripped, the surviving entries sorted and deduplicated (last write
// wins), then split across families and persisted. Returns (nil, nil)
// if every record was a tombstone or records is empty — the caller
// suppresses an empty partition. Returns *PartitionOverflow if the
// surviving count exceeds params.Limit.
func FromRecords(ctx context.Context, st store.Store, params Params, records []tablet.Change) (*NodeData, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	entries := stripTombstonesAndDedupe(records)
	return buildNode(ctx, st, params, entries)
}

// stripTombstonesAndDedupe drops tombstoned changes, sorts the
// remainder by key, and keeps only the last occurrence of each key.
func stripTombstonesAndDedupe(records []tablet.Change) []family.Entry {
	live := make([]family.Entry, 0, len(records))
	for _, r := range records {
		if r.Tomb {
			continue
		}
		live = append(live, family.Entry{Key: r.Key, Value: r.Value})
	}
	sort.SliceStable(live, func(i, j int) bool {
		return keycodec.Before(live[i].Key, live[j].Key)
	})
	out := live[:0:0]
	for i := 0; i < len(live); i++ {
		if i+1 < len(live) && keycodec.Equal(live[i].Key, live[i+1].Key) {
			continue
		}
		out = append(out, live[i])
	}
	return out
}

// buildNode constructs and persists a partition from entries that are
// already sorted ascending by unique key and tombstone-free. Used both
// by FromRecords (after stripping/deduping) and internally by
// PartitionRecords/emitParts over already-materialized virtual tablet
// entries.
func buildNode(ctx context.Context, st store.Store, params Params, entries []family.Entry) (*NodeData, error) {
	if len(entries) > params.Limit {
		return nil, &PartitionOverflow{Count: len(entries), Limit: params.Limit}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	split := family.SplitData(params.Families, entries)

	names := make([]string, 0, len(split))
	for name := range split {
		names = append(names, name)
	}
	sort.Strings(names)

	tablets := make(map[string]store.Link, len(names))
	for _, name := range names {
		frag := split[name]
		tb := tablet.FromRecords(toTabletEntries(frag), true)
		if name != family.Base {
			tb = tb.Prune()
			if tb.Count() == 0 {
				continue
			}
		}
		data, err := tablet.Encode(tb)
		if err != nil {
			return nil, err
		}
		link, err := st.StoreNode(ctx, nil, data)
		if err != nil {
			xlog.Err(err)
			return nil, &StoreUnavailable{Cause: err}
		}
		tablets[name] = store.Named(name, link)
	}

	mf := bloom.New(params.Limit, params.BloomFPR)
	for _, e := range entries {
		mf.Insert(e.Key)
	}

	node := &Node{
		Limit:      params.Limit,
		Tablets:    tablets,
		Membership: mf,
		Count:      len(entries),
		Families:   params.Families,
		FirstKey:   entries[0].Key,
		LastKey:    entries[len(entries)-1].Key,
	}
	return storeNodeValue(ctx, st, node)
}

func toTabletEntries(frag []family.Entry) []tablet.Entry {
	out := make([]tablet.Entry, len(frag))
	for i, e := range frag {
		out[i] = tablet.Entry{Key: e.Key, Value: e.Value}
	}
	return out
}

func toFamilyEntries(frag []tablet.Entry) []family.Entry {
	out := make([]family.Entry, len(frag))
	for i, e := range frag {
		out[i] = family.Entry{Key: e.Key, Value: e.Value}
	}
	return out
}

// PartitionLimited splits a collection of count items into the fewest
// approximately-equal groups such that no group exceeds limit: with
// n = ceil(count/limit), group boundaries fall at floor(i*count/n) for
// i in 0..n. Returns half-open [start, end) index pairs; group sizes
// differ by at most 1 and order is preserved.
func PartitionLimited(limit, count int) [][2]int {
	if count == 0 {
		return nil
	}
	n := (count + limit - 1) / limit
	if n < 1 {
		n = 1
	}
	bounds := make([][2]int, 0, n)
	prev := 0
	for i := 1; i <= n; i++ {
		end := i * count / n
		bounds = append(bounds, [2]int{prev, end})
		prev = end
	}
	return bounds
}

// PartitionRecords splits entries (already sorted ascending by unique
// key) into PartitionLimited(params.Limit, len(entries)) chunks and
// builds a partition from each, in order.
func PartitionRecords(ctx context.Context, st store.Store, params Params, entries []tablet.Entry) ([]*NodeData, error) {
	bounds := PartitionLimited(params.Limit, len(entries))
	out := make([]*NodeData, 0, len(bounds))
	for _, b := range bounds {
		chunk := toFamilyEntries(entries[b[0]:b[1]])
		nd, err := buildNode(ctx, st, params, chunk)
		if err != nil {
			return nil, err
		}
		if nd != nil {
			out = append(out, nd)
		}
	}
	return out, nil
}
