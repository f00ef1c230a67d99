package partition

import (
	"context"
	"sort"

	"merkledb/family"
	"merkledb/keycodec"
	"merkledb/store"
	"merkledb/tablet"
)

// readPrimitive selects which tablet.Iterator constructor to use for a
// chosen family: ReadAll, ReadRange or ReadBatch all share this shape
// once the tablet itself is loaded.
type readPrimitive func(t *tablet.Tablet) tablet.Iterator

// chosenFamilies returns the sorted family names ReadAll/ReadRange/
// ReadBatch must load to satisfy fields.
func chosenFamilies(node *Node, fields []string) []string {
	present := make([]string, 0, len(node.Tablets))
	for name := range node.Tablets {
		present = append(present, name)
	}
	sort.Strings(present)
	chosen := family.ChooseTablets(node.Families, present, fields)
	sort.Strings(chosen)
	return chosen
}

// read runs prim over every family ReadAll/ReadRange/ReadBatch needs,
// merges the results with a k-way streaming merge, and projects onto
// fields if fields is non-empty.
func read(ctx context.Context, st store.Store, node *Node, fields []string, prim readPrimitive) (tablet.Iterator, error) {
	chosen := chosenFamilies(node, fields)

	iters := make([]tablet.Iterator, 0, len(chosen))
	for _, fam := range chosen {
		link, ok := node.Tablets[fam]
		if !ok {
			continue
		}
		t, err := loadTablet(ctx, st, link)
		if err != nil {
			return nil, err
		}
		iters = append(iters, prim(t))
	}

	merged := tablet.NewMergeIterator(iters)
	return tablet.ProjectIterator(merged, fields), nil
}

// ReadAll returns every (key, record) pair in node restricted to
// fields (nil/empty fields means every field).
func ReadAll(ctx context.Context, st store.Store, node *Node, fields []string) (tablet.Iterator, error) {
	return read(ctx, st, node, fields, func(t *tablet.Tablet) tablet.Iterator {
		return t.ReadAll()
	})
}

// ReadRange returns every pair with lo <= key <= hi (a nil bound is
// open on that side), restricted to fields.
func ReadRange(ctx context.Context, st store.Store, node *Node, fields []string, lo, hi keycodec.Key) (tablet.Iterator, error) {
	return read(ctx, st, node, fields, func(t *tablet.Tablet) tablet.Iterator {
		return t.ReadRange(lo, hi)
	})
}

// ReadBatch returns the pairs whose key is in keys, restricted to
// fields. Keys are first pruned through node's membership filter: a
// key the filter reports absent can never be present, so it is dropped
// before any tablet is even loaded (one-sided negative pruning).
func ReadBatch(ctx context.Context, st store.Store, node *Node, fields []string, keys []keycodec.Key) (tablet.Iterator, error) {
	filtered := keys
	if node.Membership != nil {
		filtered = make([]keycodec.Key, 0, len(keys))
		for _, k := range keys {
			if node.Membership.Contains(k) {
				filtered = append(filtered, k)
			}
		}
	}
	return read(ctx, st, node, fields, func(t *tablet.Tablet) tablet.Iterator {
		return t.ReadBatch(filtered)
	})
}
