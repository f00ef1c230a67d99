package partition

import (
	"context"
	"fmt"
	"sort"

	"merkledb/family"
	"merkledb/keycodec"
	"merkledb/store"
)

// Validate checks ref against the structural invariants of a partition
// node: count bounds, key-range containment within [lo, hi] (a nil
// bound is open), presence of the base tablet, and membership-filter
// no-false-negative coverage of every key actually stored. treeTotal is
// the total record count across the whole tree ref belongs to, used to
// decide whether the half_full lower bound applies (it is only
// enforced once the tree holds at least limit records). Every violation
// found is collected and returned rather than stopping at the first, so
// an audit can report them all in one pass.
func Validate(ctx context.Context, st store.Store, ref Ref, lo, hi keycodec.Key, treeTotal int) []ValidationFailure {
	var failures []ValidationFailure

	node, _, err := resolveNode(ctx, st, ref)
	if err != nil {
		return []ValidationFailure{{Rule: "resolvable", Detail: err.Error()}}
	}

	if _, ok := node.Tablets[family.Base]; !ok && node.Count > 0 {
		failures = append(failures, ValidationFailure{
			Rule:   "base-tablet-present",
			Detail: "partition has records but no base tablet link",
		})
	}

	if node.Count > node.Limit {
		failures = append(failures, ValidationFailure{
			Rule:   "count<=limit",
			Detail: fmt.Sprintf("count %d exceeds limit %d", node.Count, node.Limit),
		})
	}

	halfFull := HalfFull(node.Limit)
	if treeTotal >= node.Limit && node.Count < halfFull {
		failures = append(failures, ValidationFailure{
			Rule:   "count>=half_full",
			Detail: fmt.Sprintf("count %d below half_full %d with tree total %d", node.Count, halfFull, treeTotal),
		})
	}

	if node.Count > 0 && keycodec.After(node.FirstKey, node.LastKey) {
		failures = append(failures, ValidationFailure{
			Rule:   "first_key<=last_key",
			Detail: fmt.Sprintf("first_key %q after last_key %q", node.FirstKey, node.LastKey),
		})
	}
	if lo != nil && node.Count > 0 && keycodec.Before(node.FirstKey, lo) {
		failures = append(failures, ValidationFailure{
			Rule:   "first_key-in-bounds",
			Detail: fmt.Sprintf("first_key %q precedes subtree lower bound %q", node.FirstKey, lo),
		})
	}
	if hi != nil && node.Count > 0 && keycodec.After(node.LastKey, hi) {
		failures = append(failures, ValidationFailure{
			Rule:   "last_key-in-bounds",
			Detail: fmt.Sprintf("last_key %q exceeds subtree upper bound %q", node.LastKey, hi),
		})
	}

	for _, fam := range sortedTabletNames(node) {
		link := node.Tablets[fam]
		t, err := loadTablet(ctx, st, link)
		if err != nil {
			failures = append(failures, ValidationFailure{
				Rule:   "tablet-readable",
				Detail: fmt.Sprintf("family %q: %v", fam, err),
			})
			continue
		}
		for _, e := range t.Entries() {
			if node.Membership != nil && !node.Membership.Contains(e.Key) {
				failures = append(failures, ValidationFailure{
					Rule:   "membership-no-false-negative",
					Detail: fmt.Sprintf("key %q in family %q not reported present by membership filter", e.Key, fam),
				})
			}
		}
	}

	return failures
}

func sortedTabletNames(node *Node) []string {
	names := make([]string, 0, len(node.Tablets))
	for name := range node.Tablets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
