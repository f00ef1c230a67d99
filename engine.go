package partition

import (
	"context"

	"merkledb/store"
	"merkledb/tablet"
)

// Input is one (partition_ref, changes) tuple the update engine
// consumes, in ascending first-key order.
type Input struct {
	Part    Ref
	Changes []tablet.Change
}

// Result is UpdatePartitions' output: either the ordered list of
// updated partitions, or — if the union of surviving records is fewer
// than half_full and no result partition exists to absorb them — a
// single virtual tablet the caller must carry to a sibling subtree.
type Result struct {
	Partitions []*NodeData
	Pending    *tablet.Tablet
}

// UpdatePartitions runs the core partition-update algorithm: it walks
// inputs in order, merging changes into each partition, re-emitting
// unchanged linked partitions without rewriting them,
// splitting overflowing merges, and absorbing underflowing ones into a
// carried "pending" virtual tablet. carry is the optional partition or
// virtual tablet a sibling subtree produced (its IsZero method reports
// "no carry").
func UpdatePartitions(ctx context.Context, st store.Store, params Params, carry Ref, inputs []Input) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	halfFull := HalfFull(params.Limit)
	emitThreshold := EmitThreshold(params.Limit)
	emitSize := params.Limit

	var pending *tablet.Tablet
	if !carry.IsZero() {
		t, err := loadVirtual(ctx, st, carry)
		if err != nil {
			return nil, err
		}
		pending = t
	}

	var result []*NodeData

	for _, in := range inputs {
		part, changes := in.Part, in.Changes

		if pending == nil && len(changes) == 0 {
			if part.IsVirtual() {
				pending = part.virtual
				continue
			}
			emitted, newPending, err := checkPartition(ctx, st, params, part)
			if err != nil {
				return nil, err
			}
			result = append(result, emitted...)
			pending = newPending
			continue
		}

		t, err := loadVirtual(ctx, st, part)
		if err != nil {
			return nil, err
		}

		patched := tablet.ApplyPatch(t, changes)
		effective := patched
		if effective == nil {
			effective = t
		}
		merged := tablet.Join(orEmptyTablet(pending), effective)

		switch {
		case merged.Count() == 0:
			pending = nil

		case pending == nil && !part.IsVirtual() && merged.Equal(t):
			// No-op merge: the patch changed nothing this part
			// already held. Re-run the pass-through so an unchanged
			// linked partition is re-emitted without a fresh write.
			emitted, newPending, err := checkPartition(ctx, st, params, part)
			if err != nil {
				return nil, err
			}
			result = append(result, emitted...)
			pending = newPending

		case merged.Count() >= emitThreshold:
			emitted, newPending, err := emitParts(ctx, st, params, emitThreshold, emitSize, merged)
			if err != nil {
				return nil, err
			}
			result = append(result, emitted...)
			pending = newPending

		default:
			pending = merged
		}
	}

	return finishUpdate(ctx, st, params, result, pending, halfFull)
}

func orEmptyTablet(t *tablet.Tablet) *tablet.Tablet {
	if t == nil {
		return tablet.Empty
	}
	return t
}

// checkPartition decides the fate of an unchanged linked partition:
// underflowing partitions are absorbed into a pending virtual tablet,
// overflowing ones are split, and everything else is re-emitted as-is
// (reusing its existing link, so the update costs zero new store
// writes).
func checkPartition(ctx context.Context, st store.Store, params Params, ref Ref) ([]*NodeData, *tablet.Tablet, error) {
	node, link, err := resolveNode(ctx, st, ref)
	if err != nil {
		return nil, nil, err
	}
	halfFull := HalfFull(params.Limit)

	switch {
	case node.Count < halfFull:
		tb, err := loadVirtual(ctx, st, NodeRef(link, node))
		if err != nil {
			return nil, nil, err
		}
		return nil, tb, nil

	case node.Count > params.Limit:
		tb, err := loadVirtual(ctx, st, NodeRef(link, node))
		if err != nil {
			return nil, nil, err
		}
		parts, err := PartitionRecords(ctx, st, params, tb.Entries())
		if err != nil {
			return nil, nil, err
		}
		return parts, nil, nil

	default:
		return []*NodeData{{Link: link, Node: node}}, nil, nil
	}
}

// emitParts repeatedly splits the first emitSize records off t into
// their own partition until fewer than emitThreshold records remain.
// The remainder becomes the new pending virtual tablet.
func emitParts(ctx context.Context, st store.Store, params Params, emitThreshold, emitSize int, t *tablet.Tablet) ([]*NodeData, *tablet.Tablet, error) {
	entries := t.Entries()
	var out []*NodeData
	for len(entries) >= emitThreshold {
		chunk := entries[:emitSize]
		entries = entries[emitSize:]
		nd, err := buildNode(ctx, st, params, toFamilyEntries(chunk))
		if err != nil {
			return nil, nil, err
		}
		out = append(out, nd)
	}
	return out, tablet.FromRecords(entries, true), nil
}

// finishUpdate resolves the loop's terminal pending tablet once inputs
// are exhausted: nil pending returns result as-is; an underflowing
// pending borrows from the last result partition if one exists
// (repartitioning the concatenation) or is surfaced to the caller as a
// carry; anything else is partitioned and appended.
func finishUpdate(ctx context.Context, st store.Store, params Params, result []*NodeData, pending *tablet.Tablet, halfFull int) (*Result, error) {
	if pending == nil {
		return &Result{Partitions: result}, nil
	}

	if pending.Count() < halfFull {
		if len(result) > 0 {
			last := result[len(result)-1]
			result = result[:len(result)-1]

			lastAll, err := loadVirtual(ctx, st, NodeRef(last.Link, last.Node))
			if err != nil {
				return nil, err
			}
			concatenated := append(append([]tablet.Entry{}, lastAll.Entries()...), pending.Entries()...)

			parts, err := PartitionRecords(ctx, st, params, concatenated)
			if err != nil {
				return nil, err
			}
			result = append(result, parts...)
			return &Result{Partitions: result}, nil
		}
		return &Result{Pending: pending}, nil
	}

	parts, err := PartitionRecords(ctx, st, params, pending.Entries())
	if err != nil {
		return nil, err
	}
	result = append(result, parts...)
	return &Result{Partitions: result}, nil
}
