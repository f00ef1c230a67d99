package partition

import (
	"context"
	"testing"

	"merkledb/family"
	"merkledb/keycodec"
	"merkledb/store"
	"merkledb/tablet"
)

// A partition built with families={ab:{a,b}, cd:{c,d}} over
// K1:{a:1,c:1,x:1}. Reading with fields={c} yields only K1:{c:1} from
// the cd tablet; reading with fields={x} yields only K1:{x:1} from the
// base tablet.
func TestReadAllFamilyProjection(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	params := Params{
		Limit:    10,
		Families: family.Families{"ab": {"a", "b"}, "cd": {"c", "d"}},
		BloomFPR: 0.01,
	}

	nd, err := FromRecords(ctx, st, params, []tablet.Change{
		rec("K1", map[string]interface{}{"a": 1, "c": 1, "x": 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	it, err := ReadAll(ctx, st, nd.Node, []string{"c"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := tablet.Collect(it)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 1 {
		t.Fatalf("expected 1 entry, got %d", got.Count())
	}
	val := got.Entries()[0].Value
	if len(val) != 1 || val["c"] != 1 {
		t.Fatalf("projection onto {c} = %+v", val)
	}

	it2, err := ReadAll(ctx, st, nd.Node, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	got2, err := tablet.Collect(it2)
	if err != nil {
		t.Fatal(err)
	}
	if got2.Count() != 1 {
		t.Fatalf("expected 1 entry, got %d", got2.Count())
	}
	val2 := got2.Entries()[0].Value
	if len(val2) != 1 || val2["x"] != 1 {
		t.Fatalf("projection onto {x} = %+v", val2)
	}
}

func TestReadAllReconstructsFullRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	params := Params{
		Limit:    10,
		Families: family.Families{"ab": {"a", "b"}},
		BloomFPR: 0.01,
	}
	nd, err := FromRecords(ctx, st, params, []tablet.Change{
		rec("K1", map[string]interface{}{"a": 1, "b": 2, "x": 3}),
	})
	if err != nil {
		t.Fatal(err)
	}

	it, err := ReadAll(ctx, st, nd.Node, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := tablet.Collect(it)
	if err != nil {
		t.Fatal(err)
	}
	val := got.Entries()[0].Value
	if val["a"] != 1 || val["b"] != 2 || val["x"] != 3 {
		t.Fatalf("expected full record reconstruction, got %+v", val)
	}
}

func TestReadRangeInclusive(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	params := testParams(10)
	nd, err := FromRecords(ctx, st, params, []tablet.Change{
		rec("K1", map[string]interface{}{"a": 1}),
		rec("K2", map[string]interface{}{"a": 2}),
		rec("K3", map[string]interface{}{"a": 3}),
	})
	if err != nil {
		t.Fatal(err)
	}
	it, err := ReadRange(ctx, st, nd.Node, nil, keycodec.Key("K1"), keycodec.Key("K2"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := tablet.Collect(it)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 2 {
		t.Fatalf("expected 2 entries, got %d", got.Count())
	}
}

func TestReadBatchFiltersByMembership(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	params := testParams(10)
	nd, err := FromRecords(ctx, st, params, []tablet.Change{
		rec("K1", map[string]interface{}{"a": 1}),
		rec("K2", map[string]interface{}{"a": 2}),
	})
	if err != nil {
		t.Fatal(err)
	}
	it, err := ReadBatch(ctx, st, nd.Node, nil, []keycodec.Key{keycodec.Key("K1"), keycodec.Key("K9")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := tablet.Collect(it)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 1 {
		t.Fatalf("expected 1 entry (K9 absent), got %d", got.Count())
	}
}
