package tablet

import (
	"testing"

	"merkledb/family"
	"merkledb/keycodec"
)

func drain(it Iterator) []Entry {
	var out []Entry
	for it.Next() {
		out = append(out, Entry{Key: it.Key(), Value: it.Value()})
	}
	it.Close()
	return out
}

func TestReadAllOrdered(t *testing.T) {
	tb := FromRecords([]Entry{
		{Key: k("K3"), Value: family.Record{"a": 3}},
		{Key: k("K1"), Value: family.Record{"a": 1}},
		{Key: k("K2"), Value: family.Record{"a": 2}},
	}, false)
	got := drain(tb.ReadAll())
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, want := range []string{"K1", "K2", "K3"} {
		if !keycodec.Equal(got[i].Key, k(want)) {
			t.Fatalf("position %d = %q, want %q", i, got[i].Key, want)
		}
	}
}

func TestReadRangeInclusiveBounds(t *testing.T) {
	tb := FromRecords([]Entry{
		{Key: k("K1"), Value: family.Record{}},
		{Key: k("K2"), Value: family.Record{}},
		{Key: k("K3"), Value: family.Record{}},
		{Key: k("K4"), Value: family.Record{}},
	}, false)
	got := drain(tb.ReadRange(k("K2"), k("K3")))
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !keycodec.Equal(got[0].Key, k("K2")) || !keycodec.Equal(got[1].Key, k("K3")) {
		t.Fatalf("unexpected range: %+v", got)
	}
}

func TestReadRangeOpenBounds(t *testing.T) {
	tb := FromRecords([]Entry{
		{Key: k("K1"), Value: family.Record{}},
		{Key: k("K2"), Value: family.Record{}},
	}, false)
	if got := drain(tb.ReadRange(nil, nil)); len(got) != 2 {
		t.Fatalf("open range len = %d", len(got))
	}
	if got := drain(tb.ReadRange(nil, k("K1"))); len(got) != 1 {
		t.Fatalf("open-lo range len = %d", len(got))
	}
}

func TestReadBatchOrdersByKeyNotInputOrder(t *testing.T) {
	tb := FromRecords([]Entry{
		{Key: k("K1"), Value: family.Record{}},
		{Key: k("K2"), Value: family.Record{}},
		{Key: k("K3"), Value: family.Record{}},
	}, false)
	got := drain(tb.ReadBatch([]keycodec.Key{k("K3"), k("K1")}))
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if !keycodec.Equal(got[0].Key, k("K1")) || !keycodec.Equal(got[1].Key, k("K3")) {
		t.Fatalf("batch not key-ordered: %+v", got)
	}
}

func TestReadBatchSkipsMissingKeys(t *testing.T) {
	tb := FromRecords([]Entry{{Key: k("K1"), Value: family.Record{}}}, false)
	got := drain(tb.ReadBatch([]keycodec.Key{k("K1"), k("K9")}))
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
}

func TestMergeIteratorUnionsByKey(t *testing.T) {
	ab := FromRecords([]Entry{
		{Key: k("K1"), Value: family.Record{"a": 1}},
	}, false)
	base := FromRecords([]Entry{
		{Key: k("K1"), Value: family.Record{"x": 9}},
		{Key: k("K2"), Value: family.Record{"x": 8}},
	}, false)

	merged := NewMergeIterator([]Iterator{ab.ReadAll(), base.ReadAll()})
	got := drain(merged)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Value["a"] != 1 || got[0].Value["x"] != 9 {
		t.Fatalf("K1 union wrong: %+v", got[0].Value)
	}
	if got[1].Value["x"] != 8 {
		t.Fatalf("K2 wrong: %+v", got[1].Value)
	}
}

func TestProjectIteratorDropsEmptyProjections(t *testing.T) {
	tb := FromRecords([]Entry{
		{Key: k("K1"), Value: family.Record{"a": 1, "b": 2}},
		{Key: k("K2"), Value: family.Record{"b": 2}},
	}, false)
	got := drain(ProjectIterator(tb.ReadAll(), []string{"a"}))
	if len(got) != 1 {
		t.Fatalf("expected only K1 to survive projection, got %+v", got)
	}
	if _, ok := got[0].Value["b"]; ok {
		t.Fatalf("projection leaked unwanted field: %+v", got[0].Value)
	}
}

func TestCollectProducesSortedTablet(t *testing.T) {
	tb := FromRecords([]Entry{
		{Key: k("K2"), Value: family.Record{}},
		{Key: k("K1"), Value: family.Record{}},
	}, false)
	collected, err := Collect(tb.ReadAll())
	if err != nil {
		t.Fatal(err)
	}
	if collected.Count() != 2 {
		t.Fatalf("count = %d", collected.Count())
	}
}
