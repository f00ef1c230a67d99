package family

import (
	"sort"
	"testing"

	"merkledb/keycodec"
)

func TestSplitDataBaseAlwaysEmitted(t *testing.T) {
	families := Families{
		"ab": {"a", "b"},
		"cd": {"c", "d"},
	}
	records := []Entry{
		{Key: keycodec.Key("K1"), Value: Record{"a": 1, "c": 1, "x": 1}},
	}

	split := SplitData(families, records)

	if got := split["ab"]; len(got) != 1 || got[0].Value["a"] != 1 {
		t.Fatalf("ab fragment = %+v", got)
	}
	if got := split["cd"]; len(got) != 1 || got[0].Value["c"] != 1 {
		t.Fatalf("cd fragment = %+v", got)
	}
	base := split[Base]
	if len(base) != 1 || base[0].Value["x"] != 1 {
		t.Fatalf("base fragment = %+v", base)
	}
	if _, ok := base[0].Value["a"]; ok {
		t.Fatalf("base fragment should not carry claimed field a: %+v", base[0].Value)
	}
}

func TestSplitDataOmitsEmptyNonBaseFragments(t *testing.T) {
	families := Families{"ab": {"a", "b"}}
	records := []Entry{
		{Key: keycodec.Key("K1"), Value: Record{"x": 1}},
	}
	split := SplitData(families, records)
	if _, ok := split["ab"]; ok {
		t.Fatalf("expected no ab fragment, got %+v", split["ab"])
	}
	if len(split[Base]) != 1 {
		t.Fatalf("expected one base fragment, got %+v", split[Base])
	}
}

func TestChooseTabletsEmptyFieldsReturnsEverything(t *testing.T) {
	present := []string{"ab", "cd", Base}
	got := ChooseTablets(Families{"ab": {"a"}, "cd": {"c"}}, present, nil)
	sort.Strings(got)
	want := []string{Base, "ab", "cd"}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestChooseTabletsProjectsToOwningFamily(t *testing.T) {
	families := Families{"ab": {"a", "b"}, "cd": {"c", "d"}}
	present := []string{"ab", "cd", Base}

	got := ChooseTablets(families, present, []string{"c"})
	if len(got) != 1 || got[0] != "cd" {
		t.Fatalf("fields={c}: got %v, want [cd]", got)
	}

	got = ChooseTablets(families, present, []string{"x"})
	if len(got) != 1 || got[0] != Base {
		t.Fatalf("fields={x}: got %v, want [base]", got)
	}
}

func TestProject(t *testing.T) {
	rec := Record{"a": 1, "b": 2, "c": 3}
	got := Project(rec, []string{"a", "c"})
	if len(got) != 2 || got["a"] != 1 || got["c"] != 3 {
		t.Fatalf("Project = %+v", got)
	}
	if len(Project(rec, nil)) != 3 {
		t.Fatalf("Project with no fields should return rec unchanged")
	}
}
