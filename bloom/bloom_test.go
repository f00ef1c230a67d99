package bloom

import (
	"fmt"
	"testing"
)

func TestNoFalseNegatives(t *testing.T) {
	f := New(1000, 0.01)
	keys := make([][]byte, 0, 1000)
	for i := 0; i < 1000; i++ {
		k := []byte(fmt.Sprintf("key-%d", i))
		keys = append(keys, k)
		f.Insert(k)
	}
	for _, k := range keys {
		if !f.Contains(k) {
			t.Fatalf("false negative for %q", k)
		}
	}
}

func TestFalsePositiveRateRoughlyBounded(t *testing.T) {
	f := New(2000, 0.01)
	for i := 0; i < 2000; i++ {
		f.Insert([]byte(fmt.Sprintf("present-%d", i)))
	}
	falsePositives := 0
	trials := 5000
	for i := 0; i < trials; i++ {
		if f.Contains([]byte(fmt.Sprintf("absent-%d", i))) {
			falsePositives++
		}
	}
	// Generous bound: a correctly sized 1% filter should stay well
	// under 5% here; this only guards against gross sizing bugs.
	if rate := float64(falsePositives) / float64(trials); rate > 0.05 {
		t.Fatalf("false-positive rate too high: %f", rate)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	f := New(100, 0.01)
	f.Insert([]byte("a"))
	f.Insert([]byte("b"))

	data := f.Bytes()
	f2, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !f2.Contains([]byte("a")) || !f2.Contains([]byte("b")) {
		t.Fatal("round-tripped filter lost membership")
	}
}

func TestSerializationDeterministic(t *testing.T) {
	f1 := New(100, 0.01)
	f2 := New(100, 0.01)
	for _, k := range [][]byte{[]byte("x"), []byte("y"), []byte("z")} {
		f1.Insert(k)
		f2.Insert(k)
	}
	b1, b2 := f1.Bytes(), f2.Bytes()
	if len(b1) != len(b2) {
		t.Fatalf("encodings differ in length: %d vs %d", len(b1), len(b2))
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatalf("encodings diverge at byte %d", i)
		}
	}
}
