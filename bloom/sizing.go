package bloom

import "math"

// optimalBits returns the bit count m minimizing false-positive rate p
// for n expected elements.
func optimalBits(n int, p float64) uint64 {
	m := -1 * float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	return uint64(math.Ceil(m))
}

// optimalHashCount returns the hash-probe count k for m bits and n
// expected elements.
func optimalHashCount(m uint64, n int) int {
	k := float64(m) / float64(n) * math.Ln2
	return int(math.Round(k))
}
