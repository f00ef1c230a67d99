// Package bloom implements the partition's membership filter: a
// Bloom-style probabilistic set over record keys used to prune reads.
// It may return a false positive for an absent key but must never
// return false for a key that was inserted (one-sided error).
package bloom

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// DefaultFPR is the false-positive rate target used when callers don't
// override it.
const DefaultFPR = 0.01

// Filter is a fixed-size bitset with k hash probes per key, sized from
// an expected element count (a partition's limit) and a target
// false-positive rate.
type Filter struct {
	bits []byte
	k    uint8
	n    uint64 // number of bits, must be > 0 for a non-empty filter
}

// New creates a filter sized to hold up to capacity keys at the given
// false-positive rate. A capacity below 1 is treated as 1, and an fpr
// outside (0, 1) is replaced by DefaultFPR.
func New(capacity int, fpr float64) *Filter {
	if capacity < 1 {
		capacity = 1
	}
	if fpr <= 0 || fpr >= 1 {
		fpr = DefaultFPR
	}

	bits, k := sizing(capacity, fpr)
	nBytes := (bits + 7) / 8
	return &Filter{
		bits: make([]byte, nBytes),
		k:    k,
		n:    bits,
	}
}

// sizing computes the optimal bit count m and hash count k for n
// expected elements at false-positive rate p:
//
//	m = ceil(-n*ln(p) / ln(2)^2)
//	k = round(m/n * ln(2))
func sizing(n int, p float64) (bits uint64, k uint8) {
	m := optimalBits(n, p)
	if m < 64 {
		m = 64
	}
	kk := optimalHashCount(m, n)
	if kk < 1 {
		kk = 1
	}
	if kk > 30 {
		kk = 30
	}
	return m, uint8(kk)
}

// Insert adds key to the filter.
func (f *Filter) Insert(key []byte) {
	h1, h2 := hashPair(key)
	for i := uint8(0); i < f.k; i++ {
		bit := probe(h1, h2, i, f.n)
		f.bits[bit/8] |= 1 << (bit % 8)
	}
}

// Contains reports whether key may be present. A false return is a
// reliable guarantee of absence; a true return is only "maybe".
func (f *Filter) Contains(key []byte) bool {
	if len(f.bits) == 0 {
		return false
	}
	h1, h2 := hashPair(key)
	for i := uint8(0); i < f.k; i++ {
		bit := probe(h1, h2, i, f.n)
		if f.bits[bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// hashPair derives two independent-enough 64 bit hashes from key using
// xxhash as the base and a bit-rotated derivative as the second hash,
// per the classic Kirsch/Mitzenmacher double-hashing trick.
func hashPair(key []byte) (h1, h2 uint64) {
	h1 = xxhash.Sum64(key)
	h2 = h1>>33 | h1<<31
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}

func probe(h1, h2 uint64, i uint8, bits uint64) uint64 {
	return (h1 + uint64(i)*h2) % bits
}

// Bytes serializes the filter deterministically: identical contents
// always produce identical bytes, so identical filters content-address
// to the same link.
func (f *Filter) Bytes() []byte {
	out := make([]byte, 9+len(f.bits))
	binary.LittleEndian.PutUint64(out[0:8], f.n)
	out[8] = f.k
	copy(out[9:], f.bits)
	return out
}

// FromBytes deserializes a filter previously produced by Bytes.
func FromBytes(data []byte) (*Filter, error) {
	if len(data) < 9 {
		return nil, errBadFilterEncoding
	}
	n := binary.LittleEndian.Uint64(data[0:8])
	k := data[8]
	bits := data[9:]
	wantBytes := (n + 7) / 8
	if uint64(len(bits)) != wantBytes {
		return nil, errBadFilterEncoding
	}
	out := make([]byte, len(bits))
	copy(out, bits)
	return &Filter{bits: out, k: k, n: n}, nil
}
