// Package keycodec implements the totally ordered, byte-lexicographic
// record keys shared by every tablet and partition in the tree.
package keycodec

import "bytes"

// Key is an opaque, totally ordered byte string. Two keys are equal iff
// their byte sequences are equal; all other comparisons are
// lexicographic, with a shorter key that is a prefix of a longer one
// sorting before it.
type Key []byte

// Compare returns -1, 0 or 1 as a is less than, equal to, or greater
// than b.
func Compare(a, b Key) int {
	return bytes.Compare(a, b)
}

// Equal reports whether a and b are the same key.
func Equal(a, b Key) bool {
	return bytes.Equal(a, b)
}

// Before reports whether a sorts strictly before b.
func Before(a, b Key) bool {
	return Compare(a, b) < 0
}

// After reports whether a sorts strictly after b.
func After(a, b Key) bool {
	return Compare(a, b) > 0
}

// Min returns the smallest key among keys. Panics if keys is empty.
func Min(keys ...Key) Key {
	m := keys[0]
	for _, k := range keys[1:] {
		if Before(k, m) {
			m = k
		}
	}
	return m
}

// Max returns the largest key among keys. Panics if keys is empty.
func Max(keys ...Key) Key {
	m := keys[0]
	for _, k := range keys[1:] {
		if After(k, m) {
			m = k
		}
	}
	return m
}

// Clone returns a copy of k, detached from any backing array the caller
// might mutate afterwards.
func Clone(k Key) Key {
	if k == nil {
		return nil
	}
	out := make(Key, len(k))
	copy(out, k)
	return out
}
