package partition

import (
	"github.com/pkg/errors"

	"merkledb/bloom"
	"merkledb/family"
)

// Params configures a partition tree.
type Params struct {
	// Limit is the maximum number of records a partition may hold.
	// Must be >= 2.
	Limit int
	// Families partitions record fields among column families. The
	// zero value puts every field in the reserved "base" family.
	Families family.Families
	// BloomFPR is the false-positive rate target for the membership
	// filter.
	BloomFPR float64
}

// DefaultParams returns the documented defaults: Limit=10000,
// Families={}, BloomFPR=0.01.
func DefaultParams() Params {
	return Params{
		Limit:    10000,
		Families: family.Families{},
		BloomFPR: bloom.DefaultFPR,
	}
}

// Validate checks that p is usable, returning an error naming the
// violated constraint.
func (p Params) Validate() error {
	if p.Limit < 2 {
		return errors.Errorf("partition: limit must be >= 2, got %d", p.Limit)
	}
	return nil
}

// HalfFull returns ceil(limit/2), the minimum size a non-boundary
// partition must hold once the tree contains at least limit records.
func HalfFull(limit int) int {
	return (limit + 1) / 2
}

// EmitThreshold returns limit + HalfFull(limit): the size at which the
// update engine splits off a full partition while leaving a remainder
// that can still stand alone.
func EmitThreshold(limit int) int {
	return limit + HalfFull(limit)
}
