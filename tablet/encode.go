package tablet

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"

	"merkledb/family"
	"merkledb/keycodec"
)

// Encode and Decode serialize a tablet's per-family record map for
// handoff to the object store. They use gob: a concrete wire format
// that needs no generated schema, keeping the focus on the logical
// update algorithm above it rather than the bytes themselves.
func init() {
	gob.Register(family.Tombstone{})
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(string(""))
	gob.Register(bool(false))
	gob.Register([]byte(nil))
}

// RegisterValueType registers a concrete type that may appear as a
// field value in a family.Record, so Encode/Decode can round-trip it.
// Needed for any application value type beyond the common scalars
// already registered in init.
func RegisterValueType(v interface{}) {
	gob.Register(v)
}

// Encode serializes t's entries.
func Encode(t *Tablet) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t.Entries()); err != nil {
		return nil, errors.Wrap(err, "tablet: encode")
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes produced by Encode back into a Tablet.
// Returns a CorruptTablet-flavored error (wrapped) if decoding fails or
// the entries are not strictly ascending by key.
func Decode(data []byte) (*Tablet, error) {
	var entries []Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	for i := 1; i < len(entries); i++ {
		if !keycodec.Before(entries[i-1].Key, entries[i].Key) {
			return nil, errors.Wrap(ErrCorrupt, "entries out of order")
		}
	}
	return &Tablet{entries: entries}, nil
}

// ErrCorrupt is wrapped by Decode when the bytes don't describe a valid
// tablet. Kept distinct from partition.CorruptTablet (a struct carrying
// a Detail string) so this package has no import-cycle
// dependence on the root package.
var ErrCorrupt = errors.New("tablet: corrupt encoding")
