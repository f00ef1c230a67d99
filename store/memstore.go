package store

import (
	"context"
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// MemStore is an in-memory, content-addressed reference implementation
// of Store. It exists so the engine has something real to run against
// in tests and benchmarks; it makes no durability claim whatsoever —
// durability is the store's concern, not the engine's.
//
// Content addresses are the hex xxhash of the (links, data) pair, so
// storing the same node twice never allocates a new address or a new
// blob.
type MemStore struct {
	mu   sync.RWMutex
	blobs map[string][]byte

	// Compress, when true, snappy-compresses stored blobs the way
	// bsm-sntable compresses its on-disk blocks. Purely an internal
	// storage-layer concern; GetData always returns the original bytes.
	Compress bool
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func contentAddress(links []Link, data []byte) string {
	h := xxhash.New()
	var lenBuf [8]byte
	for _, l := range links {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(l.ID)))
		h.Write(lenBuf[:])
		h.Write([]byte(l.ID))
	}
	h.Write(data)
	return strconv.FormatUint(h.Sum64(), 16)
}

// StoreNode implements Store.
func (s *MemStore) StoreNode(_ context.Context, links []Link, data []byte) (Link, error) {
	id := contentAddress(links, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blobs[id]; exists {
		return Link{ID: id}, nil
	}

	stored := data
	if s.Compress {
		stored = snappy.Encode(nil, data)
	}
	buf := make([]byte, len(stored))
	copy(buf, stored)
	s.blobs[id] = buf
	return Link{ID: id}, nil
}

// GetData implements Store.
func (s *MemStore) GetData(_ context.Context, link Link) ([]byte, error) {
	s.mu.RLock()
	raw, ok := s.blobs[link.ID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "link %q", link.ID)
	}

	if !s.Compress {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}

	n, err := snappy.DecodedLen(raw)
	if err != nil {
		return nil, errors.Wrap(err, "store: corrupt snappy frame")
	}
	out := make([]byte, n)
	if out, err = snappy.Decode(out, raw); err != nil {
		return nil, errors.Wrap(err, "store: corrupt snappy frame")
	}
	return out, nil
}

// Len reports how many distinct blobs are currently stored, useful in
// tests asserting that a pass-through update performed zero new writes.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
