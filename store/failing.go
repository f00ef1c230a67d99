package store

import (
	"context"
	"sync/atomic"
)

// Flaky wraps a Store and fails the first N calls (combined across
// StoreNode and GetData) with the given error, then delegates normally.
// It exists to exercise the engine's StoreUnavailable propagation path
// without needing a real flaky backend.
type Flaky struct {
	Store
	Err      error
	failLeft int32
}

// NewFlaky wraps s, failing the next failCount calls with err.
func NewFlaky(s Store, failCount int, err error) *Flaky {
	return &Flaky{Store: s, Err: err, failLeft: int32(failCount)}
}

func (f *Flaky) tick() bool {
	for {
		left := atomic.LoadInt32(&f.failLeft)
		if left <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&f.failLeft, left, left-1) {
			return true
		}
	}
}

// StoreNode implements Store.
func (f *Flaky) StoreNode(ctx context.Context, links []Link, data []byte) (Link, error) {
	if f.tick() {
		return Link{}, f.Err
	}
	return f.Store.StoreNode(ctx, links, data)
}

// GetData implements Store.
func (f *Flaky) GetData(ctx context.Context, link Link) ([]byte, error) {
	if f.tick() {
		return nil, f.Err
	}
	return f.Store.GetData(ctx, link)
}
