// Package store defines the content-addressed object store the
// partition engine consumes. The store itself — its hashing scheme, its
// durability guarantees, its on-disk layout — is an external
// collaborator out of scope for this module; this package only fixes
// the interface the engine programs against, plus one in-memory
// reference implementation used by tests and the benchmark harness.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetData when a link does not resolve to
// any stored value.
var ErrNotFound = errors.New("store: link not found")

// Link is a stable, content-addressed reference returned by the store.
// Two links address the same stored bytes iff their IDs are equal; Name
// is a display tag (e.g. a family name) attached by the caller and does
// not participate in content addressing.
type Link struct {
	ID   string
	Name string
}

// IsZero reports whether l is the zero Link (no target).
func (l Link) IsZero() bool {
	return l.ID == ""
}

// Named returns a copy of l tagged with a display name, mirroring the
// object store's link(name, target) operation.
func Named(name string, l Link) Link {
	l.Name = name
	return l
}

// IsLink reports whether x is a Link value. The engine itself never
// needs this — it dispatches on the explicit Ref tag — but it is part
// of the object store's public surface.
func IsLink(x interface{}) bool {
	_, ok := x.(Link)
	return ok
}

// Store serializes values (a partition node or a tablet) together with
// their outgoing links and returns a stable content address for them,
// and resolves a previously returned link back to its bytes.
type Store interface {
	// StoreNode persists data together with the list of links it
	// references and returns a content-addressed Link for it. Storing
	// byte-identical data with the same link set twice must return the
	// same Link.
	StoreNode(ctx context.Context, links []Link, data []byte) (Link, error)

	// GetData resolves a link back to its stored bytes. Returns
	// ErrNotFound if the link is unknown to this store.
	GetData(ctx context.Context, link Link) ([]byte, error)
}
