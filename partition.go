package partition

import (
	"bytes"
	"context"
	"encoding/gob"
	"sort"

	"github.com/pkg/errors"

	"merkledb/bloom"
	"merkledb/family"
	"merkledb/internal/xlog"
	"merkledb/keycodec"
	"merkledb/store"
	"merkledb/tablet"
)

// Node is the immutable partition node: metadata plus links to the
// per-family tablets that hold its records. Limit is stored inside the
// node itself so it can be re-validated without external params.
type Node struct {
	Limit      int
	Tablets    map[string]store.Link // family -> link; "base" required for a non-empty partition
	Membership *bloom.Filter
	Count      int
	Families   family.Families
	FirstKey   keycodec.Key
	LastKey    keycodec.Key
}

// wireNode is Node's gob-friendly shadow: bloom.Filter carries
// unexported fields, so it is flattened to its deterministic byte
// encoding for serialization and restored via bloom.FromBytes.
type wireNode struct {
	Limit      int
	Tablets    map[string]store.Link
	Membership []byte
	Count      int
	Families   family.Families
	FirstKey   keycodec.Key
	LastKey    keycodec.Key
}

// EncodeNode serializes n deterministically: identical nodes always
// produce identical bytes, so the outer object store content-addresses
// them identically.
func EncodeNode(n *Node) ([]byte, error) {
	w := wireNode{
		Limit:      n.Limit,
		Tablets:    n.Tablets,
		Membership: n.Membership.Bytes(),
		Count:      n.Count,
		Families:   n.Families,
		FirstKey:   n.FirstKey,
		LastKey:    n.LastKey,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, errors.Wrap(err, "partition: encode node")
	}
	return buf.Bytes(), nil
}

// DecodeNode deserializes bytes produced by EncodeNode.
func DecodeNode(data []byte) (*Node, error) {
	var w wireNode
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, errors.Wrap(err, "partition: decode node")
	}
	mf, err := bloom.FromBytes(w.Membership)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt membership filter")
	}
	return &Node{
		Limit:      w.Limit,
		Tablets:    w.Tablets,
		Membership: mf,
		Count:      w.Count,
		Families:   w.Families,
		FirstKey:   w.FirstKey,
		LastKey:    w.LastKey,
	}, nil
}

// NodeData pairs a stored Node with the Link the store gave it. Every
// output of the construction and update routines is a NodeData, so
// callers never have to re-derive a node's address.
type NodeData struct {
	Link store.Link
	Node *Node
}

// storeNodeValue persists n under the store's content address,
// referencing its tablet links so the store can track reachability.
func storeNodeValue(ctx context.Context, st store.Store, n *Node) (*NodeData, error) {
	data, err := EncodeNode(n)
	if err != nil {
		return nil, err
	}
	links := sortedLinks(n.Tablets)
	link, err := st.StoreNode(ctx, links, data)
	if err != nil {
		xlog.Err(err)
		return nil, &StoreUnavailable{Cause: err}
	}
	return &NodeData{Link: link, Node: n}, nil
}

func sortedLinks(tablets map[string]store.Link) []store.Link {
	names := make([]string, 0, len(tablets))
	for name := range tablets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]store.Link, 0, len(names))
	for _, name := range names {
		out = append(out, tablets[name])
	}
	return out
}

// Ref is the tagged union the engine dispatches on: a stored partition
// reached through a Link (optionally paired with its already-resolved
// Node to avoid a redundant store read), or an in-memory virtual
// tablet of records not yet persisted.
type Ref struct {
	link    store.Link
	hasLink bool
	node    *Node
	virtual *tablet.Tablet
}

// LinkRef builds a Ref that must be resolved through the store.
func LinkRef(l store.Link) Ref {
	return Ref{link: l, hasLink: true}
}

// NodeRef builds a Ref for a partition whose node is already resolved
// in memory but still addressed by link (so it can be re-emitted
// without rewriting it).
func NodeRef(l store.Link, n *Node) Ref {
	return Ref{link: l, hasLink: true, node: n}
}

// VirtualRef builds a Ref over an in-memory, unpersisted tablet.
func VirtualRef(t *tablet.Tablet) Ref {
	return Ref{virtual: t}
}

// IsVirtual reports whether r holds a virtual tablet rather than a
// stored (or resolved) partition.
func (r Ref) IsVirtual() bool {
	return r.virtual != nil
}

// IsZero reports whether r carries nothing at all (no carry value).
func (r Ref) IsZero() bool {
	return !r.hasLink && r.virtual == nil
}

// resolveNode returns the Node behind r and the Link it is addressed
// by, fetching and decoding from the store if r does not already carry
// a resolved node. Must not be called on a virtual Ref.
func resolveNode(ctx context.Context, st store.Store, r Ref) (*Node, store.Link, error) {
	if r.node != nil {
		return r.node, r.link, nil
	}
	data, err := st.GetData(ctx, r.link)
	if err != nil {
		xlog.Err(err)
		return nil, store.Link{}, &StoreUnavailable{Cause: err}
	}
	node, err := DecodeNode(data)
	if err != nil {
		return nil, store.Link{}, &CorruptNode{Detail: err.Error()}
	}
	return node, r.link, nil
}

// loadTablet fetches and decodes the tablet at link.
func loadTablet(ctx context.Context, st store.Store, link store.Link) (*tablet.Tablet, error) {
	data, err := st.GetData(ctx, link)
	if err != nil {
		xlog.Err(err)
		return nil, &StoreUnavailable{Cause: err}
	}
	t, err := tablet.Decode(data)
	if err != nil {
		return nil, &CorruptTablet{Detail: err.Error()}
	}
	return t, nil
}

// loadVirtual materializes r as a full-record virtual tablet: a
// virtual Ref is returned as-is, a stored/resolved partition is read
// in full (every field of every family) via the read path.
func loadVirtual(ctx context.Context, st store.Store, r Ref) (*tablet.Tablet, error) {
	if r.virtual != nil {
		return r.virtual, nil
	}
	node, _, err := resolveNode(ctx, st, r)
	if err != nil {
		return nil, err
	}
	it, err := ReadAll(ctx, st, node, nil)
	if err != nil {
		return nil, err
	}
	return tablet.Collect(it)
}
