package ingest

import (
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

// RefIndex maps every bom-ref of a document to the identity it stands for.
// Components and services share one index since dependency entries may
// point at either.
type RefIndex struct {
	refs       []string
	identities map[string]models.ComponentIdentity
}

func NewRefIndex() *RefIndex {
	return &RefIndex{identities: make(map[string]models.ComponentIdentity)}
}

// Get returns the identity a bom-ref currently resolves to.
func (r *RefIndex) Get(ref string) (models.ComponentIdentity, bool) {
	id, ok := r.identities[ref]
	return id, ok
}

// Put maps ref to id and returns the previous mapping.
func (r *RefIndex) Put(ref string, id models.ComponentIdentity) (models.ComponentIdentity, bool) {
	old, ok := r.identities[ref]
	if !ok {
		r.refs = append(r.refs, ref)
	}
	r.identities[ref] = id
	return old, ok
}

// PutIfAbsent maps ref to id unless ref is already mapped.
func (r *RefIndex) PutIfAbsent(ref string, id models.ComponentIdentity) bool {
	if _, ok := r.identities[ref]; ok {
		return false
	}
	r.Put(ref, id)
	return true
}

// Refs returns the bom-refs in the order they were first seen.
func (r *RefIndex) Refs() []string {
	return r.refs
}

func (r *RefIndex) Len() int {
	return len(r.refs)
}

// Deduplicator collapses nodes of one entity kind that share an identity.
// The first node of each identity is kept; the bom-refs of dropped
// duplicates stay resolvable through the RefIndex.
type Deduplicator[T Node[T]] struct {
	index          *RefIndex
	identityOf     func(T) models.ComponentIdentity
	seen           map[models.ComponentIdentity]struct{}
	refsByIdentity map[models.ComponentIdentity][]string
}

func NewDeduplicator[T Node[T]](index *RefIndex, identityOf func(T) models.ComponentIdentity) *Deduplicator[T] {
	return &Deduplicator[T]{
		index:          index,
		identityOf:     identityOf,
		seen:           make(map[models.ComponentIdentity]struct{}),
		refsByIdentity: make(map[models.ComponentIdentity][]string),
	}
}

// Dedupe returns the first node of every identity. Nodes without a bom-ref
// are given a generated one so the rest of the import can address them.
func (d *Deduplicator[T]) Dedupe(nodes []T) []T {
	out := make([]T, 0, len(nodes))
	for _, n := range nodes {
		if n.GetBomRef() == "" {
			n.SetBomRef(uuid.New().String())
		}
		ref := n.GetBomRef()
		id := d.identityOf(n)
		d.index.PutIfAbsent(ref, id)
		d.addRef(id, ref)
		if _, dup := d.seen[id]; dup {
			continue
		}
		d.seen[id] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (d *Deduplicator[T]) addRef(id models.ComponentIdentity, ref string) {
	for _, r := range d.refsByIdentity[id] {
		if r == ref {
			return
		}
	}
	d.refsByIdentity[id] = append(d.refsByIdentity[id], ref)
}

// Rebind points ref, and every bom-ref that resolved to the same document
// identity, at the identity of the persisted node.
func (d *Deduplicator[T]) Rebind(ref string, persistent models.ComponentIdentity) {
	old, ok := d.index.Put(ref, persistent)
	if !ok {
		return
	}
	for _, r := range d.refsByIdentity[old] {
		d.index.Put(r, persistent)
	}
}

// RefsOf returns the bom-refs recorded for a document identity.
func (d *Deduplicator[T]) RefsOf(id models.ComponentIdentity) []string {
	return d.refsByIdentity[id]
}
