// Package access implements the access policy and conflict analyzer of
// spec.md §4.9: per-query read/write component sets plus resource-level
// read/write sets, with thread-safe resources exempted from conflicts.
package access

import (
	"sort"

	ecs "github.com/forgecraft/ecsruntime"
)

// Query is one query's read and write component sets, kept sorted by type
// id so intersection tests are a linear merge rather than a nested loop.
type Query struct {
	Reads  []ecs.ComponentType
	Writes []ecs.ComponentType
}

func newQuery(reads, writes []ecs.ComponentType) Query {
	q := Query{Reads: append([]ecs.ComponentType(nil), reads...), Writes: append([]ecs.ComponentType(nil), writes...)}
	ecs.SortComponentTypes(q.Reads)
	ecs.SortComponentTypes(q.Writes)
	return q
}

// ResourceSet is the sorted read/write resource-id pair used by Policy.
type ResourceSet struct {
	Reads  []ecs.ResourceID
	Writes []ecs.ResourceID
}

// Policy is the access policy for one system registration: zero or more
// queries plus resource read/write sets. Thread-safe resources are dropped
// at build time rather than carried and special-cased at every conflict
// check.
type Policy struct {
	SystemName string
	Queries    []Query
	Resources  ResourceSet
}

// Builder constructs a Policy incrementally, mirroring the source engine's
// compile-time-computable factory (spec.md §4.9: "queries are added one by
// one").
type Builder struct {
	systemName string
	queries    []Query
	resReads   []ecs.ResourceID
	resWrites  []ecs.ResourceID
}

// NewBuilder starts a policy builder for the named system.
func NewBuilder(systemName string) *Builder {
	return &Builder{systemName: systemName}
}

// AddQuery registers one query's read and write component sets.
func (b *Builder) AddQuery(reads, writes []ecs.ComponentType) *Builder {
	b.queries = append(b.queries, newQuery(reads, writes))
	return b
}

// ReadResources records read-only access to the given resource types,
// skipping any id present in threadSafe with a diagnostic log entry
// (spec.md §4.9: "types tagged thread-safe are discarded with a diagnostic
// log entry").
func (b *Builder) ReadResources(ids []ecs.ResourceID, threadSafe func(ecs.ResourceID) bool) *Builder {
	for _, id := range ids {
		if threadSafe != nil && threadSafe(id) {
			ecs.Verify(false, "resource %s is thread-safe; dropped from read set of %s", id, b.systemName)
			continue
		}
		b.resReads = append(b.resReads, id)
	}
	return b
}

// WriteResources records mutable access to the given resource types, with
// the same thread-safe exemption as ReadResources.
func (b *Builder) WriteResources(ids []ecs.ResourceID, threadSafe func(ecs.ResourceID) bool) *Builder {
	for _, id := range ids {
		if threadSafe != nil && threadSafe(id) {
			ecs.Verify(false, "resource %s is thread-safe; dropped from write set of %s", id, b.systemName)
			continue
		}
		b.resWrites = append(b.resWrites, id)
	}
	return b
}

// Build finalizes the policy, sorting every set by type id.
func (b *Builder) Build() Policy {
	reads := append([]ecs.ResourceID(nil), b.resReads...)
	writes := append([]ecs.ResourceID(nil), b.resWrites...)
	sortResourceIDs(reads)
	sortResourceIDs(writes)
	return Policy{
		SystemName: b.systemName,
		Queries:    append([]Query(nil), b.queries...),
		Resources:  ResourceSet{Reads: reads, Writes: writes},
	}
}

func sortResourceIDs(ids []ecs.ResourceID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// HasQueryConflict reports whether any query pair across p and other
// conflicts: write∩write, write∩read, or read∩write is non-empty.
func (p Policy) HasQueryConflict(other Policy) bool {
	for _, q := range p.Queries {
		for _, o := range other.Queries {
			if intersects(q.Writes, o.Writes) || intersects(q.Writes, o.Reads) || intersects(q.Reads, o.Writes) {
				return true
			}
		}
	}
	return false
}

// HasResourceConflict reports whether p and other's resource sets conflict.
func (p Policy) HasResourceConflict(other Policy) bool {
	a, b := p.Resources, other.Resources
	return intersectsResources(a.Writes, b.Writes) ||
		intersectsResources(a.Writes, b.Reads) ||
		intersectsResources(a.Reads, b.Writes)
}

// ConflictsWith is the disjunction of HasQueryConflict and
// HasResourceConflict.
func (p Policy) ConflictsWith(other Policy) bool {
	return p.HasQueryConflict(other) || p.HasResourceConflict(other)
}

// intersects reports whether two sorted ComponentType slices share an
// element, via a linear merge.
func intersects(a, b []ecs.ComponentType) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

func intersectsResources(a, b []ecs.ResourceID) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}
