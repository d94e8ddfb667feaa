package ecsruntime

import "sync"

// resourceMap is the type-erased cell store backing the world's resources
// (spec.md §4.4). Each resource type is stored exactly once, keyed by its
// ResourceID, as a pointer so WriteResource can hand back a mutable handle
// without a second map lookup.
type resourceMap struct {
	mu             sync.RWMutex
	values         map[ResourceID]any
	threadSafeTags map[ResourceID]bool
}

func newResourceContainer() *resourceMap {
	return &resourceMap{
		values:         make(map[ResourceID]any),
		threadSafeTags: make(map[ResourceID]bool),
	}
}

// InsertResource stores v unconditionally, replacing any existing value of
// type T.
func InsertResource[T any](r *resourceMap, v T) {
	id := ResourceIDOf[T]()
	ptr := new(T)
	*ptr = v
	r.mu.Lock()
	r.values[id] = ptr
	r.mu.Unlock()
}

// TryInsertResource stores v only if no resource of type T is already
// present; it is a no-op otherwise (spec.md §4.4: "try_insert/try_emplace
// are no-ops if a resource of that type is already present"). Returns true
// when the value was inserted.
func TryInsertResource[T any](r *resourceMap, v T) bool {
	id := ResourceIDOf[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[id]; ok {
		return false
	}
	ptr := new(T)
	*ptr = v
	r.values[id] = ptr
	return true
}

// GetResource returns a handle to the resource of type T, or false if none
// is present. The returned pointer is shared with storage; callers that
// intend to mutate should use WriteResource to make that intent explicit at
// the call site, since the scheduler's conflict analysis distinguishes read
// and write access by how a system declares its query, not by this API.
func GetResource[T any](r *resourceMap) (*T, bool) {
	id := ResourceIDOf[T]()
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[id]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// WriteResource returns a mutable handle to the resource of type T, or false
// if none is present.
func WriteResource[T any](r *resourceMap) (*T, bool) {
	return GetResource[T](r)
}

// RemoveResource deletes the resource of type T, reporting whether one was
// present.
func RemoveResource[T any](r *resourceMap) bool {
	id := ResourceIDOf[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[id]; !ok {
		return false
	}
	delete(r.values, id)
	delete(r.threadSafeTags, id)
	return true
}

// MarkThreadSafe records resource type T as thread-safe; IsThreadSafeResource
// reports the mark. The scheduler's conflict analysis does not read it: a
// resource is exempted only where a system's ResourceAccess sets ThreadSafe.
func MarkThreadSafe[T any](r *resourceMap) {
	id := ResourceIDOf[T]()
	r.mu.Lock()
	r.threadSafeTags[id] = true
	r.mu.Unlock()
}

// IsThreadSafeResource reports whether id was marked via MarkThreadSafe.
func (r *resourceMap) IsThreadSafeResource(id ResourceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.threadSafeTags[id]
}

func (r *resourceMap) has(id ResourceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.values[id]
	return ok
}

// Range iterates over every registered resource id, primarily for
// diagnostics and the observability layer.
func (r *resourceMap) Range(fn func(ResourceID, any) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k, v := range r.values {
		if !fn(k, v) {
			return
		}
	}
}
