package binding

import (
	"fmt"
	"sort"
	"sync"
	"weak"

	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// Registry maps native handles to their live Object.
//
// Entries hold weak pointers: an Object that is no longer referenced may be
// collected, after which its entry reads as absent.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Registry struct {
	mu      sync.Mutex
	objects map[native.Handle]weak.Pointer[Object]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[native.Handle]weak.Pointer[Object])}
}

// Register records obj as the proxy of h. Registering a second live proxy
// for the same handle fails with status.ErrConsistency; registering the
// same proxy again is a no-op.
func (r *Registry) Register(h native.Handle, obj *Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wp, ok := r.objects[h]; ok {
		if live := wp.Value(); live != nil && live != obj {
			return fmt.Errorf("%w: handle %d is already bound", status.ErrConsistency, h)
		}
	}
	r.objects[h] = weak.Make(obj)
	return nil
}

// Lookup returns the live proxy of h, or nil.
func (r *Registry) Lookup(h native.Handle) *Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	wp, ok := r.objects[h]
	if !ok {
		return nil
	}
	obj := wp.Value()
	if obj == nil {
		delete(r.objects, h)
	}
	return obj
}

// Unregister forgets h if it is bound to obj. Absent handles are ignored.
func (r *Registry) Unregister(h native.Handle, obj *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wp, ok := r.objects[h]
	if !ok {
		return
	}
	if live := wp.Value(); live == nil || live == obj {
		delete(r.objects, h)
	}
}

// DrainAll empties the registry and returns the proxies that were still
// live, in handle order.
func (r *Registry) DrainAll() []*Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := make([]native.Handle, 0, len(r.objects))
	for h := range r.objects {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	var out []*Object
	for _, h := range handles {
		if obj := r.objects[h].Value(); obj != nil {
			out = append(out, obj)
		}
	}
	clear(r.objects)
	return out
}

// Len returns the number of live proxies.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for h, wp := range r.objects {
		if wp.Value() == nil {
			delete(r.objects, h)
			continue
		}
		n++
	}
	return n
}

// each calls fn for every live proxy. fn must not call back into r.
func (r *Registry) each(fn func(*Object)) {
	for _, obj := range r.snapshot() {
		fn(obj)
	}
}

func (r *Registry) snapshot() []*Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Object, 0, len(r.objects))
	for _, wp := range r.objects {
		if obj := wp.Value(); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}
