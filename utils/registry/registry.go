// Package registry holds named drivers registered at init time.
package registry

import (
	"sort"
	"sync"
)

// Preparer is implemented by drivers that register flags when they are
// added to a registry.
type Preparer interface {
	Prepare() error
}

// Registry maps names to drivers. It is safe for concurrent use.
type Registry[D Preparer] struct {
	lock    sync.RWMutex
	drivers map[string]D
}

func New[D Preparer]() *Registry[D] {
	return &Registry[D]{
		drivers: make(map[string]D),
	}
}

// Register adds d under name, replacing any previous driver, then prepares
// it. A Prepare failure is a programming error and panics.
func (r *Registry[D]) Register(name string, d D) {
	r.lock.Lock()
	r.drivers[name] = d
	r.lock.Unlock()

	if err := d.Prepare(); err != nil {
		panic(err)
	}
}

func (r *Registry[D]) Get(name string) (D, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	d, ok := r.drivers[name]
	return d, ok
}

// Names returns the registered names, sorted.
func (r *Registry[D]) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
