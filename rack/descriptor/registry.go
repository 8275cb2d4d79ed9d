package descriptor

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicate is returned when a type ID or label is registered twice.
var ErrDuplicate = errors.New("descriptor: duplicate plugin type")

// Registry maps plugin type IDs and labels to their descriptors.
// Lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byID    map[uint64]*Descriptor
	byLabel map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[uint64]*Descriptor),
		byLabel: make(map[string]*Descriptor),
	}
}

// Register validates d and publishes it. d must not be modified afterwards.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalid)
	}

	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicate, d.ID)
	}

	if _, exists := r.byLabel[d.Label]; exists {
		return fmt.Errorf("%w: label %q", ErrDuplicate, d.Label)
	}

	r.byID[d.ID] = d
	r.byLabel[d.Label] = d

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d *Descriptor) {
	err := r.Register(d)
	if err != nil {
		panic("descriptor registry: " + err.Error())
	}
}

// Lookup returns the descriptor with the given type ID, or nil.
func (r *Registry) Lookup(id uint64) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byID[id]
}

// LookupLabel returns the descriptor with the given label, or nil.
func (r *Registry) LookupLabel(label string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byLabel[label]
}

// Labels returns all registered labels in sorted order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, 0, len(r.byLabel))
	for label := range r.byLabel {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	return labels
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}
