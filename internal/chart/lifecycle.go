// Package chart renders candle series and return distributions as terminal
// text and tracks the lifetime of every live chart instance.
package chart

import (
	"sync"
)

// Instance is a live chart bound to a display surface. Destroy releases the
// surface; calling it more than once must be harmless.
type Instance interface {
	ID() string
	Destroy()
}

// Set owns the chart instances of the current selection. Instances are
// destroyed together before the next selection creates its own.
type Set struct {
	mu        sync.Mutex
	instances []Instance
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Add takes ownership of inst.
func (s *Set) Add(inst Instance) {
	if inst == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = append(s.instances, inst)
}

// DestroyAll destroys every owned instance and returns how many there were.
func (s *Set) DestroyAll() int {
	s.mu.Lock()
	instances := s.instances
	s.instances = nil
	s.mu.Unlock()

	for _, inst := range instances {
		inst.Destroy()
	}
	return len(instances)
}

// Len returns the number of live instances.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// IDs returns the identifiers of the live instances in creation order.
func (s *Set) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.instances))
	for i, inst := range s.instances {
		ids[i] = inst.ID()
	}
	return ids
}

// Slot holds at most one instance, such as the detail chart.
type Slot struct {
	mu     sync.Mutex
	active Instance
}

// Replace destroys the current instance, if any, and installs inst.
func (s *Slot) Replace(inst Instance) {
	s.mu.Lock()
	old := s.active
	s.active = inst
	s.mu.Unlock()

	if old != nil {
		old.Destroy()
	}
}

// Release destroys the current instance and leaves the slot empty.
// It reports whether an instance was destroyed.
func (s *Slot) Release() bool {
	s.mu.Lock()
	old := s.active
	s.active = nil
	s.mu.Unlock()

	if old == nil {
		return false
	}
	old.Destroy()
	return true
}

// Active returns the current instance or nil.
func (s *Slot) Active() Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
