package stat

import (
	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/logging"
	"github.com/pbellini/narrastats/internal/numutil"
)

// ChangeEvent describes one applied stat mutation, delivered synchronously
// to registered listeners.
type ChangeEvent struct {
	StatID   string  `json:"statId"`
	OldValue float64 `json:"oldValue"`
	NewValue float64 `json:"newValue"`
}

// ChangeListener observes applied mutations. Listeners run synchronously in
// registration order; a panicking listener is recovered and logged, never
// propagated to the caller that triggered the mutation.
type ChangeListener func(ChangeEvent)

type listenerEntry struct {
	id int
	fn ChangeListener
}

// Registry is an insertion-ordered collection of stats keyed by normalized
// identifier. It exclusively owns the stats it contains.
type Registry struct {
	order     []string
	stats     map[string]*Stat
	listeners []listenerEntry
	nextID    int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stats: make(map[string]*Stat)}
}

// Add registers a stat under its normalized ID. A duplicate ID replaces the
// existing stat with a warning; insertion order is preserved from the first
// occurrence.
func (r *Registry) Add(s *Stat) {
	if s == nil {
		return
	}
	if _, exists := r.stats[s.ID()]; exists {
		logging.Warn("duplicate stat id replaced", logging.Fields{constants.LogFieldStatID: s.ID()})
	} else {
		r.order = append(r.order, s.ID())
	}
	r.stats[s.ID()] = s
}

// Remove deletes a stat by ID and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	id = numutil.SanitizeID(id)
	if _, ok := r.stats[id]; !ok {
		return false
	}
	delete(r.stats, id)
	for i := range r.order {
		if r.order[i] == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the stat registered under the normalized form of id.
func (r *Registry) Get(id string) (*Stat, bool) {
	s, ok := r.stats[numutil.SanitizeID(id)]
	return s, ok
}

// Lookup returns the stat registered under exactly id, with no
// normalization. Used by case-sensitive command matching.
func (r *Registry) Lookup(id string) (*Stat, bool) {
	s, ok := r.stats[id]
	return s, ok
}

// Has reports whether a stat is registered under the normalized form of id.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Len returns the number of registered stats.
func (r *Registry) Len() int { return len(r.order) }

// IDs returns the registered stat IDs in insertion order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List returns all stats in insertion order.
func (r *Registry) List() []*Stat {
	out := make([]*Stat, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stats[id])
	}
	return out
}

// ListFiltered returns stats in insertion order, optionally restricted to a
// category and/or to visible stats only.
func (r *Registry) ListFiltered(category string, visibleOnly bool) []*Stat {
	out := make([]*Stat, 0, len(r.order))
	for _, id := range r.order {
		s := r.stats[id]
		if category != "" && s.Category() != category {
			continue
		}
		if visibleOnly && !s.Visible() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Tick ages every stat's modifier stack by one turn. The result maps stat
// IDs to expired modifier IDs and contains entries only for stats that
// actually expired something.
func (r *Registry) Tick() map[string][]string {
	expired := make(map[string][]string)
	for _, id := range r.order {
		if ids := r.stats[id].Tick(); len(ids) > 0 {
			expired[id] = ids
		}
	}
	return expired
}

// ResetAll returns every stat to its base value.
func (r *Registry) ResetAll() {
	for _, id := range r.order {
		r.stats[id].Reset()
	}
}

// OnChange registers a listener and returns its unsubscribe function.
// Unsubscribing is idempotent and safe on every exit path.
func (r *Registry) OnChange(fn ChangeListener) func() {
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i := range r.listeners {
			if r.listeners[i].id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers a change event to all listeners in registration order.
// A panicking listener is isolated from the mutation that triggered it.
func (r *Registry) Notify(ev ChangeEvent) {
	for _, l := range r.listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logging.Error("stat change listener panicked", nil, logging.Fields{constants.LogFieldStatID: ev.StatID, "panic": rec})
				}
			}()
			l.fn(ev)
		}()
	}
}
