package datamodel

import "sync"

// Presence records, per device, whether optional parameters exist.
type Presence struct {
	mu    sync.RWMutex
	known map[Name]bool
}

// NewPresence returns a table where every parameter is unknown.
func NewPresence() *Presence {
	return &Presence{known: make(map[Name]bool)}
}

// Set records whether name is present on the device.
func (p *Presence) Set(name Name, present bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known[name] = present
}

// Lookup returns the recorded presence and whether it is known at all.
func (p *Presence) Lookup(name Name) (present, known bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	present, known = p.known[name]
	return present, known
}

// Present reports whether name has been confirmed present.
func (p *Presence) Present(name Name) bool {
	present, known := p.Lookup(name)
	return known && present
}

// Snapshot returns a copy of the resolved entries.
func (p *Presence) Snapshot() map[Name]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[Name]bool, len(p.known))
	for k, v := range p.known {
		out[k] = v
	}
	return out
}
