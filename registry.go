package jcursor

import (
	"fmt"
	"slices"
	"sync"
)

type codecEntry struct {
	name   string
	codec  Codec
	policy Policy
}

// Registry maps codec names to codecs. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*codecEntry
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[string]*codecEntry)}
}

// Register adds c under name. Names are unique.
func (r *Registry) Register(name string, c Codec, p Policy) error {
	if name == "" {
		return fmt.Errorf("codec name must not be empty")
	}
	if c == nil {
		return fmt.Errorf("codec %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("codec %q already registered", name)
	}
	r.entries[name] = &codecEntry{name: name, codec: c, policy: p}
	return nil
}

// Alias makes the codec registered as target reachable as name too. Errors
// report the canonical name.
func (r *Registry) Alias(name, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.entries[target]
	if !ok {
		return fmt.Errorf("alias %q: %w %q", name, ErrUnknownCodec, target)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("codec %q already registered", name)
	}
	r.entries[name] = ent
	return nil
}

// Names returns every registered name, aliases included, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the codec registered under name.
func (r *Registry) Lookup(name string) (Codec, bool) {
	ent, ok := r.entry(name)
	if !ok {
		return nil, false
	}
	return ent.codec, true
}

func (r *Registry) entry(name string) (*codecEntry, bool) {
	r.mu.RLock()
	ent, ok := r.entries[name]
	r.mu.RUnlock()
	return ent, ok
}

// Convert runs the named codec over v. With ActionAuto the codec's policy
// picks the direction; the action actually taken is returned.
func (r *Registry) Convert(name string, action Action, v any) (any, Action, error) {
	ent, ok := r.entry(name)
	if !ok {
		return nil, action, fmt.Errorf("%w %q", ErrUnknownCodec, name)
	}

	var (
		out any
		err error
	)
	switch action {
	case ActionLoad:
		out, err = ent.codec.Load(v)
	case ActionDump:
		out, err = ent.codec.Dump(v)
	case ActionAuto, "":
		out, action, err = auto(ent.codec, ent.policy, v)
	default:
		return nil, action, fmt.Errorf("%w: unknown action %q", ErrParse, action)
	}
	if err != nil {
		return nil, action, err
	}
	return out, action, nil
}
