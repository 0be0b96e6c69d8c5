package wallet

import (
	"fmt"
	"sync"
)

// Registry owns the wallet contexts, keyed by network identifier. It is an
// explicit object rather than package state so tests can construct isolated
// instances. Contexts are registered once at service start; lookups are safe
// for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	contexts map[string]*Context
}

func NewRegistry() *Registry {
	return &Registry{contexts: make(map[string]*Context)}
}

// Register publishes a started context. Registering a network twice is an
// error: exactly one context exists per network.
func (r *Registry) Register(wctx *Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.contexts[wctx.Network]; exists {
		return fmt.Errorf("context already registered for network %q", wctx.Network)
	}
	r.contexts[wctx.Network] = wctx
	return nil
}

// Lookup returns the context for a network, if one has been registered.
func (r *Registry) Lookup(network string) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wctx, ok := r.contexts[network]
	return wctx, ok
}

// Remove unregisters and returns the context for a network.
func (r *Registry) Remove(network string) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wctx, ok := r.contexts[network]
	if ok {
		delete(r.contexts, network)
	}
	return wctx, ok
}

// Networks lists the registered network identifiers.
func (r *Registry) Networks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.contexts))
	for name := range r.contexts {
		names = append(names, name)
	}
	return names
}

// Close tears down every registered context.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for name, wctx := range r.contexts {
		if err := wctx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.contexts, name)
	}
	return firstErr
}
