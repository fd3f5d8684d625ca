package scan

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Registry defaults.
const (
	DefaultTTL      = 15 * time.Minute
	DefaultDebounce = 10 * time.Second
	DefaultSize     = 4096
)

// Registry keeps live activations addressable by token and collapses rapid
// repeat scans of the same item from the same client into one activation.
type Registry struct {
	c *Controller

	mu     sync.Mutex
	tokens *expirable.LRU[string, *Activation]
	recent *expirable.LRU[string, *Activation]
}

// NewRegistry creates a registry. Zero values select the defaults.
func NewRegistry(c *Controller, ttl, debounce time.Duration, size int) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Registry{
		c:      c,
		tokens: expirable.NewLRU[string, *Activation](size, nil, ttl),
		recent: expirable.NewLRU[string, *Activation](size, nil, debounce),
	}
}

// Activate returns the activation for a notify scan of itemID by client,
// reusing one created within the debounce window.
func (r *Registry) Activate(itemID, client, link string) (a *Activation, reused bool) {
	key := itemID + "|" + client

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.recent.Get(key); ok {
		if _, live := r.tokens.Get(a.Token); live {
			return a, true
		}
	}

	a = r.c.Activate(itemID, true, link)
	r.tokens.Add(a.Token, a)
	r.recent.Add(key, a)
	return a, false
}

// Lookup returns a live activation by token.
func (r *Registry) Lookup(token string) (*Activation, bool) {
	if token == "" {
		return nil, false
	}
	return r.tokens.Get(token)
}

// Len returns the number of live activations.
func (r *Registry) Len() int {
	return r.tokens.Len()
}
