package session

import (
	"cleanny-dispatch/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"sync"
	"time"
)

// entry is the per-customer draft owner. Its mutex serialises inputs from the
// same customer; different customers never contend.
type entry struct {
	mu sync.Mutex

	state   State
	draft   *Draft
	profile *model.Customer

	// field is the profile field the next text input fills, empty when none.
	field      model.ProfileField
	collecting bool
}

func (e *entry) reset() {
	e.state = StateIdle
	e.draft = nil
	e.field = ""
	e.collecting = false
}

// Registry maps customer chat ids to their session. Idle sessions expire after
// ttl and the least recently used ones are dropped once size is reached.
type Registry struct {
	mu      sync.Mutex
	entries *expirable.LRU[int64, *entry]
}

func NewRegistry(size int, ttl time.Duration) *Registry {
	return &Registry{
		entries: expirable.NewLRU[int64, *entry](size, nil, ttl),
	}
}

// acquire returns the locked entry for chatID, creating it when missing.
// Callers must unlock it.
func (r *Registry) acquire(chatID int64) *entry {
	r.mu.Lock()
	e, ok := r.entries.Get(chatID)
	if !ok {
		e = &entry{}
	}
	// re-adding refreshes the expiry
	r.entries.Add(chatID, e)
	r.mu.Unlock()

	e.mu.Lock()
	return e
}

func (r *Registry) Len() int {
	return r.entries.Len()
}
