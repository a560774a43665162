package arena

import (
	"errors"
	"sync"
)

var (
	// ErrExhausted is returned when an allocation would exceed the arena budget
	ErrExhausted = errors.New("arena: memory budget exhausted")
	// ErrDestroyed is returned by every allocation after Destroy
	ErrDestroyed = errors.New("arena: destroyed")
)

// Arena accounts every structure owned by one VM instance. It does not hand
// out memory itself; structures are Go values that charge their size here,
// and the tables created from the arena are dropped together on Destroy.
type Arena struct {
	mu        sync.Mutex
	limit     int64 // 0 = unlimited
	used      int64
	peak      int64
	destroyed bool
	owned     []func() // reset hooks of tables carved from this arena
}

// New creates an arena with the given byte budget (<= 0 means unlimited)
func New(limit int64) *Arena {
	if limit < 0 {
		limit = 0
	}
	return &Arena{limit: limit}
}

// Alloc charges n bytes against the budget
func (a *Arena) Alloc(n int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed {
		return ErrDestroyed
	}
	if n <= 0 {
		return nil
	}
	if a.limit > 0 && a.used+n > a.limit {
		return ErrExhausted
	}
	a.used += n
	if a.used > a.peak {
		a.peak = a.used
	}
	return nil
}

// Release gives n bytes back to the budget
func (a *Arena) Release(n int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.used -= n
	if a.used < 0 {
		a.used = 0
	}
}

// Used returns the bytes currently charged
func (a *Arena) Used() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Peak returns the high-water mark of charged bytes
func (a *Arena) Peak() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peak
}

// Limit returns the budget (0 = unlimited)
func (a *Arena) Limit() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limit
}

// SetLimit changes the budget. Lowering it below Used makes every further
// allocation fail until bytes are released.
func (a *Arena) SetLimit(limit int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	a.limit = limit
}

// Destroyed reports whether Destroy has been called
func (a *Arena) Destroyed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

// Destroy releases everything carved from the arena at once
func (a *Arena) Destroy() {
	a.mu.Lock()
	owned := a.owned
	a.owned = nil
	a.destroyed = true
	a.used = 0
	a.mu.Unlock()

	for _, reset := range owned {
		reset()
	}
}

// own registers a reset hook run by Destroy
func (a *Arena) own(reset func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		reset()
		return
	}
	a.owned = append(a.owned, reset)
}
