package arena

// Handle is an arena-relative reference to a table slot. A handle stays
// valid until its slot is deleted; the generation makes reuse detectable.
type Handle struct {
	index int
	gen   uint32
}

// Nil is the zero handle; it never resolves
var Nil Handle

// IsNil returns true for the zero handle
func (h Handle) IsNil() bool {
	return h.gen == 0
}

type slot[T any] struct {
	val  T
	gen  uint32
	live bool
}

// Table is a slot table whose entries are addressed by Handle
type Table[T any] struct {
	slots []slot[T]
	free  []int
	count int
}

// NewTable creates a table owned by the arena
func NewTable[T any](a *Arena) *Table[T] {
	t := &Table[T]{}
	a.own(t.reset)
	return t
}

// Put stores v and returns its handle
func (t *Table[T]) Put(v T) Handle {
	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot[T]{})
		idx = len(t.slots) - 1
	}

	s := &t.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.val = v
	s.live = true
	t.count++
	return Handle{index: idx, gen: s.gen}
}

// Get resolves a handle. Stale handles report false.
func (t *Table[T]) Get(h Handle) (T, bool) {
	var zero T
	if h.IsNil() || h.index >= len(t.slots) {
		return zero, false
	}
	s := &t.slots[h.index]
	if !s.live || s.gen != h.gen {
		return zero, false
	}
	return s.val, true
}

// Delete frees the slot behind h; deleting a stale handle is a no-op
func (t *Table[T]) Delete(h Handle) bool {
	if _, ok := t.Get(h); !ok {
		return false
	}
	var zero T
	s := &t.slots[h.index]
	s.val = zero
	s.live = false
	t.free = append(t.free, h.index)
	t.count--
	return true
}

// Len returns the number of live entries
func (t *Table[T]) Len() int {
	return t.count
}

// Each visits live entries in slot order until fn returns false
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{index: i, gen: s.gen}, s.val) {
			return
		}
	}
}

func (t *Table[T]) reset() {
	t.slots = nil
	t.free = nil
	t.count = 0
}
