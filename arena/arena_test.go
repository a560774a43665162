package arena

import (
	"errors"
	"testing"
)

func TestArenaBudget(t *testing.T) {
	a := New(100)

	if err := a.Alloc(60); err != nil {
		t.Fatalf("Alloc(60) failed: %v", err)
	}
	if err := a.Alloc(50); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Alloc(50) = %v, want ErrExhausted", err)
	}
	if a.Used() != 60 {
		t.Errorf("Used() = %d, want 60", a.Used())
	}

	a.Release(30)
	if err := a.Alloc(50); err != nil {
		t.Fatalf("Alloc(50) after release failed: %v", err)
	}
	if a.Peak() != 80 {
		t.Errorf("Peak() = %d, want 80", a.Peak())
	}
}

func TestArenaUnlimited(t *testing.T) {
	a := New(0)
	for i := 0; i < 1000; i++ {
		if err := a.Alloc(1 << 20); err != nil {
			t.Fatalf("unlimited arena refused allocation %d: %v", i, err)
		}
	}
}

func TestArenaSetLimitBelowUsed(t *testing.T) {
	a := New(0)
	_ = a.Alloc(10)
	a.SetLimit(a.Used())

	if err := a.Alloc(1); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Alloc(1) = %v, want ErrExhausted", err)
	}
}

func TestArenaDestroy(t *testing.T) {
	a := New(0)
	tbl := NewTable[string](a)
	h := tbl.Put("event")

	a.Destroy()

	if _, ok := tbl.Get(h); ok {
		t.Error("handle resolved after Destroy")
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d after Destroy, want 0", tbl.Len())
	}
	if err := a.Alloc(1); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Alloc after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestTableStaleHandle(t *testing.T) {
	a := New(0)
	tbl := NewTable[int](a)

	h1 := tbl.Put(1)
	if !tbl.Delete(h1) {
		t.Fatal("Delete(h1) = false")
	}
	h2 := tbl.Put(2)

	if _, ok := tbl.Get(h1); ok {
		t.Error("stale handle resolved after slot reuse")
	}
	if v, ok := tbl.Get(h2); !ok || v != 2 {
		t.Errorf("Get(h2) = %d, %v; want 2, true", v, ok)
	}
	if tbl.Delete(h1) {
		t.Error("Delete of stale handle succeeded")
	}
	if _, ok := tbl.Get(Nil); ok {
		t.Error("Nil handle resolved")
	}
}

func TestTableEach(t *testing.T) {
	a := New(0)
	tbl := NewTable[string](a)
	tbl.Put("a")
	hb := tbl.Put("b")
	tbl.Put("c")
	tbl.Delete(hb)

	var got []string
	tbl.Each(func(_ Handle, v string) bool {
		got = append(got, v)
		return true
	})
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Each visited %v, want [a c]", got)
	}
}

func TestQueueFIFO(t *testing.T) {
	a := New(0)
	tbl := NewTable[int](a)
	var q Queue

	var handles []Handle
	for i := 0; i < 20; i++ {
		h := tbl.Put(i)
		handles = append(handles, h)
		q.Push(h)
	}

	// interleave pops and pushes to exercise wrap-around
	for i := 0; i < 5; i++ {
		h, _ := q.Pop()
		if h != handles[i] {
			t.Fatalf("Pop %d returned wrong handle", i)
		}
		q.Push(h)
	}

	if q.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", q.Len())
	}
	for i := 5; i < 20; i++ {
		h, _ := q.Pop()
		if v, _ := tbl.Get(h); v != i {
			t.Fatalf("Pop returned %d, want %d", v, i)
		}
	}
	for i := 0; i < 5; i++ {
		h, _ := q.Pop()
		if v, _ := tbl.Get(h); v != i {
			t.Fatalf("wrapped Pop returned %d, want %d", v, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop on empty queue succeeded")
	}
}
