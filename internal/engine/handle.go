package engine

import "fmt"

// handle addresses an arena slot. The generation is bumped whenever the slot
// is freed, so a handle taken before the free no longer resolves.
// Generation zero is never issued; the zero handle is invalid.
type handle struct {
	slot uint32
	gen  uint32
}

func (h handle) String() string {
	return fmt.Sprintf("%d@%d", h.slot, h.gen)
}

// BufferID addresses a Buffer within its Allocator.
type BufferID struct{ handle }

// IsZero reports whether id was never issued.
func (id BufferID) IsZero() bool {
	return id.gen == 0
}

// OpID addresses an Operation within its Allocator.
type OpID struct{ handle }

// IsZero reports whether id was never issued.
func (id OpID) IsZero() bool {
	return id.gen == 0
}

// arena is a slot table with free-list reuse.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

type slot[T any] struct {
	item *T
	gen  uint32
}

func (a *arena[T]) insert(item *T) handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{gen: 1})
	}
	a.slots[idx].item = item
	a.live++
	return handle{slot: idx, gen: a.slots[idx].gen}
}

func (a *arena[T]) get(h handle) (*T, bool) {
	if h.gen == 0 || int(h.slot) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[h.slot]
	if s.gen != h.gen || s.item == nil {
		return nil, false
	}
	return s.item, true
}

func (a *arena[T]) remove(h handle) bool {
	if _, ok := a.get(h); !ok {
		return false
	}
	a.slots[h.slot].item = nil
	a.slots[h.slot].gen++
	a.free = append(a.free, h.slot)
	a.live--
	return true
}

// each visits live items in slot order.
func (a *arena[T]) each(fn func(h handle, item *T)) {
	for i, s := range a.slots {
		if s.item != nil {
			fn(handle{slot: uint32(i), gen: s.gen}, s.item)
		}
	}
}
