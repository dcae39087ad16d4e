package route

import (
	"midirouter-go/errcode"
	"midirouter-go/port"
)

// list is a bounded, duplicate-free set of destination indices of one kind.
// slot has fixed length (the kind's port count); only slot[:n] is live.
type list struct {
	slot []uint8
	n    int
}

func newList(capacity int) list { return list{slot: make([]uint8, capacity)} }

func (l *list) indexOf(v uint8) int {
	for i := 0; i < l.n; i++ {
		if l.slot[i] == v {
			return i
		}
	}
	return -1
}

func (l *list) add(v uint8) error {
	if l.indexOf(v) >= 0 {
		return nil
	}
	if l.n >= len(l.slot) {
		return errcode.CapacityExceeded
	}
	l.slot[l.n] = v
	l.n++
	return nil
}

// remove swaps the last live entry into the vacated slot.
// The count is decremented before the copy so nothing past the new
// live range is read or written.
func (l *list) remove(v uint8) bool {
	i := l.indexOf(v)
	if i < 0 {
		return false
	}
	l.n--
	if i != l.n {
		l.slot[i] = l.slot[l.n]
	}
	return true
}

func (l *list) clear() { l.n = 0 }

// Set is the RouteSet of one input port: one list per destination kind.
type Set struct {
	dst [port.NumKinds]list
}

func newSet(c port.Counts) Set {
	var s Set
	for _, k := range port.Kinds {
		s.dst[k] = newList(c.Of(k))
	}
	return s
}

// Len returns the number of destinations of kind k.
func (s *Set) Len(k port.Kind) int { return s.dst[k].n }

// Has reports membership of dst.
func (s *Set) Has(dst port.Port) bool { return s.dst[dst.Kind].indexOf(uint8(dst.Index)) >= 0 }

// Each calls fn for every destination, kind by kind in canonical order,
// in insertion order within a kind. It does not allocate.
func (s *Set) Each(fn func(dst port.Port)) {
	for _, k := range port.Kinds {
		l := &s.dst[k]
		for i := 0; i < l.n; i++ {
			fn(port.Port{Kind: k, Index: int(l.slot[i])})
		}
	}
}
