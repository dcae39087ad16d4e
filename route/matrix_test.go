package route

import (
	"sync"
	"testing"

	"midirouter-go/errcode"
	"midirouter-go/port"
)

var pico = port.Counts{USB: 6, Soft: 4, Hard: 2}

func usb(i int) port.Port  { return port.Port{Kind: port.USB, Index: i} }
func soft(i int) port.Port { return port.Port{Kind: port.Soft, Index: i} }
func hard(i int) port.Port { return port.Port{Kind: port.Hard, Index: i} }

// edges snapshots the whole matrix as a set of (src,dst) pairs.
func edges(t Table) map[[2]port.Port]bool {
	out := map[[2]port.Port]bool{}
	all := t.Counts().All()
	for _, s := range all {
		for _, d := range all {
			if t.IsConnected(s, d) {
				out[[2]port.Port{s, d}] = true
			}
		}
	}
	return out
}

func sameEdges(a, b map[[2]port.Port]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func TestDefaultPairing(t *testing.T) {
	for _, c := range []port.Counts{pico, {USB: 8, Soft: 6, Hard: 2}, {USB: 6, Soft: 4, Hard: 1}} {
		m := NewDefault(c)
		want := map[[2]port.Port]bool{}
		for k := 0; k < c.Soft; k++ {
			want[[2]port.Port{soft(k), usb(k)}] = true
			want[[2]port.Port{usb(k), soft(k)}] = true
		}
		for j := 0; j < c.Hard; j++ {
			want[[2]port.Port{hard(j), usb(c.Soft + j)}] = true
			want[[2]port.Port{usb(c.Soft + j), hard(j)}] = true
		}
		if got := edges(m); !sameEdges(got, want) {
			t.Fatalf("counts %+v: default edges = %v, want %v", c, got, want)
		}
	}
}

func TestConnectQueryDisconnect(t *testing.T) {
	m := New(pico)
	all := pico.All()
	for _, s := range all {
		for _, d := range all {
			if err := m.Connect(s, d); err != nil {
				t.Fatalf("connect %v->%v: %v", s, d, err)
			}
			if !m.IsConnected(s, d) {
				t.Fatalf("%v->%v not connected after connect", s, d)
			}
			if err := m.Disconnect(s, d); err != nil {
				t.Fatalf("disconnect %v->%v: %v", s, d, err)
			}
			if m.IsConnected(s, d) {
				t.Fatalf("%v->%v still connected after disconnect", s, d)
			}
		}
	}
}

func TestConnectIdempotent(t *testing.T) {
	a, b := NewDefault(pico), NewDefault(pico)
	_ = a.Connect(usb(2), hard(1))
	_ = b.Connect(usb(2), hard(1))
	_ = b.Connect(usb(2), hard(1))
	if !sameEdges(edges(a), edges(b)) {
		t.Fatal("double connect changed state")
	}
	if n := b.set(usb(2)).Len(port.Hard); n != 1 {
		t.Fatalf("hard destinations = %d, want 1", n)
	}
}

func TestEdgesAreDirectional(t *testing.T) {
	m := New(pico)
	_ = m.Connect(soft(1), hard(0))
	if m.IsConnected(hard(0), soft(1)) {
		t.Fatal("reverse edge appeared")
	}
}

func TestSelfRoutePermitted(t *testing.T) {
	m := New(pico)
	if err := m.Connect(soft(2), soft(2)); err != nil {
		t.Fatalf("self route: %v", err)
	}
	if !m.IsConnected(soft(2), soft(2)) {
		t.Fatal("self route missing")
	}
}

func TestDisconnectNotRoutedLeavesMatrix(t *testing.T) {
	m := NewDefault(pico)
	_ = m.Connect(usb(0), usb(3))
	_ = m.Connect(usb(0), usb(5))
	before := edges(m)
	if err := m.Disconnect(usb(0), usb(4)); err != errcode.NotRouted {
		t.Fatalf("err = %v, want not_routed", err)
	}
	if err := m.Disconnect(hard(1), soft(0)); err != errcode.NotRouted {
		t.Fatalf("err = %v, want not_routed", err)
	}
	if !sameEdges(before, edges(m)) {
		t.Fatal("failed disconnect changed the matrix")
	}
}

func TestSwapRemovalKeepsOthers(t *testing.T) {
	// Remove from the front, middle and end of a full list; every other
	// destination must survive and the count must drop by exactly one.
	for victim := 0; victim < pico.USB; victim++ {
		m := New(pico)
		for i := 0; i < pico.USB; i++ {
			_ = m.Connect(hard(0), usb(i))
		}
		if err := m.Disconnect(hard(0), usb(victim)); err != nil {
			t.Fatalf("disconnect %d: %v", victim, err)
		}
		s := m.set(hard(0))
		if s.Len(port.USB) != pico.USB-1 {
			t.Fatalf("victim %d: len = %d", victim, s.Len(port.USB))
		}
		for i := 0; i < pico.USB; i++ {
			if got := m.IsConnected(hard(0), usb(i)); got != (i != victim) {
				t.Fatalf("victim %d: usb %d connected=%v", victim, i, got)
			}
		}
	}
}

func TestDrainAndRefill(t *testing.T) {
	m := New(pico)
	for i := 0; i < pico.Soft; i++ {
		_ = m.Connect(usb(0), soft(i))
	}
	for _, i := range []int{1, 3, 0, 2} {
		if err := m.Disconnect(usb(0), soft(i)); err != nil {
			t.Fatalf("disconnect %d: %v", i, err)
		}
	}
	if n := m.set(usb(0)).Len(port.Soft); n != 0 {
		t.Fatalf("len after drain = %d", n)
	}
	if err := m.Disconnect(usb(0), soft(0)); err != errcode.NotRouted {
		t.Fatalf("disconnect from empty: %v", err)
	}
	for i := pico.Soft - 1; i >= 0; i-- {
		_ = m.Connect(usb(0), soft(i))
	}
	if got := m.Destinations(usb(0)); len(got) != pico.Soft || got[0] != soft(0) {
		t.Fatalf("destinations = %v", got)
	}
}

func TestFillToCapacity(t *testing.T) {
	m := New(pico)
	src := soft(0)
	for _, d := range pico.All() {
		if err := m.Connect(src, d); err != nil {
			t.Fatalf("connect %v: %v", d, err)
		}
	}
	for _, k := range port.Kinds {
		if n := m.set(src).Len(k); n != pico.Of(k) {
			t.Fatalf("kind %v len = %d, want %d", k, n, pico.Of(k))
		}
	}
	if got := m.Destinations(src); len(got) != pico.Total() {
		t.Fatalf("destinations = %d", len(got))
	}
}

func TestCapacityGuard(t *testing.T) {
	l := newList(2)
	if l.add(0) != nil || l.add(1) != nil {
		t.Fatal("add within capacity failed")
	}
	if err := l.add(2); err != errcode.CapacityExceeded {
		t.Fatalf("err = %v, want capacity_exceeded", err)
	}
	if err := l.add(1); err != nil {
		t.Fatalf("duplicate at capacity: %v", err)
	}
}

func TestInvalidPorts(t *testing.T) {
	m := NewDefault(pico)
	bad := []port.Port{usb(6), soft(4), hard(2), usb(-1), {Kind: 7}}
	for _, p := range bad {
		if err := m.Connect(p, usb(0)); err != errcode.InvalidPort {
			t.Fatalf("connect from %v: %v", p, err)
		}
		if err := m.Connect(usb(0), p); err != errcode.InvalidPort {
			t.Fatalf("connect to %v: %v", p, err)
		}
		if err := m.Disconnect(usb(0), p); err != errcode.InvalidPort {
			t.Fatalf("disconnect to %v: %v", p, err)
		}
		if m.IsConnected(p, usb(0)) || m.IsConnected(usb(0), p) {
			t.Fatalf("%v reported connected", p)
		}
		if m.Destinations(p) != nil {
			t.Fatalf("destinations of %v", p)
		}
	}
}

func TestDestinationsCanonicalOrder(t *testing.T) {
	m := New(pico)
	_ = m.Connect(usb(1), hard(1))
	_ = m.Connect(usb(1), soft(3))
	_ = m.Connect(usb(1), usb(4))
	_ = m.Connect(usb(1), soft(0))
	_ = m.Connect(usb(1), usb(2))
	want := []port.Port{usb(2), usb(4), soft(0), soft(3), hard(1)}
	got := m.Destinations(usb(1))
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestResetWithoutDefaults(t *testing.T) {
	m := NewDefault(pico)
	m.Reset(false)
	if len(edges(m)) != 0 {
		t.Fatal("Reset(false) left edges")
	}
	m.Reset(true)
	if !sameEdges(edges(m), edges(NewDefault(pico))) {
		t.Fatal("Reset(true) differs from boot pairing")
	}
}

func TestLockedConcurrentMutation(t *testing.T) {
	l := NewLocked(New(pico))
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				d := usb((w + i) % pico.USB)
				_ = l.Connect(soft(w), d)
				l.ForEach(soft(w), func(port.Port) {})
				_ = l.Disconnect(soft(w), d)
			}
		}(w)
	}
	wg.Wait()
	for w := 0; w < 4; w++ {
		if got := l.Destinations(soft(w)); len(got) != 0 {
			t.Fatalf("soft %d left with %v", w, got)
		}
	}
}
