// Package route holds the routing matrix: one RouteSet per input port,
// mutated only by connect/disconnect and read by the dispatch hot path.
package route

import (
	"sort"

	"midirouter-go/errcode"
	"midirouter-go/port"
)

// Table is the routing contract shared by the administrative surface and
// the dispatch engine. Matrix implements it for the single-threaded loop;
// Locked wraps any Table behind one mutex for concurrent targets.
type Table interface {
	Counts() port.Counts
	Connect(src, dst port.Port) error
	Disconnect(src, dst port.Port) error
	IsConnected(src, dst port.Port) bool
	Destinations(src port.Port) []port.Port
	ForEach(src port.Port, fn func(dst port.Port))
	Reset(defaults bool)
}

var _ Table = (*Matrix)(nil)

type Matrix struct {
	counts port.Counts
	sets   []Set // indexed by canonical input ordinal
}

// New builds an empty matrix sized from c.
func New(c port.Counts) *Matrix {
	m := &Matrix{counts: c, sets: make([]Set, c.Total())}
	for i := range m.sets {
		m.sets[i] = newSet(c)
	}
	return m
}

// NewDefault builds a matrix holding the boot pairing.
func NewDefault(c port.Counts) *Matrix {
	m := New(c)
	m.Reset(true)
	return m
}

func (m *Matrix) Counts() port.Counts { return m.counts }

// Reset clears every edge and, if defaults is set, installs the boot
// pairing: soft k <-> USB k, hard j <-> USB P+j, where the USB cable exists.
func (m *Matrix) Reset(defaults bool) {
	for i := range m.sets {
		for k := range m.sets[i].dst {
			m.sets[i].dst[k].clear()
		}
	}
	if !defaults {
		return
	}
	c := m.counts
	pair := func(serial port.Port, cable int) {
		usb := port.Port{Kind: port.USB, Index: cable}
		if !c.Valid(usb) {
			return
		}
		_ = m.Connect(serial, usb)
		_ = m.Connect(usb, serial)
	}
	for k := 0; k < c.Soft; k++ {
		pair(port.Port{Kind: port.Soft, Index: k}, k)
	}
	for j := 0; j < c.Hard; j++ {
		pair(port.Port{Kind: port.Hard, Index: j}, c.Soft+j)
	}
}

func (m *Matrix) set(src port.Port) *Set { return &m.sets[m.counts.Ordinal(src)] }

func (m *Matrix) Connect(src, dst port.Port) error {
	if !m.counts.Valid(src) || !m.counts.Valid(dst) {
		return errcode.InvalidPort
	}
	return m.set(src).dst[dst.Kind].add(uint8(dst.Index))
}

func (m *Matrix) Disconnect(src, dst port.Port) error {
	if !m.counts.Valid(src) || !m.counts.Valid(dst) {
		return errcode.InvalidPort
	}
	if !m.set(src).dst[dst.Kind].remove(uint8(dst.Index)) {
		return errcode.NotRouted
	}
	return nil
}

func (m *Matrix) IsConnected(src, dst port.Port) bool {
	if !m.counts.Valid(src) || !m.counts.Valid(dst) {
		return false
	}
	return m.set(src).Has(dst)
}

// Destinations lists src's destinations in canonical order. Display path only.
func (m *Matrix) Destinations(src port.Port) []port.Port {
	if !m.counts.Valid(src) {
		return nil
	}
	var out []port.Port
	m.set(src).Each(func(dst port.Port) { out = append(out, dst) })
	sort.Slice(out, func(i, j int) bool {
		return m.counts.Ordinal(out[i]) < m.counts.Ordinal(out[j])
	})
	return out
}

// ForEach visits src's destinations without allocating. Hot path.
func (m *Matrix) ForEach(src port.Port, fn func(dst port.Port)) {
	if !m.counts.Valid(src) {
		return
	}
	m.set(src).Each(fn)
}
