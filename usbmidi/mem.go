package usbmidi

import (
	"sync"

	"midirouter-go/x/shmring"
)

// MemEndpoint is an in-memory pair of packet FIFOs standing in for the
// bulk endpoints. The host side is safe to drive from another goroutine.
type MemEndpoint struct {
	out *shmring.Ring // host -> device
	in  *shmring.Ring // device -> host

	mu  sync.Mutex // host side
	enc []*Encoder
}

// NewMemEndpoint sizes each direction in packets; packets must be a power
// of two.
func NewMemEndpoint(packets int) *MemEndpoint {
	m := &MemEndpoint{
		out: shmring.New(packets * 4),
		in:  shmring.New(packets * 4),
		enc: make([]*Encoder, MaxCables),
	}
	for i := range m.enc {
		m.enc[i] = NewEncoder(i)
	}
	return m
}

func (m *MemEndpoint) ReadPacket(p *Packet) bool {
	if m.out.Available() < len(p) {
		return false
	}
	m.out.TryReadInto(p[:])
	return true
}

func (m *MemEndpoint) WritePacket(p Packet) bool {
	if m.in.Space() < len(p) {
		return false
	}
	m.in.TryWriteFrom(p[:])
	return true
}

func (m *MemEndpoint) Free() int { return m.in.Space() / 4 }

// HostSendPacket queues a raw OUT packet as the host would.
func (m *MemEndpoint) HostSendPacket(p Packet) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out.Space() < len(p) {
		return false
	}
	m.out.TryWriteFrom(p[:])
	return true
}

// HostSend encodes a byte stream on cable into OUT packets and returns
// the bytes consumed before the OUT FIFO filled.
func (m *MemEndpoint) HostSend(cable int, b []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cable < 0 || cable >= len(m.enc) {
		return 0
	}
	e := m.enc[cable]
	for i, c := range b {
		if m.out.Space() < 4 {
			return i
		}
		if p, ok := e.Feed(c); ok {
			m.out.TryWriteFrom(p[:])
		}
	}
	return len(b)
}

// HostRecv pops every IN packet queued so far.
func (m *MemEndpoint) HostRecv() []Packet {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ps []Packet
	var p Packet
	for m.in.Available() >= len(p) {
		m.in.TryReadInto(p[:])
		ps = append(ps, p)
	}
	return ps
}

// HostRecvBytes pops every IN packet and returns the payload bytes per cable.
func (m *MemEndpoint) HostRecvBytes() map[int][]byte {
	out := make(map[int][]byte)
	for _, p := range m.HostRecv() {
		out[p.Cable()] = Decode(out[p.Cable()], p)
	}
	return out
}

// Flush discards unread IN packets and host-side stream state, as a bus
// reset does. The device drains its own OUT side on unmount.
func (m *MemEndpoint) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in.Reset()
	for _, e := range m.enc {
		e.Reset()
	}
}
