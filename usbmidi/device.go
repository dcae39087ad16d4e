package usbmidi

import (
	"sync"
	"sync/atomic"

	"midirouter-go/bus"
	"midirouter-go/types"
	"midirouter-go/x/timex"
)

// Endpoint is the packet-level view of the class driver's bulk endpoints.
type Endpoint interface {
	ReadPacket(p *Packet) bool // next OUT packet from the host; false if none
	WritePacket(p Packet) bool // queue an IN packet; false if the endpoint is full
	Free() int                 // IN packet slots available now
}

type Event uint8

const (
	EvMount Event = iota
	EvUnmount
	EvSuspend
	EvResume
)

func (e Event) String() string {
	switch e {
	case EvMount:
		return "mount"
	case EvUnmount:
		return "unmount"
	case EvSuspend:
		return "suspend"
	case EvResume:
		return "resume"
	}
	return "unknown"
}

// Next returns the state reached from s on ev and whether the transition
// is defined. Undefined transitions leave the state alone.
func Next(s types.MountState, ev Event) (types.MountState, bool) {
	switch {
	case s == types.Unmounted && ev == EvMount:
		return types.Mounted, true
	case s == types.Mounted && ev == EvSuspend:
		return types.Suspended, true
	case s == types.Suspended && ev == EvResume:
		return types.Mounted, true
	case s != types.Unmounted && ev == EvUnmount:
		return types.Unmounted, true
	}
	return s, false
}

var StateTopic = bus.T("usb", "state")

// Device is the router-facing USB MIDI function: it demultiplexes OUT
// packets into per-cable chunks and encodes per-cable byte streams into IN
// packets. Handle may be called from the USB stack's context; every other
// method belongs to the router loop.
type Device struct {
	ep   Endpoint
	conn *bus.Connection

	mu    sync.Mutex // serialises Handle
	state atomic.Value
	gen   atomic.Uint32 // bumped on unmount

	// router loop only
	seen    uint32
	enc     []*Encoder
	pending Packet
	off     int // payload bytes of pending already returned
	have    bool
}

type Option func(*Device)

// WithConn publishes every accepted transition as retained usb/state.
func WithConn(c *bus.Connection) Option { return func(d *Device) { d.conn = c } }

// WithState sets the starting state; Unmounted by default.
func WithState(s types.MountState) Option { return func(d *Device) { d.state.Store(s) } }

func NewDevice(ep Endpoint, opts ...Option) *Device {
	d := &Device{ep: ep, enc: make([]*Encoder, MaxCables)}
	d.state.Store(types.Unmounted)
	for i := range d.enc {
		d.enc[i] = NewEncoder(i)
	}
	for _, o := range opts {
		o(d)
	}
	d.publish(d.State())
	return d
}

func (d *Device) State() types.MountState { return d.state.Load().(types.MountState) }
func (d *Device) Mounted() bool           { return d.State() == types.Mounted }

func (d *Device) Mount()   { d.Handle(EvMount) }
func (d *Device) Unmount() { d.Handle(EvUnmount) }
func (d *Device) Suspend() { d.Handle(EvSuspend) }
func (d *Device) Resume()  { d.Handle(EvResume) }

// Handle applies ev and reports whether the state changed.
func (d *Device) Handle(ev Event) bool {
	d.mu.Lock()
	next, ok := Next(d.State(), ev)
	if ok {
		if ev == EvUnmount {
			d.gen.Add(1)
		}
		d.state.Store(next)
	}
	d.mu.Unlock()
	if !ok {
		return false
	}
	println("[usb]", ev.String(), "->", string(next))
	d.publish(next)
	return true
}

func (d *Device) publish(s types.MountState) {
	if d.conn == nil {
		return
	}
	d.conn.Publish(d.conn.NewMessage(StateTopic, types.USBState{State: s, TSms: timex.NowMs()}, true))
}

// sync discards stream state left over from before the last unmount.
func (d *Device) sync() {
	g := d.gen.Load()
	if g == d.seen {
		return
	}
	d.seen = g
	for _, e := range d.enc {
		e.Reset()
	}
	d.have, d.off = false, 0
	var p Packet
	for d.ep.ReadPacket(&p) {
	}
}

// ReadNext copies payload bytes of consecutive OUT packets sharing one
// cable into buf. It returns n == 0 when nothing is pending.
func (d *Device) ReadNext(buf []byte) (cable int, n int) {
	d.sync()
	for n < len(buf) {
		if !d.have {
			if !d.ep.ReadPacket(&d.pending) {
				break
			}
			if d.pending.Len() == 0 {
				continue
			}
			d.have, d.off = true, 0
		}
		c := d.pending.Cable()
		if n > 0 && c != cable {
			break
		}
		cable = c
		m := copy(buf[n:], d.pending.Payload()[d.off:])
		n += m
		d.off += m
		if d.off == d.pending.Len() {
			d.have = false
		}
	}
	return cable, n
}

// Write encodes p for cable and returns the number of bytes consumed. It
// stops early when the IN endpoint has no free slot or refuses a packet,
// which is how the router observes a full USB transmit path. A message cut
// short is not counted: the count ends where that message started and the
// encoder forgets it.
func (d *Device) Write(cable int, p []byte) int {
	d.sync()
	if cable < 0 || cable >= len(d.enc) {
		return 0
	}
	e := d.enc[cable]
	start := 0 // first byte not yet carried by a written packet
	for i, b := range p {
		if d.ep.Free() == 0 {
			if e.Pending() {
				e.Reset()
				return start
			}
			return i
		}
		pkt, ok := e.Feed(b)
		if !ok {
			continue
		}
		if !d.ep.WritePacket(pkt) {
			e.Reset()
			return start
		}
		if !e.Pending() {
			start = i + 1
		}
	}
	return len(p)
}
