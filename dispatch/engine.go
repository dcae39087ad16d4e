// Package dispatch is the per-cycle forwarding loop of the router.
//
// Cycle polls every source once, asks the routing table who listens, and
// fans each chunk out to the destinations' transmit paths. Nothing here
// blocks: every poll and write is a single bounded attempt, and bytes a
// destination cannot take are dropped and reported, never retried.
package dispatch

import (
	"midirouter-go/errcode"
	"midirouter-go/port"
	"midirouter-go/route"
	"midirouter-go/x/mathx"
)

const (
	DefaultChunk = 48
	MaxChunk     = 256
)

// SerialPort is one MIDI UART, software-emulated or hardware.
type SerialPort interface {
	PollRX(buf []byte) int // copy up to len(buf) received bytes; 0 if none
	WriteTX(p []byte) int  // enqueue; returns bytes accepted
	DrainTX()              // push queued bytes toward the wire
}

// USB is the USB MIDI class endpoint as seen by the router.
type USB interface {
	Mounted() bool
	// ReadNext returns the next chunk received from the host and its cable.
	// n == 0 means nothing is pending.
	ReadNext(buf []byte) (cable int, n int)
	Write(cable int, p []byte) int
}

// DropSink receives transmit-overrun diagnostics.
type DropSink interface {
	Dropped(dst port.Port, n int)
}

type Stats struct {
	Cycles    uint32
	In        [port.NumKinds]uint32 // bytes received per source kind
	Forwarded uint32                // bytes accepted by destinations
	Dropped   uint32                // bytes refused by destinations
	BadCable  uint32                // bytes from cables outside the build
}

type Engine struct {
	table route.Table
	usb   USB
	soft  []SerialPort
	hard  []SerialPort
	sink  DropSink

	buf     []byte
	cur     []byte          // chunk being fanned out
	visit   func(port.Port) // e.deliver, bound once
	mounted bool            // sampled once per cycle
	stats   Stats
}

type Option func(*Engine)

// WithChunk caps the bytes taken from one source per poll.
func WithChunk(n int) Option {
	return func(e *Engine) { e.buf = make([]byte, mathx.Clamp(mathx.Coalesce(n, DefaultChunk), 1, MaxChunk)) }
}

func WithDropSink(s DropSink) Option { return func(e *Engine) { e.sink = s } }

// New wires an engine. Port slices must match the table's counts.
func New(t route.Table, usb USB, soft, hard []SerialPort, opts ...Option) (*Engine, error) {
	c := t.Counts()
	if usb == nil || len(soft) != c.Soft || len(hard) != c.Hard {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "dispatch.New", Msg: "ports do not match counts"}
	}
	for _, p := range append(append([]SerialPort(nil), soft...), hard...) {
		if p == nil {
			return nil, &errcode.E{C: errcode.PeripheralUnavailable, Op: "dispatch.New", Msg: "nil serial port"}
		}
	}
	e := &Engine{table: t, usb: usb, soft: soft, hard: hard, buf: make([]byte, DefaultChunk)}
	for _, o := range opts {
		o(e)
	}
	e.visit = e.deliver
	return e, nil
}

func (e *Engine) Stats() Stats { return e.stats }

func (e *Engine) ChunkSize() int { return len(e.buf) }

// Cycle runs one full dispatch pass.
func (e *Engine) Cycle() {
	e.stats.Cycles++
	e.mounted = e.usb.Mounted()

	e.pollSerial(port.Soft, e.soft)
	e.pollSerial(port.Hard, e.hard)
	if e.mounted {
		e.pollUSB()
	}

	for _, p := range e.soft {
		p.DrainTX()
	}
	for _, p := range e.hard {
		p.DrainTX()
	}
}

func (e *Engine) pollSerial(k port.Kind, ports []SerialPort) {
	for i, p := range ports {
		n := p.PollRX(e.buf)
		if n <= 0 {
			continue
		}
		e.stats.In[k] += uint32(n)
		e.fanOut(port.Port{Kind: k, Index: i}, e.buf[:n])
	}
}

// pollUSB drains every pending host chunk, demultiplexed by cable.
func (e *Engine) pollUSB() {
	for {
		cable, n := e.usb.ReadNext(e.buf)
		if n <= 0 {
			return
		}
		src := port.Port{Kind: port.USB, Index: cable}
		if !e.table.Counts().Valid(src) {
			e.stats.BadCable += uint32(n)
			continue
		}
		e.stats.In[port.USB] += uint32(n)
		e.fanOut(src, e.buf[:n])
	}
}

func (e *Engine) fanOut(src port.Port, chunk []byte) {
	e.cur = chunk
	e.table.ForEach(src, e.visit)
	e.cur = nil
}

// deliver offers the current chunk to dst as one unit and drops whatever
// does not fit.
func (e *Engine) deliver(dst port.Port) {
	chunk := e.cur
	var n int
	switch dst.Kind {
	case port.USB:
		if !e.mounted {
			return
		}
		n = e.usb.Write(dst.Index, chunk)
	case port.Soft:
		n = e.soft[dst.Index].WriteTX(chunk)
	case port.Hard:
		n = e.hard[dst.Index].WriteTX(chunk)
	}
	e.stats.Forwarded += uint32(n)
	if n < len(chunk) {
		d := len(chunk) - n
		e.stats.Dropped += uint32(d)
		if e.sink != nil {
			e.sink.Dropped(dst, d)
		}
	}
}
