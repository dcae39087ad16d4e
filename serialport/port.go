// Package serialport implements the router's MIDI UART ports.
//
// A Port pairs a byte line (anything satisfying drivers.UART) with a
// transmit ring. Receive is polled straight from the line; transmit is
// queued into the ring and drained toward the line a bounded amount per
// cycle, so neither direction ever waits on the wire.
package serialport

import (
	"tinygo.org/x/drivers"

	"midirouter-go/x/mathx"
	"midirouter-go/x/shmring"
)

const (
	DefaultRing   = 256
	DefaultBudget = 64
	MIDIBaud      = 31250
)

type Port struct {
	name    string
	line    drivers.UART
	tx      *shmring.Ring
	scratch []byte
	werr    uint32
}

// New builds a port over line. ring must be a power of two (0 selects
// DefaultRing); budget caps the bytes handed to the line per DrainTX.
func New(name string, line drivers.UART, ring, budget int) *Port {
	ring = mathx.Coalesce(ring, DefaultRing)
	budget = mathx.Clamp(mathx.Coalesce(budget, DefaultBudget), 1, ring)
	return &Port{
		name:    name,
		line:    line,
		tx:      shmring.New(ring),
		scratch: make([]byte, budget),
	}
}

func (p *Port) Name() string       { return p.name }
func (p *Port) Line() drivers.UART { return p.line }

// PollRX copies at most min(Buffered, len(buf)) bytes from the line.
func (p *Port) PollRX(buf []byte) int {
	n := p.line.Buffered()
	if n <= 0 || len(buf) == 0 {
		return 0
	}
	if n > len(buf) {
		n = len(buf)
	}
	m, err := p.line.Read(buf[:n])
	if err != nil && m <= 0 {
		return 0
	}
	return m
}

// WriteTX queues as much of b as the transmit ring has room for.
func (p *Port) WriteTX(b []byte) int { return p.tx.TryWriteFrom(b) }

// Pending is the number of queued transmit bytes.
func (p *Port) Pending() int { return p.tx.Available() }

// DrainTX hands up to the drain budget of queued bytes to the line. Bytes
// the line does not take stay queued for the next cycle.
func (p *Port) DrainTX() {
	k := p.tx.Peek(p.scratch)
	if k == 0 {
		return
	}
	w, err := p.line.Write(p.scratch[:k])
	if w > 0 {
		p.tx.Discard(w)
	}
	if err != nil {
		p.werr++
		if p.werr == 1 {
			println("[serial] warn:", p.name, "write:", err.Error())
		}
	}
}

// WriteErrors counts failed line writes.
func (p *Port) WriteErrors() uint32 { return p.werr }
