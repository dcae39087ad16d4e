package serialport

import (
	"sync"

	"tinygo.org/x/drivers"

	"midirouter-go/types"
)

// MemLine is an in-memory line. Received bytes are injected by a test or
// the simulator; transmitted bytes are captured up to a bounded backlog,
// which models a wire that cannot keep up.
type MemLine struct {
	mu    sync.Mutex
	rx    []byte
	tx    []byte
	txCap int // 0 = unbounded
}

func NewMemLine(txCap int) *MemLine { return &MemLine{txCap: txCap} }

// Inject queues bytes as if they had arrived on the wire.
func (m *MemLine) Inject(b []byte) {
	m.mu.Lock()
	m.rx = append(m.rx, b...)
	m.mu.Unlock()
}

func (m *MemLine) Buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rx)
}

func (m *MemLine) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

// Write takes what fits in the backlog. A short count is not an error:
// the caller keeps the rest queued.
func (m *MemLine) Write(p []byte) (int, error) {
	m.mu.Lock()
	n := len(p)
	if m.txCap > 0 && n > m.txCap-len(m.tx) {
		n = m.txCap - len(m.tx)
	}
	m.tx = append(m.tx, p[:n]...)
	m.mu.Unlock()
	return n, nil
}

// Sent returns and clears everything written so far, freeing the backlog.
func (m *MemLine) Sent() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.tx
	m.tx = nil
	return out
}

// MemOpener hands out MemLines keyed by LineConfig.Bus so the owner can
// reach them after the router has opened its ports.
type MemOpener struct {
	mu    sync.Mutex
	lines map[string]*MemLine
	txCap int
}

func NewMemOpener(txCap int) *MemOpener {
	return &MemOpener{lines: map[string]*MemLine{}, txCap: txCap}
}

func (o *MemOpener) Open(cfg types.LineConfig) (drivers.UART, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.lines[cfg.Bus]
	if !ok {
		l = NewMemLine(o.txCap)
		o.lines[cfg.Bus] = l
	}
	return l, nil
}

// Line returns the line opened for bus, if any.
func (o *MemOpener) Line(bus string) (*MemLine, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.lines[bus]
	return l, ok
}
