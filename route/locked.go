package route

import (
	"sync"

	"midirouter-go/port"
)

// Locked serialises every Table operation behind a single mutex, so an
// interrupt-driven or multi-goroutine poller can share one matrix with the
// administrative surface. Each call is one logical operation.
type Locked struct {
	mu sync.Mutex
	t  Table
}

var _ Table = (*Locked)(nil)

func NewLocked(t Table) *Locked { return &Locked{t: t} }

func (l *Locked) Counts() port.Counts { return l.t.Counts() }

func (l *Locked) Connect(src, dst port.Port) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.Connect(src, dst)
}

func (l *Locked) Disconnect(src, dst port.Port) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.Disconnect(src, dst)
}

func (l *Locked) IsConnected(src, dst port.Port) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.IsConnected(src, dst)
}

func (l *Locked) Destinations(src port.Port) []port.Port {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.Destinations(src)
}

// ForEach holds the lock for the whole visit; fn must not call back into l.
func (l *Locked) ForEach(src port.Port, fn func(dst port.Port)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.t.ForEach(src, fn)
}

func (l *Locked) Reset(defaults bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.t.Reset(defaults)
}
