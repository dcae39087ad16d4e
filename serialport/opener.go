package serialport

import (
	"sync"

	"tinygo.org/x/drivers"

	"midirouter-go/errcode"
	"midirouter-go/types"
	"midirouter-go/x/shmring"
)

// Opener brings up the physical line named by a LineConfig.
type Opener interface {
	Open(cfg types.LineConfig) (drivers.UART, error)
}

type OpenerFunc func(cfg types.LineConfig) (drivers.UART, error)

func (f OpenerFunc) Open(cfg types.LineConfig) (drivers.UART, error) { return f(cfg) }

var (
	mu      sync.RWMutex
	openers = map[string]Opener{}
)

// RegisterOpener makes an opener available under driver. Platforms call it
// from init; registering a name twice panics.
func RegisterOpener(driver string, o Opener) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := openers[driver]; exists {
		panic("serialport: opener already registered for driver " + driver)
	}
	openers[driver] = o
}

func Lookup(driver string) (Opener, bool) {
	mu.RLock()
	defer mu.RUnlock()
	o, ok := openers[driver]
	return o, ok
}

// Drivers lists registered opener names in no particular order.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(openers))
	for k := range openers {
		out = append(out, k)
	}
	return out
}

// Open resolves cfg.Driver and wraps the resulting line in a Port.
func Open(name string, cfg types.LineConfig, ring, budget int) (*Port, error) {
	o, ok := Lookup(cfg.Driver)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownDriver, Op: "serialport.Open", Msg: name + ": " + cfg.Driver}
	}
	if ring != 0 && (!shmring.IsPow2(ring) || ring < 2) {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "serialport.Open", Msg: name + ": tx ring not a power of two"}
	}
	if cfg.RXRing != 0 && (!shmring.IsPow2(cfg.RXRing) || cfg.RXRing < 2) {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "serialport.Open", Msg: name + ": rx ring not a power of two"}
	}
	if cfg.Baud == 0 {
		cfg.Baud = MIDIBaud
	}
	line, err := o.Open(cfg)
	if err != nil {
		if errcode.Of(err) != errcode.Error {
			return nil, err
		}
		return nil, errcode.Wrap(errcode.PeripheralUnavailable, "serialport.Open", err)
	}
	return New(name, line, ring, budget), nil
}
