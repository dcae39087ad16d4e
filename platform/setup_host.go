//go:build !rp2040

package platform

import (
	"context"
	"os"
	"sync"

	"go.bug.st/serial"
	"tinygo.org/x/drivers"

	"midirouter-go/bus"
	"midirouter-go/errcode"
	"midirouter-go/serialport"
	"midirouter-go/types"
	"midirouter-go/usbmidi"
)

const defaultDevice = "pico"

// Host lines hold this much unsent output before pushing back.
const hostTXBacklog = 1024

var (
	regOnce sync.Once
	hostCtx = context.Background()
	mem     = serialport.NewMemOpener(hostTXBacklog)
)

// ttyOpener opens a real serial device for a port configured with
// driver "tty".
type ttyOpener struct{}

func (ttyOpener) Open(cfg types.LineConfig) (drivers.UART, error) {
	if cfg.Path == "" {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "tty", Msg: "missing path"}
	}
	p, err := serial.Open(cfg.Path, &serial.Mode{
		BaudRate: int(cfg.Baud),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, errcode.Wrap(errcode.PeripheralUnavailable, "tty", err)
	}
	println("[platform] tty", cfg.Path, "open at", cfg.Baud, "baud")
	return serialport.NewAsyncReader(hostCtx, p, p, cfg.RXRing), nil
}

// TTYPorts lists serial devices present on the host.
func TTYPorts() ([]string, error) { return serial.GetPortsList() }

type Option func(*setupOpts)

type setupOpts struct {
	device  string
	mounted bool
	console drivers.UART
}

func WithDevice(id string) Option       { return func(o *setupOpts) { o.device = id } }
func WithMounted(m bool) Option         { return func(o *setupOpts) { o.mounted = m } }
func WithConsole(u drivers.UART) Option { return func(o *setupOpts) { o.console = u } }

// Setup registers the simulated line drivers and builds an in-memory USB
// function. "pio" and "uartx" ports become MemLines; "tty" ports open
// real serial devices.
func Setup(ctx context.Context, conn *bus.Connection, opts ...Option) (*Board, error) {
	o := setupOpts{device: defaultDevice}
	for _, fn := range opts {
		fn(&o)
	}
	regOnce.Do(func() {
		hostCtx = ctx
		serialport.RegisterOpener("pio", mem)
		serialport.RegisterOpener("uartx", mem)
		serialport.RegisterOpener("mem", mem)
		serialport.RegisterOpener("tty", ttyOpener{})
	})

	ep := usbmidi.NewMemEndpoint(256)
	dev := usbmidi.NewDevice(ep, usbmidi.WithConn(conn))
	if o.mounted {
		dev.Mount()
	}
	con := o.console
	if con == nil {
		con = serialport.NewAsyncReader(ctx, os.Stdin, os.Stdout, 256)
	}
	println("[platform] host simulation for", o.device)
	return &Board{
		DeviceID: o.device,
		USB:      dev,
		Console:  con,
		LED:      nopPin{},
		Sim:      &Sim{Endpoint: ep, Lines: mem},
	}, nil
}
