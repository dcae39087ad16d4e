//go:build rp2040

package platform

import (
	"context"
	"machine"
	"machine/usb/adc/midi"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"midirouter-go/bus"
	"midirouter-go/errcode"
	"midirouter-go/serialport"
	"midirouter-go/types"
	"midirouter-go/usbmidi"
	"midirouter-go/x/shmring"
)

// The PIO UART driver is not available on this target yet; profiles with
// soft ports fail at boot, so the default profile uses hardware UARTs only.
const defaultDevice = "pico_hw"

// -----------------------------------------------------------------------------
// Hardware UARTs
// -----------------------------------------------------------------------------

type uartxOpener struct{}

func (uartxOpener) Open(cfg types.LineConfig) (drivers.UART, error) {
	var hw *uartx.UART
	switch cfg.Bus {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "uartx", Msg: "unknown bus " + cfg.Bus}
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	}); err != nil {
		return nil, errcode.Wrap(errcode.PeripheralUnavailable, "uartx", err)
	}
	return hw, nil
}

type pioOpener struct{}

func (pioOpener) Open(cfg types.LineConfig) (drivers.UART, error) {
	return nil, &errcode.E{C: errcode.Unsupported, Op: "pio", Msg: "no PIO UART driver for " + cfg.Bus}
}

// -----------------------------------------------------------------------------
// USB MIDI endpoint over TinyGo's class driver
// -----------------------------------------------------------------------------

// usbEndpoint queues OUT packets from the USB interrupt into a ring the
// router loop drains. IN packets go straight to the class driver, which
// buffers them until the host polls.
type usbEndpoint struct {
	rx *shmring.Ring
}

func newUSBEndpoint() *usbEndpoint {
	e := &usbEndpoint{rx: shmring.New(512)}
	midi.Port().SetHandler(func(b []byte) {
		// whole packets only
		n := len(b) &^ 3
		if e.rx.Space() >= n {
			e.rx.TryWriteFrom(b[:n])
		}
	})
	return e
}

func (e *usbEndpoint) ReadPacket(p *usbmidi.Packet) bool {
	if e.rx.Available() < len(p) {
		return false
	}
	e.rx.TryReadInto(p[:])
	return true
}

func (e *usbEndpoint) WritePacket(p usbmidi.Packet) bool {
	_, err := midi.Port().Write(p[:])
	return err == nil
}

// Free reports a fixed window; the class driver drops when its own
// buffer is full and does not expose its fill level.
func (e *usbEndpoint) Free() int { return 16 }

// -----------------------------------------------------------------------------
// Console over USB CDC
// -----------------------------------------------------------------------------

type cdcLine struct{}

func (cdcLine) Buffered() int { return machine.Serial.Buffered() }

func (cdcLine) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

func (cdcLine) Write(p []byte) (int, error) { return machine.Serial.Write(p) }

// -----------------------------------------------------------------------------
// Setup
// -----------------------------------------------------------------------------

type Option func(*setupOpts)

type setupOpts struct {
	device string
}

func WithDevice(id string) Option { return func(o *setupOpts) { o.device = id } }

// Setup registers the UART drivers, starts the USB MIDI function and
// configures the status LED. TinyGo does not report enumeration to the
// application, so the function counts as mounted from boot.
func Setup(ctx context.Context, conn *bus.Connection, opts ...Option) (*Board, error) {
	o := setupOpts{device: defaultDevice}
	for _, fn := range opts {
		fn(&o)
	}
	serialport.RegisterOpener("uartx", uartxOpener{})
	serialport.RegisterOpener("pio", pioOpener{})

	dev := usbmidi.NewDevice(newUSBEndpoint(), usbmidi.WithConn(conn))
	dev.Mount()

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &Board{
		DeviceID: o.device,
		USB:      dev,
		Console:  cdcLine{},
		LED:      led,
	}, nil
}
