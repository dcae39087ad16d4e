// Package statusled blinks the board LED at a rate that shows the USB
// mount state.
package statusled

import (
	"midirouter-go/bus"
	"midirouter-go/types"
	"midirouter-go/x/mathx"
	"midirouter-go/x/timex"
)

var (
	topicConfigLED = bus.T("config", "led")
	topicUSBState  = bus.T("usb", "state")
)

const (
	DefaultUnmountedMs = 250
	DefaultMountedMs   = 1000
	DefaultSuspendedMs = 2500
)

// Pin is the output the service drives; machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
}

type Service struct {
	pin   Pin
	cfg   types.LEDConfig
	state types.MountState

	cfgSub *bus.Subscription
	usbSub *bus.Subscription

	on   bool
	last uint32
}

func New(pin Pin) *Service {
	return &Service{pin: pin, state: types.Unmounted}
}

// Attach subscribes to LED config and USB state. Updates are applied by Task.
func (s *Service) Attach(conn *bus.Connection) {
	s.cfgSub = conn.Subscribe(topicConfigLED)
	s.usbSub = conn.Subscribe(topicUSBState)
}

// SetState changes the blink rate directly, without the bus.
func (s *Service) SetState(st types.MountState) { s.state = st }

func (s *Service) SetConfig(c types.LEDConfig) { s.cfg = c }

func (s *Service) State() types.MountState { return s.state }

// Interval is the current half period in milliseconds.
func (s *Service) Interval() uint32 {
	switch s.state {
	case types.Mounted:
		return uint32(mathx.Coalesce(s.cfg.MountedMs, DefaultMountedMs))
	case types.Suspended:
		return uint32(mathx.Coalesce(s.cfg.SuspendedMs, DefaultSuspendedMs))
	}
	return uint32(mathx.Coalesce(s.cfg.UnmountedMs, DefaultUnmountedMs))
}

// Task applies pending bus updates and toggles the LED when its interval
// has elapsed. It never blocks.
func (s *Service) Task(now uint32) {
	s.poll()
	if !timex.Due(now, s.last, s.Interval()) {
		return
	}
	s.last = now
	s.on = !s.on
	if s.pin != nil {
		s.pin.Set(s.on)
	}
}

func (s *Service) poll() {
	if s.cfgSub != nil {
		select {
		case m := <-s.cfgSub.Channel():
			var c types.LEDConfig
			if err := types.Decode(m.Payload, &c); err != nil {
				println("[led] warn: bad config:", err.Error())
			} else {
				s.cfg = c
			}
		default:
		}
	}
	if s.usbSub != nil {
		select {
		case m := <-s.usbSub.Channel():
			var st types.USBState
			if err := types.Decode(m.Payload, &st); err == nil {
				s.state = st.State
			}
		default:
		}
	}
}
