// Package platform wires the router to the board it runs on. Build tags
// pick the implementation: rp2040 drives the real USB MIDI function and
// UARTs, anything else simulates them in memory.
package platform

import (
	"tinygo.org/x/drivers"

	"midirouter-go/serialport"
	"midirouter-go/services/statusled"
	"midirouter-go/usbmidi"
)

// Board is what Setup hands to the router.
type Board struct {
	DeviceID string
	USB      *usbmidi.Device
	Console  drivers.UART
	LED      statusled.Pin

	// Host builds only.
	Sim *Sim
}

// Sim exposes the in-memory side of simulated peripherals.
type Sim struct {
	Endpoint *usbmidi.MemEndpoint
	Lines    *serialport.MemOpener
}

// DefaultDevice names the board profile used when none is given.
func DefaultDevice() string { return defaultDevice }

type nopPin struct{}

func (nopPin) Set(bool) {}
