// Package port gives every MIDI endpoint of the adapter a canonical identity.
//
// A Port is a tagged (Kind, Index) pair. Raw console tokens are only parsed
// and formatted here; everything downstream works on Port values sized by a
// runtime Counts rather than compile-time constants.
package port

import (
	"strconv"

	"midirouter-go/errcode"
	"midirouter-go/types"
)

type Kind uint8

const (
	USB  Kind = iota // USB MIDI virtual cable
	Soft             // software-emulated UART (PIO)
	Hard             // hardware UART

	NumKinds = 3
)

// Kinds lists kinds in canonical display order.
var Kinds = [NumKinds]Kind{USB, Soft, Hard}

func (k Kind) String() string {
	switch k {
	case USB:
		return "usb"
	case Soft:
		return "soft"
	case Hard:
		return "hard"
	default:
		return "invalid"
	}
}

type Port struct {
	Kind  Kind
	Index int
}

func (p Port) String() string { return p.Kind.String() + strconv.Itoa(p.Index) }

// ---- Counts ----

const (
	MaxUSBCables = 9  // single-digit tokens 1..9
	MaxLetters   = 26 // A..Z shared by soft and hard ports
	MaxKindCount = 255
)

// Counts holds the per-kind port totals of one build (U, P, H).
type Counts struct {
	USB  int
	Soft int
	Hard int
}

// CountsOf extracts port totals from a router configuration.
func CountsOf(c types.RouterConfig) Counts {
	return Counts{USB: c.USBCables, Soft: c.SoftPorts, Hard: c.HardPorts}
}

func (c Counts) Of(k Kind) int {
	switch k {
	case USB:
		return c.USB
	case Soft:
		return c.Soft
	case Hard:
		return c.Hard
	}
	return 0
}

func (c Counts) Total() int { return c.USB + c.Soft + c.Hard }

// Validate checks that every port of c has a token.
func (c Counts) Validate() error {
	switch {
	case c.USB < 1 || c.USB > MaxUSBCables:
		return &errcode.E{C: errcode.InvalidParams, Op: "port counts", Msg: "usb cables must be 1-" + strconv.Itoa(MaxUSBCables)}
	case c.Soft < 0 || c.Hard < 0:
		return &errcode.E{C: errcode.InvalidParams, Op: "port counts", Msg: "negative serial port count"}
	case c.Soft+c.Hard > MaxLetters:
		return &errcode.E{C: errcode.InvalidParams, Op: "port counts", Msg: "more serial ports than letters"}
	}
	return nil
}

// Valid reports whether p exists in this build.
func (c Counts) Valid(p Port) bool {
	if p.Kind >= NumKinds {
		return false
	}
	return p.Index >= 0 && p.Index < c.Of(p.Kind)
}

// Ordinal maps a valid port to its position in canonical order.
func (c Counts) Ordinal(p Port) int {
	switch p.Kind {
	case USB:
		return p.Index
	case Soft:
		return c.USB + p.Index
	default:
		return c.USB + c.Soft + p.Index
	}
}

// All returns every port in canonical order: USB, soft, hard, each ascending.
func (c Counts) All() []Port {
	out := make([]Port, 0, c.Total())
	for _, k := range Kinds {
		for i := 0; i < c.Of(k); i++ {
			out = append(out, Port{Kind: k, Index: i})
		}
	}
	return out
}
