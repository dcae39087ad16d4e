package types

// ---- Router configuration (retained on "config/router") ----

// LineConfig selects and parameterises the physical line behind one MIDI UART port.
type LineConfig struct {
	Driver string `json:"driver"`         // registered opener name, e.g. "uartx", "pio", "mem", "tty"
	Bus    string `json:"bus,omitempty"`  // e.g. "uart0"
	TX     int    `json:"tx,omitempty"`   // GPIO number
	RX     int    `json:"rx,omitempty"`   // GPIO number
	Baud   uint32 `json:"baud,omitempty"` // 0 => 31250
	Path   string `json:"path,omitempty"` // host device path for "tty"

	// Receive buffer for drivers that read in the background ("tty").
	// 0 => RouterConfig.RXRing.
	RXRing int `json:"rx_ring,omitempty"`
}

type RouterConfig struct {
	USBCables int `json:"usb_cables"`
	SoftPorts int `json:"soft_ports"`
	HardPorts int `json:"hard_ports"`

	ChunkSize     int   `json:"chunk_size,omitempty"`     // per-source poll cap; 0 => 48
	DefaultRoutes *bool `json:"default_routes,omitempty"` // nil => true
	RXRing        int   `json:"rx_ring,omitempty"`        // power of two; 0 => 256; used by buffering line drivers
	TXRing        int   `json:"tx_ring,omitempty"`        // power of two; 0 => 256
	DrainBudget   int   `json:"drain_budget,omitempty"`   // bytes per port per cycle; 0 => 64

	Soft []LineConfig `json:"soft,omitempty"`
	Hard []LineConfig `json:"hard,omitempty"`
}

// WantDefaultRoutes reports whether the boot pairing should be installed.
func (c RouterConfig) WantDefaultRoutes() bool { return c.DefaultRoutes == nil || *c.DefaultRoutes }

type LEDConfig struct {
	UnmountedMs int `json:"unmounted_ms,omitempty"`
	MountedMs   int `json:"mounted_ms,omitempty"`
	SuspendedMs int `json:"suspended_ms,omitempty"`
}

type ConsoleConfig struct {
	Prompt string `json:"prompt,omitempty"`
}

// ---- USB state (retained on "usb/state") ----

type MountState string

const (
	Unmounted MountState = "unmounted"
	Mounted   MountState = "mounted"
	Suspended MountState = "suspended"
)

type USBState struct {
	State MountState `json:"state"`
	TSms  int64      `json:"ts_ms"`
}

// ---- Router state and controls ----

type RouterState struct {
	Level  string `json:"level"`  // "idle", "running", "stopped", "failed"
	Status string `json:"status"` // short code
	TSms   int64  `json:"ts_ms"`
}

// RouteRequest is the payload of router/control/{connect,disconnect,query}.
type RouteRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RouteReply answers every router control.
type RouteReply struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Connected bool   `json:"connected,omitempty"` // query only
	Text      string `json:"text,omitempty"`      // show, ports
}

// DropReport is published on router/event/drop when a destination refuses bytes.
type DropReport struct {
	Code    string `json:"code"` // always "transmit_overrun"
	Port    string `json:"port"`
	Dropped int    `json:"dropped"`
	TSms    int64  `json:"ts_ms"`
}

type PortDrops struct {
	Port    string `json:"port"`
	Dropped uint32 `json:"dropped"`
}

type RouterStats struct {
	Cycles      uint32      `json:"cycles"`
	USBIn       uint32      `json:"usb_in"`
	SoftIn      uint32      `json:"soft_in"`
	HardIn      uint32      `json:"hard_in"`
	Forwarded   uint32      `json:"forwarded"`
	Dropped     uint32      `json:"dropped"`
	BadCable    uint32      `json:"bad_cable"`
	DropsByPort []PortDrops `json:"drops_by_port,omitempty"`
}
