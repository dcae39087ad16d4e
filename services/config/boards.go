package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
//
// Soft ports use the "pio" line driver, hardware ports "uartx". Host builds
// register in-memory lines under both names.
// -----------------------------------------------------------------------------

const cfgPico = `{
  "router": {
    "usb_cables": 6,
    "soft_ports": 4,
    "hard_ports": 2,
    "chunk_size": 48,
    "soft": [
      {"driver": "pio", "bus": "pio0", "tx": 2, "rx": 3},
      {"driver": "pio", "bus": "pio1", "tx": 6, "rx": 7},
      {"driver": "pio", "bus": "pio2", "tx": 8, "rx": 9},
      {"driver": "pio", "bus": "pio3", "tx": 10, "rx": 11}
    ],
    "hard": [
      {"driver": "uartx", "bus": "uart1", "tx": 4, "rx": 5},
      {"driver": "uartx", "bus": "uart0", "tx": 0, "rx": 1}
    ]
  },
  "led": {
    "unmounted_ms": 250,
    "mounted_ms": 1000,
    "suspended_ms": 2500
  },
  "console": {
    "prompt": "> "
  }
}`

const cfgPico2 = `{
  "router": {
    "usb_cables": 8,
    "soft_ports": 6,
    "hard_ports": 2,
    "chunk_size": 48,
    "soft": [
      {"driver": "pio", "bus": "pio0", "tx": 2, "rx": 3},
      {"driver": "pio", "bus": "pio1", "tx": 6, "rx": 7},
      {"driver": "pio", "bus": "pio2", "tx": 8, "rx": 9},
      {"driver": "pio", "bus": "pio3", "tx": 10, "rx": 11},
      {"driver": "pio", "bus": "pio4", "tx": 12, "rx": 13},
      {"driver": "pio", "bus": "pio5", "tx": 14, "rx": 15}
    ],
    "hard": [
      {"driver": "uartx", "bus": "uart1", "tx": 4, "rx": 5},
      {"driver": "uartx", "bus": "uart0", "tx": 0, "rx": 1}
    ]
  },
  "led": {
    "unmounted_ms": 250,
    "mounted_ms": 1000,
    "suspended_ms": 2500
  },
  "console": {
    "prompt": "> "
  }
}`

const cfgPicoLite = `{
  "router": {
    "usb_cables": 6,
    "soft_ports": 4,
    "hard_ports": 1,
    "soft": [
      {"driver": "pio", "bus": "pio0", "tx": 2, "rx": 3},
      {"driver": "pio", "bus": "pio1", "tx": 6, "rx": 7},
      {"driver": "pio", "bus": "pio2", "tx": 8, "rx": 9},
      {"driver": "pio", "bus": "pio3", "tx": 10, "rx": 11}
    ],
    "hard": [
      {"driver": "uartx", "bus": "uart1", "tx": 4, "rx": 5}
    ]
  },
  "led": {}
}`

// Hardware UARTs only.
const cfgPicoHW = `{
  "router": {
    "usb_cables": 2,
    "soft_ports": 0,
    "hard_ports": 2,
    "hard": [
      {"driver": "uartx", "bus": "uart1", "tx": 4, "rx": 5},
      {"driver": "uartx", "bus": "uart0", "tx": 0, "rx": 1}
    ]
  },
  "led": {}
}`

var embeddedConfigs = map[string][]byte{
	"pico":      []byte(cfgPico),
	"pico2":     []byte(cfgPico2),
	"pico_lite": []byte(cfgPicoLite),
	"pico_hw":   []byte(cfgPicoHW),
}
