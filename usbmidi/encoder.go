package usbmidi

// Encoder packs a MIDI byte stream for one cable into event packets.
// It keeps running status and SysEx state between calls, so a message
// may be split across any number of writes.
type Encoder struct {
	cable   int
	buf     [3]byte
	idx     int   // bytes collected in buf
	need    int   // length of the message being collected; 0 while idle
	running uint8 // channel status for running status, 0 if none
	sysex   bool
}

func NewEncoder(cable int) *Encoder { return &Encoder{cable: cable} }

// Reset drops any partial message and running status.
func (e *Encoder) Reset() {
	e.idx, e.need, e.running, e.sysex = 0, 0, 0, false
}

// Feed consumes one byte. It returns a packet when b completes one.
func (e *Encoder) Feed(b uint8) (Packet, bool) {
	switch {
	case b >= 0xF8:
		// Realtime may appear anywhere and leaves collection state alone.
		return makePacket(e.cable, CINSingleByte, []byte{b}), true

	case b == 0xF0:
		e.sysex, e.need, e.running = true, 0, 0
		e.buf[0], e.idx = b, 1
		return Packet{}, false

	case b == 0xF7:
		if !e.sysex {
			return Packet{}, false
		}
		e.buf[e.idx] = b
		n := e.idx + 1
		e.sysex, e.idx = false, 0
		return makePacket(e.cable, CINSysExEnd1+uint8(n-1), e.buf[:n]), true

	case b >= 0x80:
		// A status byte aborts an unterminated SysEx.
		e.sysex, e.idx = false, 0
		return e.status(b)
	}

	if e.sysex {
		e.buf[e.idx] = b
		e.idx++
		if e.idx == 3 {
			e.idx = 0
			return makePacket(e.cable, CINSysExStart, e.buf[:]), true
		}
		return Packet{}, false
	}
	if e.need == 0 {
		if e.running == 0 {
			return Packet{}, false // stray data byte
		}
		e.buf[0], e.idx, e.need = e.running, 1, channelLen(e.running)
	}
	e.buf[e.idx] = b
	e.idx++
	if e.idx < e.need {
		return Packet{}, false
	}
	return e.flush(), true
}

// Pending reports whether a message or SysEx is partly collected.
func (e *Encoder) Pending() bool { return e.need > 0 || e.sysex }

func (e *Encoder) status(b uint8) (Packet, bool) {
	e.buf[0], e.idx = b, 1
	if b < 0xF0 {
		e.running, e.need = b, channelLen(b)
		return Packet{}, false
	}
	e.running = 0
	switch b {
	case 0xF1, 0xF3:
		e.need = 2
	case 0xF2:
		e.need = 3
	case 0xF6:
		e.need = 1
		return e.flush(), true
	default: // F4, F5 undefined
		e.idx, e.need = 0, 0
	}
	return Packet{}, false
}

func (e *Encoder) flush() Packet {
	var cin uint8
	switch s := e.buf[0]; {
	case s < 0xF0:
		cin = s >> 4
	case e.need == 1:
		cin = CINSysExEnd1
	case e.need == 2:
		cin = CINSysCommon2
	default:
		cin = CINSysCommon3
	}
	p := makePacket(e.cable, cin, e.buf[:e.need])
	e.idx, e.need = 0, 0
	return p
}

func channelLen(status uint8) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 2
	}
	return 3
}

// Decode appends the MIDI bytes carried by p to dst.
func Decode(dst []byte, p Packet) []byte { return append(dst, p.Payload()...) }
