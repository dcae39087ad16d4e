// Package usbmidi carries byte-stream MIDI over USB MIDI 1.0 event packets.
package usbmidi

// Packet is one 32-bit USB MIDI event: cable<<4|CIN followed by up to
// three MIDI bytes, zero padded.
type Packet [4]byte

// Code Index Numbers.
const (
	CINMisc          = 0x0
	CINCableEvent    = 0x1
	CINSysCommon2    = 0x2
	CINSysCommon3    = 0x3
	CINSysExStart    = 0x4 // also continue
	CINSysExEnd1     = 0x5 // or single-byte system common
	CINSysExEnd2     = 0x6
	CINSysExEnd3     = 0x7
	CINNoteOff       = 0x8
	CINNoteOn        = 0x9
	CINPolyKeyPress  = 0xA
	CINControlChange = 0xB
	CINProgramChange = 0xC
	CINChannelPress  = 0xD
	CINPitchBend     = 0xE
	CINSingleByte    = 0xF
)

// MaxCables is the widest cable number a 4-bit header can address.
const MaxCables = 16

var cinLen = [16]uint8{
	0, 0, 2, 3, 3, 1, 2, 3,
	3, 3, 3, 3, 2, 2, 3, 1,
}

// PayloadLen is the number of meaningful MIDI bytes carried by cin.
// Reserved CINs (0 and 1) carry none.
func PayloadLen(cin uint8) int { return int(cinLen[cin&0x0F]) }

func (p Packet) Cable() int       { return int(p[0] >> 4) }
func (p Packet) CIN() uint8       { return p[0] & 0x0F }
func (p Packet) Len() int         { return PayloadLen(p.CIN()) }
func (p *Packet) Payload() []byte { return p[1 : 1+p.Len()] }

func makePacket(cable int, cin uint8, b []byte) Packet {
	var p Packet
	p[0] = uint8(cable&0x0F)<<4 | cin&0x0F
	copy(p[1:], b)
	return p
}
