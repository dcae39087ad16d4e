package main

import (
	"fmt"
	"io"
	"strconv"

	"gitlab.com/gomidi/midi/v2"

	"midirouter-go/usbmidi"
)

// tracer prints whole MIDI messages leaving the router. Serial streams are
// re-framed with a usbmidi.Encoder so running status and interleaved
// realtime bytes come out as separate messages.
type tracer struct {
	w     io.Writer
	enc   map[string]*usbmidi.Encoder
	sysex map[string][]byte
}

func newTracer(w io.Writer) *tracer {
	return &tracer{w: w, enc: map[string]*usbmidi.Encoder{}, sysex: map[string][]byte{}}
}

func (t *tracer) packet(p usbmidi.Packet) {
	t.message("USB OUT "+strconv.Itoa(p.Cable()+1), p)
}

func (t *tracer) bytes(label string, b []byte) {
	e, ok := t.enc[label]
	if !ok {
		e = usbmidi.NewEncoder(0)
		t.enc[label] = e
	}
	for _, c := range b {
		if p, ok := e.Feed(c); ok {
			t.message(label, p)
		}
	}
}

func (t *tracer) message(label string, p usbmidi.Packet) {
	switch p.CIN() {
	case usbmidi.CINMisc, usbmidi.CINCableEvent:
		return
	case usbmidi.CINSysExStart:
		t.sysex[label] = usbmidi.Decode(t.sysex[label], p)
		return
	case usbmidi.CINSysExEnd1, usbmidi.CINSysExEnd2, usbmidi.CINSysExEnd3:
		if acc := t.sysex[label]; len(acc) > 0 || p[1] == 0xF0 {
			t.emit(label, usbmidi.Decode(acc, p))
			delete(t.sysex, label)
			return
		}
	}
	t.emit(label, usbmidi.Decode(nil, p))
}

func (t *tracer) emit(label string, b []byte) {
	fmt.Fprintf(t.w, "[trace] %-13s % X  %s\r\n", label, b, midi.Message(b).String())
}
