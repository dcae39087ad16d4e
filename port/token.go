package port

import "midirouter-go/errcode"

// Tokens are one character: '1'..'9' name USB cables 0..8, letters name the
// soft ports first and the hard ports immediately after them.

// Parse validates a console token and returns its port.
func (c Counts) Parse(tok string) (Port, error) {
	if len(tok) != 1 {
		return Port{}, errcode.InvalidPort
	}
	ch := tok[0]
	switch {
	case ch >= '1' && ch <= '9':
		i := int(ch - '1')
		if i < c.USB {
			return Port{Kind: USB, Index: i}, nil
		}
	case ch >= 'a' && ch <= 'z':
		return c.letter(int(ch - 'a'))
	case ch >= 'A' && ch <= 'Z':
		return c.letter(int(ch - 'A'))
	}
	return Port{}, errcode.InvalidPort
}

func (c Counts) letter(i int) (Port, error) {
	switch {
	case i < c.Soft:
		return Port{Kind: Soft, Index: i}, nil
	case i < c.Soft+c.Hard:
		return Port{Kind: Hard, Index: i - c.Soft}, nil
	}
	return Port{}, errcode.InvalidPort
}

// ValidToken reports whether tok names a port of this build.
func (c Counts) ValidToken(tok string) bool {
	_, err := c.Parse(tok)
	return err == nil
}

// Token formats p; invalid ports render as "?".
func (c Counts) Token(p Port) string {
	if !c.Valid(p) {
		return "?"
	}
	switch p.Kind {
	case USB:
		return string(rune('1' + p.Index))
	case Soft:
		return string(rune('A' + p.Index))
	default:
		return string(rune('A' + c.Soft + p.Index))
	}
}

// Ranges renders the token ranges, e.g. "1-6 or A-D, E-F".
func (c Counts) Ranges() string {
	s := span('1', c.USB)
	letters := ""
	if c.Soft > 0 {
		letters = span('A', c.Soft)
	}
	if c.Hard > 0 {
		if letters != "" {
			letters += ", "
		}
		letters += span(byte('A'+c.Soft), c.Hard)
	}
	if letters != "" {
		s += " or " + letters
	}
	return s
}

// DescribeRange explains the valid token ranges for the console banner.
func (c Counts) DescribeRange() string {
	s := "The single character port ID to use in commands can be\r\n" +
		span('1', c.USB) + " for USB MIDI"
	if c.Soft > 0 {
		s += ", " + span('A', c.Soft) + " for Serial MIDI"
	}
	if c.Hard > 0 {
		s += ", " + span(byte('A'+c.Soft), c.Hard) + " for hardware Serial MIDI"
	}
	return s + "\r\n"
}

func span(first byte, n int) string {
	if n <= 1 {
		return string(first)
	}
	return string(first) + "-" + string(first+byte(n-1))
}
