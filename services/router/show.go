package router

import (
	"strings"

	"midirouter-go/port"
	"midirouter-go/route"
)

const (
	labelWidth  = 12
	headerLines = 12
)

var headerGutter = [headerLines]string{
	0: "        TO->|",
	7: "  FROM |    |",
	8: "       v    |",
}

// columnLabel is the 12-character vertical label printed above an output.
func columnLabel(c port.Counts, p port.Port) string {
	if p.Kind == port.USB {
		return "   USB OUT " + c.Token(p)
	}
	return "SERIAL OUT " + c.Token(p)
}

func rowLabel(c port.Counts, p port.Port) string {
	if p.Kind == port.USB {
		return "    USB IN " + c.Token(p)
	}
	return " SERIAL IN " + c.Token(p)
}

func separator(b *strings.Builder, cols int) {
	b.WriteString("------------+")
	for i := 0; i < cols; i++ {
		b.WriteString("---+")
	}
	b.WriteString("\r\n")
}

// Render draws the matrix with outputs as vertical column headers and
// inputs as rows, marking each connected pair with X.
func Render(t route.Table) string {
	c := t.Counts()
	all := c.All()
	var b strings.Builder

	for line := 0; line < headerLines; line++ {
		g := headerGutter[line]
		if g == "" {
			g = "            |"
		}
		b.WriteString(g)
		for _, p := range all {
			b.WriteString(" ")
			b.WriteByte(columnLabel(c, p)[line])
			b.WriteString(" |")
		}
		b.WriteString("\r\n")
	}
	separator(&b, len(all))

	for _, src := range all {
		lbl := rowLabel(c, src)
		b.WriteString(lbl)
		b.WriteString(strings.Repeat(" ", labelWidth-len(lbl)))
		b.WriteString("|")
		for _, dst := range all {
			if t.IsConnected(src, dst) {
				b.WriteString(" X |")
			} else {
				b.WriteString("   |")
			}
		}
		b.WriteString("\r\n")
		separator(&b, len(all))
	}
	return b.String()
}
