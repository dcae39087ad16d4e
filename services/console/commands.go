package console

import (
	"strconv"
	"strings"
)

func (c *Console) bindBuiltins() {
	c.Bind(Binding{Name: "help", Help: "Print list of commands", Run: cmdHelp})
	c.Bind(Binding{Name: "connect", Help: "Route a MIDI stream. usage connect <From port ID> <To port ID>", Run: cmdConnect})
	c.Bind(Binding{Name: "disconnect", Help: "Unroute a MIDI stream. usage disconnect <From port ID> <To port ID>", Run: cmdDisconnect})
	c.Bind(Binding{Name: "show", Help: "Show MIDI stream routing. usage: show", Run: cmdShow})
	c.Bind(Binding{Name: "reset", Help: "Restore the default routing. usage: reset", Run: cmdReset})
	c.Bind(Binding{Name: "stats", Help: "Show traffic and drop counters. usage: stats", Run: cmdStats})
	c.Bind(Binding{Name: "ports", Help: "Describe the valid port IDs. usage: ports", Run: cmdPorts})
}

func cmdHelp(c *Console, _ []string) {
	for _, b := range c.bindings {
		c.Println(" * " + b.Name)
		if b.Help != "" {
			c.Println("\t" + b.Help)
		}
	}
}

// checkPair validates both tokens and prints the range error for the
// first bad one.
func (c *Console) checkPair(from, to string) bool {
	counts := c.r.Counts()
	if !counts.ValidToken(from) {
		c.Println("From Input " + from + " not valid. Can be " + counts.Ranges())
		return false
	}
	if !counts.ValidToken(to) {
		c.Println("To Output " + to + " not valid. Can be " + counts.Ranges())
		return false
	}
	return true
}

func cmdConnect(c *Console, args []string) {
	if len(args) != 2 {
		c.Println("connect <FROM port ID> <TO port ID>")
		return
	}
	from, to := args[0], args[1]
	if !c.checkPair(from, to) {
		return
	}
	if err := c.r.Connect(from, to); err != nil {
		c.Println("Connect from " + from + " to " + to + " failed")
		return
	}
	c.Println("Connected " + from + " to " + to)
}

func cmdDisconnect(c *Console, args []string) {
	if len(args) != 2 {
		c.Println("disconnect <FROM port ID> <TO port ID>")
		return
	}
	from, to := args[0], args[1]
	if !c.checkPair(from, to) {
		return
	}
	if err := c.r.Disconnect(from, to); err != nil {
		c.Println("Disconnect from " + from + " to " + to + " failed")
		return
	}
	c.Println("Disconnected " + from + " from " + to)
}

func cmdShow(c *Console, _ []string) { c.Print(c.r.Show()) }

func cmdReset(c *Console, _ []string) {
	c.r.Reset()
	c.Println("Routes reset to defaults")
}

func cmdPorts(c *Console, _ []string) { c.Print(c.r.DescribePortRange()) }

func cmdStats(c *Console, _ []string) {
	st := c.r.Stats()
	u := func(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
	var b strings.Builder
	b.WriteString("cycles " + u(st.Cycles) + "\r\n")
	b.WriteString("in     usb " + u(st.USBIn) + " soft " + u(st.SoftIn) + " hard " + u(st.HardIn) + "\r\n")
	b.WriteString("out    " + u(st.Forwarded) + "\r\n")
	b.WriteString("drop   " + u(st.Dropped))
	for _, d := range st.DropsByPort {
		b.WriteString(" " + d.Port + ":" + u(d.Dropped))
	}
	b.WriteString("\r\n")
	if st.BadCable > 0 {
		b.WriteString("bad cable " + u(st.BadCable) + "\r\n")
	}
	c.Print(b.String())
}
