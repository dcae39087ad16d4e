// Package console is the line-oriented command front end of the router.
// It is polled: Task consumes whatever input bytes are buffered, edits
// the line in place and runs a command when the line is submitted.
package console

import (
	"sort"
	"strconv"

	"github.com/google/shlex"
	"tinygo.org/x/drivers"

	"midirouter-go/bus"
	"midirouter-go/port"
	"midirouter-go/types"
	"midirouter-go/x/mathx"
)

const (
	MaxLine       = 64
	DefaultPrompt = "> "
	readPerTask   = 16
)

var topicConfigConsole = bus.T("config", "console")

// Router is the administrative surface the built-in commands drive.
type Router interface {
	Counts() port.Counts
	Connect(from, to string) error
	Disconnect(from, to string) error
	Show() string
	DescribePortRange() string
	Reset()
	Stats() types.RouterStats
}

// Binding is one command.
type Binding struct {
	Name string
	Help string
	Run  func(c *Console, args []string)
}

type Console struct {
	io       drivers.UART
	r        Router
	prompt   string
	line     [MaxLine]byte
	n        int
	lastCR   bool
	in       [readPerTask]byte
	bindings []Binding
	cfgSub   *bus.Subscription
}

func New(io drivers.UART, r Router) *Console {
	c := &Console{io: io, r: r, prompt: DefaultPrompt}
	c.bindBuiltins()
	return c
}

// Attach follows the prompt configured on config/console.
func (c *Console) Attach(conn *bus.Connection) { c.cfgSub = conn.Subscribe(topicConfigConsole) }

func (c *Console) SetPrompt(p string) { c.prompt = p }

// Bind adds a command, replacing any binding with the same name.
func (c *Console) Bind(b Binding) {
	for i := range c.bindings {
		if c.bindings[i].Name == b.Name {
			c.bindings[i] = b
			return
		}
	}
	c.bindings = append(c.bindings, b)
	sort.Slice(c.bindings, func(i, j int) bool { return c.bindings[i].Name < c.bindings[j].Name })
}

// Print writes s as is.
func (c *Console) Print(s string) { c.io.Write([]byte(s)) }

// Println writes s followed by CRLF.
func (c *Console) Println(s string) { c.Print(s + "\r\n") }

// Welcome prints the banner, the port ID description and a prompt.
func (c *Console) Welcome() {
	u := strconv.Itoa(c.r.Counts().USB)
	c.Print("\r\n\r\n")
	c.Println(u + "-IN " + u + "-OUT USB MIDI Device adapter")
	c.Println("Cli is running.")
	c.Println(`Type "help" for a list of commands`)
	c.Println("Use backspace to remove chars")
	c.Print("\r\n")
	c.Print(c.r.DescribePortRange())
	c.Print(c.prompt)
}

// Task consumes buffered input without blocking.
func (c *Console) Task(now uint32) {
	c.pollConfig()
	n := c.io.Buffered()
	if n <= 0 {
		return
	}
	if n > len(c.in) {
		n = len(c.in)
	}
	m, _ := c.io.Read(c.in[:n])
	for _, b := range c.in[:m] {
		c.feed(b)
	}
}

func (c *Console) pollConfig() {
	if c.cfgSub == nil {
		return
	}
	select {
	case m := <-c.cfgSub.Channel():
		var cc types.ConsoleConfig
		if err := types.Decode(m.Payload, &cc); err == nil {
			c.prompt = mathx.Coalesce(cc.Prompt, DefaultPrompt)
		}
	default:
	}
}

func (c *Console) feed(b byte) {
	switch {
	case b == '\r' || b == '\n':
		if b == '\n' && c.lastCR {
			c.lastCR = false
			return
		}
		c.lastCR = b == '\r'
		c.Print("\r\n")
		line := string(c.line[:c.n])
		c.n = 0
		c.Exec(line)
		c.Print(c.prompt)
		return
	case b == 0x08 || b == 0x7F:
		if c.n > 0 {
			c.n--
			c.Print("\b \b")
		}
	case b >= 0x20 && b < 0x7F:
		if c.n < MaxLine {
			c.line[c.n] = b
			c.n++
			c.io.Write(c.line[c.n-1 : c.n])
		}
	}
	c.lastCR = false
}

// Exec runs one command line.
func (c *Console) Exec(line string) {
	args, err := shlex.Split(line)
	if err != nil {
		c.Println("Parse error: " + err.Error())
		return
	}
	if len(args) == 0 {
		return
	}
	for _, b := range c.bindings {
		if b.Name == args[0] {
			b.Run(c, args[1:])
			return
		}
	}
	c.Println(`Unknown command: "` + args[0] + `". Write "help" for a list of available commands`)
}
