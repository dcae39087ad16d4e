package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"midirouter-go/bus"
	"midirouter-go/platform"
	"midirouter-go/port"
	"midirouter-go/serialport"
	"midirouter-go/services/config"
	"midirouter-go/services/console"
	"midirouter-go/services/router"
	"midirouter-go/services/statusled"
	"midirouter-go/types"
	"midirouter-go/usbmidi"
	"midirouter-go/x/timex"
)

type sim struct {
	board  *platform.Board
	cfg    types.RouterConfig
	counts port.Counts
	svc    *router.Service
	con    *console.Console
	soft   []*serialport.MemLine // nil where a port is not simulated
	hard   []*serialport.MemLine
	tracer *tracer

	client  *bus.Connection     // talks to the router over router/control
	replies []*bus.Subscription // outstanding "bus" requests
}

func runSim(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := bus.NewBus(32)
	conn := b.NewConnection("sim")

	if err := config.NewConfigService().Publish(context.WithValue(ctx, config.CtxDeviceKey, boardName), conn); err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, time.Second)
	cfg, err := router.AwaitConfig(wctx, conn)
	cancel()
	if err != nil {
		return err
	}
	for _, f := range ttyFlags {
		i, path, err := parseTTY(f)
		if err != nil {
			return err
		}
		if i >= len(cfg.Hard) {
			return fmt.Errorf("--tty %q: board has %d hardware ports", f, len(cfg.Hard))
		}
		cfg.Hard[i] = types.LineConfig{Driver: "tty", Path: path, Baud: cfg.Hard[i].Baud}
	}

	board, err := platform.Setup(ctx, conn, platform.WithDevice(boardName), platform.WithMounted(mounted))
	if err != nil {
		return err
	}
	soft, hard, err := router.OpenPorts(cfg)
	if err != nil {
		router.PublishFailure(conn, err)
		return err
	}
	svc, err := router.New(cfg, board.USB, soft, hard, router.WithConn(conn))
	if err != nil {
		return err
	}

	s := &sim{board: board, cfg: cfg, counts: svc.Counts(), svc: svc, client: b.NewConnection("sim-console")}
	s.soft = s.memLines(cfg.Soft)
	s.hard = s.memLines(cfg.Hard)
	if trace {
		s.tracer = newTracer(os.Stdout)
	}

	led := statusled.New(board.LED)
	led.Attach(conn)
	s.con = console.New(board.Console, svc)
	s.con.Attach(conn)
	s.bindCommands()

	svc.AddTask(led.Task)
	svc.AddTask(s.con.Task)
	svc.AddTask(s.drainHost)

	s.con.Welcome()
	return s.loop(ctx)
}

// loop steps the router at roughly 1 kHz rather than spinning.
func (s *sim) loop(ctx context.Context) error {
	t0 := time.Now()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case now := <-tick.C:
			s.svc.Step(timex.Millis(t0, now))
		}
	}
}

func (s *sim) memLines(lcs []types.LineConfig) []*serialport.MemLine {
	out := make([]*serialport.MemLine, len(lcs))
	for i, lc := range lcs {
		if lc.Driver == "tty" {
			continue
		}
		out[i], _ = s.board.Sim.Lines.Line(lc.Bus)
	}
	return out
}

// drainHost plays the far side of every simulated wire: it consumes what
// the router sent so the backlogs never fill, tracing it if asked.
func (s *sim) drainHost(uint32) {
	for _, p := range s.board.Sim.Endpoint.HostRecv() {
		if s.tracer != nil {
			s.tracer.packet(p)
		}
	}
	drain := func(k port.Kind, lines []*serialport.MemLine) {
		for i, l := range lines {
			if l == nil {
				continue
			}
			if b := l.Sent(); len(b) > 0 && s.tracer != nil {
				s.tracer.bytes("SERIAL OUT "+s.counts.Token(port.Port{Kind: k, Index: i}), b)
			}
		}
	}
	drain(port.Soft, s.soft)
	drain(port.Hard, s.hard)
	s.pollReplies()
}

func (s *sim) bindCommands() {
	usbEvent := func(ev usbmidi.Event) func(*console.Console, []string) {
		return func(c *console.Console, _ []string) {
			if s.board.USB.Handle(ev) {
				c.Println("USB " + string(s.board.USB.State()))
			} else {
				c.Println(ev.String() + " ignored while " + string(s.board.USB.State()))
			}
		}
	}
	s.con.Bind(console.Binding{Name: "mount", Help: "Simulate USB enumeration", Run: usbEvent(usbmidi.EvMount)})
	s.con.Bind(console.Binding{Name: "unmount", Help: "Simulate USB detach", Run: usbEvent(usbmidi.EvUnmount)})
	s.con.Bind(console.Binding{Name: "suspend", Help: "Simulate USB bus suspend", Run: usbEvent(usbmidi.EvSuspend)})
	s.con.Bind(console.Binding{Name: "resume", Help: "Simulate USB bus resume", Run: usbEvent(usbmidi.EvResume)})
	s.con.Bind(console.Binding{Name: "inject", Help: "Bytes arriving on a serial MIDI IN. usage: inject <port ID> <hex bytes...>", Run: s.cmdInject})
	s.con.Bind(console.Binding{Name: "bus", Help: "Send a router control over the message bus. usage: bus <verb> [<FROM port ID> <TO port ID>]", Run: s.cmdBus})
	s.con.Bind(console.Binding{Name: "usbsend", Help: "Bytes from the host on a USB cable. usage: usbsend <cable> <hex bytes...>", Run: s.cmdUSBSend})
}

func parseHex(args []string) ([]byte, error) {
	out := make([]byte, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte %q", a)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func (s *sim) cmdInject(c *console.Console, args []string) {
	if len(args) < 2 {
		c.Println("inject <port ID> <hex bytes...>")
		return
	}
	p, err := s.counts.Parse(args[0])
	if err != nil || p.Kind == port.USB {
		c.Println("Port " + args[0] + " is not a serial port")
		return
	}
	l := s.soft
	if p.Kind == port.Hard {
		l = s.hard
	}
	if l[p.Index] == nil {
		c.Println("Port " + args[0] + " is a real serial device")
		return
	}
	b, err := parseHex(args[1:])
	if err != nil {
		c.Println(err.Error())
		return
	}
	l[p.Index].Inject(b)
}

func (s *sim) cmdUSBSend(c *console.Console, args []string) {
	if len(args) < 2 {
		c.Println("usbsend <cable> <hex bytes...>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > usbmidi.MaxCables {
		c.Println("Cable " + args[0] + " not valid")
		return
	}
	b, err := parseHex(args[1:])
	if err != nil {
		c.Println(err.Error())
		return
	}
	if !s.board.USB.Mounted() {
		c.Println("USB is " + string(s.board.USB.State()) + "; the host cannot send")
		return
	}
	s.board.Sim.Endpoint.HostSend(n-1, b)
}

// cmdBus sends a control request. The router answers inside a later Step,
// so the reply is picked up by pollReplies rather than waited for here.
func (s *sim) cmdBus(c *console.Console, args []string) {
	if len(args) != 1 && len(args) != 3 {
		c.Println("bus <verb> [<FROM port ID> <TO port ID>]")
		return
	}
	var payload any
	if len(args) == 3 {
		payload = types.RouteRequest{From: args[1], To: args[2]}
	}
	m := s.client.NewMessage(router.ControlTopic(args[0]), payload, false)
	s.replies = append(s.replies, s.client.Request(m))
}

func (s *sim) pollReplies() {
	kept := s.replies[:0]
	for _, sub := range s.replies {
		select {
		case m := <-sub.Channel():
			s.con.Println(formatReply(m.Payload))
			s.client.Unsubscribe(sub)
		default:
			kept = append(kept, sub)
		}
	}
	s.replies = kept
}

func formatReply(p any) string {
	switch r := p.(type) {
	case types.RouteReply:
		switch {
		case !r.OK:
			return "error: " + r.Error
		case r.Text != "":
			return strings.TrimRight(r.Text, "\r\n")
		default:
			return "ok connected=" + strconv.FormatBool(r.Connected)
		}
	case types.RouterStats:
		return fmt.Sprintf("%+v", r)
	}
	return fmt.Sprintf("%v", p)
}
