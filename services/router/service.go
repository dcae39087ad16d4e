// Package router runs the MIDI router: it owns the routing matrix, the
// dispatch engine and the ports, and interleaves the dispatch cycle with
// administrative commands and housekeeping tasks in one cooperative loop.
package router

import (
	"context"
	"runtime"
	"time"

	"midirouter-go/bus"
	"midirouter-go/dispatch"
	"midirouter-go/errcode"
	"midirouter-go/port"
	"midirouter-go/route"
	"midirouter-go/serialport"
	"midirouter-go/types"
	"midirouter-go/x/mathx"
	"midirouter-go/x/timex"
)

var (
	topicConfigRouter = bus.T("config", "router")
	topicState        = bus.T("router", "state")
	topicDrop         = bus.T("router", "event", "drop")
	topicControl      = bus.T("router", "control", bus.Single)
)

// Task is a bounded, non-blocking step run once per loop iteration.
type Task func(now uint32)

type Service struct {
	counts port.Counts
	table  *route.Locked
	engine *dispatch.Engine

	conn   *bus.Connection
	ctlSub *bus.Subscription
	tasks  []Task

	drops []uint32 // per destination, canonical ordinal
}

type Option func(*Service)

// WithConn enables bus controls, state and drop events.
func WithConn(c *bus.Connection) Option { return func(s *Service) { s.conn = c } }

// WithTask appends a cooperative task run after every dispatch cycle.
func WithTask(t Task) Option { return func(s *Service) { s.tasks = append(s.tasks, t) } }

// New builds a router over already opened ports.
func New(cfg types.RouterConfig, usb dispatch.USB, soft, hard []dispatch.SerialPort, opts ...Option) (*Service, error) {
	c := port.CountsOf(cfg)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m := route.New(c)
	m.Reset(cfg.WantDefaultRoutes())

	s := &Service{
		counts: c,
		table:  route.NewLocked(m),
		drops:  make([]uint32, c.Total()),
	}
	for _, o := range opts {
		o(s)
	}
	e, err := dispatch.New(s.table, usb, soft, hard,
		dispatch.WithChunk(cfg.ChunkSize),
		dispatch.WithDropSink(s))
	if err != nil {
		return nil, err
	}
	s.engine = e
	if s.conn != nil {
		s.ctlSub = s.conn.Subscribe(topicControl)
	}
	return s, nil
}

// OpenPorts brings up every configured serial line. Any failure is fatal
// to boot: a router without its physical ports has no degraded mode.
func OpenPorts(cfg types.RouterConfig) (soft, hard []dispatch.SerialPort, err error) {
	c := port.CountsOf(cfg)
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	if len(cfg.Soft) != c.Soft || len(cfg.Hard) != c.Hard {
		return nil, nil, &errcode.E{C: errcode.InvalidParams, Op: "router.OpenPorts", Msg: "line configs do not match port counts"}
	}
	open := func(k port.Kind, lines []types.LineConfig) ([]dispatch.SerialPort, error) {
		out := make([]dispatch.SerialPort, len(lines))
		for i, lc := range lines {
			lc.RXRing = mathx.Coalesce(lc.RXRing, cfg.RXRing)
			p, err := serialport.Open(c.Token(port.Port{Kind: k, Index: i}), lc, cfg.TXRing, cfg.DrainBudget)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	}
	if soft, err = open(port.Soft, cfg.Soft); err != nil {
		return nil, nil, err
	}
	if hard, err = open(port.Hard, cfg.Hard); err != nil {
		return nil, nil, err
	}
	return soft, hard, nil
}

// AwaitConfig waits for the retained router configuration.
func AwaitConfig(ctx context.Context, conn *bus.Connection) (types.RouterConfig, error) {
	sub := conn.Subscribe(topicConfigRouter)
	defer conn.Unsubscribe(sub)
	var cfg types.RouterConfig
	select {
	case m := <-sub.Channel():
		if err := types.Decode(m.Payload, &cfg); err != nil {
			return cfg, errcode.Wrap(errcode.InvalidPayload, "router.config", err)
		}
		return cfg, nil
	case <-ctx.Done():
		return cfg, errcode.Wrap(errcode.Timeout, "router.config", ctx.Err())
	}
}

// AddTask appends a cooperative task run after every dispatch cycle.
func (s *Service) AddTask(t Task) { s.tasks = append(s.tasks, t) }

func (s *Service) Counts() port.Counts { return s.counts }

// Table exposes the shared routing table.
func (s *Service) Table() route.Table { return s.table }

// Step runs one scheduler iteration: pending controls, one dispatch
// cycle, then every task.
func (s *Service) Step(now uint32) {
	s.pollControl()
	s.engine.Cycle()
	for _, t := range s.tasks {
		t(now)
	}
}

// Run loops Step until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	t0 := time.Now()
	s.publishState("running", "ok")
	println("[router] running:", s.counts.USB, "usb,", s.counts.Soft, "soft,", s.counts.Hard, "hard")
	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "ok")
			if s.ctlSub != nil {
				s.conn.Unsubscribe(s.ctlSub)
			}
			return ctx.Err()
		default:
		}
		s.Step(timex.Millis(t0, time.Now()))
		runtime.Gosched()
	}
}

func (s *Service) publishState(level, status string) {
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(topicState,
		types.RouterState{Level: level, Status: status, TSms: timex.NowMs()}, true))
}

// PublishFailure records a boot failure on router/state.
func PublishFailure(conn *bus.Connection, err error) {
	conn.Publish(conn.NewMessage(topicState,
		types.RouterState{Level: "failed", Status: string(errcode.Of(err)), TSms: timex.NowMs()}, true))
}

// Dropped implements dispatch.DropSink.
func (s *Service) Dropped(dst port.Port, n int) {
	s.drops[s.counts.Ordinal(dst)] += uint32(n)
	tok := s.counts.Token(dst)
	println("[router] warn: dropped", n, "bytes sending to port", tok)
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(topicDrop,
			types.DropReport{Code: string(errcode.TransmitOverrun), Port: tok, Dropped: n, TSms: timex.NowMs()}, false))
	}
}
