package router

import (
	"midirouter-go/errcode"
	"midirouter-go/port"
	"midirouter-go/types"
)

// Side names which token of a from/to pair failed validation.
type Side uint8

const (
	From Side = iota
	To
)

// PortError reports an unparseable or out-of-range token.
type PortError struct {
	Side  Side
	Token string
}

func (e *PortError) Error() string {
	if e.Side == From {
		return "invalid_port: from " + e.Token
	}
	return "invalid_port: to " + e.Token
}

func (e *PortError) Code() errcode.Code { return errcode.InvalidPort }

func (s *Service) parsePair(from, to string) (port.Port, port.Port, error) {
	src, err := s.counts.Parse(from)
	if err != nil {
		return src, src, &PortError{Side: From, Token: from}
	}
	dst, err := s.counts.Parse(to)
	if err != nil {
		return src, dst, &PortError{Side: To, Token: to}
	}
	return src, dst, nil
}

// Connect routes from's input to to's output.
func (s *Service) Connect(from, to string) error {
	src, dst, err := s.parsePair(from, to)
	if err != nil {
		return err
	}
	if err := s.table.Connect(src, dst); err != nil {
		return err
	}
	println("[router] connect", from, "->", to)
	return nil
}

// Disconnect removes the edge; not_routed if it was never there.
func (s *Service) Disconnect(from, to string) error {
	src, dst, err := s.parsePair(from, to)
	if err != nil {
		return err
	}
	if err := s.table.Disconnect(src, dst); err != nil {
		return err
	}
	println("[router] disconnect", from, "->", to)
	return nil
}

func (s *Service) Query(from, to string) (bool, error) {
	src, dst, err := s.parsePair(from, to)
	if err != nil {
		return false, err
	}
	return s.table.IsConnected(src, dst), nil
}

// Show renders the full matrix.
func (s *Service) Show() string { return Render(s.table) }

func (s *Service) DescribePortRange() string { return s.counts.DescribeRange() }

// Reset restores the boot pairing.
func (s *Service) Reset() {
	s.table.Reset(true)
	println("[router] routes reset to defaults")
}

func (s *Service) Stats() types.RouterStats {
	es := s.engine.Stats()
	st := types.RouterStats{
		Cycles:    es.Cycles,
		USBIn:     es.In[port.USB],
		SoftIn:    es.In[port.Soft],
		HardIn:    es.In[port.Hard],
		Forwarded: es.Forwarded,
		Dropped:   es.Dropped,
		BadCable:  es.BadCable,
	}
	for i, p := range s.counts.All() {
		if s.drops[i] > 0 {
			st.DropsByPort = append(st.DropsByPort, types.PortDrops{Port: s.counts.Token(p), Dropped: s.drops[i]})
		}
	}
	return st
}
