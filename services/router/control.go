package router

import (
	"midirouter-go/bus"
	"midirouter-go/errcode"
	"midirouter-go/types"
)

// Control verbs on router/control/<verb>.
const (
	VerbConnect    = "connect"
	VerbDisconnect = "disconnect"
	VerbQuery      = "query"
	VerbShow       = "show"
	VerbReset      = "reset"
	VerbStats      = "stats"
	VerbPorts      = "ports"
)

// ControlTopic is where requests for verb are sent.
func ControlTopic(verb string) bus.Topic { return bus.T("router", "control", verb) }

// maxControlsPerStep bounds the admin work done between dispatch cycles.
const maxControlsPerStep = 4

func (s *Service) pollControl() {
	if s.ctlSub == nil {
		return
	}
	for i := 0; i < maxControlsPerStep; i++ {
		select {
		case m, ok := <-s.ctlSub.Channel():
			if !ok {
				s.ctlSub = nil
				return
			}
			s.handleControl(m)
		default:
			return
		}
	}
}

func replyErr(err error) types.RouteReply {
	return types.RouteReply{OK: false, Error: string(errcode.Of(err))}
}

func (s *Service) handleControl(m *bus.Message) {
	verb, _ := m.Topic.At(m.Topic.Len() - 1).(string)

	var req types.RouteRequest
	switch verb {
	case VerbConnect, VerbDisconnect, VerbQuery:
		if err := types.Decode(m.Payload, &req); err != nil {
			s.conn.Reply(m, replyErr(errcode.InvalidPayload), false)
			return
		}
	}

	var reply any
	switch verb {
	case VerbConnect:
		if err := s.Connect(req.From, req.To); err != nil {
			reply = replyErr(err)
		} else {
			reply = types.RouteReply{OK: true, Connected: true}
		}
	case VerbDisconnect:
		if err := s.Disconnect(req.From, req.To); err != nil {
			reply = replyErr(err)
		} else {
			reply = types.RouteReply{OK: true}
		}
	case VerbQuery:
		ok, err := s.Query(req.From, req.To)
		if err != nil {
			reply = replyErr(err)
		} else {
			reply = types.RouteReply{OK: true, Connected: ok}
		}
	case VerbShow:
		reply = types.RouteReply{OK: true, Text: s.Show()}
	case VerbReset:
		s.Reset()
		reply = types.RouteReply{OK: true}
	case VerbStats:
		reply = s.Stats()
	case VerbPorts:
		reply = types.RouteReply{OK: true, Text: s.DescribePortRange()}
	default:
		reply = replyErr(errcode.Unsupported)
	}
	s.conn.Reply(m, reply, false)
}
