package bus

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"
)

var (
	tConfigRouter = T("config", "router")
	tUSBState     = T("usb", "state")
	tDrop         = T("router", "event", "drop")
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("router")
	s := c.Subscribe(tConfigRouter)

	c.Publish(c.NewMessage(tConfigRouter, "cfg", false))
	want(t, s, "cfg")
}

func TestRetainedDeliveredOnSubscribe(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("config")
	c.Publish(c.NewMessage(tConfigRouter, "cfg", true))

	s := b.NewConnection("router").Subscribe(tConfigRouter)
	want(t, s, "cfg")
}

func TestRetainedReplaceAndClear(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("usb")
	c.Publish(b.NewMessage(tUSBState, "unmounted", true))
	c.Publish(b.NewMessage(tUSBState, "mounted", true))
	c.Publish(b.NewMessage(T("usb", "speed"), "full", true))

	s := c.Subscribe(tUSBState)
	want(t, s, "mounted")
	none(t, s)

	c.Publish(b.NewMessage(tUSBState, nil, true))
	all := c.Subscribe(T("usb", "#"))
	if got := collect(t, all, 1); got[0] != "full" {
		t.Fatalf("after clear got %v", got)
	}
	none(t, all)
}

func TestWildcardDelivery(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	subs := map[string]*Subscription{
		"router/control/+": c.Subscribe(T("router", "control", "+")),
		"router/+/+":       c.Subscribe(T("router", "+", "+")),
		"router/#":         c.Subscribe(T("router", "#")),
		"#":                c.Subscribe(T("#")),
		"router":           c.Subscribe(T("router")),
		"+/event/drop":     c.Subscribe(T("+", "event", "drop")),
	}
	cases := []struct {
		topic Topic
		hits  []string
	}{
		{T("router"), []string{"router/#", "#", "router"}},
		{T("router", "control", "show"), []string{"router/control/+", "router/+/+", "router/#", "#"}},
		{tDrop, []string{"router/+/+", "router/#", "#", "+/event/drop"}},
		{T("router", "control"), []string{"router/#", "#"}},
		{tUSBState, []string{"#"}},
	}
	for _, tc := range cases {
		name := topicString(tc.topic)
		c.Publish(b.NewMessage(tc.topic, name, false))
		hit := map[string]bool{}
		for _, h := range tc.hits {
			hit[h] = true
		}
		for pat, s := range subs {
			if hit[pat] {
				want(t, s, name)
			} else {
				none(t, s)
			}
		}
	}
}

func TestRetainedWildcardReplay(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("config")
	for _, k := range []string{"router", "led", "console"} {
		c.Publish(b.NewMessage(T("config", k), k, true))
	}
	c.Publish(b.NewMessage(T("config", "router", "soft"), "soft", true))

	check := func(pattern Topic, exp ...string) {
		t.Helper()
		got := collect(t, c.Subscribe(pattern), len(exp))
		sort.Strings(got)
		sort.Strings(exp)
		if strings.Join(got, ",") != strings.Join(exp, ",") {
			t.Fatalf("%v: got %v want %v", pattern, got, exp)
		}
	}
	check(T("config", "#"), "router", "led", "console", "soft")
	check(T("config", "+"), "router", "led", "console")
	check(T("config", "+", "#"), "router", "led", "console", "soft")
	check(T("config", "router", "+"), "soft")
}

func TestRequestWait(t *testing.T) {
	b := NewBus(8)
	client := b.NewConnection("client")
	router := b.NewConnection("router")

	ctl := T("router", "control", "query")
	s := router.Subscribe(ctl)
	defer router.Unsubscribe(s)
	go func() {
		if m, ok := <-s.Channel(); ok {
			router.Reply(m, "yes", false)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	req := b.NewMessage(ctl, nil, false)
	rep, err := client.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if rep.Payload != "yes" {
		t.Fatalf("reply %#v", rep.Payload)
	}
	if !req.CanReply() || !rep.Topic.Equal(req.ReplyTo) {
		t.Fatalf("reply on %v, request ReplyTo %v", rep.Topic, req.ReplyTo)
	}
}

func TestRequestWaitTimeout(t *testing.T) {
	b := NewBus(8)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := b.NewConnection("client").RequestWait(ctx, b.NewMessage(T("router", "control", "noop"), nil, false)); err == nil {
		t.Fatal("RequestWait returned without a responder")
	}
}

func TestRequestKeepsReplySubscription(t *testing.T) {
	b := NewBus(8)
	client := b.NewConnection("client")
	router := b.NewConnection("router")

	ctl := T("router", "control", "stats")
	s := router.Subscribe(ctl)
	reply := client.Request(b.NewMessage(ctl, nil, false))
	defer client.Unsubscribe(reply)

	m := <-s.Channel()
	router.Reply(m, "first", false)
	router.Reply(m, "second", false)
	want(t, reply, "first")
	want(t, reply, "second")
}

func TestReplyWithoutReplyTo(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	all := c.Subscribe(T("#"))

	c.Reply(b.NewMessage(tUSBState, nil, false), "x", false)
	none(t, all)
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(tDrop)

	for _, p := range []string{"d1", "d2", "d3"} {
		c.Publish(b.NewMessage(tDrop, p, false))
	}
	if got := collect(t, s, 2); got[0] != "d2" || got[1] != "d3" {
		t.Fatalf("got %v, want [d2 d3]", got)
	}
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	s := c.Subscribe(tUSBState)
	s.Unsubscribe()
	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel open after Unsubscribe")
	}
	c.Publish(b.NewMessage(tUSBState, "late", false))

	s1 := c.Subscribe(tConfigRouter)
	s2 := c.Subscribe(T("router", "#"))
	c.Disconnect()
	for _, s := range []*Subscription{s1, s2} {
		if _, ok := <-s.Channel(); ok {
			t.Fatal("subscription survived Disconnect")
		}
	}
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, topic Topic
		want           bool
	}{
		{T("router", "control", "+"), T("router", "control", "connect"), true},
		{T("router", "control", "+"), T("router", "control"), false},
		{T("config", "#"), T("config"), true},
		{T("config", "#"), tUSBState, false},
		{T("port", 3), T("port", 3), true},
		{T("port", 3), T("port", "3"), false},
	}
	for _, tc := range cases {
		if got := Match(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("Match(%v, %v) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

func TestTokenMustBeComparable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("T accepted a slice token")
		}
	}()
	T("port", []byte{1})
}

// ---- helpers ----

func topicString(t Topic) string {
	parts := make([]string, t.Len())
	for i := range parts {
		parts[i], _ = t.At(i).(string)
	}
	return strings.Join(parts, "/")
}

func want(t *testing.T, s *Subscription, payload string) {
	t.Helper()
	select {
	case m := <-s.Channel():
		if m.Payload != payload {
			t.Fatalf("%v: got %#v want %q", s.Topic(), m.Payload, payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("%v: no %q", s.Topic(), payload)
	}
}

func none(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case m := <-s.Channel():
		t.Fatalf("%v: unexpected %#v on %v", s.Topic(), m.Payload, m.Topic)
	case <-time.After(20 * time.Millisecond):
	}
}

func collect(t *testing.T, s *Subscription, n int) []string {
	t.Helper()
	var out []string
	for len(out) < n {
		select {
		case m := <-s.Channel():
			p, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("payload %#v", m.Payload)
			}
			out = append(out, p)
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("%v: got %d of %d (%v)", s.Topic(), len(out), n, out)
		}
	}
	return out
}
