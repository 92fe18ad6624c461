package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe("auth.", 10)
	defer sub.Close()

	b.Publish(Event{Topic: "auth.signed_in", Payload: "u1"})

	select {
	case evt := <-sub.C:
		if evt.Topic != "auth.signed_in" {
			t.Errorf("got topic %q, want auth.signed_in", evt.Topic)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	sub := b.Subscribe("realtime.public.messages.", 10)
	defer sub.Close()

	b.Publish(Event{Topic: "auth.signed_out"})
	b.Publish(Event{Topic: "realtime.public.messages.INSERT"})

	select {
	case evt := <-sub.C:
		if evt.Topic != "realtime.public.messages.INSERT" {
			t.Errorf("got topic %q, want realtime.public.messages.INSERT", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-sub.C:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseUnregistersAndClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe("auth.", 10)
	sub.Close()
	sub.Close()

	if n := b.Publish(Event{Topic: "auth.signed_in"}); n != 0 {
		t.Errorf("delivered to %d subscribers after close, want 0", n)
	}
	if _, ok := <-sub.C; ok {
		t.Error("channel still open after Close")
	}
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", b.Subscribers())
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	sub := b.Subscribe("test.", 1)
	defer sub.Close()

	if n := b.Publish(Event{Topic: "test.one"}); n != 1 {
		t.Errorf("first publish delivered %d, want 1", n)
	}
	if n := b.Publish(Event{Topic: "test.two"}); n != 0 {
		t.Errorf("second publish delivered %d, want 0 (buffer full)", n)
	}

	if d := sub.Dropped(); d != 1 {
		t.Errorf("Dropped() = %d, want 1", d)
	}

	evt := <-sub.C
	if evt.Topic != "test.one" {
		t.Errorf("got %q, want test.one", evt.Topic)
	}
}

func TestBusClose(t *testing.T) {
	b := New()
	sub := b.Subscribe("", 1)
	b.Close()

	if _, ok := <-sub.C; ok {
		t.Error("subscription channel still open after bus close")
	}
	sub.Close()

	late := b.Subscribe("", 1)
	if _, ok := <-late.C; ok {
		t.Error("subscription on closed bus should be closed")
	}
	late.Close()
}
