package object

import (
	"errors"
	"testing"
	"time"
)

func TestNewChannelCapacity(t *testing.T) {
	if _, err := NewChannel(-1); !errors.Is(err, ErrChannelCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if _, err := NewChannel(MaxChannelCapacity + 1); !errors.Is(err, ErrChannelTooLarge) {
		t.Fatalf("expected too-large error, got %v", err)
	}
	ch, err := NewChannel(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Inspect() != "<channel capacity=3 count=0>" {
		t.Fatalf("unexpected inspect %q", ch.Inspect())
	}
}

func TestBufferedChannelEndToEnd(t *testing.T) {
	ch, _ := NewChannel(2)

	if err := ch.Send(I32(1)); err != nil {
		t.Fatalf("send 1: %v", err)
	}
	if err := ch.Send(I32(2)); err != nil {
		t.Fatalf("send 2: %v", err)
	}

	sent := make(chan error, 1)
	go func() { sent <- ch.Send(I32(3)) }()

	select {
	case err := <-sent:
		t.Fatalf("third send should block on a full channel, returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if v := ch.Recv(); v != I32(1) {
		t.Fatalf("expected 1, got %v", v)
	}
	select {
	case err := <-sent:
		if err != nil {
			t.Fatalf("third send failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("third send did not complete after a receive")
	}

	ch.Close()
	ch.Close()

	if v := ch.Recv(); v != I32(2) {
		t.Fatalf("expected 2 after close, got %v", v)
	}
	if v := ch.Recv(); v != I32(3) {
		t.Fatalf("expected 3 after close, got %v", v)
	}
	for i := 0; i < 3; i++ {
		if v := ch.Recv(); v != NULL {
			t.Fatalf("drained channel should yield null, got %v", v)
		}
	}
	if err := ch.Send(I32(4)); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("send after close should fail, got %v", err)
	}
	if ch.Inspect() != "<channel capacity=2 count=0 closed>" {
		t.Fatalf("unexpected inspect %q", ch.Inspect())
	}
}

func TestRendezvousChannel(t *testing.T) {
	ch, _ := NewChannel(0)
	payload := NewString("x")

	sent := make(chan error, 1)
	go func() { sent <- ch.Send(payload) }()

	select {
	case err := <-sent:
		t.Fatalf("rendezvous send should block until received, returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	v := ch.Recv()
	if v != Object(payload) {
		t.Fatalf("expected the sent value, got %v", v)
	}
	select {
	case err := <-sent:
		if err != nil {
			t.Fatalf("send failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("send did not complete after pickup")
	}
	Release(v)
	if RefCount(payload) != 1 {
		t.Fatalf("channel should not keep a reference after pickup, count %d", RefCount(payload))
	}
}

func TestRendezvousCloseFailsBlockedSend(t *testing.T) {
	ch, _ := NewChannel(0)

	sent := make(chan error, 1)
	go func() { sent <- ch.Send(I32(1)) }()
	time.Sleep(20 * time.Millisecond)
	ch.Close()

	select {
	case err := <-sent:
		if !errors.Is(err, ErrChannelClosed) {
			t.Fatalf("expected closed error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked send should fail on close instead of hanging")
	}
	if v := ch.Recv(); v != NULL {
		t.Fatalf("closed rendezvous channel should yield null, got %v", v)
	}
}

func TestChannelTimeouts(t *testing.T) {
	type testCase struct {
		name     string
		capacity int
		prefill  int
	}

	testCases := []testCase{
		{name: "rendezvous", capacity: 0},
		{name: "full buffer", capacity: 1, prefill: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ch, _ := NewChannel(tc.capacity)
			for i := 0; i < tc.prefill; i++ {
				_ = ch.Send(I32(int32(i)))
			}

			start := time.Now()
			ok, err := ch.SendTimeout(I32(9), 30*time.Millisecond)
			if err != nil || ok {
				t.Fatalf("expected timeout false, got %t %v", ok, err)
			}
			if time.Since(start) < 25*time.Millisecond {
				t.Fatalf("send_timeout returned before its deadline")
			}

			ch.Close()
			if _, err := ch.SendTimeout(I32(9), 10*time.Millisecond); !errors.Is(err, ErrChannelClosed) {
				t.Fatalf("send_timeout on closed channel should fail, got %v", err)
			}
		})
	}

	empty, _ := NewChannel(1)
	v, ok := empty.RecvTimeout(20 * time.Millisecond)
	if ok || v != NULL {
		t.Fatalf("recv_timeout should return null on timeout, got %v %t", v, ok)
	}

	ready, _ := NewChannel(1)
	_ = ready.Send(I32(5))
	v, ok = ready.RecvTimeout(time.Second)
	if !ok || v != I32(5) {
		t.Fatalf("expected 5, got %v %t", v, ok)
	}
}

func TestChannelFIFO(t *testing.T) {
	ch, _ := NewChannel(4)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = ch.Send(I32(int32(i)))
		}
		ch.Close()
		close(done)
	}()

	for i := 0; i < 100; i++ {
		if v := ch.Recv(); v != I32(int32(i)) {
			t.Fatalf("expected %d, got %v", i, v)
		}
	}
	<-done
	if v := ch.Recv(); v != NULL {
		t.Fatalf("expected null after drain, got %v", v)
	}
}

func TestChannelReleaseDropsBufferedValues(t *testing.T) {
	ch, _ := NewChannel(2)
	s := NewString("queued")
	_ = ch.Send(s)
	Release(s)
	Release(ch)
	if !IsFreed(s) {
		t.Fatalf("buffered values should be released with the channel")
	}
}
