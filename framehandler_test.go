package pococan

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newVirtualClient(t *testing.T, ctx context.Context) (*Client, *Virtual) {
	t.Helper()
	dev, err := NewAdapter("Virtual", &AdapterConfig{
		OnError: func(error) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(ctx, dev)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c, dev.(*Virtual)
}

func TestSubscribeAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, v := newVirtualClient(t, ctx)

	sub := c.Subscribe(ctx)
	defer sub.Close()
	time.Sleep(10 * time.Millisecond) // let the fan-out pick up the registration

	for _, id := range []uint32{0x100, 0x200, 0x300} {
		if err := v.Inject(NewFrame(id, []byte{1}, Incoming)); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range []uint32{0x100, 0x200, 0x300} {
		f, err := sub.Wait(ctx, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if f.Identifier != want {
			t.Errorf("got frame 0x%X, want 0x%X", f.Identifier, want)
		}
	}
}

func TestSubscribeFiltered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, v := newVirtualClient(t, ctx)

	sub := c.Subscribe(ctx, 0x200)
	defer sub.Close()
	time.Sleep(10 * time.Millisecond)

	for _, id := range []uint32{0x100, 0x200, 0x300, 0x200} {
		if err := v.Inject(NewFrame(id, []byte{1}, Incoming)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		f, err := sub.Wait(ctx, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if f.Identifier != 0x200 {
			t.Errorf("filter leaked frame 0x%X", f.Identifier)
		}
	}
	if _, err := sub.Wait(ctx, 20*time.Millisecond); err == nil {
		t.Error("expected a timeout, filter delivered an extra frame")
	}
}

func TestSubWaitTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, _ := newVirtualClient(t, ctx)

	sub := c.Subscribe(ctx, 0x7FF)
	defer sub.Close()

	_, err := sub.Wait(ctx, 10*time.Millisecond)
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("Wait() error = %v, want *TimeoutError", err)
	}
}

func TestSendAndWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, v := newVirtualClient(t, ctx)

	v.Responder = func(f *CANFrame) []*CANFrame {
		if f.Identifier != 0x240 {
			return nil
		}
		return []*CANFrame{NewFrame(0x258, []byte{0xAA}, Incoming)}
	}

	f, err := c.SendAndWait(ctx, NewFrame(0x240, []byte{1, 2}, Outgoing), time.Second, 0x258)
	if err != nil {
		t.Fatal(err)
	}
	if f.Identifier != 0x258 || f.Data[0] != 0xAA {
		t.Errorf("got frame %s", f.String())
	}
}

func TestNewNilAdapter(t *testing.T) {
	if _, err := New(context.Background(), nil); err != ErrNilAdapter {
		t.Fatalf("New(nil) error = %v, want ErrNilAdapter", err)
	}
}

func TestSendAfterClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, _ := newVirtualClient(t, ctx)

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	err := c.Send(NewFrame(0x100, []byte{1}, Outgoing))
	if !errors.Is(err, ErrAdapterClosed) {
		t.Fatalf("Send after Close = %v, want ErrAdapterClosed", err)
	}
}
