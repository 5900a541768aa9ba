// Package pococan is a Go control library for the Lumitec Poco digital
// lighting control module. It speaks the Lumitec proprietary NMEA2000
// protocol over a pluggable CAN transport.
//
// The root package is transport only: CAN frames, adapters and a client with
// identifier-filtered subscriptions. The Poco message codec lives in
// pkg/poco, per-device command sessions in pkg/session and the typed control
// surface in pkg/control.
package pococan

import (
	"context"
	"sync/atomic"
	"time"
)

const DefaultSendTimeout = 5 * time.Second

type Client struct {
	fh      *FrameHandler
	adapter Adapter
	closed  atomic.Bool
}

// New opens the given adapter and starts the frame fan-out. The adapter is
// passed in explicitly, the library holds no process-wide bus handle.
func New(ctx context.Context, adapter Adapter) (*Client, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	if err := adapter.Open(ctx); err != nil {
		return nil, err
	}
	c := &Client{
		fh:      newFrameHandler(adapter.Recv()),
		adapter: adapter,
	}
	go c.fh.run(ctx)
	return c, nil
}

func (c *Client) Adapter() Adapter {
	return c.adapter
}

func (c *Client) Err() <-chan error {
	return c.adapter.Err()
}

func (c *Client) Close() error {
	c.closed.Store(true)
	c.fh.Close()
	return c.adapter.Close()
}

// Send a CAN frame. Fails with ErrAdapterClosed after Close, or with
// ErrSendTimeout if the adapter cannot take the frame within
// DefaultSendTimeout.
func (c *Client) Send(frame *CANFrame) error {
	if c.closed.Load() {
		return &TransportError{Op: "send", Err: ErrAdapterClosed}
	}
	t := time.NewTimer(DefaultSendTimeout)
	defer t.Stop()
	select {
	case c.adapter.Send() <- frame:
		return nil
	case <-t.C:
		return &TransportError{Op: "send", Err: ErrSendTimeout}
	}
}

// SendFrame builds and sends a standard 11-bit frame
func (c *Client) SendFrame(identifier uint32, data []byte, t CANFrameType) error {
	return c.Send(NewFrame(identifier, data, t))
}

// SendExtendedFrame builds and sends a 29-bit frame
func (c *Client) SendExtendedFrame(identifier uint32, data []byte, t CANFrameType) error {
	return c.Send(NewExtendedFrame(identifier, data, t))
}

// Subscribe returns a subscription delivering inbound frames matching any of
// the given identifiers, or every frame when no identifier is given.
func (c *Client) Subscribe(ctx context.Context, identifiers ...uint32) *Sub {
	sub := &Sub{
		ctx:         ctx,
		cl:          c,
		identifiers: identifiers,
		callback:    make(chan *CANFrame, 30),
	}
	c.fh.register <- sub
	return sub
}

// SendAndWait sends a frame and waits up to timeout for a response frame with
// one of the given identifiers.
func (c *Client) SendAndWait(ctx context.Context, frame *CANFrame, timeout time.Duration, identifiers ...uint32) (*CANFrame, error) {
	sub := c.Subscribe(ctx, identifiers...)
	defer sub.Close()
	frame.FrameType = ResponseRequired
	if err := c.Send(frame); err != nil {
		return nil, err
	}
	return sub.Wait(ctx, timeout)
}
