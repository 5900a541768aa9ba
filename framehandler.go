package pococan

import (
	"context"
	"sync"
	"time"
)

// Sub is a live subscription for inbound frames, optionally filtered on
// identifier. Frames are dropped, not blocked on, when the subscriber is slow.
type Sub struct {
	ctx         context.Context
	cl          *Client
	errcount    uint16
	identifiers []uint32
	callback    chan *CANFrame
}

func (s *Sub) Close() {
	s.cl.fh.unregister <- s
}

func (s *Sub) Chan() <-chan *CANFrame {
	return s.callback
}

func (s *Sub) Wait(ctx context.Context, timeout time.Duration) (*CANFrame, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f, ok := <-s.callback:
		if !ok {
			return nil, ErrResponseChannelClosed
		}
		return f, nil
	case <-t.C:
		return nil, &TimeoutError{Timeout: timeout.Milliseconds(), Frames: s.identifiers, Type: "wait"}
	}
}

// FrameHandler takes care of fanning out incoming frames to any subs
type FrameHandler struct {
	subs       map[*Sub]bool
	register   chan *Sub
	unregister chan *Sub
	incoming   <-chan *CANFrame
	close      chan struct{}
	closeOnce  sync.Once
}

func newFrameHandler(incoming <-chan *CANFrame) *FrameHandler {
	return &FrameHandler{
		subs:       make(map[*Sub]bool),
		register:   make(chan *Sub, 10),
		unregister: make(chan *Sub, 10),
		close:      make(chan struct{}),
		incoming:   incoming,
	}
}

func (h *FrameHandler) run(ctx context.Context) {
	for {
		select {
		case <-h.close:
			return
		case <-ctx.Done():
			return
		case sub := <-h.register:
			h.subs[sub] = true
		case sub := <-h.unregister:
			h.unsub(sub)
		case frame, ok := <-h.incoming:
			if !ok {
				return
			}
			h.fanout(frame)
		}
	}
}

func (h *FrameHandler) Close() {
	h.closeOnce.Do(func() {
		close(h.close)
	})
}

func (h *FrameHandler) fanout(frame *CANFrame) {
outer:
	for sub := range h.subs {
		select {
		case <-sub.ctx.Done():
			h.unsub(sub)
			continue
		default:
			if len(sub.identifiers) == 0 {
				h.deliver(sub, frame)
				continue
			}
			for _, id := range sub.identifiers {
				if id == frame.Identifier {
					h.deliver(sub, frame)
					continue outer
				}
			}
		}
	}
}

func (h *FrameHandler) unsub(sub *Sub) {
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.callback)
	}
}

func (h *FrameHandler) deliver(sub *Sub, frame *CANFrame) {
	select {
	case sub.callback <- frame:
	default:
		sub.errcount++
	}
	if sub.errcount > 20 {
		h.unsub(sub)
	}
}
