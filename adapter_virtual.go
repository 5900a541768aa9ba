package pococan

import (
	"context"
)

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:               "Virtual",
		Description:        "in-memory loopback bus",
		RequiresSerialPort: false,
		New:                NewVirtual,
	}); err != nil {
		panic(err)
	}
}

// Virtual is an in-memory adapter used for tests and device emulation.
// Outgoing frames are handed to the Responder, whose reply frames are fed
// back as inbound traffic. Without a responder it acts as a silent sink.
type Virtual struct {
	BaseAdapter

	// Responder emulates the far side of the bus. Called for every
	// outgoing frame from the adapter's send goroutine.
	Responder func(*CANFrame) []*CANFrame
}

func NewVirtual(cfg *AdapterConfig) (Adapter, error) {
	return &Virtual{
		BaseAdapter: NewBaseAdapter("Virtual", cfg),
	}, nil
}

func (v *Virtual) Open(ctx context.Context) error {
	go v.sendManager(ctx)
	return nil
}

func (v *Virtual) Close() error {
	v.BaseAdapter.Close()
	return nil
}

func (v *Virtual) SetFilter([]uint32) error {
	return nil
}

// Inject delivers a frame as if it arrived from the bus.
func (v *Virtual) Inject(frame *CANFrame) error {
	frame.FrameType = Incoming
	select {
	case v.recvChan <- frame:
		return nil
	default:
		return ErrDroppedFrame
	}
}

func (v *Virtual) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.closeChan:
			return
		case frame := <-v.sendChan:
			if v.Responder == nil {
				continue
			}
			for _, resp := range v.Responder(frame) {
				if err := v.Inject(resp); err != nil {
					v.cfg.OnError(err)
				}
			}
		}
	}
}
