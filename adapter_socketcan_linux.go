//go:build linux

package pococan

import (
	"context"
	"net"
	"strings"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/candevice"
	"go.einride.tech/can/pkg/socketcan"
)

func init() {
	for _, dev := range FindSocketCANDevices() {
		if err := RegisterAdapter(&AdapterInfo{
			Name:               "SocketCAN " + dev,
			Description:        "Linux SocketCAN driver",
			RequiresSerialPort: false,
			New:                NewSocketCANFromDevName(dev),
		}); err != nil {
			panic(err)
		}
	}
}

// FindSocketCANDevices lists can* and vcan* network interfaces.
func FindSocketCANDevices() []string {
	var out []string
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if strings.HasPrefix(iface.Name, "can") || strings.HasPrefix(iface.Name, "vcan") {
			out = append(out, iface.Name)
		}
	}
	return out
}

type SocketCAN struct {
	BaseAdapter
	d  *candevice.Device
	tx *socketcan.Transmitter
	rx *socketcan.Receiver
}

func NewSocketCANFromDevName(dev string) func(cfg *AdapterConfig) (Adapter, error) {
	return func(cfg *AdapterConfig) (Adapter, error) {
		cfg.Port = dev
		return NewSocketCAN(cfg)
	}
}

func NewSocketCAN(cfg *AdapterConfig) (Adapter, error) {
	return &SocketCAN{
		BaseAdapter: NewBaseAdapter("SocketCAN "+cfg.Port, cfg),
	}, nil
}

func (a *SocketCAN) SetFilter([]uint32) error {
	// support lib has no kernel filter support, filtering stays in software
	return nil
}

func (a *SocketCAN) Open(ctx context.Context) error {
	var err error
	a.d, err = candevice.New(a.cfg.Port)
	if err != nil {
		return err
	}
	if err := a.d.SetBitrate(uint32(a.cfg.CANRate * 1000)); err != nil {
		return err
	}
	if err := a.d.SetUp(); err != nil {
		return err
	}

	conn, err := socketcan.DialContext(ctx, "can", a.cfg.Port)
	if err != nil {
		return err
	}
	a.tx = socketcan.NewTransmitter(conn)
	a.rx = socketcan.NewReceiver(conn)

	go a.recvManager(ctx)
	go a.sendManager(ctx)
	return nil
}

func (a *SocketCAN) Close() error {
	a.BaseAdapter.Close()
	if a.d != nil {
		return a.d.SetDown()
	}
	return nil
}

func (a *SocketCAN) passesFilter(id uint32) bool {
	if len(a.cfg.CANFilter) == 0 {
		return true
	}
	for _, f := range a.cfg.CANFilter {
		if id == f {
			return true
		}
	}
	return false
}

func (a *SocketCAN) recvManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.closeChan:
			return
		default:
		}
		if !a.rx.Receive() {
			a.Fatal(a.rx.Err())
			return
		}
		f := a.rx.Frame()
		if !a.passesFilter(f.ID) {
			continue
		}
		frame := NewFrame(f.ID, f.Data[:f.Length], Incoming)
		frame.Extended = f.IsExtended
		select {
		case a.recvChan <- frame:
		default:
			a.Error(ErrDroppedFrame)
		}
	}
}

func (a *SocketCAN) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.closeChan:
			return
		case frame := <-a.sendChan:
			f := can.Frame{
				ID:         frame.Identifier,
				Length:     uint8(frame.DLC()),
				IsExtended: frame.Extended,
			}
			copy(f.Data[:], frame.Data)
			if err := a.tx.TransmitFrame(ctx, f); err != nil {
				a.cfg.OnError(&TransportError{Op: "send", Err: err})
			}
		}
	}
}
