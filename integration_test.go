package pococan_test

import (
	"context"
	"testing"
	"time"

	"github.com/lumitec/pococan"
	"github.com/lumitec/pococan/pkg/control"
	"github.com/lumitec/pococan/pkg/nmea2k"
	"github.com/lumitec/pococan/pkg/poco"
	"github.com/lumitec/pococan/pkg/session"
)

// emulatedPoco plays a 4-channel Poco device at one bus address behind a
// Virtual adapter.
type emulatedPoco struct {
	address    uint8
	duty       [5]uint8
	stateCount int
}

func (d *emulatedPoco) respond(f *pococan.CANFrame) []*pococan.CANFrame {
	hdr := nmea2k.ParseID(f.Identifier)
	if hdr.PGN != poco.PGNProprietarySingleFrame {
		return nil
	}
	if hdr.Destination != d.address && hdr.Destination != nmea2k.AddressBroadcast {
		return nil
	}
	msg, err := poco.Unmarshal(f.Data)
	if err != nil {
		return nil
	}
	switch m := msg.(type) {
	case *poco.OutputChPWMDuty:
		d.duty[m.Channel] = m.Duty
		return d.broadcast(&poco.OutputChStatus{
			Channel: m.Channel,
			Mode:    poco.ModePWM,
			Level:   uint8(uint16(m.Duty) * 255 / 100),
		})
	case *poco.VSwSimpleAction:
		d.stateCount++
		return d.broadcast(&poco.VSwState{
			Switch:     m.Switch,
			On:         m.Action != poco.ActionOff,
			Brightness: 255,
		})
	case *poco.EnumerateRequest:
		return d.broadcast(&poco.EnumerateResponse{DeviceID: 0x00C0FE, Channels: 4, ProtocolVersion: 1})
	}
	return nil
}

func (d *emulatedPoco) broadcast(m poco.Marshaler) []*pococan.CANFrame {
	data, err := poco.Marshal(m)
	if err != nil {
		panic(err)
	}
	id := nmea2k.CanID(poco.PGNProprietarySingleFrame, 6, d.address, nmea2k.AddressBroadcast)
	return []*pococan.CANFrame{pococan.NewExtendedFrame(id, data, pococan.Incoming)}
}

func startStack(t *testing.T, dev *emulatedPoco) (*session.Registry, *control.Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	adapter, err := pococan.NewAdapter("Virtual", &pococan.AdapterConfig{
		OnError: func(error) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	adapter.(*pococan.Virtual).Responder = dev.respond

	client, err := pococan.New(ctx, adapter)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	reg := session.NewRegistry(client, session.Config{
		AckTimeout:   100 * time.Millisecond,
		MaxRetries:   2,
		RetryBackoff: 5 * time.Millisecond,
	})
	sub := client.Subscribe(ctx)
	go reg.Run(ctx, sub.Chan())
	time.Sleep(10 * time.Millisecond)
	return reg, control.New(reg.Session(dev.address))
}

// Half brightness on channel 1, end to end: the controller puts exactly one
// PWM frame on the wire, the emulated device acks with its channel status,
// and the ack resolves the request.
func TestPWMHalfBrightnessEndToEnd(t *testing.T) {
	dev := &emulatedPoco{address: 7}
	_, ctrl := startStack(t, dev)

	st, err := ctrl.SetPWMAck(context.Background(), 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if dev.duty[1] != 50 {
		t.Errorf("device duty = %d, want 50", dev.duty[1])
	}
	if st.Mode != poco.ModePWM {
		t.Errorf("mode = %s, want pwm", st.Mode)
	}
	if st.Level != 127 {
		t.Errorf("level = %d, want 127", st.Level)
	}
}

func TestSwitchOnEndToEnd(t *testing.T) {
	dev := &emulatedPoco{address: 7}
	_, ctrl := startStack(t, dev)

	st, err := ctrl.SimpleActionAck(context.Background(), 2, poco.ActionOn)
	if err != nil {
		t.Fatal(err)
	}
	if !st.On {
		t.Error("switch should report on")
	}
	if dev.stateCount != 1 {
		t.Errorf("device saw %d commands, want 1", dev.stateCount)
	}

	// the broadcast that acked the request also landed in the snapshot
	snap := ctrl.Session().SwitchState(2)
	if snap == nil || !snap.On {
		t.Error("snapshot missed the state broadcast")
	}
}

func TestDiscoveryEndToEnd(t *testing.T) {
	dev := &emulatedPoco{address: 42}
	reg, _ := startStack(t, dev)

	devices, err := reg.Enumerate(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 {
		t.Fatalf("found %d devices, want 1", len(devices))
	}
	if devices[0].Address != 42 || devices[0].DeviceID != 0x00C0FE || devices[0].Channels != 4 {
		t.Errorf("device = %+v", devices[0])
	}
}
