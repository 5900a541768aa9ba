package poco

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// proprietary header: manufacturer 1512, reserved 0b11, industry 4
var header = []byte{0xE8, 0x9D}

func TestMarshalVectors(t *testing.T) {
	tests := []struct {
		name string
		msg  Marshaler
		want []byte
	}{
		{
			name: "turn on switch 0",
			msg:  &VSwSimpleAction{Switch: 0, Action: ActionOn},
			want: []byte{0xE8, 0x9D, 0x01, 0x02, 0x00, 0xFF, 0xFF, 0xFF},
		},
		{
			name: "set switch 1 to red",
			msg:  &VSwCustomHSB{Switch: 1, Action: HSBActionT2HSB, Hue: 0, Saturation: 255, Brightness: 200},
			want: []byte{0xE8, 0x9D, 0x03, 0x08, 0x01, 0x00, 0xFF, 0xC8},
		},
		{
			name: "rgb switch 2",
			msg:  &VSwCustomRGB{Switch: 2, Red: 10, Green: 20, Blue: 30},
			want: []byte{0xE8, 0x9D, 0x05, 0x0B, 0x02, 0x0A, 0x14, 0x1E},
		},
		{
			name: "delta brightness switch 3",
			msg:  &VSwDeltaBright{Switch: 3, Delta: -10},
			want: []byte{0xE8, 0x9D, 0x06, 0x05, 0x03, 0xF6, 0xFF, 0xFF},
		},
		{
			name: "pocofx 5 on switch 3",
			msg:  &VSwPocoFxStart{Switch: 3, FxID: 5},
			want: []byte{0xE8, 0x9D, 0x04, 0x06, 0x03, 0x05, 0xFF, 0xFF},
		},
		{
			name: "binary channel 2 on",
			msg:  &OutputChBinOnOff{Channel: 2, On: true},
			want: []byte{0xE8, 0x9D, 0x21, 0x02, 0x01, 0xFF, 0xFF, 0xFF},
		},
		{
			name: "pwm channel 1 at 50 percent",
			msg:  &OutputChPWMDuty{Channel: 1, Duty: 50},
			want: []byte{0xE8, 0x9D, 0x22, 0x01, 0x32, 0xFF, 0xFF, 0xFF},
		},
		{
			name: "pli raw channel 1",
			msg:  &OutputChPLIRaw{Channel: 1, Message: 0x01020304},
			want: []byte{0xE8, 0x9D, 0x24, 0x01, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name: "status request all channels",
			msg:  &OutputChStatusRequest{Channel: 0},
			want: []byte{0xE8, 0x9D, 0x27, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "pli t2hsb green",
			msg:  &PLIT2HSB{PLITarget: PLITarget{Channel: 1}, Hue: 85, Saturation: 15, Brightness: 15},
			want: []byte{0xE8, 0x9D, 0x28, 0x01, 0x00, 0x00, 0x55, 0xFF},
		},
		{
			name: "enumerate request",
			msg:  &EnumerateRequest{},
			want: []byte{0xE8, 0x9D, 0x80, 0x00, 0xFF, 0xFF, 0xFF, 0xFF},
		},
		{
			name: "enumerate response",
			msg:  &EnumerateResponse{DeviceID: 0x123456, Channels: 4, ProtocolVersion: 1},
			want: []byte{0xE8, 0x9D, 0x81, 0x56, 0x34, 0x12, 0x41, 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Marshal() = % X, want % X", got, tt.want)
			}
			if !bytes.Equal(got[0:2], header) {
				t.Errorf("header = % X, want % X", got[0:2], header)
			}
		})
	}
}

func TestMarshalRangeErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  Marshaler
	}{
		{"switch out of range", &VSwSimpleAction{Switch: 32, Action: ActionOn}},
		{"action out of range", &VSwSimpleAction{Switch: 0, Action: 66}},
		{"channel zero", &OutputChBinOnOff{Channel: 0, On: true}},
		{"channel five", &OutputChPWMDuty{Channel: 5, Duty: 10}},
		{"duty over 100", &OutputChPWMDuty{Channel: 1, Duty: 101}},
		{"bad hsb action", &VSwCustomHSB{Switch: 0, Action: 7}},
		{"pli saturation", &PLIT2HSB{PLITarget: PLITarget{Channel: 1}, Saturation: 16}},
		{"pli clan", &PLIT2B{PLITarget: PLITarget{Channel: 1, Clan: 64}}},
		{"pli transition", &PLIT2B{PLITarget: PLITarget{Channel: 1, Transition: 8}}},
		{"pli rgb component", &PLIT2RGB{PLITarget: PLITarget{Channel: 1}, Red: 32}},
		{"pattern", &PLIT2P{PLITarget: PLITarget{Channel: 1}, Pattern: 254}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.msg)
			var re *RangeError
			if !errors.As(err, &re) {
				t.Errorf("Marshal() error = %v, want RangeError", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	msgs := []Marshaler{
		&VSwSimpleAction{Switch: 7, Action: ActionToggle},
		&VSwState{Switch: 3, On: true, ColorType: ColorTypeHueSat, ColorData0: 85, ColorData1: 255, Brightness: 128},
		&VSwCustomHSB{Switch: 9, Action: HSBActionT2HS, Hue: 170, Saturation: 40, Brightness: 0},
		&VSwPocoFxStart{Switch: 1, FxID: 200},
		&VSwCustomRGB{Switch: 31, Red: 1, Green: 2, Blue: 3},
		&VSwDeltaBright{Switch: 0, Delta: -128},
		&OutputChStatus{Channel: 4, Mode: ModePLI, Faults: FaultUndervoltage, Level: 99, VoltageUnits: 60, CurrentUnits: 12},
		&OutputChBinOnOff{Channel: 1, On: false},
		&OutputChPWMDuty{Channel: 3, Duty: 100},
		&OutputChPLIRaw{Channel: 2, Message: 0xDEADBEEF},
		&OutputChStatusRequest{Channel: 4},
		&PLIT2HSB{PLITarget: PLITarget{Channel: 2, Clan: 5, Transition: 3}, Hue: 200, Saturation: 7, Brightness: 12},
		&PLIT2RGB{PLITarget: PLITarget{Channel: 0, Clan: 63, Transition: 7}, Red: 31, Green: 0, Blue: 15},
		&PLIT2HS{PLITarget: PLITarget{Channel: 1}, Hue: 1, Saturation: 2},
		&PLIT2B{PLITarget: PLITarget{Channel: 4}, Brightness: 255},
		&PLIT2BD{PLITarget: PLITarget{Channel: 3}, Delta: 127},
		&PLIT2P{PLITarget: PLITarget{Channel: 1, Transition: 1}, Pattern: 253},
		&EnumerateRequest{},
		&EnumerateResponse{DeviceID: 0xABCDEF, Channels: 15, ProtocolVersion: 2, ExpanderRole: true},
	}
	for _, msg := range msgs {
		data, err := Marshal(msg)
		if err != nil {
			t.Fatalf("Marshal(%T) error: %v", msg, err)
		}
		got, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal(%T) error: %v", msg, err)
		}
		if !reflect.DeepEqual(got, msg) {
			t.Errorf("round trip %T:\n got %+v\nwant %+v", msg, got, msg)
		}
	}
}

func TestUnmarshalTotal(t *testing.T) {
	// decode must never panic and never mistake garbage for a message
	patterns := [][]byte{
		nil,
		{},
		{0x00},
		{0xE8},
		{0xE8, 0x9D},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{0xE8, 0x9D, 0xFE, 0x01, 0x02, 0x03, 0x04, 0x05}, // unregistered PID
		{0xE8, 0x9D, 0x01, 0x02},                         // known PID, short
		{0xE8, 0x9D, 0x03, 0x07, 0x00, 0x00, 0x00, 0x00}, // bad HSB action
		{0xE8, 0x9D, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00}, // bad PocoFx action
		{0xE9, 0x9D, 0x01, 0x02, 0x00, 0xFF, 0xFF, 0xFF}, // wrong manufacturer
	}
	for length := 0; length <= 8; length++ {
		b := make([]byte, length)
		for i := range b {
			b[i] = byte(0x35 * (i + 1))
		}
		patterns = append(patterns, b)
	}
	for _, data := range patterns {
		msg, err := Unmarshal(data)
		if msg == nil {
			t.Fatalf("Unmarshal(% X) returned nil message", data)
		}
		if u, ok := msg.(*UnknownMessage); ok {
			if !bytes.Equal(u.Raw, data) {
				t.Errorf("Unmarshal(% X) lost raw bytes: % X", data, u.Raw)
			}
		} else if err != nil {
			t.Errorf("Unmarshal(% X) typed message with error: %v", data, err)
		}
	}
}

func TestUnmarshalWrongManufacturer(t *testing.T) {
	data := []byte{0x12, 0x34, 0x01, 0x02, 0x00, 0xFF, 0xFF, 0xFF}
	msg, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if _, ok := msg.(*UnknownMessage); !ok {
		t.Errorf("Unmarshal() = %T, want *UnknownMessage", msg)
	}
}

func TestVSwStateConvenience(t *testing.T) {
	data := []byte{0xE8, 0x9D, 0x02, 0x05, 0x11, 0x55, 0x0F, 0xC8}
	msg, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	st, ok := msg.(*VSwState)
	if !ok {
		t.Fatalf("Unmarshal() = %T, want *VSwState", msg)
	}
	if st.Switch != 5 || !st.On || st.ColorType != ColorTypeHueSat {
		t.Errorf("state = %+v", st)
	}
	if st.Hue() != 0x55 || st.Saturation() != 0x0F || st.Brightness != 200 {
		t.Errorf("hue/sat/bright = %d/%d/%d", st.Hue(), st.Saturation(), st.Brightness)
	}

	cct := &VSwState{Switch: 1, ColorType: ColorTypeCCT, ColorData0: 0xB8, ColorData1: 0x0B}
	if cct.CCTKelvin() != 3000 {
		t.Errorf("CCTKelvin() = %d, want 3000", cct.CCTKelvin())
	}
}

func TestOutputChStatusScaling(t *testing.T) {
	data := []byte{0xE8, 0x9D, 0x20, 0x02, 0x0A, 0x80, 0x3C, 0x05}
	msg, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	st, ok := msg.(*OutputChStatus)
	if !ok {
		t.Fatalf("Unmarshal() = %T, want *OutputChStatus", msg)
	}
	if st.Channel != 2 || st.Mode != ModePWM {
		t.Errorf("channel/mode = %d/%s", st.Channel, st.Mode)
	}
	if !st.Faults.Overcurrent() || st.Faults.Undervoltage() {
		t.Errorf("faults = %s", st.Faults)
	}
	if st.InputVoltage() != 12000 || st.Current() != 500 {
		t.Errorf("voltage/current = %d/%d", st.InputVoltage(), st.Current())
	}
}

func TestBankRoundTrip(t *testing.T) {
	b := SwitchBank{Bank: 1}
	for i := range b.States {
		b.States[i] = BankNoChange
	}
	b.States[0] = BankOn
	b.States[1] = BankOff
	b.States[27] = BankOn

	data, err := MarshalBankControl(b)
	if err != nil {
		t.Fatalf("MarshalBankControl() error: %v", err)
	}
	if len(data) != 8 || data[0] != 1 {
		t.Fatalf("frame = % X", data)
	}
	// switch 0 and 1 share byte 1: on(01) | off(00)<<2 | nochange(11)<<4 | nochange(11)<<6
	if data[1] != 0xF1 {
		t.Errorf("byte 1 = %02X, want F1", data[1])
	}

	got, err := UnmarshalBank(data)
	if err != nil {
		t.Fatalf("UnmarshalBank() error: %v", err)
	}
	if got != b {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, b)
	}
	if got.On() != 2 {
		t.Errorf("On() = %d, want 2", got.On())
	}
}

func TestUnmarshalBankShort(t *testing.T) {
	got, err := UnmarshalBank([]byte{0x02, 0x01})
	if err != nil {
		t.Fatalf("UnmarshalBank() error: %v", err)
	}
	if got.Bank != 2 || got.States[0] != BankOn {
		t.Errorf("bank = %+v", got)
	}
	for i := 4; i < BankSwitchCount; i++ {
		if got.States[i] != BankNoChange {
			t.Errorf("switch %d = %v, want n/a", i, got.States[i])
		}
	}
	if _, err := UnmarshalBank(nil); err == nil {
		t.Error("UnmarshalBank(nil) expected error")
	}
}
