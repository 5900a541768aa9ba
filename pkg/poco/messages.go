package poco

import (
	"encoding/binary"
	"fmt"
)

// Message is any decoded Poco frame payload.
type Message interface {
	PID() PID
}

// Marshaler is a message that can be encoded into the 8-byte payload of a
// PGN 61184 single frame. The set of marshalers is closed over this package.
type Marshaler interface {
	Message
	marshal(p *[8]byte) error
}

// RangeError reports an encode parameter outside the protocol's valid range.
type RangeError struct {
	Field    string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func checkRange(field string, value, min, max int) error {
	if value < min || value > max {
		return &RangeError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

// Marshal encodes a message into the 8 bytes of CAN data for a PGN 61184
// frame: the 3-byte Lumitec proprietary header followed by the payload.
// Unused payload bytes are 0xFF per the protocol document.
func Marshal(m Marshaler) ([]byte, error) {
	var p [8]byte
	info := uint16(ManufacturerLumitec&0x7FF) | 0b11<<11 | uint16(IndustryMarine&0x07)<<13
	binary.LittleEndian.PutUint16(p[0:2], info)
	p[2] = byte(m.PID())
	p[3], p[4], p[5], p[6], p[7] = 0xFF, 0xFF, 0xFF, 0xFF, 0xFF
	if err := m.marshal(&p); err != nil {
		return nil, err
	}
	return p[:], nil
}

// UnknownMessage preserves a frame this package could not interpret.
type UnknownMessage struct {
	Raw []byte
	Pid PID // zero when the frame carried no readable header
}

func (m *UnknownMessage) PID() PID { return m.Pid }

func (m *UnknownMessage) String() string {
	return fmt.Sprintf("unknown frame pid=%d data=%X", m.Pid, m.Raw)
}

// VSwSimpleAction is PID 1: perform a simple action on a virtual switch.
// Sending ActionNoAction doubles as a state query, the device answers with a
// VSwState broadcast.
type VSwSimpleAction struct {
	Switch uint8
	Action VSwAction
}

func (m *VSwSimpleAction) PID() PID { return PIDVSwSimpleAction }

func (m *VSwSimpleAction) marshal(p *[8]byte) error {
	if err := checkRange("switch", int(m.Switch), 0, 31); err != nil {
		return err
	}
	if err := checkRange("action", int(m.Action), 0, actionMax); err != nil {
		return err
	}
	p[3] = byte(m.Action)
	p[4] = m.Switch
	return nil
}

// VSwState is PID 2: the state of one virtual switch. Poco devices broadcast
// it whenever a switch changes, and in answer to a state query.
type VSwState struct {
	Switch     uint8
	On         bool
	ColorType  ColorType
	ColorData0 uint8
	ColorData1 uint8
	Brightness uint8 // 0-255, 0xFF means not available
}

func (m *VSwState) PID() PID { return PIDVSwState }

func (m *VSwState) marshal(p *[8]byte) error {
	if err := checkRange("switch", int(m.Switch), 0, 31); err != nil {
		return err
	}
	var flags byte
	if m.On {
		flags = 0x01
	}
	p[3] = m.Switch
	p[4] = flags | byte(m.ColorType)<<4
	p[5] = m.ColorData0
	p[6] = m.ColorData1
	p[7] = m.Brightness
	return nil
}

// Hue is valid when ColorType is ColorTypeHueSat.
func (m *VSwState) Hue() uint8 { return m.ColorData0 }

// Saturation is valid when ColorType is ColorTypeHueSat.
func (m *VSwState) Saturation() uint8 { return m.ColorData1 }

// FxID is valid when ColorType is ColorTypeFxID.
func (m *VSwState) FxID() uint8 { return m.ColorData0 }

// CCTKelvin is valid when ColorType is ColorTypeCCT.
func (m *VSwState) CCTKelvin() uint16 {
	return uint16(m.ColorData1)<<8 | uint16(m.ColorData0)
}

// MutexIndex is valid when ColorType is ColorTypeMutex.
func (m *VSwState) MutexIndex() uint8 { return m.ColorData0 }

// VSwCustomHSB is PID 3: transition a virtual switch to a custom hue,
// saturation and/or brightness depending on Action.
type VSwCustomHSB struct {
	Switch     uint8
	Action     HSBAction
	Hue        uint8 // 0=red, 85=green, 170=blue
	Saturation uint8 // 0=white, 255=fully saturated
	Brightness uint8
}

func (m *VSwCustomHSB) PID() PID { return PIDVSwCustomHSB }

func (m *VSwCustomHSB) marshal(p *[8]byte) error {
	if err := checkRange("switch", int(m.Switch), 0, 31); err != nil {
		return err
	}
	switch m.Action {
	case HSBActionT2HSB, HSBActionT2HS, HSBActionT2B:
	default:
		return &RangeError{Field: "hsb action", Value: int(m.Action), Min: int(HSBActionT2HSB), Max: int(HSBActionT2B)}
	}
	p[3] = byte(m.Action)
	p[4] = m.Switch
	p[5] = m.Hue
	p[6] = m.Saturation
	p[7] = m.Brightness
	return nil
}

// VSwPocoFxStart is PID 4: start a PocoFx pattern on a virtual switch.
type VSwPocoFxStart struct {
	Switch uint8
	FxID   uint8
}

func (m *VSwPocoFxStart) PID() PID { return PIDVSwPocoFx }

func (m *VSwPocoFxStart) marshal(p *[8]byte) error {
	if err := checkRange("switch", int(m.Switch), 0, 31); err != nil {
		return err
	}
	p[3] = byte(ActionPocoFxStart)
	p[4] = m.Switch
	p[5] = m.FxID
	return nil
}

// VSwCustomRGB is PID 5: transition a virtual switch to an RGB color. The
// device converts to HSB internally.
type VSwCustomRGB struct {
	Switch uint8
	Red    uint8
	Green  uint8
	Blue   uint8
}

func (m *VSwCustomRGB) PID() PID { return PIDVSwCustomRGB }

func (m *VSwCustomRGB) marshal(p *[8]byte) error {
	if err := checkRange("switch", int(m.Switch), 0, 31); err != nil {
		return err
	}
	p[3] = byte(ActionT2RGB)
	p[4] = m.Switch
	p[5] = m.Red
	p[6] = m.Green
	p[7] = m.Blue
	return nil
}

// VSwDeltaBright is PID 6: shift a virtual switch's brightness by a signed
// delta without touching its color.
type VSwDeltaBright struct {
	Switch uint8
	Delta  int8
}

func (m *VSwDeltaBright) PID() PID { return PIDVSwDeltaBright }

func (m *VSwDeltaBright) marshal(p *[8]byte) error {
	if err := checkRange("switch", int(m.Switch), 0, 31); err != nil {
		return err
	}
	p[3] = byte(ActionT2BD)
	p[4] = m.Switch
	p[5] = byte(m.Delta)
	return nil
}

// OutputChStatus is PID 32: the status of one hardware output channel.
// Devices answer OutputChStatusRequest with one of these per channel.
type OutputChStatus struct {
	Channel      uint8
	Mode         ChannelMode
	Faults       FaultFlags
	Level        uint8 // output level 0-255
	VoltageUnits uint8 // input voltage in 200 mV units
	CurrentUnits uint8 // output current in 100 mA units
}

func (m *OutputChStatus) PID() PID { return PIDOutputChStatus }

func (m *OutputChStatus) marshal(p *[8]byte) error {
	if err := checkRange("channel", int(m.Channel), 1, 4); err != nil {
		return err
	}
	p[3] = m.Channel
	p[4] = byte(m.Mode)&0x07 | byte(m.Faults)&0xF8
	p[5] = m.Level
	p[6] = m.VoltageUnits
	p[7] = m.CurrentUnits
	return nil
}

// InputVoltage returns the channel input voltage in millivolts.
func (m *OutputChStatus) InputVoltage() uint32 { return uint32(m.VoltageUnits) * 200 }

// Current returns the channel output current in milliamps.
func (m *OutputChStatus) Current() uint32 { return uint32(m.CurrentUnits) * 100 }

// OutputChBinOnOff is PID 33: binary on/off control of an output channel.
type OutputChBinOnOff struct {
	Channel uint8 // 1-4
	On      bool
}

func (m *OutputChBinOnOff) PID() PID { return PIDOutputChBinOnOff }

func (m *OutputChBinOnOff) marshal(p *[8]byte) error {
	if err := checkRange("channel", int(m.Channel), 1, 4); err != nil {
		return err
	}
	p[3] = m.Channel
	p[4] = 0
	if m.On {
		p[4] = 1
	}
	return nil
}

// OutputChPWMDuty is PID 34: PWM duty cycle control of an output channel.
type OutputChPWMDuty struct {
	Channel uint8 // 1-4
	Duty    uint8 // 0-100 percent
}

func (m *OutputChPWMDuty) PID() PID { return PIDOutputChPWMDuty }

func (m *OutputChPWMDuty) marshal(p *[8]byte) error {
	if err := checkRange("channel", int(m.Channel), 1, 4); err != nil {
		return err
	}
	if err := checkRange("duty", int(m.Duty), 0, 100); err != nil {
		return err
	}
	p[3] = m.Channel
	p[4] = m.Duty
	return nil
}

// OutputChPLIRaw is PID 36: pass a raw 32-bit PLI message through to the
// lights on an output channel.
type OutputChPLIRaw struct {
	Channel uint8
	Message uint32
}

func (m *OutputChPLIRaw) PID() PID { return PIDOutputChPLIRaw }

func (m *OutputChPLIRaw) marshal(p *[8]byte) error {
	if err := checkRange("channel", int(m.Channel), 1, 4); err != nil {
		return err
	}
	p[3] = m.Channel
	binary.LittleEndian.PutUint32(p[4:8], m.Message)
	return nil
}

// OutputChStatusRequest is PID 39: ask for the status of one channel, or of
// every channel when Channel is 0. The device answers with OutputChStatus.
type OutputChStatusRequest struct {
	Channel uint8 // 0=all, 1-4 specific
}

func (m *OutputChStatusRequest) PID() PID { return PIDOutputChStatusRequest }

func (m *OutputChStatusRequest) marshal(p *[8]byte) error {
	if err := checkRange("channel", int(m.Channel), 0, 4); err != nil {
		return err
	}
	p[3] = m.Channel
	p[4], p[5], p[6], p[7] = 0, 0, 0, 0
	return nil
}

// EnumerateRequest is PID 128: broadcast to discover Poco devices. Every
// device on the bus answers with an EnumerateResponse.
type EnumerateRequest struct{}

func (m *EnumerateRequest) PID() PID { return PIDEnumerateRequest }

func (m *EnumerateRequest) marshal(p *[8]byte) error {
	p[3] = 0 // request flags, 0 = full device info
	return nil
}

// EnumerateResponse is PID 129: a device's answer to an EnumerateRequest.
type EnumerateResponse struct {
	DeviceID        uint32 // 24-bit unique ID
	Channels        uint8
	ProtocolVersion uint8
	ExpanderRole    bool
}

func (m *EnumerateResponse) PID() PID { return PIDEnumerateResponse }

func (m *EnumerateResponse) marshal(p *[8]byte) error {
	if err := checkRange("device id", int(m.DeviceID), 0, 0xFFFFFF); err != nil {
		return err
	}
	if err := checkRange("channels", int(m.Channels), 0, 15); err != nil {
		return err
	}
	if err := checkRange("protocol version", int(m.ProtocolVersion), 0, 15); err != nil {
		return err
	}
	p[3] = byte(m.DeviceID)
	p[4] = byte(m.DeviceID >> 8)
	p[5] = byte(m.DeviceID >> 16)
	p[6] = m.ProtocolVersion&0x0F | m.Channels<<4
	p[7] = 0
	if m.ExpanderRole {
		p[7] = 0x01
	}
	return nil
}
