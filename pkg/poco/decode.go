package poco

import (
	"encoding/binary"
	"fmt"
)

// MalformedError reports a frame whose PID is known but whose payload does
// not fit the protocol layout. The raw data stays available on the
// accompanying UnknownMessage.
type MalformedError struct {
	Pid    PID
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s frame: %s", e.Pid, e.Reason)
}

// decoders maps each proprietary ID to its payload decoder. Adding a message
// type means adding a row here, dispatch stays untouched.
var decoders = map[PID]func([]byte) (Message, error){
	PIDVSwSimpleAction:       decodeVSwSimpleAction,
	PIDVSwState:              decodeVSwState,
	PIDVSwCustomHSB:          decodeVSwCustomHSB,
	PIDVSwPocoFx:             decodeVSwPocoFx,
	PIDVSwCustomRGB:          decodeVSwCustomRGB,
	PIDVSwDeltaBright:        decodeVSwDeltaBright,
	PIDOutputChStatus:        decodeOutputChStatus,
	PIDOutputChBinOnOff:      decodeOutputChBinOnOff,
	PIDOutputChPWMDuty:       decodeOutputChPWMDuty,
	PIDOutputChPLIRaw:        decodeOutputChPLIRaw,
	PIDOutputChStatusRequest: decodeOutputChStatusRequest,
	PIDOutputChPLIT2HSB:      decodePLIT2HSB,
	PIDOutputChPLIT2RGB:      decodePLIT2RGB,
	PIDOutputChPLIT2HS:       decodePLIT2HS,
	PIDOutputChPLIT2B:        decodePLIT2B,
	PIDOutputChPLIT2BD:       decodePLIT2BD,
	PIDOutputChPLIT2P:        decodePLIT2P,
	PIDEnumerateRequest:      decodeEnumerateRequest,
	PIDEnumerateResponse:     decodeEnumerateResponse,
}

// Unmarshal decodes the CAN data of a PGN 61184 frame. It is total: frames
// that are not Lumitec proprietary, carry an unregistered PID or are too
// short to parse come back as *UnknownMessage. The error is non-nil only for
// recognized-but-malformed frames, and even then the UnknownMessage result
// keeps the raw bytes for diagnostics.
func Unmarshal(data []byte) (Message, error) {
	if len(data) < 3 {
		return &UnknownMessage{Raw: cloneBytes(data)}, nil
	}
	info := binary.LittleEndian.Uint16(data[0:2])
	if info&0x7FF != ManufacturerLumitec || (info>>13)&0x07 != IndustryMarine {
		return &UnknownMessage{Raw: cloneBytes(data)}, nil
	}
	pid := PID(data[2])
	decode, ok := decoders[pid]
	if !ok {
		return &UnknownMessage{Raw: cloneBytes(data), Pid: pid}, nil
	}
	if len(data) < 8 {
		return &UnknownMessage{Raw: cloneBytes(data), Pid: pid},
			&MalformedError{Pid: pid, Reason: fmt.Sprintf("%d bytes, want 8", len(data))}
	}
	msg, err := decode(data)
	if err != nil {
		return &UnknownMessage{Raw: cloneBytes(data), Pid: pid}, err
	}
	return msg, nil
}

func cloneBytes(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

func decodeVSwSimpleAction(data []byte) (Message, error) {
	return &VSwSimpleAction{
		Action: VSwAction(data[3]),
		Switch: data[4],
	}, nil
}

func decodeVSwState(data []byte) (Message, error) {
	return &VSwState{
		Switch:     data[3],
		On:         data[4]&0x01 != 0,
		ColorType:  ColorType(data[4] >> 4 & 0x0F),
		ColorData0: data[5],
		ColorData1: data[6],
		Brightness: data[7],
	}, nil
}

func decodeVSwCustomHSB(data []byte) (Message, error) {
	switch HSBAction(data[3]) {
	case HSBActionT2HSB, HSBActionT2HS, HSBActionT2B:
	default:
		return nil, &MalformedError{Pid: PIDVSwCustomHSB, Reason: fmt.Sprintf("action %d", data[3])}
	}
	return &VSwCustomHSB{
		Action:     HSBAction(data[3]),
		Switch:     data[4],
		Hue:        data[5],
		Saturation: data[6],
		Brightness: data[7],
	}, nil
}

func decodeVSwPocoFx(data []byte) (Message, error) {
	if VSwAction(data[3]) != ActionPocoFxStart {
		return nil, &MalformedError{Pid: PIDVSwPocoFx, Reason: fmt.Sprintf("action %d", data[3])}
	}
	return &VSwPocoFxStart{
		Switch: data[4],
		FxID:   data[5],
	}, nil
}

func decodeVSwCustomRGB(data []byte) (Message, error) {
	return &VSwCustomRGB{
		Switch: data[4],
		Red:    data[5],
		Green:  data[6],
		Blue:   data[7],
	}, nil
}

func decodeVSwDeltaBright(data []byte) (Message, error) {
	return &VSwDeltaBright{
		Switch: data[4],
		Delta:  int8(data[5]),
	}, nil
}

func decodeOutputChStatus(data []byte) (Message, error) {
	return &OutputChStatus{
		Channel:      data[3],
		Mode:         ChannelMode(data[4] & 0x07),
		Faults:       FaultFlags(data[4] & 0xF8),
		Level:        data[5],
		VoltageUnits: data[6],
		CurrentUnits: data[7],
	}, nil
}

func decodeOutputChBinOnOff(data []byte) (Message, error) {
	return &OutputChBinOnOff{
		Channel: data[3],
		On:      data[4] != 0,
	}, nil
}

func decodeOutputChPWMDuty(data []byte) (Message, error) {
	return &OutputChPWMDuty{
		Channel: data[3],
		Duty:    data[4],
	}, nil
}

func decodeOutputChPLIRaw(data []byte) (Message, error) {
	return &OutputChPLIRaw{
		Channel: data[3],
		Message: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

func decodeOutputChStatusRequest(data []byte) (Message, error) {
	return &OutputChStatusRequest{Channel: data[3]}, nil
}

func decodePLIT2HSB(data []byte) (Message, error) {
	return &PLIT2HSB{
		PLITarget:  parseTarget(data),
		Hue:        data[6],
		Saturation: data[7] & 0x0F,
		Brightness: data[7] >> 4 & 0x0F,
	}, nil
}

func decodePLIT2RGB(data []byte) (Message, error) {
	packed := uint16(data[6]) | uint16(data[7])<<8
	return &PLIT2RGB{
		PLITarget: parseTarget(data),
		Red:       uint8(packed & 0x1F),
		Green:     uint8(packed >> 5 & 0x1F),
		Blue:      uint8(packed >> 10 & 0x1F),
	}, nil
}

func decodePLIT2HS(data []byte) (Message, error) {
	return &PLIT2HS{
		PLITarget:  parseTarget(data),
		Hue:        data[6],
		Saturation: data[7] & 0x0F,
	}, nil
}

func decodePLIT2B(data []byte) (Message, error) {
	return &PLIT2B{
		PLITarget:  parseTarget(data),
		Brightness: data[6],
	}, nil
}

func decodePLIT2BD(data []byte) (Message, error) {
	return &PLIT2BD{
		PLITarget: parseTarget(data),
		Delta:     int8(data[6]),
	}, nil
}

func decodePLIT2P(data []byte) (Message, error) {
	return &PLIT2P{
		PLITarget: parseTarget(data),
		Pattern:   data[6],
	}, nil
}

func decodeEnumerateRequest(data []byte) (Message, error) {
	return &EnumerateRequest{}, nil
}

func decodeEnumerateResponse(data []byte) (Message, error) {
	return &EnumerateResponse{
		DeviceID:        uint32(data[3]) | uint32(data[4])<<8 | uint32(data[5])<<16,
		ProtocolVersion: data[6] & 0x0F,
		Channels:        data[6] >> 4 & 0x0F,
		ExpanderRole:    data[7]&0x01 != 0,
	}, nil
}
