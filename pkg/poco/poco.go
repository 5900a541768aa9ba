// Package poco implements the Lumitec Poco proprietary message codec.
//
// All proprietary traffic rides in NMEA2000 PGN 61184 single frames: a
// 3-byte header (manufacturer code 1512, marine industry, proprietary ID)
// followed by 5 payload bytes. Binary switch banks additionally use the
// standard PGN 127501/127502 pair.
//
// Decoding is table driven: each proprietary ID has a decoder registered in
// this package, and anything unrecognized or malformed comes back as an
// *UnknownMessage with the raw bytes preserved. Decode never panics.
package poco

// NMEA2000 constants
const (
	ManufacturerLumitec = 1512
	IndustryMarine      = 4

	PGNProprietarySingleFrame = 61184
	PGNBinarySwitchStatus     = 127501
	PGNBinarySwitchControl    = 127502
)

// PID is the proprietary ID carried in byte 2 of every PGN 61184 frame.
type PID uint8

const (
	PIDVSwSimpleAction PID = 1 // simple virtual switch action
	PIDVSwState        PID = 2 // virtual switch state (device TX only)
	PIDVSwCustomHSB    PID = 3 // custom HSB, HS or B action
	PIDVSwPocoFx       PID = 4 // PocoFx playback action
	PIDVSwCustomRGB    PID = 5 // custom RGB color action
	PIDVSwDeltaBright  PID = 6 // delta brightness, color unchanged

	PIDOutputChStatus        PID = 32 // channel status (device TX only)
	PIDOutputChBinOnOff      PID = 33 // binary on/off for output channel
	PIDOutputChPWMDuty       PID = 34 // PWM duty cycle control
	PIDOutputChPLIRaw        PID = 36 // direct 32-bit PLI message
	PIDOutputChStatusRequest PID = 39 // request channel status

	PIDOutputChPLIT2HSB PID = 40 // PLI transition to hue, sat, bright
	PIDOutputChPLIT2RGB PID = 41 // PLI transition to 5-bit RGB
	PIDOutputChPLIT2HS  PID = 42 // PLI transition to hue and sat
	PIDOutputChPLIT2B   PID = 43 // PLI transition to brightness
	PIDOutputChPLIT2BD  PID = 44 // PLI transition brightness by delta
	PIDOutputChPLIT2P   PID = 45 // PLI transition to pattern

	PIDEnumerateRequest  PID = 128 // device discovery request
	PIDEnumerateResponse PID = 129 // device discovery response
)

func (p PID) String() string {
	switch p {
	case PIDVSwSimpleAction:
		return "VSwSimpleAction"
	case PIDVSwState:
		return "VSwState"
	case PIDVSwCustomHSB:
		return "VSwCustomHSB"
	case PIDVSwPocoFx:
		return "VSwPocoFx"
	case PIDVSwCustomRGB:
		return "VSwCustomRGB"
	case PIDVSwDeltaBright:
		return "VSwDeltaBright"
	case PIDOutputChStatus:
		return "OutputChStatus"
	case PIDOutputChBinOnOff:
		return "OutputChBinOnOff"
	case PIDOutputChPWMDuty:
		return "OutputChPWMDuty"
	case PIDOutputChPLIRaw:
		return "OutputChPLIRaw"
	case PIDOutputChStatusRequest:
		return "OutputChStatusRequest"
	case PIDOutputChPLIT2HSB:
		return "OutputChPLIT2HSB"
	case PIDOutputChPLIT2RGB:
		return "OutputChPLIT2RGB"
	case PIDOutputChPLIT2HS:
		return "OutputChPLIT2HS"
	case PIDOutputChPLIT2B:
		return "OutputChPLIT2B"
	case PIDOutputChPLIT2BD:
		return "OutputChPLIT2BD"
	case PIDOutputChPLIT2P:
		return "OutputChPLIT2P"
	case PIDEnumerateRequest:
		return "EnumerateRequest"
	case PIDEnumerateResponse:
		return "EnumerateResponse"
	default:
		return "Unknown"
	}
}

// VSwAction is the action ID for PID 1 simple actions.
// Valid action IDs range from 0-65.
type VSwAction uint8

const (
	ActionNoAction    VSwAction = 0 // just return state, no change
	ActionOff         VSwAction = 1
	ActionOn          VSwAction = 2
	ActionDimDown     VSwAction = 3 // brightness -10%
	ActionDimUp       VSwAction = 4 // brightness +10%
	ActionT2BD        VSwAction = 5 // delta brightness
	ActionPocoFxStart VSwAction = 6
	ActionPocoFxPause VSwAction = 7
	ActionT2HSB       VSwAction = 8
	ActionT2HS        VSwAction = 9
	ActionT2B         VSwAction = 10
	ActionT2RGB       VSwAction = 11
	ActionColorWhite  VSwAction = 20
	ActionColorRed    VSwAction = 21
	ActionColorGreen  VSwAction = 22
	ActionColorBlue   VSwAction = 23
	ActionPlayPause   VSwAction = 31
	ActionToggle      VSwAction = 32 // toggle on/off, scene select advance
	ActionOnScene1    VSwAction = 33 // scenes 2-33 follow as 34-65

	actionMax = 65
)

// HSBAction selects the flavor of a PID 3 custom HSB command.
type HSBAction uint8

const (
	HSBActionT2HSB HSBAction = 8  // set hue, saturation and brightness
	HSBActionT2HS  HSBAction = 9  // set hue and saturation only
	HSBActionT2B   HSBAction = 10 // set brightness only
)

// ColorType describes the color payload of a VSwState message.
type ColorType uint8

const (
	ColorTypeNone      ColorType = 0 // unavailable, N/A or no-change
	ColorTypeHueSat    ColorType = 1 // solid color in hue+saturation space
	ColorTypeCCT       ColorType = 2 // white color temperature in kelvin
	ColorTypeFxID      ColorType = 3 // PocoFx program active
	ColorTypeComplex   ColorType = 4 // scene active, multiple colors
	ColorTypeMutex     ColorType = 5 // scene select group, value is active child
	ColorTypeCustomPLI ColorType = 6 // raw PLI sent, meaning unknown to Poco
	ColorTypeRGB       ColorType = 7 // reserved
)

func (c ColorType) String() string {
	switch c {
	case ColorTypeNone:
		return "none"
	case ColorTypeHueSat:
		return "hue/sat"
	case ColorTypeCCT:
		return "cct"
	case ColorTypeFxID:
		return "pocofx"
	case ColorTypeComplex:
		return "scene"
	case ColorTypeMutex:
		return "scene-select"
	case ColorTypeCustomPLI:
		return "custom-pli"
	case ColorTypeRGB:
		return "rgb"
	default:
		return "reserved"
	}
}

// ChannelMode is the mode part of the OutputChStatus mode & status byte.
type ChannelMode uint8

const (
	ModeOff ChannelMode = 0
	ModeBin ChannelMode = 1
	ModePWM ChannelMode = 2
	ModePLI ChannelMode = 3
)

func (m ChannelMode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeBin:
		return "binary"
	case ModePWM:
		return "pwm"
	case ModePLI:
		return "pli"
	default:
		return "reserved"
	}
}

// FaultFlags are bits 3-7 of the OutputChStatus mode & status byte.
type FaultFlags uint8

const (
	FaultOvercurrent     FaultFlags = 0x08 // also covers short-circuit
	FaultUndervoltage    FaultFlags = 0x10 // dead battery or blown input fuse
	FaultOvertemperature FaultFlags = 0x20 // reserved, not reported yet
	FaultPLI             FaultFlags = 0x40 // reserved, not reported yet
)

func (f FaultFlags) Overcurrent() bool     { return f&FaultOvercurrent != 0 }
func (f FaultFlags) Undervoltage() bool    { return f&FaultUndervoltage != 0 }
func (f FaultFlags) Overtemperature() bool { return f&FaultOvertemperature != 0 }
func (f FaultFlags) PLIFault() bool        { return f&FaultPLI != 0 }

func (f FaultFlags) String() string {
	if f == 0 {
		return "none"
	}
	var out []byte
	add := func(s string) {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s...)
	}
	if f.Overcurrent() {
		add("overcurrent")
	}
	if f.Undervoltage() {
		add("undervoltage")
	}
	if f.Overtemperature() {
		add("overtemperature")
	}
	if f.PLIFault() {
		add("pli")
	}
	return string(out)
}
