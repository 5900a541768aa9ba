package poco

import "fmt"

// BankState is the 2-bit state of one switch in a binary switch bank.
type BankState uint8

const (
	BankOff      BankState = 0
	BankOn       BankState = 1
	BankNoChange BankState = 3 // also reads as "not available" in status frames
)

func (s BankState) String() string {
	switch s {
	case BankOff:
		return "off"
	case BankOn:
		return "on"
	case BankNoChange:
		return "n/a"
	default:
		return "reserved"
	}
}

// BankSwitchCount is the number of switches one PGN 127501/127502 frame
// covers: 28 switches at 2 bits each in 7 bytes.
const BankSwitchCount = 28

// SwitchBank is a decoded PGN 127501 status or PGN 127502 control frame.
type SwitchBank struct {
	Bank   uint8
	States [BankSwitchCount]BankState
}

// MarshalBankControl encodes a PGN 127502 binary switch bank control frame.
func MarshalBankControl(b SwitchBank) ([]byte, error) {
	data := make([]byte, 8)
	data[0] = b.Bank
	for i, s := range b.States {
		switch s {
		case BankOff, BankOn, BankNoChange:
		default:
			return nil, &RangeError{Field: fmt.Sprintf("switch %d state", i), Value: int(s), Min: 0, Max: 3}
		}
		byteIdx := 1 + i/4
		bitOffset := (i % 4) * 2
		data[byteIdx] |= byte(s&0x03) << bitOffset
	}
	return data, nil
}

// MarshalBankQuery encodes the status query for a bank, sent on PGN 127501.
func MarshalBankQuery(bank uint8) []byte {
	return []byte{bank, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
}

// UnmarshalBank decodes a PGN 127501 status (or echoed 127502 control)
// frame. Switches past the end of a short frame read as BankNoChange.
func UnmarshalBank(data []byte) (SwitchBank, error) {
	if len(data) < 1 {
		return SwitchBank{}, &MalformedError{Reason: "empty bank frame"}
	}
	b := SwitchBank{Bank: data[0]}
	for i := 0; i < BankSwitchCount; i++ {
		byteIdx := 1 + i/4
		if byteIdx >= len(data) {
			b.States[i] = BankNoChange
			continue
		}
		bitOffset := (i % 4) * 2
		b.States[i] = BankState(data[byteIdx] >> bitOffset & 0x03)
	}
	return b, nil
}

// On counts the switches reporting BankOn.
func (b SwitchBank) On() int {
	var n int
	for _, s := range b.States {
		if s == BankOn {
			n++
		}
	}
	return n
}
