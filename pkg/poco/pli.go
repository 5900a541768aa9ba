package poco

// PLITarget is the addressing shared by every PLI transition command:
// which output channel drives the message, which PLI clan of lights on that
// channel it is for, and how fast they transition.
type PLITarget struct {
	Channel    uint8 // 1-4, 0 = all channels
	Clan       uint8 // 0-63, 0 = all lights on the channel
	Transition uint8 // 0-7 transition time ID
}

func (t PLITarget) marshalTarget(p *[8]byte) error {
	if err := checkRange("channel", int(t.Channel), 0, 4); err != nil {
		return err
	}
	if err := checkRange("clan", int(t.Clan), 0, 63); err != nil {
		return err
	}
	if err := checkRange("transition", int(t.Transition), 0, 7); err != nil {
		return err
	}
	p[3] = t.Channel
	p[4] = t.Clan & 0x3F
	p[5] = t.Transition & 0x07
	return nil
}

func parseTarget(data []byte) PLITarget {
	return PLITarget{
		Channel:    data[3],
		Clan:       data[4] & 0x3F,
		Transition: data[5] & 0x07,
	}
}

// PLIT2HSB is PID 40: transition lights to a hue, saturation and brightness.
// Saturation and brightness are 4-bit on the wire.
type PLIT2HSB struct {
	PLITarget
	Hue        uint8 // 0-255
	Saturation uint8 // 0-15
	Brightness uint8 // 0-15
}

func (m *PLIT2HSB) PID() PID { return PIDOutputChPLIT2HSB }

func (m *PLIT2HSB) marshal(p *[8]byte) error {
	if err := m.marshalTarget(p); err != nil {
		return err
	}
	if err := checkRange("saturation", int(m.Saturation), 0, 15); err != nil {
		return err
	}
	if err := checkRange("brightness", int(m.Brightness), 0, 15); err != nil {
		return err
	}
	p[6] = m.Hue
	p[7] = m.Saturation&0x0F | m.Brightness<<4
	return nil
}

// PLIT2RGB is PID 41: transition lights to a 5-bit-per-component RGB color.
type PLIT2RGB struct {
	PLITarget
	Red   uint8 // 0-31
	Green uint8 // 0-31
	Blue  uint8 // 0-31
}

func (m *PLIT2RGB) PID() PID { return PIDOutputChPLIT2RGB }

func (m *PLIT2RGB) marshal(p *[8]byte) error {
	if err := m.marshalTarget(p); err != nil {
		return err
	}
	for _, c := range []struct {
		name  string
		value uint8
	}{{"red", m.Red}, {"green", m.Green}, {"blue", m.Blue}} {
		if err := checkRange(c.name, int(c.value), 0, 31); err != nil {
			return err
		}
	}
	packed := uint16(m.Red&0x1F) | uint16(m.Green&0x1F)<<5 | uint16(m.Blue&0x1F)<<10
	p[6] = byte(packed)
	p[7] = byte(packed >> 8)
	return nil
}

// PLIT2HS is PID 42: transition hue and saturation, brightness unchanged.
type PLIT2HS struct {
	PLITarget
	Hue        uint8 // 0-255
	Saturation uint8 // 0-15
}

func (m *PLIT2HS) PID() PID { return PIDOutputChPLIT2HS }

func (m *PLIT2HS) marshal(p *[8]byte) error {
	if err := m.marshalTarget(p); err != nil {
		return err
	}
	if err := checkRange("saturation", int(m.Saturation), 0, 15); err != nil {
		return err
	}
	p[6] = m.Hue
	p[7] = m.Saturation&0x0F | 0xF0
	return nil
}

// PLIT2B is PID 43: transition brightness only, color unchanged.
type PLIT2B struct {
	PLITarget
	Brightness uint8 // 0-255, unit 0.39%
}

func (m *PLIT2B) PID() PID { return PIDOutputChPLIT2B }

func (m *PLIT2B) marshal(p *[8]byte) error {
	if err := m.marshalTarget(p); err != nil {
		return err
	}
	p[6] = m.Brightness
	return nil
}

// PLIT2BD is PID 44: shift brightness by a signed delta, unit 0.79%.
type PLIT2BD struct {
	PLITarget
	Delta int8
}

func (m *PLIT2BD) PID() PID { return PIDOutputChPLIT2BD }

func (m *PLIT2BD) marshal(p *[8]byte) error {
	if err := m.marshalTarget(p); err != nil {
		return err
	}
	p[6] = byte(m.Delta)
	return nil
}

// PLIT2P is PID 45: transition lights to a pattern from the pattern table.
type PLIT2P struct {
	PLITarget
	Pattern uint8 // 0-253
}

func (m *PLIT2P) PID() PID { return PIDOutputChPLIT2P }

func (m *PLIT2P) marshal(p *[8]byte) error {
	if err := m.marshalTarget(p); err != nil {
		return err
	}
	if err := checkRange("pattern", int(m.Pattern), 0, 253); err != nil {
		return err
	}
	p[6] = m.Pattern
	return nil
}
