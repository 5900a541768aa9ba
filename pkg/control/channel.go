package control

import (
	"context"

	"github.com/lumitec/pococan/pkg/poco"
)

// Raw output channel control. These bypass the virtual switch layer, so the
// device's switch state can drift from what the channels actually drive.
// Meant for commissioning and diagnostics.

// SetBinary switches an output channel fully on or off.
func (c *Controller) SetBinary(ch uint8, on bool) error {
	return c.s.Post(&poco.OutputChBinOnOff{Channel: ch, On: on})
}

// SetPWM sets an output channel's PWM duty cycle in percent.
func (c *Controller) SetPWM(ch uint8, duty uint8) error {
	return c.s.Post(&poco.OutputChPWMDuty{Channel: ch, Duty: duty})
}

// SetPWMAck is SetPWM with an acknowledged send: it completes when the
// device reports the channel's status.
func (c *Controller) SetPWMAck(ctx context.Context, ch uint8, duty uint8) (*poco.OutputChStatus, error) {
	msg, err := c.awaitState(ctx, &poco.OutputChPWMDuty{Channel: ch, Duty: duty}, matchChannelStatus(ch))
	if err != nil {
		return nil, err
	}
	return msg.(*poco.OutputChStatus), nil
}

// ChannelStatus queries the status of one output channel.
func (c *Controller) ChannelStatus(ctx context.Context, ch uint8) (*poco.OutputChStatus, error) {
	msg, err := c.awaitState(ctx, &poco.OutputChStatusRequest{Channel: ch}, matchChannelStatus(ch))
	if err != nil {
		return nil, err
	}
	return msg.(*poco.OutputChStatus), nil
}

// PLIRaw passes a raw 32-bit PLI message through an output channel.
func (c *Controller) PLIRaw(ch uint8, message uint32) error {
	return c.s.Post(&poco.OutputChPLIRaw{Channel: ch, Message: message})
}

// PLIColor transitions the PLI lights behind a channel to a hue, saturation
// and brightness. PLI commands are not acknowledged by the lights, they are
// sent once.
func (c *Controller) PLIColor(target poco.PLITarget, hue, sat, bright uint8) error {
	return c.s.Post(&poco.PLIT2HSB{PLITarget: target, Hue: hue, Saturation: sat, Brightness: bright})
}

// PLIRGB transitions the PLI lights behind a channel to a 5-bit RGB color.
func (c *Controller) PLIRGB(target poco.PLITarget, r, g, b uint8) error {
	return c.s.Post(&poco.PLIT2RGB{PLITarget: target, Red: r, Green: g, Blue: b})
}

// PLIHueSat transitions hue and saturation, brightness unchanged.
func (c *Controller) PLIHueSat(target poco.PLITarget, hue, sat uint8) error {
	return c.s.Post(&poco.PLIT2HS{PLITarget: target, Hue: hue, Saturation: sat})
}

// PLIBrightness transitions the PLI lights behind a channel to a brightness.
func (c *Controller) PLIBrightness(target poco.PLITarget, bright uint8) error {
	return c.s.Post(&poco.PLIT2B{PLITarget: target, Brightness: bright})
}

// PLIDeltaBrightness shifts the lights' brightness by a signed delta.
func (c *Controller) PLIDeltaBrightness(target poco.PLITarget, delta int8) error {
	return c.s.Post(&poco.PLIT2BD{PLITarget: target, Delta: delta})
}

// PLIPattern starts a pattern from the PLI pattern table.
func (c *Controller) PLIPattern(target poco.PLITarget, pattern uint8) error {
	return c.s.Post(&poco.PLIT2P{PLITarget: target, Pattern: pattern})
}
