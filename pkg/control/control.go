// Package control is the typed command surface for a Poco device. It wraps
// a session with the three levels of lighting control the device exposes:
// virtual switch actions (the level a wall panel uses), binary switch banks,
// and raw output channel control for commissioning and diagnostics.
package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumitec/pococan/pkg/poco"
	"github.com/lumitec/pococan/pkg/session"
)

// ErrValidation wraps every argument error this package raises before a
// command is encoded or sent.
var ErrValidation = errors.New("invalid argument")

// Controller drives one Poco device through its session. Methods without a
// context fire and forget, the Ack and query variants resend until the
// device answers and return the acknowledging state.
type Controller struct {
	s *session.Session
}

func New(s *session.Session) *Controller {
	return &Controller{s: s}
}

// Session exposes the underlying session, mainly for its state snapshot.
func (c *Controller) Session() *session.Session { return c.s }

// Color is a preset hue and saturation in the device's 0-255 color space.
type Color struct {
	Name       string
	Hue        uint8
	Saturation uint8
}

var (
	ColorRed     = Color{"red", 0, 255}
	ColorYellow  = Color{"yellow", 42, 255}
	ColorGreen   = Color{"green", 85, 255}
	ColorCyan    = Color{"cyan", 127, 255}
	ColorBlue    = Color{"blue", 170, 255}
	ColorMagenta = Color{"magenta", 212, 255}
	ColorWhite   = Color{"white", 0, 0}
)

// ColorByName resolves a preset color from its name.
func ColorByName(name string) (Color, error) {
	for _, c := range []Color{ColorRed, ColorYellow, ColorGreen, ColorCyan, ColorBlue, ColorMagenta, ColorWhite} {
		if c.Name == name {
			return c, nil
		}
	}
	return Color{}, fmt.Errorf("%w: unknown color %q", ErrValidation, name)
}

func matchVSwState(sw uint8) func(poco.Message) bool {
	return func(m poco.Message) bool {
		st, ok := m.(*poco.VSwState)
		return ok && st.Switch == sw
	}
}

func matchChannelStatus(ch uint8) func(poco.Message) bool {
	return func(m poco.Message) bool {
		st, ok := m.(*poco.OutputChStatus)
		return ok && (ch == 0 || st.Channel == ch)
	}
}

func (c *Controller) awaitState(ctx context.Context, m poco.Marshaler, match func(poco.Message) bool) (poco.Message, error) {
	r, err := c.s.Request(ctx, m, match)
	if err != nil {
		return nil, err
	}
	return r.Wait(ctx)
}

// SimpleAction fires a virtual switch action without waiting for the state
// broadcast that follows.
func (c *Controller) SimpleAction(sw uint8, action poco.VSwAction) error {
	return c.s.Post(&poco.VSwSimpleAction{Switch: sw, Action: action})
}

// SimpleActionAck fires a virtual switch action and waits for the device to
// broadcast the switch's new state, resending on silence.
func (c *Controller) SimpleActionAck(ctx context.Context, sw uint8, action poco.VSwAction) (*poco.VSwState, error) {
	msg, err := c.awaitState(ctx, &poco.VSwSimpleAction{Switch: sw, Action: action}, matchVSwState(sw))
	if err != nil {
		return nil, err
	}
	return msg.(*poco.VSwState), nil
}

func (c *Controller) TurnOn(sw uint8) error  { return c.SimpleAction(sw, poco.ActionOn) }
func (c *Controller) TurnOff(sw uint8) error { return c.SimpleAction(sw, poco.ActionOff) }
func (c *Controller) Toggle(sw uint8) error  { return c.SimpleAction(sw, poco.ActionToggle) }
func (c *Controller) DimUp(sw uint8) error   { return c.SimpleAction(sw, poco.ActionDimUp) }
func (c *Controller) DimDown(sw uint8) error { return c.SimpleAction(sw, poco.ActionDimDown) }

// Scene activates scene select entry n (1-33) on a scene select switch.
func (c *Controller) Scene(sw uint8, n uint8) error {
	if n < 1 || n > 33 {
		return fmt.Errorf("%w: scene %d out of range [1, 33]", ErrValidation, n)
	}
	return c.SimpleAction(sw, poco.ActionOnScene1+poco.VSwAction(n-1))
}

// SetColor transitions a virtual switch to a preset color at the given
// brightness.
func (c *Controller) SetColor(sw uint8, col Color, brightness uint8) error {
	return c.s.Post(&poco.VSwCustomHSB{
		Switch: sw, Action: poco.HSBActionT2HSB,
		Hue: col.Hue, Saturation: col.Saturation, Brightness: brightness,
	})
}

// SetColorAck is SetColor with an acknowledged send.
func (c *Controller) SetColorAck(ctx context.Context, sw uint8, col Color, brightness uint8) (*poco.VSwState, error) {
	msg, err := c.awaitState(ctx, &poco.VSwCustomHSB{
		Switch: sw, Action: poco.HSBActionT2HSB,
		Hue: col.Hue, Saturation: col.Saturation, Brightness: brightness,
	}, matchVSwState(sw))
	if err != nil {
		return nil, err
	}
	return msg.(*poco.VSwState), nil
}

// SetBrightness changes a virtual switch's brightness, color unchanged.
func (c *Controller) SetBrightness(sw uint8, brightness uint8) error {
	return c.s.Post(&poco.VSwCustomHSB{Switch: sw, Action: poco.HSBActionT2B, Brightness: brightness})
}

// SetRGB transitions a virtual switch to an RGB color, converted to HSB by
// the device.
func (c *Controller) SetRGB(sw uint8, r, g, b uint8) error {
	return c.s.Post(&poco.VSwCustomRGB{Switch: sw, Red: r, Green: g, Blue: b})
}

// SetRGBAck is SetRGB with an acknowledged send.
func (c *Controller) SetRGBAck(ctx context.Context, sw uint8, r, g, b uint8) (*poco.VSwState, error) {
	msg, err := c.awaitState(ctx, &poco.VSwCustomRGB{Switch: sw, Red: r, Green: g, Blue: b}, matchVSwState(sw))
	if err != nil {
		return nil, err
	}
	return msg.(*poco.VSwState), nil
}

// DeltaBrightness shifts a virtual switch's brightness by a signed delta.
func (c *Controller) DeltaBrightness(sw uint8, delta int8) error {
	return c.s.Post(&poco.VSwDeltaBright{Switch: sw, Delta: delta})
}

// StartFx starts a PocoFx pattern on a virtual switch.
func (c *Controller) StartFx(sw uint8, fx uint8) error {
	return c.s.Post(&poco.VSwPocoFxStart{Switch: sw, FxID: fx})
}

// PauseFx pauses PocoFx playback on a virtual switch.
func (c *Controller) PauseFx(sw uint8) error {
	return c.SimpleAction(sw, poco.ActionPocoFxPause)
}

// SwitchState queries the live state of a virtual switch. A no-op action
// plays the role of the query, the device answers with a state broadcast.
func (c *Controller) SwitchState(ctx context.Context, sw uint8) (*poco.VSwState, error) {
	return c.SimpleActionAck(ctx, sw, poco.ActionNoAction)
}
