package control

import (
	"context"
	"fmt"

	"github.com/lumitec/pococan/pkg/poco"
)

// Binary switch bank control on the standard NMEA2000 PGN pair. This is the
// level a generic chartplotter uses: on/off only, no color or brightness.

// SetBank sends a full bank control frame. Switches set to BankNoChange are
// left alone by the device.
func (c *Controller) SetBank(b poco.SwitchBank) error {
	return c.s.PostBank(b)
}

// SetBankSwitch flips a single switch in a bank, leaving the other 27
// untouched.
func (c *Controller) SetBankSwitch(bank uint8, index int, on bool) error {
	if index < 0 || index >= poco.BankSwitchCount {
		return fmt.Errorf("%w: bank switch %d out of range [0, %d]", ErrValidation, index, poco.BankSwitchCount-1)
	}
	b := poco.SwitchBank{Bank: bank}
	for i := range b.States {
		b.States[i] = poco.BankNoChange
	}
	if on {
		b.States[index] = poco.BankOn
	} else {
		b.States[index] = poco.BankOff
	}
	return c.s.PostBank(b)
}

// QueryBank asks for a bank's state and waits for the device's broadcast.
func (c *Controller) QueryBank(ctx context.Context, bank uint8) (poco.SwitchBank, error) {
	r := c.s.RequestBank(ctx, bank)
	if _, err := r.Wait(ctx); err != nil {
		return poco.SwitchBank{}, err
	}
	return r.Bank(), nil
}
