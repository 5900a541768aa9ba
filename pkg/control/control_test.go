package control

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumitec/pococan"
	"github.com/lumitec/pococan/pkg/poco"
	"github.com/lumitec/pococan/pkg/session"
)

// deviceBus is a fake bus with a scripted device behind it: every frame is
// decoded and handed to respond, whose replies go back into the session.
type deviceBus struct {
	mu      sync.Mutex
	sent    []*pococan.CANFrame
	sess    *session.Session
	respond func(poco.Message) []poco.Message
}

func (b *deviceBus) Send(f *pococan.CANFrame) error {
	b.mu.Lock()
	b.sent = append(b.sent, f)
	respond := b.respond
	b.mu.Unlock()
	if respond == nil {
		return nil
	}
	msg, err := poco.Unmarshal(f.Data)
	if err != nil {
		return nil
	}
	for _, reply := range respond(msg) {
		reply := reply
		go b.sess.HandleMessage(reply)
	}
	return nil
}

func (b *deviceBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func (b *deviceBus) payload(i int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[i].Data
}

func newTestController(respond func(poco.Message) []poco.Message) (*Controller, *deviceBus) {
	bus := &deviceBus{respond: respond}
	s := session.New(bus, 5, session.Config{
		AckTimeout:   50 * time.Millisecond,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	bus.sess = s
	return New(s), bus
}

func TestSimpleActionPayloads(t *testing.T) {
	c, bus := newTestController(nil)

	require.NoError(t, c.TurnOn(0))
	require.NoError(t, c.TurnOff(1))
	require.NoError(t, c.Toggle(2))
	require.NoError(t, c.DimUp(3))
	require.NoError(t, c.DimDown(4))
	require.NoError(t, c.Scene(0, 2))

	want := [][]byte{
		{0xE8, 0x9D, 0x01, 0x02, 0x00, 0xFF, 0xFF, 0xFF},
		{0xE8, 0x9D, 0x01, 0x01, 0x01, 0xFF, 0xFF, 0xFF},
		{0xE8, 0x9D, 0x01, 0x20, 0x02, 0xFF, 0xFF, 0xFF},
		{0xE8, 0x9D, 0x01, 0x04, 0x03, 0xFF, 0xFF, 0xFF},
		{0xE8, 0x9D, 0x01, 0x03, 0x04, 0xFF, 0xFF, 0xFF},
		{0xE8, 0x9D, 0x01, 0x22, 0x00, 0xFF, 0xFF, 0xFF},
	}
	require.Equal(t, len(want), bus.count())
	for i, w := range want {
		assert.Equal(t, w, bus.payload(i), "frame %d", i)
	}
}

func TestSceneRange(t *testing.T) {
	c, bus := newTestController(nil)
	require.ErrorIs(t, c.Scene(0, 0), ErrValidation)
	require.ErrorIs(t, c.Scene(0, 34), ErrValidation)
	assert.Zero(t, bus.count())
}

func TestColorByName(t *testing.T) {
	col, err := ColorByName("green")
	require.NoError(t, err)
	assert.Equal(t, uint8(85), col.Hue)
	assert.Equal(t, uint8(255), col.Saturation)

	_, err = ColorByName("mauve")
	require.ErrorIs(t, err, ErrValidation)
}

func TestSetColorAck(t *testing.T) {
	c, _ := newTestController(func(m poco.Message) []poco.Message {
		hsb, ok := m.(*poco.VSwCustomHSB)
		if !ok {
			return nil
		}
		return []poco.Message{&poco.VSwState{
			Switch: hsb.Switch, On: true, ColorType: poco.ColorTypeHueSat,
			ColorData0: hsb.Hue, ColorData1: hsb.Saturation, Brightness: hsb.Brightness,
		}}
	})

	st, err := c.SetColorAck(context.Background(), 3, ColorBlue, 128)
	require.NoError(t, err)
	assert.Equal(t, uint8(170), st.Hue())
	assert.Equal(t, uint8(128), st.Brightness)
}

func TestSwitchStateQuery(t *testing.T) {
	c, bus := newTestController(func(m poco.Message) []poco.Message {
		sa, ok := m.(*poco.VSwSimpleAction)
		if !ok || sa.Action != poco.ActionNoAction {
			return nil
		}
		return []poco.Message{&poco.VSwState{Switch: sa.Switch, On: true, Brightness: 77}}
	})

	st, err := c.SwitchState(context.Background(), 6)
	require.NoError(t, err)
	assert.True(t, st.On)
	assert.Equal(t, uint8(77), st.Brightness)
	assert.Equal(t, 1, bus.count())
}

// Setting a channel to half brightness: one frame on the wire carrying duty
// 50, completed by the device's status report.
func TestSetPWMHalfBrightness(t *testing.T) {
	c, bus := newTestController(func(m poco.Message) []poco.Message {
		duty, ok := m.(*poco.OutputChPWMDuty)
		if !ok {
			return nil
		}
		return []poco.Message{&poco.OutputChStatus{
			Channel: duty.Channel, Mode: poco.ModePWM,
			Level: uint8(uint16(duty.Duty) * 255 / 100),
		}}
	})

	st, err := c.SetPWMAck(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, bus.count(), "acknowledged first try, no resend")
	assert.Equal(t, []byte{0xE8, 0x9D, 0x22, 0x01, 0x32, 0xFF, 0xFF, 0xFF}, bus.payload(0))
	assert.Equal(t, poco.ModePWM, st.Mode)
}

func TestChannelStatusTimeout(t *testing.T) {
	c, bus := newTestController(nil)

	_, err := c.ChannelStatus(context.Background(), 2)
	require.ErrorIs(t, err, session.ErrTimeout)
	assert.Equal(t, 3, bus.count())
}

func TestSetBankSwitch(t *testing.T) {
	c, bus := newTestController(nil)

	require.NoError(t, c.SetBankSwitch(0, 2, true))
	require.Equal(t, 1, bus.count())
	data := bus.payload(0)
	assert.Equal(t, uint8(0), data[0])
	// switch 2 on, 0/1/3 untouched: 11 | 11<<2 | 01<<4 | 11<<6
	assert.Equal(t, uint8(0xDF), data[1])
	for _, b := range data[2:] {
		assert.Equal(t, uint8(0xFF), b)
	}

	require.ErrorIs(t, c.SetBankSwitch(0, 28, true), ErrValidation)
}

func TestQueryBank(t *testing.T) {
	c, _ := newTestController(nil)
	sess := c.Session()

	go func() {
		time.Sleep(5 * time.Millisecond)
		var b poco.SwitchBank
		b.Bank = 2
		b.States[0] = poco.BankOn
		sess.HandleBank(b)
	}()

	b, err := c.QueryBank(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, poco.BankOn, b.States[0])
}
