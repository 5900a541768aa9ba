// Package session layers per-device command sessions on top of the raw
// frame transport. A Session pairs outgoing Poco commands with the device
// broadcasts that acknowledge them, retries unanswered commands, and keeps a
// live snapshot of the device's switch and channel state. A Registry routes
// inbound traffic to sessions by source address and runs device discovery.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lumitec/pococan"
	"github.com/lumitec/pococan/pkg/nmea2k"
	"github.com/lumitec/pococan/pkg/poco"
)

// Bus sends a single frame. *pococan.Client satisfies it, tests substitute
// their own.
type Bus interface {
	Send(*pococan.CANFrame) error
}

const (
	DefaultSourceAddress = 253
	DefaultPriority      = 3
	DefaultAckTimeout    = time.Second
	DefaultMaxRetries    = 2
	DefaultRetryBackoff  = 100 * time.Millisecond
)

// Config tunes a session. Zero timing fields get the defaults above.
// SourceAddress and Priority are taken as given: 0 is a valid bus address
// and the highest frame priority. DefaultSourceAddress and DefaultPriority
// are the conventional values, applied by the pocotool CLI.
type Config struct {
	SourceAddress uint8 // our address on the NMEA2000 bus
	Priority      uint8
	AckTimeout    time.Duration // per-attempt wait for an acknowledging broadcast
	MaxRetries    int           // resends after the first attempt times out
	RetryBackoff  time.Duration // pause between attempts

	// OnMessage observes every decoded message routed to the session,
	// whether or not it resolves a request. Called from the routing
	// goroutine, so it must not block.
	OnMessage func(poco.Message)
}

func (c Config) withDefaults() Config {
	if c.AckTimeout <= 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	return c
}

// ErrTimeout is returned by Request.Wait when every attempt went
// unacknowledged.
var ErrTimeout = errors.New("session: request timed out")

// ErrCanceled is returned by Request.Wait after Cancel. Context
// cancellation surfaces as the context's own error.
var ErrCanceled = errors.New("session: request canceled")

// ProtocolError reports a device that answered but flagged a fault.
type ProtocolError struct {
	Source  uint8
	Channel uint8
	Faults  poco.FaultFlags
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("device %d channel %d fault: %s", e.Source, e.Channel, e.Faults)
}

// Session is the command session with one Poco device. A session addressed
// at nmea2k.AddressBroadcast talks to, and hears from, every device.
type Session struct {
	bus  Bus
	cfg  Config
	addr uint8

	mu       sync.Mutex
	nextTag  uint64
	pending  map[uint64]*Request
	switches map[uint8]*poco.VSwState
	channels map[uint8]*poco.OutputChStatus
	banks    map[uint8]poco.SwitchBank
	lastSeen time.Time
}

// New creates a session with the device at addr. Frames still have to reach
// it, either through a Registry or by calling HandleMessage directly.
func New(bus Bus, addr uint8, cfg Config) *Session {
	return &Session{
		bus:      bus,
		cfg:      cfg.withDefaults(),
		addr:     addr,
		pending:  make(map[uint64]*Request),
		switches: make(map[uint8]*poco.VSwState),
		channels: make(map[uint8]*poco.OutputChStatus),
		banks:    make(map[uint8]poco.SwitchBank),
	}
}

// Address is the device's NMEA2000 source address.
func (s *Session) Address() uint8 { return s.addr }

// Post marshals and sends a command without waiting for any acknowledgement.
func (s *Session) Post(m poco.Marshaler) error {
	data, err := poco.Marshal(m)
	if err != nil {
		return err
	}
	return s.post(poco.PGNProprietarySingleFrame, data)
}

// PostBank sends a binary switch bank control frame on PGN 127502.
func (s *Session) PostBank(b poco.SwitchBank) error {
	data, err := poco.MarshalBankControl(b)
	if err != nil {
		return err
	}
	return s.post(poco.PGNBinarySwitchControl, data)
}

func (s *Session) post(pgn uint32, data []byte) error {
	id := nmea2k.CanID(pgn, s.cfg.Priority, s.cfg.SourceAddress, s.addr)
	if err := s.bus.Send(pococan.NewExtendedFrame(id, data, pococan.Outgoing)); err != nil {
		return &pococan.TransportError{Op: "send", Err: err}
	}
	return nil
}

// HandleMessage routes one decoded inbound message into the session: it
// resolves any pending request whose matcher accepts the message, refreshes
// the state snapshot and feeds the OnMessage observer. The Registry calls
// this from its routing loop.
func (s *Session) HandleMessage(msg poco.Message) {
	s.mu.Lock()
	s.lastSeen = time.Now()
	switch m := msg.(type) {
	case *poco.VSwState:
		s.switches[m.Switch] = m
	case *poco.OutputChStatus:
		s.channels[m.Channel] = m
	}
	var resolved []*Request
	for tag, r := range s.pending {
		if r.match(msg) {
			resolved = append(resolved, r)
			delete(s.pending, tag)
		}
	}
	onMessage := s.cfg.OnMessage
	s.mu.Unlock()

	for _, r := range resolved {
		r.resolve(msg)
	}
	if onMessage != nil {
		onMessage(msg)
	}
}

// HandleBank routes one decoded switch bank status frame into the session.
func (s *Session) HandleBank(b poco.SwitchBank) {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.banks[b.Bank] = b
	var resolved []*Request
	for tag, r := range s.pending {
		if r.matchBank != nil && r.matchBank(b) {
			resolved = append(resolved, r)
			delete(s.pending, tag)
		}
	}
	s.mu.Unlock()

	for _, r := range resolved {
		r.resolveBank(b)
	}
}

// SwitchState returns the last broadcast state of a virtual switch, or nil
// when the session has not heard from it.
func (s *Session) SwitchState(sw uint8) *poco.VSwState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switches[sw]
}

// ChannelStatus returns the last reported status of an output channel, or
// nil when the session has not heard from it.
func (s *Session) ChannelStatus(ch uint8) *poco.OutputChStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch]
}

// Bank returns the last reported state of a switch bank.
func (s *Session) Bank(bank uint8) (poco.SwitchBank, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banks[bank]
	return b, ok
}

// LastSeen is the time of the last message routed to this session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) register(r *Request) {
	s.mu.Lock()
	s.nextTag++
	r.tag = s.nextTag
	s.pending[r.tag] = r
	s.mu.Unlock()
}

func (s *Session) unregister(tag uint64) {
	s.mu.Lock()
	delete(s.pending, tag)
	s.mu.Unlock()
}

// Pending is the number of requests still waiting for an acknowledgement.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
