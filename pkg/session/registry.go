package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumitec/pococan"
	"github.com/lumitec/pococan/pkg/nmea2k"
	"github.com/lumitec/pococan/pkg/poco"
)

// DeviceInfo describes a Poco device discovered on the bus.
type DeviceInfo struct {
	Address         uint8
	DeviceID        uint32
	Channels        uint8
	ProtocolVersion uint8
	ExpanderRole    bool
	LastSeen        time.Time
}

// Registry owns the sessions on one bus and routes inbound frames to them
// by NMEA2000 source address. It also keeps the roster of devices that have
// answered an enumeration request.
type Registry struct {
	bus Bus
	cfg Config

	mu        sync.Mutex
	sessions  map[uint8]*Session
	devices   map[uint8]DeviceInfo
	broadcast *Session
}

// NewRegistry creates a registry. The broadcast session at
// nmea2k.AddressBroadcast exists from the start and hears every routed
// message, it is the catch-all for traffic from addresses nobody opened a
// session with.
func NewRegistry(bus Bus, cfg Config) *Registry {
	cfg = cfg.withDefaults()
	return &Registry{
		bus:       bus,
		cfg:       cfg,
		sessions:  make(map[uint8]*Session),
		devices:   make(map[uint8]DeviceInfo),
		broadcast: New(bus, nmea2k.AddressBroadcast, cfg),
	}
}

// Session returns the session for the device at addr, creating it on first
// use. Asking for nmea2k.AddressBroadcast returns the broadcast session.
func (r *Registry) Session(addr uint8) *Session {
	if addr == nmea2k.AddressBroadcast {
		return r.broadcast
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[addr]
	if !ok {
		s = New(r.bus, addr, r.cfg)
		r.sessions[addr] = s
	}
	return s
}

// Broadcast returns the catch-all session addressed at every device.
func (r *Registry) Broadcast() *Session { return r.broadcast }

// Remove drops the session for addr. In-flight requests on it keep running
// but no further traffic is routed to it.
func (r *Registry) Remove(addr uint8) {
	r.mu.Lock()
	delete(r.sessions, addr)
	r.mu.Unlock()
}

// Run consumes frames until the channel closes or the context ends. Wire it
// to a subscription that covers the Poco PGNs, or to the client's full
// stream: frames on other PGNs are ignored.
func (r *Registry) Run(ctx context.Context, frames <-chan *pococan.CANFrame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return pococan.ErrResponseChannelClosed
			}
			r.route(frame)
		}
	}
}

// route dispatches one frame. Decode failures are swallowed on purpose: the
// bus carries plenty of third-party traffic and a malformed frame must never
// stall routing.
func (r *Registry) route(frame *pococan.CANFrame) {
	if !frame.Extended {
		return
	}
	hdr := nmea2k.ParseID(frame.Identifier)
	switch hdr.PGN {
	case poco.PGNProprietarySingleFrame:
		msg, err := poco.Unmarshal(frame.Data)
		if err != nil {
			return
		}
		if _, ok := msg.(*poco.UnknownMessage); ok {
			return
		}
		if er, ok := msg.(*poco.EnumerateResponse); ok {
			r.discovered(hdr.Source, er)
		}
		r.sessionsFor(hdr.Source, func(s *Session) { s.HandleMessage(msg) })
	case poco.PGNBinarySwitchStatus, poco.PGNBinarySwitchControl:
		b, err := poco.UnmarshalBank(frame.Data)
		if err != nil {
			return
		}
		r.sessionsFor(hdr.Source, func(s *Session) { s.HandleBank(b) })
	}
}

// sessionsFor delivers to the device's own session, when one exists, and
// always to the broadcast session.
func (r *Registry) sessionsFor(source uint8, deliver func(*Session)) {
	r.mu.Lock()
	s := r.sessions[source]
	r.mu.Unlock()
	if s != nil {
		deliver(s)
	}
	deliver(r.broadcast)
}

func (r *Registry) discovered(source uint8, er *poco.EnumerateResponse) {
	r.mu.Lock()
	r.devices[source] = DeviceInfo{
		Address:         source,
		DeviceID:        er.DeviceID,
		Channels:        er.Channels,
		ProtocolVersion: er.ProtocolVersion,
		ExpanderRole:    er.ExpanderRole,
		LastSeen:        time.Now(),
	}
	r.mu.Unlock()
}

// Enumerate broadcasts a discovery request and collects answers for the
// given window. It returns every device known so far, including ones
// discovered before this call.
func (r *Registry) Enumerate(ctx context.Context, window time.Duration) ([]DeviceInfo, error) {
	if err := r.broadcast.Post(&poco.EnumerateRequest{}); err != nil {
		return nil, err
	}
	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return r.Devices(), ctx.Err()
	case <-timer.C:
	}
	return r.Devices(), nil
}

// Devices lists the discovered devices ordered by address.
func (r *Registry) Devices() []DeviceInfo {
	r.mu.Lock()
	out := make([]DeviceInfo, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
