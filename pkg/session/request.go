package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"github.com/lumitec/pococan/pkg/poco"
)

// Request is the handle for one in-flight acknowledged command. The command
// is sent and resent in the background until a matching message arrives, the
// attempts run out, or the request is canceled.
type Request struct {
	tag       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	match     func(poco.Message) bool
	matchBank func(poco.SwitchBank) bool

	acked     chan poco.Message
	ackedBank chan poco.SwitchBank

	once   sync.Once
	done   chan struct{}
	result poco.Message
	bank   poco.SwitchBank
	err    error
}

// Tag is the session-unique identifier of this request. Tags increase
// monotonically and are never reused within a session.
func (r *Request) Tag() uint64 { return r.tag }

// Done is closed once the request has a result or a final error.
func (r *Request) Done() <-chan struct{} { return r.done }

// Cancel abandons the request. No further resends happen and Wait returns
// ErrCanceled, unless a result had already been recorded.
func (r *Request) Cancel() { r.cancel() }

// Wait blocks until the request completes and returns the acknowledging
// message. For bank queries the message is nil, use Bank.
func (r *Request) Wait(ctx context.Context) (poco.Message, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Bank returns the bank state that completed a bank query.
func (r *Request) Bank() poco.SwitchBank { return r.bank }

func (r *Request) resolve(msg poco.Message) {
	select {
	case r.acked <- msg:
	default:
	}
}

func (r *Request) resolveBank(b poco.SwitchBank) {
	select {
	case r.ackedBank <- b:
	default:
	}
}

func (r *Request) complete(msg poco.Message, b poco.SwitchBank, err error) {
	r.once.Do(func() {
		r.result = msg
		r.bank = b
		r.err = err
		close(r.done)
	})
}

// Request sends a command and keeps resending it until match accepts an
// inbound message from the device. The encode happens up front, so a
// RangeError comes back synchronously and nothing hits the wire.
func (s *Session) Request(ctx context.Context, m poco.Marshaler, match func(poco.Message) bool) (*Request, error) {
	data, err := poco.Marshal(m)
	if err != nil {
		return nil, err
	}
	r := s.newRequest(ctx, match, nil)
	go s.drive(r, func() error {
		return s.post(poco.PGNProprietarySingleFrame, data)
	})
	return r, nil
}

// RequestBank queries a binary switch bank on PGN 127501 and completes when
// the device broadcasts that bank's state.
func (s *Session) RequestBank(ctx context.Context, bank uint8) *Request {
	data := poco.MarshalBankQuery(bank)
	r := s.newRequest(ctx, nil, func(b poco.SwitchBank) bool {
		return b.Bank == bank
	})
	go s.drive(r, func() error {
		return s.post(poco.PGNBinarySwitchStatus, data)
	})
	return r
}

func (s *Session) newRequest(ctx context.Context, match func(poco.Message) bool, matchBank func(poco.SwitchBank) bool) *Request {
	if match == nil {
		match = func(poco.Message) bool { return false }
	}
	rctx, cancel := context.WithCancel(ctx)
	r := &Request{
		ctx:       rctx,
		cancel:    cancel,
		match:     match,
		matchBank: matchBank,
		acked:     make(chan poco.Message, 1),
		ackedBank: make(chan poco.SwitchBank, 1),
		done:      make(chan struct{}),
	}
	s.register(r)
	return r
}

// drive runs the send/await/retry loop for one request. Each attempt sends
// the frame and waits AckTimeout for the matcher to fire. Cancellation and
// transport failures stop the loop immediately, only silence is retried.
func (s *Session) drive(r *Request, send func() error) {
	defer s.unregister(r.tag)
	defer r.cancel()
	err := retry.Do(
		func() error {
			if err := send(); err != nil {
				return retry.Unrecoverable(err)
			}
			timer := time.NewTimer(s.cfg.AckTimeout)
			defer timer.Stop()
			select {
			case msg := <-r.acked:
				if err := faultCheck(s.addr, msg); err != nil {
					return retry.Unrecoverable(err)
				}
				r.complete(msg, poco.SwitchBank{}, nil)
				return nil
			case b := <-r.ackedBank:
				r.complete(nil, b, nil)
				return nil
			case <-timer.C:
				return ErrTimeout
			case <-r.ctx.Done():
				return retry.Unrecoverable(r.ctx.Err())
			}
		},
		retry.Attempts(uint(s.cfg.MaxRetries+1)),
		retry.Delay(s.cfg.RetryBackoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(r.ctx),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = ErrCanceled
		}
		r.complete(nil, poco.SwitchBank{}, err)
	}
}

// faultCheck turns an acknowledgement that carries fault flags into a
// ProtocolError. The command reached the device, so it is not retried.
func faultCheck(addr uint8, msg poco.Message) error {
	if st, ok := msg.(*poco.OutputChStatus); ok && st.Faults != 0 {
		return &ProtocolError{Source: addr, Channel: st.Channel, Faults: st.Faults}
	}
	return nil
}
