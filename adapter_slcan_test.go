package pococan

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func newTestSLCan(t *testing.T) *SLCan {
	t.Helper()
	dev, err := NewAdapter("SLCan", &AdapterConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return dev.(*SLCan)
}

func TestSLCanDiagnosticEvents(t *testing.T) {
	sl := newTestSLCan(t)
	buff := bytes.NewBuffer(nil)

	// bell is the adapter rejecting the previous command, anything else
	// unframed is noise worth reporting
	sl.parse(context.Background(), buff, []byte{0x07, 0x0D})
	sl.parse(context.Background(), buff, []byte("Z1\r"))

	for i := 0; i < 2; i++ {
		select {
		case e := <-sl.Event():
			if e.Type != EventTypeWarning {
				t.Errorf("event %d: got %s, want WARN", i, e.Type)
			}
		default:
			t.Fatalf("expected 2 warning events, got %d", i)
		}
	}
}

func TestSLCanDroppedFrameEvent(t *testing.T) {
	sl := newTestSLCan(t)
	for i := 0; i < cap(sl.recvChan); i++ {
		sl.recvChan <- NewFrame(0x100, []byte{0}, Incoming)
	}

	buff := bytes.NewBuffer(nil)
	sl.parse(context.Background(), buff, []byte("t1002AABB\r"))

	select {
	case e := <-sl.Event():
		if e.Type != EventTypeError {
			t.Errorf("got %s, want ERROR", e.Type)
		}
		if !strings.Contains(e.Details, ErrDroppedFrame.Error()) {
			t.Errorf("got %q, want dropped-frame details", e.Details)
		}
	default:
		t.Fatal("expected a dropped-frame event")
	}
}

func TestSLCanCloseWithoutOpen(t *testing.T) {
	sl := newTestSLCan(t)
	if err := sl.Close(); err != nil {
		t.Fatalf("close without open: %v", err)
	}
}
