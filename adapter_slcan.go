package pococan

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"go.bug.st/serial"
)

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:               "SLCan",
		Description:        "Lawicel/Canable SLCAN adapter",
		RequiresSerialPort: true,
		New:                NewSLCan,
	}); err != nil {
		panic(err)
	}
}

type SLCan struct {
	BaseAdapter
	port   serial.Port
	closed bool
}

func NewSLCan(cfg *AdapterConfig) (Adapter, error) {
	return &SLCan{
		BaseAdapter: NewBaseAdapter("SLCan", cfg),
	}, nil
}

var slcanRates = map[float64]string{
	10:   "S0",
	20:   "S1",
	50:   "S2",
	100:  "S3",
	125:  "S4",
	250:  "S5",
	500:  "S6",
	750:  "S7",
	1000: "S8",
}

func (sl *SLCan) Open(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: sl.cfg.PortBaudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(sl.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("failed to open com port %q : %v", sl.cfg.Port, err)
	}
	p.SetReadTimeout(1 * time.Millisecond)
	sl.port = p

	p.ResetOutputBuffer()
	p.ResetInputBuffer()

	go sl.sendManager(ctx)
	go sl.recvManager(ctx)

	rate, ok := slcanRates[sl.cfg.CANRate]
	if !ok {
		return fmt.Errorf("unsupported CAN rate %.0f", sl.cfg.CANRate)
	}
	p.Write([]byte(rate + "\r"))
	time.Sleep(10 * time.Millisecond)
	p.Write([]byte("O\r"))
	sl.Info(fmt.Sprintf("connected to %s @ %d, %.0f kbit/s", sl.cfg.Port, sl.cfg.PortBaudrate, sl.cfg.CANRate))
	return nil
}

func (sl *SLCan) SetFilter(filters []uint32) error {
	// software filtering only
	return nil
}

func (sl *SLCan) Close() error {
	sl.closed = true
	sl.BaseAdapter.Close()
	if sl.port == nil {
		return nil
	}
	time.Sleep(10 * time.Millisecond)
	sl.port.Write([]byte("C\r"))
	time.Sleep(10 * time.Millisecond)
	return sl.port.Close()
}

func (sl *SLCan) recvManager(ctx context.Context) {
	buff := bytes.NewBuffer(nil)
	readBuffer := make([]byte, 16)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sl.closeChan:
			return
		default:
		}
		n, err := sl.port.Read(readBuffer)
		if err != nil {
			if !sl.closed {
				sl.Fatal(fmt.Errorf("failed to read com port: %w", err))
			}
			return
		}
		if n == 0 {
			continue
		}
		sl.parse(ctx, buff, readBuffer[:n])
	}
}

func (sl *SLCan) sendManager(ctx context.Context) {
	f := bytes.NewBuffer(nil)
	for {
		select {
		case v := <-sl.sendChan:
			sl.format(f, v)
			if _, err := sl.port.Write(f.Bytes()); err != nil {
				sl.cfg.OnError(fmt.Errorf("failed to write to com port: %s, %w", f.String(), err))
			}
			if sl.cfg.Debug {
				log.Println(">> " + f.String())
			}
			f.Reset()
		case <-ctx.Done():
			return
		case <-sl.closeChan:
			return
		}
	}
}

func (sl *SLCan) format(f *bytes.Buffer, v *CANFrame) {
	if v.Extended {
		f.WriteString("T" + fmt.Sprintf("%08X", v.Identifier))
	} else {
		f.WriteString("t" + fmt.Sprintf("%03X", v.Identifier&0x7FF))
	}
	f.WriteString(strconv.Itoa(v.DLC()))
	f.WriteString(hex.EncodeToString(v.Data))
	f.WriteByte(0x0D)
}

func (sl *SLCan) parse(ctx context.Context, buff *bytes.Buffer, readBuffer []byte) {
	for _, b := range readBuffer {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if b != 0x0D {
			buff.WriteByte(b)
			continue
		}
		if buff.Len() == 0 {
			continue
		}
		by := buff.Bytes()
		switch by[0] {
		case 't', 'T':
			if sl.cfg.Debug {
				log.Println("<< " + buff.String())
			}
			f, err := decodeSLCanFrame(by)
			if err != nil {
				sl.Error(fmt.Errorf("failed to decode frame %X: %w", by, err))
				buff.Reset()
				continue
			}
			select {
			case sl.recvChan <- f:
			default:
				sl.Error(ErrDroppedFrame)
			}
		case 0x07: // bell, last command was unknown
			sl.Warn("adapter rejected last command")
		default:
			sl.Warn("unknown>> " + buff.String())
		}
		buff.Reset()
	}
}

func decodeSLCanFrame(buff []byte) (*CANFrame, error) {
	idLen := 3 // t: 11-bit, 3 hex digits
	extended := buff[0] == 'T'
	if extended {
		idLen = 8
	}
	if len(buff) < 1+idLen+1 {
		return nil, errors.New("short frame")
	}
	id, err := strconv.ParseUint(string(buff[1:1+idLen]), 16, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to decode identifier: %v", err)
	}
	dlc := int(buff[1+idLen] - '0')
	if dlc < 0 || dlc > 8 {
		return nil, fmt.Errorf("invalid DLC %c", buff[1+idLen])
	}
	data, err := hex.DecodeString(string(buff[1+idLen+1:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame body: %v", err)
	}
	if len(data) != dlc {
		return nil, fmt.Errorf("DLC %d does not match body length %d", dlc, len(data))
	}
	frame := NewFrame(uint32(id), data, Incoming)
	frame.Extended = extended
	return frame, nil
}
