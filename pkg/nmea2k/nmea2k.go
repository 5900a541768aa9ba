// Package nmea2k implements the NMEA2000 / J1939 29-bit CAN identifier
// layout: Priority(3) | Reserved(1) | DataPage(1) | PF(8) | PS(8) | SA(8).
package nmea2k

const (
	// AddressBroadcast is the global destination address
	AddressBroadcast = 0xFF
	// AddressMax is the highest assignable device address
	AddressMax = 0xFD

	// PDU2Threshold splits PDU1 (addressable) from PDU2 (broadcast) PGNs
	PDU2Threshold = 240
)

// Header is the decoded form of a 29-bit identifier.
type Header struct {
	PGN         uint32
	Priority    uint8
	Source      uint8
	Destination uint8
}

// CanID assembles a 29-bit identifier. For PDU1 PGNs (PF < 240) the PS byte
// carries the destination address; for PDU2 PGNs the PS byte is the group
// extension and destination is implicitly broadcast.
func CanID(pgn uint32, priority, source, destination uint8) uint32 {
	pduFormat := (pgn >> 8) & 0xFF
	ps := pgn & 0xFF
	if pduFormat < PDU2Threshold {
		ps = uint32(destination)
	}
	id := uint32(priority&0x07) << 26
	id |= ((pgn >> 16) & 0x01) << 24
	id |= pduFormat << 16
	id |= ps << 8
	id |= uint32(source)
	return id
}

// ParseID decodes a 29-bit identifier. The PGN is normalized: for PDU1 the
// PS byte is the destination address and is masked out of the PGN.
func ParseID(id uint32) Header {
	rawPGN := (id >> 8) & 0x3FFFF
	pduFormat := uint8((rawPGN >> 8) & 0xFF)

	h := Header{
		Priority:    uint8((id >> 26) & 0x07),
		Source:      uint8(id & 0xFF),
		Destination: AddressBroadcast,
	}
	if pduFormat < PDU2Threshold {
		h.PGN = rawPGN & 0x3FF00
		h.Destination = uint8((id >> 8) & 0xFF)
	} else {
		h.PGN = rawPGN
	}
	return h
}
