package packet

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Probe is the decoded payload of a probe packet.
type Probe struct {
	FlowID    string
	Direction Direction
	// Sent is stamped by the transmitter, Returned by the far end.
	// Either is the zero time when unset.
	Sent, Returned time.Time
}

// Decode parses the probe payload of an encoded packet.
func Decode(pkt []byte) (Probe, error) {
	payload, err := payloadOf(pkt)
	if err != nil {
		return Probe{}, err
	}
	idLen := int(binary.BigEndian.Uint16(payload[6:]))
	if need := payloadFixedLen + idLen + timestampsLen; len(payload) < need {
		return Probe{}, truncatedError("probe payload", need, len(payload))
	}
	var (
		id         = payload[payloadFixedLen : payloadFixedLen+idLen]
		timestamps = payload[payloadFixedLen+idLen:]
	)
	return Probe{
		FlowID:    string(id),
		Direction: Direction(payload[5]),
		Sent:      fromNanos(binary.BigEndian.Uint64(timestamps)),
		Returned:  fromNanos(binary.BigEndian.Uint64(timestamps[8:])),
	}, nil
}

// Stamp writes t as the probe's send time, in place.
func Stamp(pkt []byte, t time.Time) error {
	payload, err := payloadOf(pkt)
	if err != nil {
		return err
	}
	offset := payloadFixedLen + int(binary.BigEndian.Uint16(payload[6:]))
	if need := offset + timestampsLen; len(payload) < need {
		return truncatedError("probe payload", need, len(payload))
	}
	binary.BigEndian.PutUint64(payload[offset:], uint64(t.UnixNano()))
	return nil
}

// RoundTrip returns the time between the probe's stamps,
// or 0 if either is unset.
func (p Probe) RoundTrip() time.Duration {
	if p.Sent.IsZero() || p.Returned.IsZero() {
		return 0
	}
	return p.Returned.Sub(p.Sent)
}

func payloadOf(pkt []byte) ([]byte, error) {
	if len(pkt) < ethernetLen {
		return nil, truncatedError("ethernet", ethernetLen, len(pkt))
	}
	var (
		offset    = ethernetLen
		etherType = binary.BigEndian.Uint16(pkt[12:])
	)
	if etherType == etherTypeVLAN {
		if len(pkt) < ethernetLen+vlanTagLen {
			return nil, truncatedError("vlan tag", ethernetLen+vlanTagLen, len(pkt))
		}
		etherType = binary.BigEndian.Uint16(pkt[16:])
		offset += vlanTagLen
	}
	if etherType != etherTypeIPv4 {
		return nil, fmt.Errorf("%w: ethertype %#04x", ErrNotProbe, etherType)
	}
	ip := pkt[offset:]
	if len(ip) < ipv4Len {
		return nil, truncatedError("ipv4", ipv4Len, len(ip))
	}
	if protocol := ip[9]; protocol != protocolUDP {
		return nil, fmt.Errorf("%w: ip protocol %d", ErrNotProbe, protocol)
	}
	headerLen := int(ip[0]&0x0f) * 4
	if headerLen < ipv4Len {
		return nil, fmt.Errorf("%w: ipv4 header length %d", ErrNotProbe, headerLen)
	}
	if len(ip) < headerLen+udpLen+payloadFixedLen {
		return nil, truncatedError("udp", headerLen+udpLen+payloadFixedLen, len(ip))
	}
	payload := ip[headerLen+udpLen:]
	if magic := binary.BigEndian.Uint32(payload); magic != Magic {
		return nil, fmt.Errorf("%w: magic %#08x", ErrNotProbe, magic)
	}
	return payload, nil
}

func fromNanos(nanos uint64) time.Time {
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(nanos))
}
