package packet

import (
	"fmt"
	"net"
	"net/netip"
)

type (
	// MAC is an Ethernet hardware address.
	MAC [6]byte
	// Direction is the leg of a flow a probe measures.
	Direction uint8
	// Endpoint holds the addressing a probe packet is built with.
	// Endpoint is comparable and used as a cache key.
	Endpoint struct {
		SrcMAC  MAC        `json:"src_mac"`
		DstMAC  MAC        `json:"dst_mac"`
		VLAN    uint16     `json:"vlan,omitzero"` // 0 for untagged.
		SrcIP   netip.Addr `json:"src_ip"`
		DstIP   netip.Addr `json:"dst_ip"`
		SrcPort uint16     `json:"src_port"`
		DstPort uint16     `json:"dst_port"`
	}
)

const (
	Forward Direction = iota
	Reverse
)

// ParseMAC parses a 48-bit address in any form accepted by [net.ParseMAC].
func ParseMAC(s string) (MAC, error) {
	hardware, err := net.ParseMAC(s)
	if err != nil {
		return MAC{}, fmt.Errorf("%w: %w", ErrInvalidMAC, err)
	}
	if len(hardware) != len(MAC{}) {
		return MAC{}, fmt.Errorf("%w: %q is not 48 bits", ErrInvalidMAC, s)
	}
	return MAC(hardware), nil
}

func (mac MAC) String() string { return net.HardwareAddr(mac[:]).String() }

func (mac MAC) MarshalText() ([]byte, error) { return []byte(mac.String()), nil }

func (mac *MAC) UnmarshalText(text []byte) error {
	parsed, err := ParseMAC(string(text))
	if err != nil {
		return err
	}
	*mac = parsed
	return nil
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	if d > Reverse {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "forward", "":
		*d = Forward
	case "reverse":
		*d = Reverse
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, text)
	}
	return nil
}

func (ep Endpoint) validate() error {
	if !ep.SrcIP.Is4() || !ep.DstIP.Is4() {
		return fmt.Errorf("%w: %s -> %s", ErrNotIPv4, ep.SrcIP, ep.DstIP)
	}
	return nil
}
