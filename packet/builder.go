package packet

import (
	"encoding/binary"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	etherTypeIPv4 = 0x0800
	etherTypeVLAN = 0x8100
	protocolUDP   = 17

	ethernetLen = 14
	vlanTagLen  = 4
	ipv4Len     = 20
	udpLen      = 8

	// Magic marks a probe payload ("FLOW").
	Magic   = 0x464c4f57
	Version = 1
	// payload: magic u32 | version u8 | direction u8 | id length u16
	// | id | t0 u64 | t1 u64
	payloadFixedLen = 4 + 1 + 1 + 2
	timestampsLen   = 8 + 8

	// MaxFlowIDLen is the longest identifier whose probe
	// still fits the 16-bit IPv4 total length.
	MaxFlowIDLen = math.MaxUint16 - (ipv4Len + udpLen + payloadFixedLen + timestampsLen)
)

// Builder encodes probe packets.
// Header prefixes are cached per [Endpoint],
// so flows sharing addressing only encode their payload.
// Constructed by [NewBuilder].
type Builder struct {
	templates *lru.Cache[Endpoint, []byte]
}

// NewBuilder creates a [Builder] caching up to cacheSize header templates.
func NewBuilder(cacheSize int) (*Builder, error) {
	templates, err := lru.New[Endpoint, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("header template cache: %w", err)
	}
	return &Builder{templates: templates}, nil
}

// Append encodes a probe for flowID onto dst and returns the extended slice.
// Both timestamps are left zero; see [Stamp].
func (b *Builder) Append(dst []byte, flowID string, dir Direction, ep Endpoint) ([]byte, error) {
	if len(flowID) > MaxFlowIDLen {
		return dst, fmt.Errorf("%w: %d bytes, limit is %d",
			ErrFlowIDTooLong, len(flowID), MaxFlowIDLen)
	}
	template, err := b.template(ep)
	if err != nil {
		return dst, err
	}
	var (
		start    = len(dst)
		ipOffset = start + len(template) - ipv4Len - udpLen
	)
	dst = append(dst, template...)
	dst = binary.BigEndian.AppendUint32(dst, Magic)
	dst = append(dst, Version, byte(dir))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(flowID)))
	dst = append(dst, flowID...)
	dst = append(dst, make([]byte, timestampsLen)...)
	var (
		ip       = dst[ipOffset : ipOffset+ipv4Len]
		udp      = dst[ipOffset+ipv4Len : ipOffset+ipv4Len+udpLen]
		ipTotal  = len(dst) - ipOffset
		udpTotal = ipTotal - ipv4Len
	)
	binary.BigEndian.PutUint16(ip[2:], uint16(ipTotal))
	binary.BigEndian.PutUint16(ip[10:], checksum(ip))
	binary.BigEndian.PutUint16(udp[4:], uint16(udpTotal))
	return dst, nil
}

// Cached returns the number of header templates held.
func (b *Builder) Cached() int { return b.templates.Len() }

func (b *Builder) template(ep Endpoint) ([]byte, error) {
	if template, ok := b.templates.Get(ep); ok {
		return template, nil
	}
	if err := ep.validate(); err != nil {
		return nil, err
	}
	template := encodeHeaders(ep)
	b.templates.Add(ep, template)
	return template, nil
}

// encodeHeaders writes the L2-L4 headers of ep
// with lengths and the IPv4 checksum left zero.
func encodeHeaders(ep Endpoint) []byte {
	headerLen := ethernetLen + ipv4Len + udpLen
	if ep.VLAN != 0 {
		headerLen += vlanTagLen
	}
	header := make([]byte, 0, headerLen)
	header = append(header, ep.DstMAC[:]...)
	header = append(header, ep.SrcMAC[:]...)
	if ep.VLAN != 0 {
		header = binary.BigEndian.AppendUint16(header, etherTypeVLAN)
		header = binary.BigEndian.AppendUint16(header, ep.VLAN&0x0fff)
	}
	header = binary.BigEndian.AppendUint16(header, etherTypeIPv4)
	var (
		src = ep.SrcIP.As4()
		dst = ep.DstIP.As4()
	)
	header = append(header,
		0x45, 0, // Version 4, 5 word header; TOS.
		0, 0, // Total length.
		0, 0, // Identification.
		0x40, 0, // Don't fragment.
		64, protocolUDP,
		0, 0, // Checksum.
	)
	header = append(header, src[:]...)
	header = append(header, dst[:]...)
	header = binary.BigEndian.AppendUint16(header, ep.SrcPort)
	header = binary.BigEndian.AppendUint16(header, ep.DstPort)
	header = append(header,
		0, 0, // Length.
		0, 0, // Checksum, optional over IPv4.
	)
	return header
}

// checksum is the RFC 1071 ones' complement sum of header,
// whose checksum field must be zero.
func checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i:]))
	}
	if len(header)%2 == 1 {
		sum += uint32(header[len(header)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}
