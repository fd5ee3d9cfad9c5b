// Package pnet implements the zero-copy core of a packet-format library:
// bounds-checked views over raw byte buffers, endianness-explicit integer
// codecs and RFC 1071 checksum arithmetic. Per-protocol subpackages build
// typed frame views and TLV option alphabets on top of this core.
//
// Decoding never copies packet bytes: a [Segment] and every protocol frame is
// a view into the buffer it was created with. Buffers are treated as
// immutable once wrapped, so views may be shared freely between goroutines.
package pnet

import "strconv"

// EtherType is the two-octet field of an Ethernet frame identifying the
// protocol carried in the payload.
type EtherType uint16

// IsSize returns true if the EtherType is actually the size of the payload
// and should NOT be interpreted as an EtherType.
func (et EtherType) IsSize() bool { return et <= 1500 }

// Ethernet type flags
const (
	EtherTypeIPv4           EtherType = 0x0800
	EtherTypeARP            EtherType = 0x0806
	EtherTypeWakeOnLAN      EtherType = 0x0842
	EtherTypeRARP           EtherType = 0x8035
	EtherTypeVLAN           EtherType = 0x8100
	EtherTypeIPv6           EtherType = 0x86DD
	EtherTypeMPLSUnicast    EtherType = 0x8847
	EtherTypeMPLSMulticast  EtherType = 0x8848
	EtherTypePPPoEDiscovery EtherType = 0x8863
	EtherTypePPPoESession   EtherType = 0x8864
	EtherTypeServiceVLAN    EtherType = 0x88a8
	EtherTypePointToPoint   EtherType = 0x880b
)

func (et EtherType) String() string {
	switch et {
	case EtherTypeIPv4:
		return "IPv4"
	case EtherTypeARP:
		return "ARP"
	case EtherTypeWakeOnLAN:
		return "wake on LAN"
	case EtherTypeRARP:
		return "RARP"
	case EtherTypeVLAN:
		return "VLAN"
	case EtherTypeIPv6:
		return "IPv6"
	case EtherTypeMPLSUnicast:
		return "MPLS unicast"
	case EtherTypeMPLSMulticast:
		return "MPLS multicast"
	case EtherTypePPPoEDiscovery:
		return "PPPoE discovery"
	case EtherTypePPPoESession:
		return "PPPoE session"
	case EtherTypeServiceVLAN:
		return "service VLAN"
	case EtherTypePointToPoint:
		return "point to point"
	}
	if et.IsSize() {
		return "size=" + strconv.Itoa(int(et))
	}
	return "EtherType(0x" + strconv.FormatUint(uint64(et), 16) + ")"
}

// IPProto represents the IP protocol number, shared between the IPv4 protocol
// field and the IPv6 next-header chain.
type IPProto uint8

// IP protocol numbers.
const (
	IPProtoHopByHop     IPProto = 0   // IPv6 Hop-by-Hop Option [RFC8200]
	IPProtoICMP         IPProto = 1   // Internet Control Message [RFC792]
	IPProtoIGMP         IPProto = 2   // Internet Group Management [RFC1112]
	IPProtoIPv4         IPProto = 4   // IPv4 encapsulation [RFC2003]
	IPProtoTCP          IPProto = 6   // Transmission Control [RFC793]
	IPProtoUDP          IPProto = 17  // User Datagram [RFC768]
	IPProtoIPv6         IPProto = 41  // IPv6 encapsulation [RFC2473]
	IPProtoIPv6Routing  IPProto = 43  // IPv6 Routing header [RFC8200]
	IPProtoIPv6Fragment IPProto = 44  // IPv6 Fragment header [RFC8200]
	IPProtoGRE          IPProto = 47  // Generic Routing Encapsulation [RFC2784]
	IPProtoESP          IPProto = 50  // Encapsulating Security Payload [RFC4303]
	IPProtoAH           IPProto = 51  // Authentication Header [RFC4302]
	IPProtoICMPv6       IPProto = 58  // ICMP for IPv6 [RFC8200]
	IPProtoNoNextHeader IPProto = 59  // IPv6 no next header [RFC8200]
	IPProtoIPv6DestOpts IPProto = 60  // IPv6 Destination Options [RFC8200]
	IPProtoMobility     IPProto = 135 // Mobility header [RFC6275]
)

func (proto IPProto) String() string {
	switch proto {
	case IPProtoHopByHop:
		return "hop-by-hop"
	case IPProtoICMP:
		return "ICMP"
	case IPProtoIGMP:
		return "IGMP"
	case IPProtoIPv4:
		return "IPv4-in-IP"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	case IPProtoIPv6:
		return "IPv6-in-IP"
	case IPProtoIPv6Routing:
		return "IPv6 routing"
	case IPProtoIPv6Fragment:
		return "IPv6 fragment"
	case IPProtoGRE:
		return "GRE"
	case IPProtoESP:
		return "ESP"
	case IPProtoAH:
		return "AH"
	case IPProtoICMPv6:
		return "ICMPv6"
	case IPProtoNoNextHeader:
		return "no next header"
	case IPProtoIPv6DestOpts:
		return "IPv6 destination options"
	case IPProtoMobility:
		return "mobility"
	}
	return "IPProto(" + strconv.Itoa(int(proto)) + ")"
}

// IsIPv6Extension reports whether proto names an IPv6 extension header that
// carries its own next-header field, forming the extension header chain.
func (proto IPProto) IsIPv6Extension() bool {
	switch proto {
	case IPProtoHopByHop, IPProtoIPv6Routing, IPProtoIPv6Fragment,
		IPProtoIPv6DestOpts, IPProtoMobility, IPProtoAH:
		return true
	}
	return false
}
