package ipv4

// ToS represents the Traffic Class (a.k.a Type of Service) octet.
type ToS uint8

// DS returns the top 6 bits of the ToS holding the Differentiated Services
// field used to classify packets.
func (tos ToS) DS() uint8 { return uint8(tos) >> 2 }

// ECN is the Explicit Congestion Notification field providing end-to-end
// congestion notification without dropping packets.
func (tos ToS) ECN() uint8 { return uint8(tos) & 0b11 }

// Flags holds the fragmentation flag and offset data of an IPv4 header.
type Flags uint16

const (
	// FlagEvil is the reserved bit, never legitimately set.
	FlagEvil Flags = 0x8000
	// FlagDontFragment forbids fragmenting the datagram en route.
	FlagDontFragment Flags = 0x4000
	// FlagMoreFragments marks every fragment of a datagram but the last.
	FlagMoreFragments Flags = 0x2000
)

// IsEvil returns true if the reserved (evil) bit is set as per [RFC3514].
//
// [RFC3514]: https://datatracker.ietf.org/doc/html/rfc3514
func (f Flags) IsEvil() bool { return f&0x8000 != 0 }

// DontFragment specifies that the datagram can not be fragmented. If set and
// fragmentation is required to route the packet, the packet is dropped.
func (f Flags) DontFragment() bool { return f&0x4000 != 0 }

// MoreFragments is set on all fragments of a datagram except the last.
func (f Flags) MoreFragments() bool { return f&0x2000 != 0 }

// FragmentOffset specifies the offset of a fragment relative to the beginning
// of the original unfragmented datagram, in units of 8 bytes.
func (f Flags) FragmentOffset() uint16 { return uint16(f) & 0x1fff }
