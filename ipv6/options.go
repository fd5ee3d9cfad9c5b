package ipv6

import (
	"errors"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/tlv"
)

// OptionKind is the option type octet of the hop-by-hop and destination
// options alphabet. The top two bits encode the action a node must take on an
// unrecognized option; bit 5 marks options that may change in flight.
type OptionKind uint8

// Hop-by-hop and destination option kinds.
const (
	OptKindPad1         OptionKind = 0    // single zero octet of padding
	OptKindPadN         OptionKind = 1    // two or more octets of padding
	OptKindRouterAlert  OptionKind = 5    // router alert [RFC2711]
	OptKindJumboPayload OptionKind = 0xC2 // jumbo payload [RFC2675]
)

// UnrecognizedAction returns the two bits telling a node what to do with an
// unrecognized option: 0 skip, 1 discard, 2 discard+ICMP, 3 discard+ICMP
// unless multicast.
func (k OptionKind) UnrecognizedAction() uint8 { return uint8(k) >> 6 }

// MayChangeEnRoute reports whether the option data may be modified in flight.
func (k OptionKind) MayChangeEnRoute() bool { return k&0x20 != 0 }

// Option is a parsed hop-by-hop or destination option. Unlike the IPv4 and
// TCP alphabets, the wire length octet counts only the value bytes.
type Option interface {
	tlv.Option
	ipv6Option()
}

var scheme = tlv.NewScheme[Option](tlv.SchemeConfig{
	Name:                 "ipv6",
	EndKind:              -1, // alphabet has no terminator, padding is explicit
	PadKind:              int(OptKindPad1),
	LengthIncludesHeader: false,
})

func init() {
	scheme.RegisterSingleton(uint8(OptKindPad1), Option(OptionPad1{}))
	scheme.Register(uint8(OptKindPadN), decodePadN)
	scheme.Register(uint8(OptKindRouterAlert), decodeRouterAlert)
	scheme.Register(uint8(OptKindJumboPayload), decodeJumboPayload)
	scheme.RegisterUnknown(decodeUnknown)
	scheme.Freeze()
}

// Scheme returns the hop-by-hop/destination option registry.
func Scheme() *tlv.Scheme[Option] { return scheme }

// ParseOptions parses a hop-by-hop or destination option region, best-effort.
func ParseOptions(buf []byte) tlv.Options[Option] { return scheme.Parse(buf) }

var errOptionLength = errors.New("ipv6: bad option length")

// OptionPad1 is the single zero octet inserted to align following options.
type OptionPad1 struct{}

func (OptionPad1) Kind() uint8             { return uint8(OptKindPad1) }
func (OptionPad1) Length() int             { return 1 }
func (OptionPad1) AppearsAtMostOnce() bool { return false }
func (OptionPad1) ipv6Option()             {}

func (OptionPad1) Encode(dst []byte) int {
	dst[0] = uint8(OptKindPad1)
	return 1
}

// OptionPadN inserts two or more zero octets of padding.
type OptionPadN struct {
	N int // total option size including the 2-byte header
}

func (OptionPadN) Kind() uint8             { return uint8(OptKindPadN) }
func (o OptionPadN) Length() int           { return o.N }
func (OptionPadN) AppearsAtMostOnce() bool { return false }
func (OptionPadN) ipv6Option()             {}

func (o OptionPadN) Encode(dst []byte) int {
	dst[0] = uint8(OptKindPadN)
	dst[1] = uint8(o.N - 2)
	for i := 2; i < o.N; i++ {
		dst[i] = 0
	}
	return o.N
}

func decodePadN(_ uint8, value []byte) (Option, error) {
	return OptionPadN{N: 2 + len(value)}, nil
}

// OptionRouterAlert notifies routers to examine the packet even when not
// addressed to them. See RFC 2711.
type OptionRouterAlert struct {
	Value uint16
}

func (OptionRouterAlert) Kind() uint8             { return uint8(OptKindRouterAlert) }
func (OptionRouterAlert) Length() int             { return 4 }
func (OptionRouterAlert) AppearsAtMostOnce() bool { return true }
func (OptionRouterAlert) ipv6Option()             {}

func (o OptionRouterAlert) Encode(dst []byte) int {
	dst[0] = uint8(OptKindRouterAlert)
	dst[1] = 2
	pnet.BigEndian.PutUint16(dst[2:], o.Value)
	return 4
}

func decodeRouterAlert(_ uint8, value []byte) (Option, error) {
	if len(value) != 2 {
		return nil, errOptionLength
	}
	return OptionRouterAlert{Value: pnet.BigEndian.Uint16(value)}, nil
}

// OptionJumboPayload carries the 32-bit payload length of packets longer than
// 65535 octets; the fixed header's payload length field is zero. See RFC 2675.
type OptionJumboPayload struct {
	PayloadLength uint32
}

func (OptionJumboPayload) Kind() uint8             { return uint8(OptKindJumboPayload) }
func (OptionJumboPayload) Length() int             { return 6 }
func (OptionJumboPayload) AppearsAtMostOnce() bool { return true }
func (OptionJumboPayload) ipv6Option()             {}

func (o OptionJumboPayload) Encode(dst []byte) int {
	dst[0] = uint8(OptKindJumboPayload)
	dst[1] = 4
	pnet.BigEndian.PutUint32(dst[2:], o.PayloadLength)
	return 6
}

func decodeJumboPayload(_ uint8, value []byte) (Option, error) {
	if len(value) != 4 {
		return nil, errOptionLength
	}
	return OptionJumboPayload{PayloadLength: pnet.BigEndian.Uint32(value)}, nil
}

// OptionUnknown preserves the raw bytes of option kinds this build does not
// understand so they survive a decode/encode round trip.
type OptionUnknown struct {
	OptKind uint8
	Data    []byte
}

func (o OptionUnknown) Kind() uint8           { return o.OptKind }
func (o OptionUnknown) Length() int           { return 2 + len(o.Data) }
func (OptionUnknown) AppearsAtMostOnce() bool { return false }
func (OptionUnknown) ipv6Option()             {}

func (o OptionUnknown) Encode(dst []byte) int {
	dst[0] = o.OptKind
	dst[1] = uint8(len(o.Data))
	copy(dst[2:], o.Data)
	return o.Length()
}

func decodeUnknown(kind uint8, value []byte) (Option, error) {
	return OptionUnknown{OptKind: kind, Data: value}, nil
}
