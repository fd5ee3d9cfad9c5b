package ipv4

import (
	"errors"
	"net/netip"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/tlv"
)

// OptionKind is the IPv4 option type octet: copied flag (bit 7), class
// (bits 6-5) and number (bits 4-0).
type OptionKind uint8

// IPv4 option kinds.
const (
	OptKindEnd               OptionKind = 0   // end of option list
	OptKindNoOp              OptionKind = 1   // no-operation
	OptKindRecordRoute       OptionKind = 7   // record route
	OptKindTimestamp         OptionKind = 68  // internet timestamp
	OptKindBasicSecurity     OptionKind = 130 // basic security
	OptKindLooseSourceRoute  OptionKind = 131 // loose source routing
	OptKindStreamID          OptionKind = 136 // stream identifier
	OptKindStrictSourceRoute OptionKind = 137 // strict source routing
	OptKindRouterAlert       OptionKind = 148 // router alert
)

// Copied reports whether the option is copied into all fragments.
func (k OptionKind) Copied() bool { return k&0x80 != 0 }

// Class returns the option class bits (0 control, 2 debugging/measurement).
func (k OptionKind) Class() uint8 { return uint8(k>>5) & 0b11 }

// Option is a parsed IPv4 header option.
type Option interface {
	tlv.Option
	ipv4Option()
}

var scheme = tlv.NewScheme[Option](tlv.SchemeConfig{
	Name:                 "ipv4",
	EndKind:              int(OptKindEnd),
	PadKind:              int(OptKindNoOp),
	LengthIncludesHeader: true,
})

func init() {
	scheme.RegisterSingleton(uint8(OptKindNoOp), Option(OptionNoOp{}))
	scheme.Register(uint8(OptKindRouterAlert), decodeRouterAlert)
	scheme.Register(uint8(OptKindStreamID), decodeStreamID)
	scheme.Register(uint8(OptKindBasicSecurity), decodeBasicSecurity)
	scheme.Register(uint8(OptKindRecordRoute), decodeRoute)
	scheme.Register(uint8(OptKindLooseSourceRoute), decodeRoute)
	scheme.Register(uint8(OptKindStrictSourceRoute), decodeRoute)
	scheme.Register(uint8(OptKindTimestamp), decodeTimestamp)
	scheme.RegisterUnknown(decodeUnknown)
	scheme.Freeze()
}

// Scheme returns the IPv4 option registry.
func Scheme() *tlv.Scheme[Option] { return scheme }

// ParseOptions parses the IPv4 option region in buf, best-effort.
func ParseOptions(buf []byte) tlv.Options[Option] { return scheme.Parse(buf) }

// Options parses the frame's option region. Be sure to call
// [Frame.ValidateSize] beforehand to avoid panics on a bad IHL.
func (ifrm Frame) Options() tlv.Options[Option] {
	return ParseOptions(ifrm.OptionBytes())
}

var (
	errOptionLength = errors.New("ipv4: bad option length")
	errRouteFull    = errors.New("ipv4: route option full")
)

// OptionNoOp is the single-byte no-operation option used for alignment
// padding between options.
type OptionNoOp struct{}

func (OptionNoOp) Kind() uint8             { return uint8(OptKindNoOp) }
func (OptionNoOp) Length() int             { return 1 }
func (OptionNoOp) AppearsAtMostOnce() bool { return false }
func (OptionNoOp) ipv4Option()             {}

func (OptionNoOp) Encode(dst []byte) int {
	dst[0] = uint8(OptKindNoOp)
	return 1
}

// OptionRouterAlert notifies routers to examine the packet contents even when
// not addressed to them. See RFC 2113. Value 0 means "examine packet".
type OptionRouterAlert struct {
	Value uint16
}

func (OptionRouterAlert) Kind() uint8             { return uint8(OptKindRouterAlert) }
func (OptionRouterAlert) Length() int             { return 4 }
func (OptionRouterAlert) AppearsAtMostOnce() bool { return true }
func (OptionRouterAlert) ipv4Option()             {}

func (o OptionRouterAlert) Encode(dst []byte) int {
	dst[0] = uint8(OptKindRouterAlert)
	dst[1] = 4
	pnet.BigEndian.PutUint16(dst[2:], o.Value)
	return 4
}

func decodeRouterAlert(_ uint8, value []byte) (Option, error) {
	if len(value) != 2 {
		return nil, errOptionLength
	}
	return OptionRouterAlert{Value: pnet.BigEndian.Uint16(value)}, nil
}

// OptionStreamID carries the SATNET stream identifier. See RFC 791.
type OptionStreamID struct {
	ID uint16
}

func (OptionStreamID) Kind() uint8             { return uint8(OptKindStreamID) }
func (OptionStreamID) Length() int             { return 4 }
func (OptionStreamID) AppearsAtMostOnce() bool { return true }
func (OptionStreamID) ipv4Option()             {}

func (o OptionStreamID) Encode(dst []byte) int {
	dst[0] = uint8(OptKindStreamID)
	dst[1] = 4
	pnet.BigEndian.PutUint16(dst[2:], o.ID)
	return 4
}

func decodeStreamID(_ uint8, value []byte) (Option, error) {
	if len(value) != 2 {
		return nil, errOptionLength
	}
	return OptionStreamID{ID: pnet.BigEndian.Uint16(value)}, nil
}

// OptionBasicSecurity carries the DoD basic security markings of RFC 791
// section 3.1: classification level, compartments, handling restrictions and
// a 24-bit transmission control code.
type OptionBasicSecurity struct {
	ClassificationLevel  uint16
	Compartments         uint16
	HandlingRestrictions uint16
	TransmissionControl  uint32 // 24-bit
}

func (OptionBasicSecurity) Kind() uint8             { return uint8(OptKindBasicSecurity) }
func (OptionBasicSecurity) Length() int             { return 11 }
func (OptionBasicSecurity) AppearsAtMostOnce() bool { return true }
func (OptionBasicSecurity) ipv4Option()             {}

func (o OptionBasicSecurity) Encode(dst []byte) int {
	dst[0] = uint8(OptKindBasicSecurity)
	dst[1] = 11
	pnet.BigEndian.PutUint16(dst[2:], o.ClassificationLevel)
	pnet.BigEndian.PutUint16(dst[4:], o.Compartments)
	pnet.BigEndian.PutUint16(dst[6:], o.HandlingRestrictions)
	pnet.BigEndian.PutUint24(dst[8:], o.TransmissionControl)
	return 11
}

func decodeBasicSecurity(_ uint8, value []byte) (Option, error) {
	if len(value) != 9 {
		return nil, errOptionLength
	}
	return OptionBasicSecurity{
		ClassificationLevel:  pnet.BigEndian.Uint16(value[0:]),
		Compartments:         pnet.BigEndian.Uint16(value[2:]),
		HandlingRestrictions: pnet.BigEndian.Uint16(value[4:]),
		TransmissionControl:  pnet.BigEndian.Uint24(value[6:]),
	}, nil
}

// OptionRoute is the shared layout of the record-route, loose-source-route
// and strict-source-route options: a pointer into a list of IPv4 addresses.
type OptionRoute struct {
	kind    OptionKind
	Pointer uint8
	Hops    []netip.Addr
}

// NewRouteOption builds a route option for the outbound path. kind must be
// one of the three route kinds and the hop list must fit the option's 255
// byte limit; violating either is a caller bug and returns an error.
func NewRouteOption(kind OptionKind, pointer uint8, hops []netip.Addr) (OptionRoute, error) {
	switch kind {
	case OptKindRecordRoute, OptKindLooseSourceRoute, OptKindStrictSourceRoute:
	default:
		return OptionRoute{}, pnet.ErrInvalidField
	}
	if 3+4*len(hops) > 255 {
		return OptionRoute{}, errRouteFull
	}
	for _, h := range hops {
		if !h.Is4() {
			return OptionRoute{}, pnet.ErrInvalidField
		}
	}
	return OptionRoute{kind: kind, Pointer: pointer, Hops: hops}, nil
}

func (o OptionRoute) Kind() uint8             { return uint8(o.kind) }
func (o OptionRoute) Length() int             { return 3 + 4*len(o.Hops) }
func (OptionRoute) AppearsAtMostOnce() bool   { return true }
func (OptionRoute) ipv4Option()               {}

func (o OptionRoute) Encode(dst []byte) int {
	dst[0] = uint8(o.kind)
	dst[1] = uint8(o.Length())
	dst[2] = o.Pointer
	off := 3
	for _, h := range o.Hops {
		a := h.As4()
		copy(dst[off:off+4], a[:])
		off += 4
	}
	return off
}

func decodeRoute(kind uint8, value []byte) (Option, error) {
	// value is pointer octet plus a whole number of IPv4 addresses.
	if len(value) < 1 || (len(value)-1)%4 != 0 {
		return nil, errOptionLength
	}
	o := OptionRoute{kind: OptionKind(kind), Pointer: value[0]}
	for off := 1; off < len(value); off += 4 {
		o.Hops = append(o.Hops, netip.AddrFrom4([4]byte(value[off:off+4])))
	}
	return o, nil
}

// OptionTimestamp is the internet timestamp option of RFC 791. The entry area
// is kept as raw bytes since its interpretation (timestamps only, or
// address+timestamp pairs) depends on the flag bits.
type OptionTimestamp struct {
	Pointer  uint8
	Overflow uint8 // top 4 bits of octet 3
	TsFlags  uint8 // low 4 bits of octet 3
	Entries  []byte
}

func (OptionTimestamp) Kind() uint8             { return uint8(OptKindTimestamp) }
func (o OptionTimestamp) Length() int           { return 4 + len(o.Entries) }
func (OptionTimestamp) AppearsAtMostOnce() bool { return true }
func (OptionTimestamp) ipv4Option()             {}

func (o OptionTimestamp) Encode(dst []byte) int {
	dst[0] = uint8(OptKindTimestamp)
	dst[1] = uint8(o.Length())
	dst[2] = o.Pointer
	dst[3] = o.Overflow<<4 | o.TsFlags&0xf
	copy(dst[4:], o.Entries)
	return o.Length()
}

func decodeTimestamp(_ uint8, value []byte) (Option, error) {
	if len(value) < 2 || (len(value)-2)%4 != 0 {
		return nil, errOptionLength
	}
	return OptionTimestamp{
		Pointer:  value[0],
		Overflow: value[1] >> 4,
		TsFlags:  value[1] & 0xf,
		Entries:  value[2:],
	}, nil
}

// OptionUnknown preserves the raw bytes of option kinds this build does not
// understand so they survive a decode/encode round trip.
type OptionUnknown struct {
	OptKind uint8
	Data    []byte
}

func (o OptionUnknown) Kind() uint8             { return o.OptKind }
func (o OptionUnknown) Length() int             { return 2 + len(o.Data) }
func (OptionUnknown) AppearsAtMostOnce() bool   { return false }
func (OptionUnknown) ipv4Option()               {}

func (o OptionUnknown) Encode(dst []byte) int {
	dst[0] = o.OptKind
	dst[1] = uint8(o.Length())
	copy(dst[2:], o.Data)
	return o.Length()
}

func decodeUnknown(kind uint8, value []byte) (Option, error) {
	return OptionUnknown{OptKind: kind, Data: value}, nil
}
