package ipv6

import (
	"errors"
	"net/netip"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/tlv"
)

// MobilityType identifies the mobility header message. See [RFC6275].
//
// [RFC6275]: https://datatracker.ietf.org/doc/html/rfc6275
type MobilityType uint8

// Mobility header message types.
const (
	MobilityBindingRefreshRequest MobilityType = 0 // binding refresh request
	MobilityHomeTestInit          MobilityType = 1 // home test init
	MobilityCareOfTestInit        MobilityType = 2 // care-of test init
	MobilityHomeTest              MobilityType = 3 // home test
	MobilityCareOfTest            MobilityType = 4 // care-of test
	MobilityBindingUpdate         MobilityType = 5 // binding update
	MobilityBindingAck            MobilityType = 6 // binding acknowledgement
	MobilityBindingError          MobilityType = 7 // binding error
)

const sizeMobilityFixed = 6

var (
	errShortMobility = errors.New("ipv6: short mobility header")
	errMobilityData  = errors.New("ipv6: short mobility message data")
)

// NewMobilityFrame returns a view over a mobility extension header.
// buf spans the whole extension header as delimited by its length octet,
// which [ChainIter] already guarantees for headers it yields.
func NewMobilityFrame(buf []byte) (MobilityFrame, error) {
	if len(buf) < 8 {
		return MobilityFrame{}, errShortMobility
	}
	return MobilityFrame{buf: buf}, nil
}

// MobilityFrame encapsulates the raw data of an RFC 6275 mobility header:
// the fixed fields, the per-type message data and the mobility options that
// follow it.
type MobilityFrame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (mfrm MobilityFrame) RawData() []byte { return mfrm.buf }

// PayloadProto returns the type of the header following this one. Always
// [pnet.IPProtoNoNextHeader] in RFC 6275 usage.
func (mfrm MobilityFrame) PayloadProto() pnet.IPProto { return pnet.IPProto(mfrm.buf[0]) }

// HeaderLength returns the total header length in bytes as declared by the
// length octet.
func (mfrm MobilityFrame) HeaderLength() int { return (int(mfrm.buf[1]) + 1) * 8 }

// Type returns the mobility message type.
func (mfrm MobilityFrame) Type() MobilityType { return MobilityType(mfrm.buf[2]) }

// SetType sets the mobility message type octet.
func (mfrm MobilityFrame) SetType(t MobilityType) { mfrm.buf[2] = uint8(t) }

// CRC returns the checksum field of the mobility header.
func (mfrm MobilityFrame) CRC() uint16 {
	return pnet.BigEndian.Uint16(mfrm.buf[4:6])
}

// SetCRC sets the checksum field of the mobility header. The mobility
// checksum covers an IPv6 pseudo-header plus the whole mobility header.
func (mfrm MobilityFrame) SetCRC(cs uint16) {
	pnet.BigEndian.PutUint16(mfrm.buf[4:6], cs)
}

// MessageData returns the bytes after the fixed fields: per-type message
// fields followed by mobility options.
func (mfrm MobilityFrame) MessageData() []byte {
	return mfrm.buf[sizeMobilityFixed:mfrm.HeaderLength()]
}

// fixedDataLength returns the size of the per-type message fields preceding
// the mobility options, including the 2 reserved octets shared by all types.
func (t MobilityType) fixedDataLength() int {
	switch t {
	case MobilityBindingRefreshRequest:
		return 2
	case MobilityHomeTestInit, MobilityCareOfTestInit:
		return 2 + 8
	case MobilityHomeTest, MobilityCareOfTest:
		return 2 + 16
	case MobilityBindingUpdate:
		return 6
	case MobilityBindingAck:
		return 6
	case MobilityBindingError:
		return 2 + 16
	}
	return -1
}

// OptionBytes returns the mobility option region following the per-type
// message fields, or an error for unknown types whose layout this build
// cannot delimit.
func (mfrm MobilityFrame) OptionBytes() ([]byte, error) {
	fixed := mfrm.Type().fixedDataLength()
	if fixed < 0 {
		return nil, pnet.ErrInvalidField
	}
	data := mfrm.MessageData()
	if fixed > len(data) {
		return nil, errMobilityData
	}
	return data[fixed:], nil
}

// Options parses the mobility option region, best-effort. Unknown mobility
// message types yield an invalid empty list since their option region cannot
// be located.
func (mfrm MobilityFrame) Options() tlv.Options[MobilityOption] {
	region, err := mfrm.OptionBytes()
	if err != nil {
		return tlv.Options[MobilityOption]{}
	}
	return mobilityScheme.Parse(region)
}

// ValidateSize checks the header's declared length against the buffer and
// the per-type fixed fields. It adds an error to v on inconsistency.
func (mfrm MobilityFrame) ValidateSize(v *pnet.Validator) {
	hl := mfrm.HeaderLength()
	if hl > len(mfrm.buf) {
		v.AddError(errShortMobility)
		return
	}
	if fixed := mfrm.Type().fixedDataLength(); fixed >= 0 && sizeMobilityFixed+fixed > hl {
		v.AddError(errMobilityData)
	}
}

//
// Mobility option alphabet. Same value-only length convention as the
// hop-by-hop alphabet, with its own kind space and registry.
//

// MobilityOptionKind is the mobility option type octet.
type MobilityOptionKind uint8

// Mobility option kinds.
const (
	MobOptPad1              MobilityOptionKind = 0 // single octet of padding
	MobOptPadN              MobilityOptionKind = 1 // multi-octet padding
	MobOptBindingRefresh    MobilityOptionKind = 2 // binding refresh advice
	MobOptAlternateCareOf   MobilityOptionKind = 3 // alternate care-of address
	MobOptNonceIndices      MobilityOptionKind = 4 // nonce indices
	MobOptBindingAuthData   MobilityOptionKind = 5 // binding authorization data
)

// MobilityOption is a parsed mobility option.
type MobilityOption interface {
	tlv.Option
	mobilityOption()
}

var mobilityScheme = tlv.NewScheme[MobilityOption](tlv.SchemeConfig{
	Name:                 "ipv6-mobility",
	EndKind:              -1,
	PadKind:              int(MobOptPad1),
	LengthIncludesHeader: false,
})

func init() {
	mobilityScheme.RegisterSingleton(uint8(MobOptPad1), MobilityOption(MobilityPad1{}))
	mobilityScheme.Register(uint8(MobOptPadN), decodeMobilityPadN)
	mobilityScheme.Register(uint8(MobOptBindingRefresh), decodeBindingRefresh)
	mobilityScheme.Register(uint8(MobOptAlternateCareOf), decodeAlternateCareOf)
	mobilityScheme.Register(uint8(MobOptNonceIndices), decodeNonceIndices)
	mobilityScheme.Register(uint8(MobOptBindingAuthData), decodeBindingAuthData)
	mobilityScheme.RegisterUnknown(decodeMobilityUnknown)
	mobilityScheme.Freeze()
}

// MobilityScheme returns the mobility option registry.
func MobilityScheme() *tlv.Scheme[MobilityOption] { return mobilityScheme }

// ParseMobilityOptions parses a mobility option region, best-effort.
func ParseMobilityOptions(buf []byte) tlv.Options[MobilityOption] {
	return mobilityScheme.Parse(buf)
}

// MobilityPad1 is the single zero octet inserted to align following options.
type MobilityPad1 struct{}

func (MobilityPad1) Kind() uint8             { return uint8(MobOptPad1) }
func (MobilityPad1) Length() int             { return 1 }
func (MobilityPad1) AppearsAtMostOnce() bool { return false }
func (MobilityPad1) mobilityOption()         {}

func (MobilityPad1) Encode(dst []byte) int {
	dst[0] = uint8(MobOptPad1)
	return 1
}

// MobilityPadN inserts two or more zero octets of padding.
type MobilityPadN struct {
	N int // total option size including the 2-byte header
}

func (MobilityPadN) Kind() uint8             { return uint8(MobOptPadN) }
func (o MobilityPadN) Length() int           { return o.N }
func (MobilityPadN) AppearsAtMostOnce() bool { return false }
func (MobilityPadN) mobilityOption()         {}

func (o MobilityPadN) Encode(dst []byte) int {
	dst[0] = uint8(MobOptPadN)
	dst[1] = uint8(o.N - 2)
	for i := 2; i < o.N; i++ {
		dst[i] = 0
	}
	return o.N
}

func decodeMobilityPadN(_ uint8, value []byte) (MobilityOption, error) {
	return MobilityPadN{N: 2 + len(value)}, nil
}

// MobilityBindingRefreshAdvice suggests how long before binding expiry the
// mobile node should send a new binding update, in units of 4 seconds.
type MobilityBindingRefreshAdvice struct {
	RefreshInterval uint16
}

func (MobilityBindingRefreshAdvice) Kind() uint8             { return uint8(MobOptBindingRefresh) }
func (MobilityBindingRefreshAdvice) Length() int             { return 4 }
func (MobilityBindingRefreshAdvice) AppearsAtMostOnce() bool { return true }
func (MobilityBindingRefreshAdvice) mobilityOption()         {}

func (o MobilityBindingRefreshAdvice) Encode(dst []byte) int {
	dst[0] = uint8(MobOptBindingRefresh)
	dst[1] = 2
	pnet.BigEndian.PutUint16(dst[2:], o.RefreshInterval)
	return 4
}

func decodeBindingRefresh(_ uint8, value []byte) (MobilityOption, error) {
	if len(value) != 2 {
		return nil, errOptionLength
	}
	return MobilityBindingRefreshAdvice{RefreshInterval: pnet.BigEndian.Uint16(value)}, nil
}

// MobilityAlternateCareOfAddress carries a care-of address different from the
// packet's source address.
type MobilityAlternateCareOfAddress struct {
	Addr netip.Addr
}

func (MobilityAlternateCareOfAddress) Kind() uint8             { return uint8(MobOptAlternateCareOf) }
func (MobilityAlternateCareOfAddress) Length() int             { return 18 }
func (MobilityAlternateCareOfAddress) AppearsAtMostOnce() bool { return true }
func (MobilityAlternateCareOfAddress) mobilityOption()         {}

func (o MobilityAlternateCareOfAddress) Encode(dst []byte) int {
	dst[0] = uint8(MobOptAlternateCareOf)
	dst[1] = 16
	a := o.Addr.As16()
	copy(dst[2:18], a[:])
	return 18
}

func decodeAlternateCareOf(_ uint8, value []byte) (MobilityOption, error) {
	if len(value) != 16 {
		return nil, errOptionLength
	}
	return MobilityAlternateCareOfAddress{Addr: netip.AddrFrom16([16]byte(value))}, nil
}

// MobilityNonceIndices tells the correspondent node which nonces to use when
// verifying the binding authorization data.
type MobilityNonceIndices struct {
	HomeNonceIndex   uint16
	CareOfNonceIndex uint16
}

func (MobilityNonceIndices) Kind() uint8             { return uint8(MobOptNonceIndices) }
func (MobilityNonceIndices) Length() int             { return 6 }
func (MobilityNonceIndices) AppearsAtMostOnce() bool { return true }
func (MobilityNonceIndices) mobilityOption()         {}

func (o MobilityNonceIndices) Encode(dst []byte) int {
	dst[0] = uint8(MobOptNonceIndices)
	dst[1] = 4
	pnet.BigEndian.PutUint16(dst[2:], o.HomeNonceIndex)
	pnet.BigEndian.PutUint16(dst[4:], o.CareOfNonceIndex)
	return 6
}

func decodeNonceIndices(_ uint8, value []byte) (MobilityOption, error) {
	if len(value) != 4 {
		return nil, errOptionLength
	}
	return MobilityNonceIndices{
		HomeNonceIndex:   pnet.BigEndian.Uint16(value[0:]),
		CareOfNonceIndex: pnet.BigEndian.Uint16(value[2:]),
	}, nil
}

// MobilityBindingAuthorizationData carries the authenticator proving the
// binding update came from the mobile node.
type MobilityBindingAuthorizationData struct {
	Authenticator []byte
}

func (MobilityBindingAuthorizationData) Kind() uint8             { return uint8(MobOptBindingAuthData) }
func (o MobilityBindingAuthorizationData) Length() int           { return 2 + len(o.Authenticator) }
func (MobilityBindingAuthorizationData) AppearsAtMostOnce() bool { return true }
func (MobilityBindingAuthorizationData) mobilityOption()         {}

func (o MobilityBindingAuthorizationData) Encode(dst []byte) int {
	dst[0] = uint8(MobOptBindingAuthData)
	dst[1] = uint8(len(o.Authenticator))
	copy(dst[2:], o.Authenticator)
	return o.Length()
}

func decodeBindingAuthData(_ uint8, value []byte) (MobilityOption, error) {
	return MobilityBindingAuthorizationData{Authenticator: value}, nil
}

// MobilityOptionUnknown preserves the raw bytes of option kinds this build
// does not understand so they survive a decode/encode round trip.
type MobilityOptionUnknown struct {
	OptKind uint8
	Data    []byte
}

func (o MobilityOptionUnknown) Kind() uint8           { return o.OptKind }
func (o MobilityOptionUnknown) Length() int           { return 2 + len(o.Data) }
func (MobilityOptionUnknown) AppearsAtMostOnce() bool { return false }
func (MobilityOptionUnknown) mobilityOption()         {}

func (o MobilityOptionUnknown) Encode(dst []byte) int {
	dst[0] = o.OptKind
	dst[1] = uint8(len(o.Data))
	copy(dst[2:], o.Data)
	return o.Length()
}

func decodeMobilityUnknown(kind uint8, value []byte) (MobilityOption, error) {
	return MobilityOptionUnknown{OptKind: kind, Data: value}, nil
}
