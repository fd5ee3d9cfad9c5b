// Package igmp provides a zero-copy view over IGMP messages: the common
// v1/v2 8-byte layout, the v3 membership query extensions and the v3
// membership report. See [RFC2236] and [RFC3376].
//
// [RFC2236]: https://tools.ietf.org/html/rfc2236
// [RFC3376]: https://tools.ietf.org/html/rfc3376
package igmp

import (
	"errors"
	"time"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/tlv"
)

// Type is the IGMP message type octet.
type Type uint8

const (
	TypeMembershipQuery    Type = 0x11 // membership query, any version
	TypeMembershipReportV1 Type = 0x12 // version 1 membership report
	TypeMembershipReportV2 Type = 0x16 // version 2 membership report
	TypeLeaveGroup         Type = 0x17 // version 2 leave group
	TypeMembershipReportV3 Type = 0x22 // version 3 membership report
)

// String returns a human readable representation of the message type.
func (t Type) String() string {
	switch t {
	case TypeMembershipQuery:
		return "membership query"
	case TypeMembershipReportV1:
		return "v1 membership report"
	case TypeMembershipReportV2:
		return "v2 membership report"
	case TypeLeaveGroup:
		return "leave group"
	case TypeMembershipReportV3:
		return "v3 membership report"
	}
	return "unknown"
}

const (
	sizeHeader  = 8
	sizeQueryV3 = 12
)

var (
	errShortFrame = errors.New("igmp: short frame")
	errShortQuery = errors.New("igmp: short v3 query")
	errShortV3    = errors.New("igmp: source list exceeds frame")
)

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer size is smaller than 8.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an IGMP message
// and provides methods for manipulating, validating and
// retrieving fields and payload data.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (frm Frame) RawData() []byte { return frm.buf }

// Type returns the message type octet.
func (frm Frame) Type() Type { return Type(frm.buf[0]) }

// SetType sets the message type octet.
func (frm Frame) SetType(t Type) { frm.buf[0] = uint8(t) }

// MaxResponseCode returns the raw max response code octet, meaningful only in
// membership queries. See [MaxResponseCode.Duration].
func (frm Frame) MaxResponseCode() MaxResponseCode {
	return MaxResponseCode(frm.buf[1])
}

// SetMaxResponseCode sets the max response code octet.
func (frm Frame) SetMaxResponseCode(code MaxResponseCode) {
	frm.buf[1] = uint8(code)
}

// CRC returns the checksum field of the frame.
func (frm Frame) CRC() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[2:4])
}

// SetCRC sets the checksum field of the frame.
func (frm Frame) SetCRC(crc uint16) {
	pnet.BigEndian.PutUint16(frm.buf[2:4], crc)
}

// CalculateCRC computes the checksum of the whole message with the checksum
// field treated as zero. IGMP carries no pseudo-header.
func (frm Frame) CalculateCRC() uint16 {
	var crc pnet.CRC791
	crc.AddUint16(pnet.BigEndian.Uint16(frm.buf[0:2]))
	return crc.PayloadSum16(frm.buf[4:])
}

// VerifyCRC reports whether the stored checksum matches the message contents.
func (frm Frame) VerifyCRC() bool {
	return pnet.VerifyChecksum16(frm.buf, 2)
}

// GroupAddr returns pointer to the multicast group address field. Zero in
// general queries.
func (frm Frame) GroupAddr() *[4]byte {
	return (*[4]byte)(frm.buf[4:8])
}

// IsQueryV3 reports whether the message is a version 3 membership query,
// distinguished from v1/v2 queries by its 12-byte minimum size.
func (frm Frame) IsQueryV3() bool {
	return frm.Type() == TypeMembershipQuery && len(frm.buf) >= sizeQueryV3
}

// ClearHeader zeros out the common 8-byte header.
func (frm Frame) ClearHeader() {
	for i := range frm.buf[:sizeHeader] {
		frm.buf[i] = 0
	}
}

// ValidateSize checks the frame's size fields and compares with the actual
// buffer. It adds an error to v on finding an inconsistency.
func (frm Frame) ValidateSize(v *pnet.Validator) {
	if len(frm.buf) < sizeHeader {
		v.AddError(errShortFrame)
		return
	}
	if frm.IsQueryV3() {
		q := FrameQueryV3{frm}
		if sizeQueryV3+4*int(q.NumberOfSources()) > len(frm.buf) {
			v.AddError(errShortV3)
		}
	}
}

// MaxResponseCode encodes the maximum allowed response delay in tenths of a
// second. Values below 128 are literal; from 128 on, version 3 packs a
// floating point mantissa/exponent pair into the octet.
type MaxResponseCode uint8

// Tenths returns the delay in tenths of a second, decoding the v3
// mantissa/exponent form for values of 128 and above.
func (c MaxResponseCode) Tenths() uint32 {
	if c < 128 {
		return uint32(c)
	}
	mant := uint32(c) & 0x0f
	exp := (uint32(c) >> 4) & 0x07
	return (mant | 0x10) << (exp + 3)
}

// Duration returns the decoded delay as a time.Duration.
func (c MaxResponseCode) Duration() time.Duration {
	return time.Duration(c.Tenths()) * time.Second / 10
}

// FrameQueryV3 is the version 3 membership query view with the fields
// RFC 3376 appends after the common header.
type FrameQueryV3 struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameQueryV3) Header() Frame { return frm.Frame }

// SuppressRouterProcessing returns the S flag telling receiving routers to
// skip the timer updates they would normally perform.
func (frm FrameQueryV3) SuppressRouterProcessing() bool {
	return frm.buf[8]&0x08 != 0
}

// QuerierRobustnessVariable returns the QRV field, the querier's expected
// packet loss tuning knob. Zero means "out of range".
func (frm FrameQueryV3) QuerierRobustnessVariable() uint8 {
	return frm.buf[8] & 0x07
}

// SetFlagsAndQRV packs the S flag and QRV into their shared octet.
func (frm FrameQueryV3) SetFlagsAndQRV(suppress bool, qrv uint8) {
	b := qrv & 0x07
	if suppress {
		b |= 0x08
	}
	frm.buf[8] = b
}

// QueriersQueryIntervalCode returns the QQIC octet, encoded like
// [MaxResponseCode] but in whole seconds.
func (frm FrameQueryV3) QueriersQueryIntervalCode() MaxResponseCode {
	return MaxResponseCode(frm.buf[9])
}

// QueriersQueryInterval returns the decoded query interval.
func (frm FrameQueryV3) QueriersQueryInterval() time.Duration {
	return time.Duration(frm.QueriersQueryIntervalCode().Tenths()) * time.Second
}

// NumberOfSources returns the number of source addresses in the query.
func (frm FrameQueryV3) NumberOfSources() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[10:12])
}

// SourceAddr returns pointer to the i-th source address. Call
// [Frame.ValidateSize] beforehand to avoid panics.
func (frm FrameQueryV3) SourceAddr(i int) *[4]byte {
	off := sizeQueryV3 + 4*i
	return (*[4]byte)(frm.buf[off : off+4])
}

// RecordType is the group record type of a v3 membership report.
type RecordType uint8

const (
	RecordModeIsInclude RecordType = 1 + iota // current state, include filter
	RecordModeIsExclude                       // current state, exclude filter
	RecordChangeToInclude                     // filter change to include
	RecordChangeToExclude                     // filter change to exclude
	RecordAllowNewSources                     // source list addition
	RecordBlockOldSources                     // source list removal
)

// FrameReportV3 is the version 3 membership report view. Its layout replaces
// the common header's group address with a record count followed by
// variable-size group records.
type FrameReportV3 struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameReportV3) Header() Frame { return frm.Frame }

// NumberOfRecords returns the number of group records in the report.
func (frm FrameReportV3) NumberOfRecords() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[6:8])
}

// GroupRecord is a parsed view over one group record of a v3 report. Raw
// aliases the message buffer.
type GroupRecord struct {
	Raw []byte
}

// Type returns the record type.
func (gr GroupRecord) Type() RecordType { return RecordType(gr.Raw[0]) }

// AuxDataLen returns the trailing auxiliary data length in 32-bit words.
func (gr GroupRecord) AuxDataLen() uint8 { return gr.Raw[1] }

// NumberOfSources returns the number of source addresses in the record.
func (gr GroupRecord) NumberOfSources() uint16 {
	return pnet.BigEndian.Uint16(gr.Raw[2:4])
}

// MulticastAddr returns pointer to the record's multicast group address.
func (gr GroupRecord) MulticastAddr() *[4]byte {
	return (*[4]byte)(gr.Raw[4:8])
}

// SourceAddr returns pointer to the i-th source address of the record.
func (gr GroupRecord) SourceAddr(i int) *[4]byte {
	off := 8 + 4*i
	return (*[4]byte)(gr.Raw[off : off+4])
}

func (gr GroupRecord) size() int {
	return 8 + 4*int(gr.NumberOfSources()) + 4*int(gr.AuxDataLen())
}

// Records appends the report's group records to dst and returns the extended
// slice. An error is returned when a record overruns the buffer; records
// appended up to that point remain valid.
func (frm FrameReportV3) Records(dst []GroupRecord) ([]GroupRecord, error) {
	rem := frm.buf[sizeHeader:]
	for i := uint16(0); i < frm.NumberOfRecords(); i++ {
		if len(rem) < 8 {
			return dst, errShortFrame
		}
		gr := GroupRecord{Raw: rem}
		sz := gr.size()
		if sz > len(rem) {
			return dst, errShortFrame
		}
		gr.Raw = rem[:sz]
		dst = append(dst, gr)
		rem = rem[sz:]
	}
	return dst, nil
}

// Message is a typed view over an IGMP message. Concrete types are
// [FrameQueryV3], [FrameReportV3], [FrameV2] and [FrameUnknown].
type Message interface {
	// Header returns the untyped view the message was built from.
	Header() Frame
}

// FrameV2 covers the fixed 8-byte messages: v1/v2 reports, v1/v2 queries and
// leave group. All fields live on the embedded common view.
type FrameV2 struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameV2) Header() Frame { return frm.Frame }

// FrameUnknown preserves messages of types this build does not understand.
type FrameUnknown struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameUnknown) Header() Frame { return frm.Frame }

type messageClass struct {
	minLen int
	wrap   func(Frame) Message
}

var messages = tlv.NewTypeRegistry[Type, messageClass]("igmp")

func register(t Type, minLen int, wrap func(Frame) Message) {
	messages.Register(t, messageClass{minLen: minLen, wrap: wrap})
}

func init() {
	register(TypeMembershipQuery, sizeHeader, func(f Frame) Message {
		if f.IsQueryV3() {
			return FrameQueryV3{f}
		}
		return FrameV2{f}
	})
	register(TypeMembershipReportV1, sizeHeader, func(f Frame) Message { return FrameV2{f} })
	register(TypeMembershipReportV2, sizeHeader, func(f Frame) Message { return FrameV2{f} })
	register(TypeLeaveGroup, sizeHeader, func(f Frame) Message { return FrameV2{f} })
	register(TypeMembershipReportV3, sizeHeader, func(f Frame) Message { return FrameReportV3{f} })
	messages.Freeze()
}

// Message dispatches the frame to its typed view by message type. Types not
// in the registry yield [FrameUnknown].
func (frm Frame) Message() (Message, error) {
	cls, ok := messages.Lookup(frm.Type())
	if !ok {
		return FrameUnknown{frm}, nil
	}
	if len(frm.buf) < cls.minLen {
		return nil, errShortFrame
	}
	return cls.wrap(frm), nil
}
