// Package icmpv4 provides a zero-copy view over ICMPv4 messages and a type
// registry dispatching raw messages to typed views. See [RFC792].
//
// [RFC792]: https://tools.ietf.org/html/rfc792
package icmpv4

import (
	"errors"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/tlv"
)

// Type is the ICMPv4 message type octet.
type Type uint8

const (
	TypeEchoReply Type = 0 // echo reply
	TypeEcho      Type = 8 // echo

	TypeDestinationUnreachable Type = 3 // destination unreachable
	TypeSourceQuench           Type = 4 // source quench
	TypeRedirect               Type = 5 // redirect

	TypeTimeExceeded     Type = 11 // time exceeded
	TypeParameterProblem Type = 12 // parameter problem

	TypeTimestamp      Type = 13 // timestamp
	TypeTimestampReply Type = 14 // timestamp reply

	TypeInfoRequest      Type = 15 // information request
	TypeInfoRequestReply Type = 16 // information request reply
)

// CodeTimeExceeded is the code octet of time exceeded messages.
type CodeTimeExceeded uint8

const (
	CodeExceededInTransit  CodeTimeExceeded = iota // TTL exceeded in transit
	CodeFragmentReassembly                         // fragment reassembly time exceeded
)

// CodeDestinationUnreachable is the code octet of destination unreachable messages.
type CodeDestinationUnreachable uint8

const (
	CodeNetUnreachable     CodeDestinationUnreachable = iota // net unreachable
	CodeHostUnreachable                                      // host unreachable
	CodeProtoUnreachable                                     // protocol unreachable
	CodePortUnreachable                                      // port unreachable
	CodeFragNeededAndDFSet                                   // fragmentation needed and DF set
	CodeSourceRouteFailed                                    // source route failed
)

// CodeRedirect is the code octet of redirect messages.
type CodeRedirect uint8

const (
	CodeRedirectForNetwork       CodeRedirect = iota // redirect for network
	CodeRedirectForHost                              // redirect for host
	CodeRedirectForToSAndNetwork                     // redirect for ToS+network
	CodeRedirectToSAndHost                           // redirect for ToS+host
)

const sizeHeader = 8

var (
	errShortFrame   = errors.New("icmpv4: short frame")
	errShortMessage = errors.New("icmpv4: frame short for message type")
)

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer size is smaller than 8.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an ICMPv4 message
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

// Code returns the raw code octet. Typed message views expose it with the
// per-type code alphabet.
func (frm Frame) Code() uint8 { return frm.buf[1] }

// SetCode sets the code octet.
func (frm Frame) SetCode(code uint8) { frm.buf[1] = code }

// CRC returns the checksum field of the frame.
func (frm Frame) CRC() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[2:4])
}

// SetCRC sets the checksum field of the frame.
func (frm Frame) SetCRC(crc uint16) {
	pnet.BigEndian.PutUint16(frm.buf[2:4], crc)
}

// CalculateCRC computes the checksum of the whole message with the checksum
// field treated as zero as per RFC 792. ICMPv4 carries no pseudo-header.
func (frm Frame) CalculateCRC() uint16 {
	var crc pnet.CRC791
	crc.AddUint16(pnet.BigEndian.Uint16(frm.buf[0:2]))
	return crc.PayloadSum16(frm.buf[4:])
}

// VerifyCRC reports whether the stored checksum matches the message contents.
func (frm Frame) VerifyCRC() bool {
	return pnet.VerifyChecksum16(frm.buf, 2)
}

// RestOfHeader returns the type-specific second header word.
func (frm Frame) RestOfHeader() uint32 {
	return pnet.BigEndian.Uint32(frm.buf[4:8])
}

// SetRestOfHeader sets the type-specific second header word.
func (frm Frame) SetRestOfHeader(v uint32) {
	pnet.BigEndian.PutUint32(frm.buf[4:8], v)
}

// Payload returns the bytes following the two header words.
func (frm Frame) Payload() []byte {
	return frm.buf[sizeHeader:]
}

// ClearHeader zeros out the two fixed header words.
func (frm Frame) ClearHeader() {
	for i := range frm.buf[:sizeHeader] {
		frm.buf[i] = 0
	}
}

// ValidateSize checks the buffer against the minimum size the message type
// requires. It adds an error to v on finding an inconsistency.
func (frm Frame) ValidateSize(v *pnet.Validator) {
	if len(frm.buf) < sizeHeader {
		v.AddError(errShortFrame)
		return
	}
	if cls, ok := messages.Lookup(frm.Type()); ok && len(frm.buf) < cls.minLen {
		v.AddError(errShortMessage)
	}
}

// Message is a typed view over an ICMPv4 message body. Concrete types are the
// Frame* views of this package plus [FrameUnknown] for unregistered types.
type Message interface {
	// Header returns the untyped view the message was built from.
	Header() Frame
}

type messageClass struct {
	minLen int
	wrap   func(Frame) Message
}

var messages = tlv.NewTypeRegistry[Type, messageClass]("icmpv4")

func register(t Type, minLen int, wrap func(Frame) Message) {
	messages.Register(t, messageClass{minLen: minLen, wrap: wrap})
}

func init() {
	register(TypeEcho, 8, func(f Frame) Message { return FrameEcho{f} })
	register(TypeEchoReply, 8, func(f Frame) Message { return FrameEcho{f} })
	register(TypeDestinationUnreachable, 8, func(f Frame) Message { return FrameDestinationUnreachable{f} })
	register(TypeSourceQuench, 8, func(f Frame) Message { return FrameSourceQuench{f} })
	register(TypeRedirect, 8, func(f Frame) Message { return FrameRedirect{f} })
	register(TypeTimeExceeded, 8, func(f Frame) Message { return FrameTimeExceeded{f} })
	register(TypeParameterProblem, 8, func(f Frame) Message { return FrameParameterProblem{f} })
	register(TypeTimestamp, 20, func(f Frame) Message { return FrameTimestamp{f} })
	register(TypeTimestampReply, 20, func(f Frame) Message { return FrameTimestamp{f} })
	messages.Freeze()
}

// Message dispatches the frame to its typed view by message type. Types not
// in the registry yield [FrameUnknown]. An error is returned when the buffer
// is shorter than the type's fixed fields require.
func (frm Frame) Message() (Message, error) {
	cls, ok := messages.Lookup(frm.Type())
	if !ok {
		return FrameUnknown{frm}, nil
	}
	if len(frm.buf) < cls.minLen {
		return nil, errShortMessage
	}
	return cls.wrap(frm), nil
}

// FrameEcho is an echo or echo reply message.
type FrameEcho struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameEcho) Header() Frame { return frm.Frame }

// Identifier aids matching echo replies to requests. May be zero.
func (frm FrameEcho) Identifier() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[4:6])
}

// SetIdentifier sets the echo identifier. See [FrameEcho.Identifier].
func (frm FrameEcho) SetIdentifier(id uint16) {
	pnet.BigEndian.PutUint16(frm.buf[4:6], id)
}

// SequenceNumber aids matching echo replies to requests. May be zero.
func (frm FrameEcho) SequenceNumber() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[6:8])
}

// SetSequenceNumber sets the echo sequence number. See [FrameEcho.SequenceNumber].
func (frm FrameEcho) SetSequenceNumber(seq uint16) {
	pnet.BigEndian.PutUint16(frm.buf[6:8], seq)
}

// Data returns the echo data, returned verbatim in the reply.
func (frm FrameEcho) Data() []byte {
	return frm.buf[8:]
}

// FrameDestinationUnreachable reports an undeliverable datagram.
type FrameDestinationUnreachable struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameDestinationUnreachable) Header() Frame { return frm.Frame }

// Code returns the code octet with the destination unreachable alphabet.
func (frm FrameDestinationUnreachable) Code() CodeDestinationUnreachable {
	return CodeDestinationUnreachable(frm.Frame.Code())
}

// SetCode sets the code octet. See [FrameDestinationUnreachable.Code].
func (frm FrameDestinationUnreachable) SetCode(code CodeDestinationUnreachable) {
	frm.Frame.SetCode(uint8(code))
}

// OriginalDatagram returns the offending IP header plus leading payload bytes.
func (frm FrameDestinationUnreachable) OriginalDatagram() []byte {
	return frm.buf[8:]
}

// FrameSourceQuench asks the sender to cut back its transmission rate.
type FrameSourceQuench struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameSourceQuench) Header() Frame { return frm.Frame }

// OriginalDatagram returns the offending IP header plus leading payload bytes.
func (frm FrameSourceQuench) OriginalDatagram() []byte {
	return frm.buf[8:]
}

// FrameRedirect advises the sender of a shorter route via another gateway.
type FrameRedirect struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameRedirect) Header() Frame { return frm.Frame }

// Code returns the code octet with the redirect alphabet.
func (frm FrameRedirect) Code() CodeRedirect {
	return CodeRedirect(frm.Frame.Code())
}

// SetCode sets the code octet. See [FrameRedirect.Code].
func (frm FrameRedirect) SetCode(code CodeRedirect) {
	frm.Frame.SetCode(uint8(code))
}

// GatewayAddr returns pointer to the address of the advised gateway.
func (frm FrameRedirect) GatewayAddr() *[4]byte {
	return (*[4]byte)(frm.buf[4:8])
}

// OriginalDatagram returns the offending IP header plus leading payload bytes.
func (frm FrameRedirect) OriginalDatagram() []byte {
	return frm.buf[8:]
}

// FrameTimeExceeded reports a datagram dropped for TTL or reassembly timeout.
type FrameTimeExceeded struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameTimeExceeded) Header() Frame { return frm.Frame }

// Code returns the code octet with the time exceeded alphabet.
func (frm FrameTimeExceeded) Code() CodeTimeExceeded {
	return CodeTimeExceeded(frm.Frame.Code())
}

// SetCode sets the code octet. See [FrameTimeExceeded.Code].
func (frm FrameTimeExceeded) SetCode(code CodeTimeExceeded) {
	frm.Frame.SetCode(uint8(code))
}

// OriginalDatagram returns the offending IP header plus leading payload bytes.
func (frm FrameTimeExceeded) OriginalDatagram() []byte {
	return frm.buf[8:]
}

// FrameParameterProblem reports a malformed header field, pointed to by the
// pointer octet.
type FrameParameterProblem struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameParameterProblem) Header() Frame { return frm.Frame }

// Pointer returns the octet offset of the problem within the original header.
func (frm FrameParameterProblem) Pointer() uint8 { return frm.buf[4] }

// SetPointer sets the problem pointer octet. See [FrameParameterProblem.Pointer].
func (frm FrameParameterProblem) SetPointer(p uint8) { frm.buf[4] = p }

// OriginalDatagram returns the offending IP header plus leading payload bytes.
func (frm FrameParameterProblem) OriginalDatagram() []byte {
	return frm.buf[8:]
}

// FrameTimestamp is a timestamp or timestamp reply message. Timestamps are
// milliseconds since midnight UT.
type FrameTimestamp struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameTimestamp) Header() Frame { return frm.Frame }

// Identifier aids matching replies to requests. May be zero.
func (frm FrameTimestamp) Identifier() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[4:6])
}

// SequenceNumber aids matching replies to requests. May be zero.
func (frm FrameTimestamp) SequenceNumber() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[6:8])
}

// OriginateTimestamp is the sender's time of last touch before sending.
func (frm FrameTimestamp) OriginateTimestamp() uint32 {
	return pnet.BigEndian.Uint32(frm.buf[8:12])
}

// SetOriginateTimestamp sets the originate timestamp.
func (frm FrameTimestamp) SetOriginateTimestamp(ts uint32) {
	pnet.BigEndian.PutUint32(frm.buf[8:12], ts)
}

// ReceiveTimestamp is the echoer's time of receipt.
func (frm FrameTimestamp) ReceiveTimestamp() uint32 {
	return pnet.BigEndian.Uint32(frm.buf[12:16])
}

// SetReceiveTimestamp sets the receive timestamp.
func (frm FrameTimestamp) SetReceiveTimestamp(ts uint32) {
	pnet.BigEndian.PutUint32(frm.buf[12:16], ts)
}

// TransmitTimestamp is the echoer's time of last touch before replying.
func (frm FrameTimestamp) TransmitTimestamp() uint32 {
	return pnet.BigEndian.Uint32(frm.buf[16:20])
}

// SetTransmitTimestamp sets the transmit timestamp.
func (frm FrameTimestamp) SetTransmitTimestamp(ts uint32) {
	pnet.BigEndian.PutUint32(frm.buf[16:20], ts)
}

// FrameUnknown preserves messages of types this build does not understand.
type FrameUnknown struct {
	Frame
}

// Header returns the untyped view of the message.
func (frm FrameUnknown) Header() Frame { return frm.Frame }
