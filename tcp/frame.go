// Package tcp provides a zero-copy view over TCP segment headers and the TCP
// option alphabet. Only the static wire representation is modeled; connection
// state machines are out of scope. See [RFC9293].
//
// [RFC9293]: https://datatracker.ietf.org/doc/html/rfc9293
package tcp

import (
	"errors"

	"github.com/pedoc/pnet"
)

const sizeHeader = 20

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer size is smaller than 20.
// Users should still call [Frame.ValidateSize] before working
// with payload/options of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, pnet.ErrShortBuffer
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of a TCP segment
// and provides methods for manipulating, validating and
// retrieving fields and payload data.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (tfrm Frame) RawData() []byte { return tfrm.buf }

// Segment returns a read-only view over the frame bytes.
func (tfrm Frame) Segment() pnet.Segment { return pnet.NewSegment(tfrm.buf) }

// SourcePort identifies the sending port of the TCP segment. Must be non-zero.
func (tfrm Frame) SourcePort() uint16 {
	return pnet.BigEndian.Uint16(tfrm.buf[0:2])
}

// SetSourcePort sets TCP source port. See [Frame.SourcePort].
func (tfrm Frame) SetSourcePort(src uint16) {
	pnet.BigEndian.PutUint16(tfrm.buf[0:2], src)
}

// DestinationPort identifies the receiving port of the TCP segment. Must be non-zero.
func (tfrm Frame) DestinationPort() uint16 {
	return pnet.BigEndian.Uint16(tfrm.buf[2:4])
}

// SetDestinationPort sets TCP destination port. See [Frame.DestinationPort].
func (tfrm Frame) SetDestinationPort(dst uint16) {
	pnet.BigEndian.PutUint16(tfrm.buf[2:4], dst)
}

// Seq returns the sequence number of the first data octet in this segment
// (except when SYN present, in which case it is the ISN).
func (tfrm Frame) Seq() uint32 {
	return pnet.BigEndian.Uint32(tfrm.buf[4:8])
}

// SetSeq sets the sequence number field. See [Frame.Seq].
func (tfrm Frame) SetSeq(v uint32) {
	pnet.BigEndian.PutUint32(tfrm.buf[4:8], v)
}

// Ack returns the next sequence number the sender of the segment expects to
// receive. Valid only when the ACK flag is set.
func (tfrm Frame) Ack() uint32 {
	return pnet.BigEndian.Uint32(tfrm.buf[8:12])
}

// SetAck sets the acknowledgement number field. See [Frame.Ack].
func (tfrm Frame) SetAck(v uint32) {
	pnet.BigEndian.PutUint32(tfrm.buf[8:12], v)
}

// OffsetAndFlags returns the data offset in 32-bit words and the segment flags.
func (tfrm Frame) OffsetAndFlags() (offset uint8, flags Flags) {
	v := pnet.BigEndian.Uint16(tfrm.buf[12:14])
	return uint8(v >> 12), Flags(v).Mask()
}

// SetOffsetAndFlags sets the data offset and flag bits. See [Frame.OffsetAndFlags].
func (tfrm Frame) SetOffsetAndFlags(offset uint8, flags Flags) {
	v := uint16(offset)<<12 | uint16(flags.Mask())
	pnet.BigEndian.PutUint16(tfrm.buf[12:14], v)
}

// HeaderLength returns the length of the TCP header including options, as
// calculated from the data offset field.
func (tfrm Frame) HeaderLength() (lengthInBytes int) {
	offset, _ := tfrm.OffsetAndFlags()
	return 4 * int(offset)
}

// WindowSize returns the number of data octets the sender is willing to accept.
func (tfrm Frame) WindowSize() uint16 { return pnet.BigEndian.Uint16(tfrm.buf[14:16]) }

// SetWindowSize sets the window size field. See [Frame.WindowSize].
func (tfrm Frame) SetWindowSize(v uint16) { pnet.BigEndian.PutUint16(tfrm.buf[14:16], v) }

// CRC returns the checksum field of the TCP header.
func (tfrm Frame) CRC() uint16 {
	return pnet.BigEndian.Uint16(tfrm.buf[16:18])
}

// SetCRC sets the checksum field. See [Frame.CRC].
func (tfrm Frame) SetCRC(checksum uint16) {
	pnet.BigEndian.PutUint16(tfrm.buf[16:18], checksum)
}

// UrgentPtr returns the urgent pointer field, an offset from the sequence
// number pointing to the last urgent data octet. Valid with the URG flag.
func (tfrm Frame) UrgentPtr() uint16 { return pnet.BigEndian.Uint16(tfrm.buf[18:20]) }

// SetUrgentPtr sets the urgent pointer field. See [Frame.UrgentPtr].
func (tfrm Frame) SetUrgentPtr(up uint16) { pnet.BigEndian.PutUint16(tfrm.buf[18:20], up) }

// Payload returns the data portion of the TCP segment.
// Be sure to call [Frame.ValidateSize] beforehand to avoid panics.
func (tfrm Frame) Payload() []byte {
	return tfrm.buf[tfrm.HeaderLength():]
}

// OptionBytes returns the option region between the fixed header and the
// payload. Be sure to call [Frame.ValidateSize] beforehand to avoid panics.
func (tfrm Frame) OptionBytes() []byte {
	return tfrm.buf[sizeHeader:tfrm.HeaderLength()]
}

// CalculateIPv4CRC computes the TCP checksum over an IPv4 pseudo-header sum
// already written to crc (see ipv4 CRCWriteTCPPseudo) plus this segment's
// bytes with the checksum field taken as zero. Pseudo-header and segment must
// share one accumulator; folding them separately gives a wrong checksum.
func (tfrm Frame) CalculateIPv4CRC(crc *pnet.CRC791) uint16 {
	crc.Write(tfrm.buf[0:16])
	crc.AddUint16(tfrm.UrgentPtr())
	return crc.PayloadSum16(tfrm.buf[sizeHeader:])
}

// ClearHeader zeros out the fixed(non-variable) header contents.
func (tfrm Frame) ClearHeader() {
	for i := range tfrm.buf[:sizeHeader] {
		tfrm.buf[i] = 0
	}
}

//
// Validation API.
//

var (
	errShortTCP  = errors.New("tcp: offset exceeds frame")
	errBadOffset = errors.New("tcp: offset invalid")
)

// ValidateSize checks the frame's size fields and compares with the actual
// buffer. It adds an error to v on finding an inconsistency.
func (tfrm Frame) ValidateSize(v *pnet.Validator) {
	hl := tfrm.HeaderLength()
	if hl < sizeHeader {
		v.AddError(errBadOffset)
	} else if hl > len(tfrm.buf) {
		v.AddError(errShortTCP)
	}
}

// Flags holds the control bits of a TCP header.
type Flags uint16

const (
	FlagFIN Flags = 1 << iota // no more data from sender
	FlagSYN                   // synchronize sequence numbers
	FlagRST                   // reset the connection
	FlagPSH                   // push function
	FlagACK                   // acknowledgment field significant
	FlagURG                   // urgent pointer field significant
	FlagECE                   // ECN-echo
	FlagCWR                   // congestion window reduced
	FlagNS                    // ECN-nonce concealment protection

	flagMask = 0x01ff
)

// HasAll checks if mask bits are all set in the receiver flags.
func (flags Flags) HasAll(mask Flags) bool { return flags&mask == mask }

// HasAny checks if one or more mask bits are set in receiver flags.
func (flags Flags) HasAny(mask Flags) bool { return flags&mask != 0 }

// Mask returns the flags with non-flag bits cleared.
func (flags Flags) Mask() Flags { return flags & flagMask }

// AppendFormat appends a human readable representation of the flags to b.
func (flags Flags) AppendFormat(b []byte) []byte {
	if flags == 0 {
		return append(b, "[]"...)
	}
	names := [...]string{"FIN", "SYN", "RST", "PSH", "ACK", "URG", "ECE", "CWR", "NS"}
	b = append(b, '[')
	for i, name := range names {
		if flags.HasAny(1 << i) {
			b = append(b, name...)
			b = append(b, ',')
		}
	}
	b[len(b)-1] = ']'
	return b
}

func (flags Flags) String() string {
	return string(flags.AppendFormat(nil))
}
