// Package udp provides a zero-copy view over UDP datagrams. See [RFC768].
//
// [RFC768]: https://tools.ietf.org/html/rfc768
package udp

import (
	"errors"

	"github.com/pedoc/pnet"
)

const sizeHeader = 8

var (
	errShortBuf    = errors.New("udp: short buffer")
	errShortLength = errors.New("udp: length exceeds frame")
	errBadLength   = errors.New("udp: length invalid")
)

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer size is smaller than 8.
// Users should still call [Frame.ValidateSize] before working
// with payload of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShortBuf
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of a UDP datagram
// and provides methods for manipulating, validating and
// retrieving fields and payload data.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (ufrm Frame) RawData() []byte { return ufrm.buf }

// Segment returns a read-only view over the datagram as delimited by the
// length field. Call [Frame.ValidateSize] first.
func (ufrm Frame) Segment() pnet.Segment {
	return pnet.NewSegment(ufrm.buf[:ufrm.Length()])
}

// SourcePort identifies the sending port of the UDP datagram. May be zero if unused.
func (ufrm Frame) SourcePort() uint16 {
	return pnet.BigEndian.Uint16(ufrm.buf[0:2])
}

// SetSourcePort sets UDP source port. See [Frame.SourcePort].
func (ufrm Frame) SetSourcePort(src uint16) {
	pnet.BigEndian.PutUint16(ufrm.buf[0:2], src)
}

// DestinationPort identifies the receiving port of the UDP datagram. Must be non-zero.
func (ufrm Frame) DestinationPort() uint16 {
	return pnet.BigEndian.Uint16(ufrm.buf[2:4])
}

// SetDestinationPort sets UDP destination port. See [Frame.DestinationPort].
func (ufrm Frame) SetDestinationPort(dst uint16) {
	pnet.BigEndian.PutUint16(ufrm.buf[2:4], dst)
}

// Length specifies length in bytes of UDP header and UDP payload. The minimum
// length is 8 bytes (UDP header length). This field should match the result
// of the IP header TotalLength field minus the IP header size.
func (ufrm Frame) Length() uint16 {
	return pnet.BigEndian.Uint16(ufrm.buf[4:6])
}

// SetLength sets the UDP header's length field. See [Frame.Length].
func (ufrm Frame) SetLength(length uint16) {
	pnet.BigEndian.PutUint16(ufrm.buf[4:6], length)
}

// CRC returns the checksum field in the UDP header. Zero means no checksum
// was computed; a computed checksum of zero is transmitted as 0xffff.
func (ufrm Frame) CRC() uint16 {
	return pnet.BigEndian.Uint16(ufrm.buf[6:8])
}

// SetCRC sets the UDP header's CRC field. See [Frame.CRC].
func (ufrm Frame) SetCRC(checksum uint16) {
	pnet.BigEndian.PutUint16(ufrm.buf[6:8], checksum)
}

// Payload returns the payload content section of the UDP datagram.
// Be sure to call [Frame.ValidateSize] beforehand to avoid panics.
func (ufrm Frame) Payload() []byte {
	return ufrm.buf[sizeHeader:ufrm.Length()]
}

// CalculateIPv4CRC computes the UDP checksum over an IPv4 pseudo-header sum
// already written to crc (see ipv4 CRCWriteUDPPseudo) plus this datagram's
// bytes with the checksum field taken as zero. The result is passed through
// [pnet.NeverZeroChecksum] since an all-zeros field means "no checksum".
func (ufrm Frame) CalculateIPv4CRC(crc *pnet.CRC791) uint16 {
	crc.AddUint16(ufrm.Length()) // pseudo-header length
	crc.Write(ufrm.buf[0:6])
	return pnet.NeverZeroChecksum(crc.PayloadSum16(ufrm.buf[sizeHeader:ufrm.Length()]))
}

// ClearHeader zeros out the header contents.
func (ufrm Frame) ClearHeader() {
	for i := range ufrm.buf[:sizeHeader] {
		ufrm.buf[i] = 0
	}
}

// ValidateSize checks the frame's size fields and compares with the actual
// buffer. It adds an error to v on finding an inconsistency.
func (ufrm Frame) ValidateSize(v *pnet.Validator) {
	ul := ufrm.Length()
	if ul < sizeHeader {
		v.AddError(errBadLength)
	} else if int(ul) > len(ufrm.buf) {
		v.AddError(errShortLength)
	}
}
