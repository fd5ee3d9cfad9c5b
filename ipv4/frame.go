// Package ipv4 provides a zero-copy view over IPv4 packets, header checksum
// arithmetic and the IPv4 option alphabet. See [RFC791].
//
// [RFC791]: https://tools.ietf.org/html/rfc791
package ipv4

import (
	"errors"
	"net/netip"

	"github.com/pedoc/pnet"
)

const sizeHeader = 20

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer size is smaller than 20.
// Users should still call [Frame.ValidateSize] before working
// with payload/options of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an IPv4 packet
// and provides methods for manipulating, validating and
// retrieving fields and payload data.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (ifrm Frame) RawData() []byte { return ifrm.buf }

// Segment returns a read-only view over the whole packet as delimited by the
// total length field. Call [Frame.ValidateSize] first.
func (ifrm Frame) Segment() pnet.Segment {
	return pnet.NewSegment(ifrm.buf[:ifrm.TotalLength()])
}

func (ifrm Frame) ihl() uint8 { return ifrm.buf[0] & 0xf }

// HeaderLength returns the length of the IPv4 header as calculated using IHL. It includes IP options.
func (ifrm Frame) HeaderLength() int { return int(ifrm.ihl()) * 4 }

// VersionAndIHL returns the version and IHL fields in the IPv4 header. Version should always be 4.
func (ifrm Frame) VersionAndIHL() (version, IHL uint8) {
	v := ifrm.buf[0]
	return v >> 4, v & 0xf
}

// SetVersionAndIHL sets the version and IHL fields in the IPv4 header. Version should always be 4.
func (ifrm Frame) SetVersionAndIHL(version, IHL uint8) { ifrm.buf[0] = version<<4 | IHL&0xf }

// ToS returns the Type of Service field carrying DSCP and ECN union data.
func (ifrm Frame) ToS() ToS { return ToS(ifrm.buf[1]) }

// SetToS sets ToS field. See [Frame.ToS].
func (ifrm Frame) SetToS(tos ToS) { ifrm.buf[1] = byte(tos) }

// TotalLength defines the entire packet size in bytes, including IP header and data.
// The minimum size is 20 bytes (IPv4 header without data) and the maximum is 65,535 bytes.
func (ifrm Frame) TotalLength() uint16 {
	return pnet.BigEndian.Uint16(ifrm.buf[2:4])
}

// SetTotalLength sets TotalLength field. See [Frame.TotalLength].
func (ifrm Frame) SetTotalLength(tl uint16) { pnet.BigEndian.PutUint16(ifrm.buf[2:4], tl) }

// ID is an identification field primarily used for uniquely
// identifying the group of fragments of a single IP datagram.
func (ifrm Frame) ID() uint16 { return pnet.BigEndian.Uint16(ifrm.buf[4:6]) }

// SetID sets ID field. See [Frame.ID].
func (ifrm Frame) SetID(id uint16) { pnet.BigEndian.PutUint16(ifrm.buf[4:6], id) }

// Flags returns the fragmentation [Flags] of the IP packet.
func (ifrm Frame) Flags() Flags {
	return Flags(pnet.BigEndian.Uint16(ifrm.buf[6:8]))
}

// SetFlags sets the IPv4 flags field. See [Flags].
func (ifrm Frame) SetFlags(flags Flags) {
	pnet.BigEndian.PutUint16(ifrm.buf[6:8], uint16(flags))
}

// TTL is the eight-bit time to live field limiting a datagram's lifetime to
// prevent network failure in the event of a routing loop.
func (ifrm Frame) TTL() uint8 { return ifrm.buf[8] }

// SetTTL sets the IP frame's TTL field. See [Frame.TTL].
func (ifrm Frame) SetTTL(ttl uint8) { ifrm.buf[8] = ttl }

// Protocol field defines the protocol used in the data portion of the IP datagram. TCP is 6, UDP is 17.
func (ifrm Frame) Protocol() pnet.IPProto { return pnet.IPProto(ifrm.buf[9]) }

// SetProtocol sets protocol field. See [Frame.Protocol] and [pnet.IPProto].
func (ifrm Frame) SetProtocol(proto pnet.IPProto) { ifrm.buf[9] = uint8(proto) }

// CRC returns the checksum field of the IPv4 header.
func (ifrm Frame) CRC() uint16 {
	return pnet.BigEndian.Uint16(ifrm.buf[10:12])
}

// SetCRC sets the CRC field of the IP packet. See [Frame.CRC].
func (ifrm Frame) SetCRC(cs uint16) {
	pnet.BigEndian.PutUint16(ifrm.buf[10:12], cs)
}

// CalculateHeaderCRC calculates the RFC 791 header checksum for this IPv4
// frame, options included, with the checksum field taken as zero.
func (ifrm Frame) CalculateHeaderCRC() uint16 {
	var crc pnet.CRC791
	crc.Write(ifrm.buf[0:10])
	crc.Write(ifrm.buf[12:ifrm.HeaderLength()])
	return crc.Sum16()
}

// VerifyHeaderCRC recomputes the header checksum and compares it against the
// stored field.
func (ifrm Frame) VerifyHeaderCRC() bool {
	return pnet.VerifyChecksum16(ifrm.buf[:ifrm.HeaderLength()], 10)
}

// CRCWriteTCPPseudo adds the IPv4 pseudo-header fields for a TCP payload to
// crc. The transport checksum must be completed with the payload bytes in the
// same accumulator.
func (ifrm Frame) CRCWriteTCPPseudo(crc *pnet.CRC791) {
	crc.Write(ifrm.SourceAddr()[:])
	crc.Write(ifrm.DestinationAddr()[:])
	crc.AddUint16(uint16(ifrm.Protocol()))
	crc.AddUint16(ifrm.TotalLength() - 4*uint16(ifrm.ihl()))
}

// CRCWriteUDPPseudo adds the IPv4 pseudo-header fields for a UDP payload to
// crc, except the UDP length which the UDP frame itself supplies.
func (ifrm Frame) CRCWriteUDPPseudo(crc *pnet.CRC791) {
	crc.Write(ifrm.SourceAddr()[:])
	crc.Write(ifrm.DestinationAddr()[:])
	crc.AddUint16(uint16(ifrm.Protocol()))
}

// SourceAddr returns pointer to the source IPv4 address in the IP header.
func (ifrm Frame) SourceAddr() *[4]byte {
	return (*[4]byte)(ifrm.buf[12:16])
}

// DestinationAddr returns pointer to the destination IPv4 address in the IP header.
func (ifrm Frame) DestinationAddr() *[4]byte {
	return (*[4]byte)(ifrm.buf[16:20])
}

// SourceNetip returns the source address as a netip.Addr.
func (ifrm Frame) SourceNetip() netip.Addr { return netip.AddrFrom4(*ifrm.SourceAddr()) }

// DestinationNetip returns the destination address as a netip.Addr.
func (ifrm Frame) DestinationNetip() netip.Addr { return netip.AddrFrom4(*ifrm.DestinationAddr()) }

// Payload returns the contents of the IPv4 packet, which may be zero sized.
// Be sure to call [Frame.ValidateSize] beforehand to avoid panic.
func (ifrm Frame) Payload() []byte {
	off := ifrm.HeaderLength()
	l := ifrm.TotalLength()
	return ifrm.buf[off:l]
}

// OptionBytes returns the raw options portion of the IPv4 header. May be zero
// lengthed. Be sure to call [Frame.ValidateSize] beforehand to avoid panic.
func (ifrm Frame) OptionBytes() []byte {
	off := ifrm.HeaderLength()
	return ifrm.buf[sizeHeader:off]
}

// ClearHeader zeros out the fixed(non-variable) header contents.
func (ifrm Frame) ClearHeader() {
	for i := range ifrm.buf[:sizeHeader] {
		ifrm.buf[i] = 0
	}
}

//
// Validation API.
//

var (
	errBadTL      = errors.New("ipv4: bad total length")
	errShort      = errors.New("ipv4: short buffer")
	errBadIHL     = errors.New("ipv4: bad IHL")
	errBadVersion = errors.New("ipv4: bad version")
)

// ValidateSize checks the frame's size fields and compares with the actual
// buffer. It adds an error to v on finding an inconsistency.
func (ifrm Frame) ValidateSize(v *pnet.Validator) {
	ihl := ifrm.ihl()
	tl := ifrm.TotalLength()
	if ihl < 5 {
		v.AddError(errBadIHL)
	} else if tl < sizeHeader || int(tl) < int(ihl)*4 {
		v.AddError(errBadTL)
	} else if int(tl) > len(ifrm.buf) {
		v.AddError(errShort)
	}
}

// ValidateFields checks header field values without touching sizes.
func (ifrm Frame) ValidateFields(v *pnet.Validator) {
	version, _ := ifrm.VersionAndIHL()
	if version != 4 {
		v.AddError(errBadVersion)
	}
	if !ifrm.VerifyHeaderCRC() {
		v.AddError(pnet.ErrBadCRC)
	}
}
