// Package ipv6 provides a zero-copy view over IPv6 packets, the extension
// header chain, the hop-by-hop/destination option alphabet and the mobility
// header of RFC 6275. See [RFC8200].
//
// [RFC8200]: https://tools.ietf.org/html/rfc8200
package ipv6

import (
	"errors"
	"net/netip"

	"github.com/pedoc/pnet"
)

const sizeHeader = 40

var (
	errShortFrame = errors.New("ipv6: short frame")
	errShortBuf   = errors.New("ipv6: short buffer for frame")
)

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer size is smaller than 40.
// Users should still call [Frame.ValidateSize] before working
// with payload/options of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShortBuf
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an IPv6 packet
// and provides methods for manipulating, validating and
// retrieving fields and payload data.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (i6frm Frame) RawData() []byte { return i6frm.buf }

// Segment returns a read-only view over the whole packet as delimited by the
// payload length field. Call [Frame.ValidateSize] first.
func (i6frm Frame) Segment() pnet.Segment {
	return pnet.NewSegment(i6frm.buf[:sizeHeader+i6frm.PayloadLength()])
}

// VersionTrafficAndFlow returns the version, traffic class and flow label
// fields of the IPv6 header. Version should be 6.
func (i6frm Frame) VersionTrafficAndFlow() (version uint8, tclass uint8, flow uint32) {
	v := pnet.BigEndian.Uint32(i6frm.buf[0:4])
	version = uint8(v >> 28)
	tclass = uint8(v >> 20)
	flow = v & 0x000f_ffff
	return version, tclass, flow
}

// SetVersionTrafficAndFlow sets the version, traffic class and 20-bit flow
// label in the IPv6 header. Version must be 6.
func (i6frm Frame) SetVersionTrafficAndFlow(version uint8, tclass uint8, flow uint32) {
	v := flow&0x000f_ffff | uint32(tclass)<<20 | uint32(version)<<28
	pnet.BigEndian.PutUint32(i6frm.buf[0:4], v)
}

// PayloadLength returns the size of the payload in octets including any
// extension headers. Zero when a hop-by-hop header carries a Jumbo Payload option.
func (i6frm Frame) PayloadLength() uint16 {
	return pnet.BigEndian.Uint16(i6frm.buf[4:6])
}

// SetPayloadLength sets the payload length field of the IPv6 header. See [Frame.PayloadLength].
func (i6frm Frame) SetPayloadLength(pl uint16) {
	pnet.BigEndian.PutUint16(i6frm.buf[4:6], pl)
}

// NextHeader returns the Next Header field which names the first extension
// header or the transport protocol of the payload. See [Frame.HeaderChain].
func (i6frm Frame) NextHeader() pnet.IPProto {
	return pnet.IPProto(i6frm.buf[6])
}

// SetNextHeader sets the Next Header (protocol) field. See [Frame.NextHeader].
func (i6frm Frame) SetNextHeader(proto pnet.IPProto) {
	i6frm.buf[6] = uint8(proto)
}

// HopLimit returns the hop limit, decremented by one at each forwarding node.
func (i6frm Frame) HopLimit() uint8 {
	return i6frm.buf[7]
}

// SetHopLimit sets the hop limit field. See [Frame.HopLimit].
func (i6frm Frame) SetHopLimit(hop uint8) {
	i6frm.buf[7] = hop
}

// SourceAddr returns pointer to the sending node unicast IPv6 address in the IP header.
func (i6frm Frame) SourceAddr() *[16]byte {
	return (*[16]byte)(i6frm.buf[8:24])
}

// DestinationAddr returns pointer to the destination node unicast or multicast IPv6 address in the IP header.
func (i6frm Frame) DestinationAddr() *[16]byte {
	return (*[16]byte)(i6frm.buf[24:40])
}

// SourceNetip returns the source address as a netip.Addr.
func (i6frm Frame) SourceNetip() netip.Addr { return netip.AddrFrom16(*i6frm.SourceAddr()) }

// DestinationNetip returns the destination address as a netip.Addr.
func (i6frm Frame) DestinationNetip() netip.Addr { return netip.AddrFrom16(*i6frm.DestinationAddr()) }

// Payload returns the contents of the IPv6 packet including any extension
// headers. Be sure to call [Frame.ValidateSize] beforehand to avoid panics.
func (i6frm Frame) Payload() []byte {
	pl := i6frm.PayloadLength()
	return i6frm.buf[sizeHeader : sizeHeader+pl]
}

// HeaderChain returns an iterator over the packet's extension header chain
// starting at the fixed header's next-header field.
func (i6frm Frame) HeaderChain() ChainIter {
	return NewChainIter(i6frm.NextHeader(), i6frm.Payload())
}

// CRCWritePseudo adds the IPv6 pseudo-header fields to crc. The transport
// checksum must be completed with the payload bytes in the same accumulator.
func (i6frm Frame) CRCWritePseudo(crc *pnet.CRC791) {
	crc.Write(i6frm.SourceAddr()[:])
	crc.Write(i6frm.DestinationAddr()[:])
	crc.AddUint32(uint32(i6frm.PayloadLength()))
	crc.AddUint32(uint32(i6frm.NextHeader()))
}

// ClearHeader zeros out the header contents.
func (i6frm Frame) ClearHeader() {
	for i := range i6frm.buf[:sizeHeader] {
		i6frm.buf[i] = 0
	}
}

// ValidateSize checks the frame's size fields and compares with the actual
// buffer. It adds an error to v on finding an inconsistency.
func (i6frm Frame) ValidateSize(v *pnet.Validator) {
	tl := i6frm.PayloadLength()
	if int(tl)+sizeHeader > len(i6frm.buf) {
		v.AddError(errShortFrame)
	}
}
