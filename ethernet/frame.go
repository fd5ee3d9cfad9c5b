// Package ethernet provides a zero-copy view over Ethernet II / IEEE 802.3
// frames with 802.1Q VLAN awareness and FCS (CRC-32) helpers.
package ethernet

import (
	"errors"
	"strconv"

	"github.com/pedoc/pnet"
)

const sizeHeaderNoVLAN = 14

var errShort = errors.New("ethernet: short buffer")

// NewFrame returns a Frame with data set to buf.
// An error is returned if the buffer size is smaller than 14.
// Users should still call [Frame.ValidateSize] before working
// with payload of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderNoVLAN {
		return Frame{buf: nil}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an Ethernet frame
// without including preamble (first byte is start of destination address)
// and provides methods for manipulating, validating and
// retrieving fields and payload data. See [IEEE 802.3].
//
// [IEEE 802.3]: https://standards.ieee.org/ieee/802.3/7071/
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (efrm Frame) RawData() []byte { return efrm.buf }

// Segment returns a read-only view over the frame bytes.
func (efrm Frame) Segment() pnet.Segment { return pnet.NewSegment(efrm.buf) }

// HeaderLength returns the length of the ethernet frame header. Nominally returns 14; or 18 for VLAN frames.
func (efrm Frame) HeaderLength() int {
	if efrm.IsVLAN() {
		return 18
	}
	return sizeHeaderNoVLAN
}

// Payload returns the data portion of the ethernet frame with handling of VLAN frames.
func (efrm Frame) Payload() []byte {
	hl := efrm.HeaderLength()
	et := efrm.EtherTypeOrSize()
	if et.IsSize() {
		return efrm.buf[hl : hl+int(et)]
	}
	return efrm.buf[hl:]
}

// DestinationHardwareAddr returns pointer to the target's MAC/hardware address of the ethernet frame.
func (efrm Frame) DestinationHardwareAddr() (dst *[6]byte) {
	return (*[6]byte)(efrm.buf[0:6])
}

// SourceHardwareAddr returns pointer to the sender's MAC/hardware address of the ethernet frame.
func (efrm Frame) SourceHardwareAddr() (src *[6]byte) {
	return (*[6]byte)(efrm.buf[6:12])
}

// DestinationAddrAsUint48 returns the destination address as a 48-bit integer
// in transmission (big-endian) order.
func (efrm Frame) DestinationAddrAsUint48() uint64 {
	return pnet.BigEndian.Uint48(efrm.buf[0:6])
}

// SourceAddrAsUint48 returns the source address as a 48-bit integer
// in transmission (big-endian) order.
func (efrm Frame) SourceAddrAsUint48() uint64 {
	return pnet.BigEndian.Uint48(efrm.buf[6:12])
}

// EtherTypeOrSize returns the EtherType/Size field of the ethernet frame.
// Caller should check if the field is actually a valid EtherType or if it
// represents the Ethernet payload size with [pnet.EtherType.IsSize].
func (efrm Frame) EtherTypeOrSize() pnet.EtherType {
	return pnet.EtherType(pnet.BigEndian.Uint16(efrm.buf[12:14]))
}

// SetEtherType sets the EtherType field of the ethernet frame. See [pnet.EtherType].
func (efrm Frame) SetEtherType(v pnet.EtherType) {
	pnet.BigEndian.PutUint16(efrm.buf[12:14], uint16(v))
}

// IsVLAN returns true if the EtherType/Size field holds the 802.1Q VLAN tag
// 0x8100, in which case the field contains the first two octets of a 4-octet
// VLAN tag and the real EtherType follows it.
func (efrm Frame) IsVLAN() bool {
	return efrm.EtherTypeOrSize() == pnet.EtherTypeVLAN
}

// VLANTag returns the tag control information of a VLAN frame.
// Call only when [Frame.IsVLAN] returns true.
func (efrm Frame) VLANTag() VLANTag {
	return VLANTag(pnet.BigEndian.Uint16(efrm.buf[14:16]))
}

// VLANEtherType returns the EtherType field following the VLAN tag.
// Call only when [Frame.IsVLAN] returns true.
func (efrm Frame) VLANEtherType() pnet.EtherType {
	return pnet.EtherType(pnet.BigEndian.Uint16(efrm.buf[16:18]))
}

// ClearHeader zeros out the fixed(non-variable) header contents.
func (efrm Frame) ClearHeader() {
	for i := range efrm.buf[:sizeHeaderNoVLAN] {
		efrm.buf[i] = 0
	}
}

// ValidateSize checks the frame's size fields and compares with the actual
// buffer. It adds an error to v on finding an inconsistency.
func (efrm Frame) ValidateSize(v *pnet.Validator) {
	if efrm.IsVLAN() && len(efrm.buf) < 18 {
		v.AddError(errShort)
		return
	}
	et := efrm.EtherTypeOrSize()
	if et.IsSize() && efrm.HeaderLength()+int(et) > len(efrm.buf) {
		v.AddError(errShort)
	}
}

// VLANTag holds priority (PCP), drop indicator (DEI) and VLAN ID bits of the
// 802.1Q tag control field.
type VLANTag uint16

// PriorityCodePoint is the 3-bit IEEE 802.1p class-of-service field.
func (vt VLANTag) PriorityCodePoint() uint8 { return uint8(vt >> 13) }

// DropEligibleIndicator returns true if the DEI bit is set, marking frames
// eligible to be dropped in the presence of congestion.
func (vt VLANTag) DropEligibleIndicator() bool { return vt&(1<<12) != 0 }

// VLANIdentifier is the 12-bit field specifying which VLAN the frame belongs
// to. Values 0 and 4095 are reserved.
func (vt VLANTag) VLANIdentifier() uint16 { return uint16(vt) & 0xfff }

// BroadcastAddr returns the all 0xff's broadcast hardware/MAC/EUI/OUI address.
func BroadcastAddr() [6]byte {
	return [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
}

// AppendAddr appends the text representation of the hardware address to the destination buffer.
func AppendAddr(dst []byte, hwAddr [6]byte) []byte {
	for i, b := range hwAddr {
		if i != 0 {
			dst = append(dst, ':')
		}
		if b < 16 {
			dst = append(dst, '0')
		}
		dst = strconv.AppendUint(dst, uint64(b), 16)
	}
	return dst
}
