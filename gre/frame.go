// Package gre provides a zero-copy view over GRE headers with the
// flag-dependent layout of [RFC2784] and the key/sequence extensions of
// [RFC2890].
//
// [RFC2784]: https://tools.ietf.org/html/rfc2784
// [RFC2890]: https://tools.ietf.org/html/rfc2890
package gre

import (
	"errors"

	"github.com/pedoc/pnet"
)

const sizeBase = 4

var (
	errShortFrame   = errors.New("gre: short frame")
	errReservedBits = errors.New("gre: reserved bits set")
	errBadVersion   = errors.New("gre: version not zero")
	errNoField      = errors.New("gre: optional field absent")
)

// Flags is the first header word: the presence bits, reserved bits and
// version of a GRE header.
type Flags uint16

const (
	FlagChecksum Flags = 0x8000 // C bit, checksum and reserved1 present
	FlagKey      Flags = 0x2000 // K bit, key present
	FlagSequence Flags = 0x1000 // S bit, sequence number present

	// reservedMask covers Reserved0 and the routing bit retired by RFC 2784.
	reservedMask Flags = 0x4ff8
	versionMask  Flags = 0x0007
)

// Version returns the version bits. Always zero for RFC 2784 GRE.
func (f Flags) Version() uint8 { return uint8(f & versionMask) }

// HasChecksum reports whether the checksum and reserved1 fields are present.
func (f Flags) HasChecksum() bool { return f&FlagChecksum != 0 }

// HasKey reports whether the key field is present.
func (f Flags) HasKey() bool { return f&FlagKey != 0 }

// HasSequence reports whether the sequence number field is present.
func (f Flags) HasSequence() bool { return f&FlagSequence != 0 }

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer is smaller than the 4-byte base header.
// Users should still call [Frame.ValidateSize] before working
// with payload of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeBase {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of a GRE packet
// and provides methods for manipulating, validating and
// retrieving fields and payload data.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (gfrm Frame) RawData() []byte { return gfrm.buf }

// Flags returns the first header word with presence bits and version.
func (gfrm Frame) Flags() Flags {
	return Flags(pnet.BigEndian.Uint16(gfrm.buf[0:2]))
}

// SetFlags sets the first header word. See [Flags].
func (gfrm Frame) SetFlags(f Flags) {
	pnet.BigEndian.PutUint16(gfrm.buf[0:2], uint16(f))
}

// Protocol returns the EtherType of the encapsulated payload.
func (gfrm Frame) Protocol() pnet.EtherType {
	return pnet.EtherType(pnet.BigEndian.Uint16(gfrm.buf[2:4]))
}

// SetProtocol sets the payload EtherType. See [Frame.Protocol].
func (gfrm Frame) SetProtocol(et pnet.EtherType) {
	pnet.BigEndian.PutUint16(gfrm.buf[2:4], uint16(et))
}

// HeaderLength returns the header size in bytes as dictated by the presence
// bits: 4 bytes base plus 4 for each of checksum, key and sequence.
func (gfrm Frame) HeaderLength() int {
	f := gfrm.Flags()
	hl := sizeBase
	if f.HasChecksum() {
		hl += 4
	}
	if f.HasKey() {
		hl += 4
	}
	if f.HasSequence() {
		hl += 4
	}
	return hl
}

// checksumOffset is fixed when present; key and sequence slide depending on
// the bits before them.
func (gfrm Frame) keyOffset() int {
	off := sizeBase
	if gfrm.Flags().HasChecksum() {
		off += 4
	}
	return off
}

func (gfrm Frame) sequenceOffset() int {
	off := gfrm.keyOffset()
	if gfrm.Flags().HasKey() {
		off += 4
	}
	return off
}

// CRC returns the checksum field. An error is returned when the C bit is not
// set and the field absent.
func (gfrm Frame) CRC() (uint16, error) {
	if !gfrm.Flags().HasChecksum() {
		return 0, errNoField
	}
	return pnet.BigEndian.Uint16(gfrm.buf[4:6]), nil
}

// SetCRC sets the checksum field. The C bit must already be set.
func (gfrm Frame) SetCRC(crc uint16) error {
	if !gfrm.Flags().HasChecksum() {
		return errNoField
	}
	pnet.BigEndian.PutUint16(gfrm.buf[4:6], crc)
	return nil
}

// Key returns the key field identifying the traffic flow. An error is
// returned when the K bit is not set and the field absent.
func (gfrm Frame) Key() (uint32, error) {
	if !gfrm.Flags().HasKey() {
		return 0, errNoField
	}
	off := gfrm.keyOffset()
	return pnet.BigEndian.Uint32(gfrm.buf[off : off+4]), nil
}

// SetKey sets the key field. The K bit must already be set.
func (gfrm Frame) SetKey(key uint32) error {
	if !gfrm.Flags().HasKey() {
		return errNoField
	}
	off := gfrm.keyOffset()
	pnet.BigEndian.PutUint32(gfrm.buf[off:off+4], key)
	return nil
}

// SequenceNumber returns the sequence number for in-order delivery of the
// tunneled flow. An error is returned when the S bit is not set.
func (gfrm Frame) SequenceNumber() (uint32, error) {
	if !gfrm.Flags().HasSequence() {
		return 0, errNoField
	}
	off := gfrm.sequenceOffset()
	return pnet.BigEndian.Uint32(gfrm.buf[off : off+4]), nil
}

// SetSequenceNumber sets the sequence number field. The S bit must already be set.
func (gfrm Frame) SetSequenceNumber(seq uint32) error {
	if !gfrm.Flags().HasSequence() {
		return errNoField
	}
	off := gfrm.sequenceOffset()
	pnet.BigEndian.PutUint32(gfrm.buf[off:off+4], seq)
	return nil
}

// Payload returns the encapsulated packet following the header.
// Be sure to call [Frame.ValidateSize] beforehand to avoid panics.
func (gfrm Frame) Payload() []byte {
	return gfrm.buf[gfrm.HeaderLength():]
}

// CalculateCRC computes the checksum over the whole GRE header and payload
// with the checksum field treated as zero, per RFC 2784 section 2.3.
func (gfrm Frame) CalculateCRC() uint16 {
	var crc pnet.CRC791
	crc.Write(gfrm.buf[0:4])
	return crc.PayloadSum16(gfrm.buf[6:])
}

// VerifyCRC reports whether the stored checksum matches the packet. Frames
// without the C bit carry no checksum and verify trivially.
func (gfrm Frame) VerifyCRC() bool {
	if !gfrm.Flags().HasChecksum() {
		return true
	}
	return pnet.VerifyChecksum16(gfrm.buf, 4)
}

// ClearHeader zeros out the header contents including optional fields.
func (gfrm Frame) ClearHeader() {
	for i := range gfrm.buf[:gfrm.HeaderLength()] {
		gfrm.buf[i] = 0
	}
}

// ValidateSize checks the frame's size fields and compares with the actual
// buffer. It adds an error to v on finding an inconsistency.
func (gfrm Frame) ValidateSize(v *pnet.Validator) {
	if gfrm.HeaderLength() > len(gfrm.buf) {
		v.AddError(errShortFrame)
	}
}

// ValidateFields checks GRE header fields: reserved bits must be zero and the
// version must be zero per RFC 2784. It adds an error to v on finding an
// inconsistency; includes ValidateSize checks.
func (gfrm Frame) ValidateFields(v *pnet.Validator) {
	gfrm.ValidateSize(v)
	f := gfrm.Flags()
	if f&reservedMask != 0 {
		v.AddError(errReservedBits)
	}
	if f.Version() != 0 {
		v.AddError(errBadVersion)
	}
}
