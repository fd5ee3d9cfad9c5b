package pnet

import (
	"bytes"
	"encoding/hex"
	"hash/fnv"
	"net/netip"

	"golang.org/x/text/encoding"
)

// Segment is a bounds-checked, non-owning view over a byte buffer: a buffer
// reference plus a start offset and a length. Subsegments share the parent's
// backing buffer and never copy bytes, so slicing a packet into millions of
// nested views costs no allocation.
//
// The backing buffer is never written through a Segment; once wrapped it must
// be treated as immutable, which makes concurrent reads through any number of
// aliasing Segments safe. Serialization writes through protocol frame types
// into fresh output buffers instead.
//
// All accessors index relative to the segment's start and are bounds-checked
// against the segment's length, not the backing buffer's size. Reading past
// the logical length is a contract violation by the caller and panics, the
// same as out-of-range slice indexing: validate lengths first, then read.
type Segment struct {
	buf []byte
	off int
	n   int
}

// NewSegment returns a Segment viewing all of buf.
func NewSegment(buf []byte) Segment {
	return Segment{buf: buf, n: len(buf)}
}

// NewSegmentAt returns a Segment viewing length bytes of buf starting at off.
// It returns an error on an absent buffer or bounds outside buf.
func NewSegmentAt(buf []byte, off, length int) (Segment, error) {
	if buf == nil {
		return Segment{}, ErrNilBuffer
	} else if off < 0 || length < 0 || off+length > len(buf) {
		return Segment{}, ErrShortBuffer
	}
	return Segment{buf: buf, off: off, n: length}, nil
}

// Len returns the length of the segment in bytes.
func (s Segment) Len() int { return s.n }

// StartOffset returns the segment's offset into its backing buffer.
func (s Segment) StartOffset() int { return s.off }

// Bytes returns the viewed bytes. The slice aliases the backing buffer and
// is capacity-clipped so appends cannot scribble past the view.
func (s Segment) Bytes() []byte {
	return s.buf[s.off : s.off+s.n : s.off+s.n]
}

// Byte returns the byte at logical offset i within the segment.
func (s Segment) Byte(i int) byte {
	s.check(i, 1)
	return s.buf[s.off+i]
}

// Sub returns a subsegment of length bytes starting at off, sharing the same
// backing buffer. Bounds outside the parent segment panic.
func (s Segment) Sub(off, length int) Segment {
	s.check(off, length)
	return Segment{buf: s.buf, off: s.off + off, n: length}
}

func (s Segment) check(off, width int) {
	if off < 0 || width < 0 || off+width > s.n {
		panic("pnet: segment read out of range")
	}
}

// Uint16 reads a 16-bit unsigned integer at logical offset off.
func (s Segment) Uint16(bo ByteOrder, off int) uint16 {
	s.check(off, 2)
	return bo.Uint16(s.buf[s.off+off:])
}

// Uint24 reads a 24-bit unsigned integer at logical offset off.
func (s Segment) Uint24(bo ByteOrder, off int) uint32 {
	s.check(off, 3)
	return bo.Uint24(s.buf[s.off+off:])
}

// Uint32 reads a 32-bit unsigned integer at logical offset off.
func (s Segment) Uint32(bo ByteOrder, off int) uint32 {
	s.check(off, 4)
	return bo.Uint32(s.buf[s.off+off:])
}

// Uint48 reads a 48-bit unsigned integer at logical offset off.
func (s Segment) Uint48(bo ByteOrder, off int) uint64 {
	s.check(off, 6)
	return bo.Uint48(s.buf[s.off+off:])
}

// Uint64 reads a 64-bit unsigned integer at logical offset off.
func (s Segment) Uint64(bo ByteOrder, off int) uint64 {
	s.check(off, 8)
	return bo.Uint64(s.buf[s.off+off:])
}

// Uint128 reads a 128-bit unsigned integer at logical offset off as a
// (high, low) pair of 64-bit words. The width of an IPv6 address.
func (s Segment) Uint128(bo ByteOrder, off int) (hi, lo uint64) {
	s.check(off, 16)
	if bo == LittleEndian {
		return bo.Uint64(s.buf[s.off+off+8:]), bo.Uint64(s.buf[s.off+off:])
	}
	return bo.Uint64(s.buf[s.off+off:]), bo.Uint64(s.buf[s.off+off+8:])
}

// Addr4 reads an IPv4 address at logical offset off.
func (s Segment) Addr4(off int) netip.Addr {
	s.check(off, 4)
	return netip.AddrFrom4([4]byte(s.buf[s.off+off : s.off+off+4]))
}

// Addr16 reads an IPv6 address at logical offset off.
func (s Segment) Addr16(off int) netip.Addr {
	s.check(off, 16)
	return netip.AddrFrom16([16]byte(s.buf[s.off+off : s.off+off+16]))
}

// HardwareAddr6 reads a 6-byte MAC/EUI-48 hardware address at logical offset off.
func (s Segment) HardwareAddr6(off int) [6]byte {
	s.check(off, 6)
	return [6]byte(s.buf[s.off+off : s.off+off+6])
}

// Sum16Bits adds the segment's bytes into a deferred-carry checksum
// accumulator as per [Sum16Bits].
func (s Segment) Sum16Bits() uint32 {
	return Sum16Bits(s.Bytes())
}

// Equal reports structural equality: same length and identical byte content.
// Two equal segments need not share a buffer or offset.
func (s Segment) Equal(other Segment) bool {
	return bytes.Equal(s.Bytes(), other.Bytes())
}

// Hash returns a content hash consistent with [Segment.Equal].
func (s Segment) Hash() uint32 {
	h := fnv.New32a()
	h.Write(s.Bytes())
	return h.Sum32()
}

// AppendHex appends the segment's content in hexadecimal to dst.
func (s Segment) AppendHex(dst []byte) []byte {
	return append(dst, hex.EncodeToString(s.Bytes())...)
}

// String returns the segment's content as a hexadecimal string. Diagnostic
// helper, not part of the parse hot path.
func (s Segment) String() string {
	return hex.EncodeToString(s.Bytes())
}

// DecodeText decodes the segment's bytes as text in the character encoding of
// dec, e.g. a decoder obtained from golang.org/x/text/encoding/charmap.
func (s Segment) DecodeText(dec *encoding.Decoder) (string, error) {
	b, err := dec.Bytes(s.Bytes())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
