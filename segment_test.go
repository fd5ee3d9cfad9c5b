package pnet

import (
	"net/netip"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestNewSegmentAt(t *testing.T) {
	buf := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	s, err := NewSegmentAt(buf, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 4 || s.StartOffset() != 2 {
		t.Fatalf("len=%d off=%d", s.Len(), s.StartOffset())
	}
	if got := s.Byte(0); got != 2 {
		t.Errorf("Byte(0) = %d", got)
	}
	if &s.Bytes()[0] != &buf[2] {
		t.Error("Bytes does not alias the backing buffer")
	}

	if _, err = NewSegmentAt(nil, 0, 0); err != ErrNilBuffer {
		t.Errorf("nil buffer: %v", err)
	}
	if _, err = NewSegmentAt(buf, 6, 4); err != ErrShortBuffer {
		t.Errorf("out of bounds: %v", err)
	}
	if _, err = NewSegmentAt(buf, -1, 2); err != ErrShortBuffer {
		t.Errorf("negative offset: %v", err)
	}
}

func TestSegmentSub(t *testing.T) {
	buf := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02}
	s := NewSegment(buf)
	sub := s.Sub(2, 3)
	if sub.Len() != 3 || sub.StartOffset() != 2 {
		t.Fatalf("len=%d off=%d", sub.Len(), sub.StartOffset())
	}
	if sub.Byte(0) != 0xbe {
		t.Error("subsegment misaligned")
	}
	subsub := sub.Sub(1, 2)
	if subsub.StartOffset() != 3 || subsub.Byte(0) != 0xef {
		t.Error("nested subsegment misaligned")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on out-of-range Sub")
		}
	}()
	sub.Sub(1, 3)
}

func TestSegmentReads(t *testing.T) {
	buf := []byte{
		0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
		0x10, 0x32, 0x54, 0x76, 0x98, 0xba, 0xdc, 0xfe,
	}
	s := NewSegment(buf)
	if got := s.Uint16(BigEndian, 0); got != 0x0123 {
		t.Errorf("Uint16 BE: %#04x", got)
	}
	if got := s.Uint16(LittleEndian, 0); got != 0x2301 {
		t.Errorf("Uint16 LE: %#04x", got)
	}
	if got := s.Uint24(BigEndian, 1); got != 0x234567 {
		t.Errorf("Uint24: %#06x", got)
	}
	if got := s.Uint32(BigEndian, 0); got != 0x01234567 {
		t.Errorf("Uint32: %#08x", got)
	}
	if got := s.Uint48(BigEndian, 0); got != 0x0123456789ab {
		t.Errorf("Uint48: %#012x", got)
	}
	if got := s.Uint64(BigEndian, 0); got != 0x0123456789abcdef {
		t.Errorf("Uint64: %#016x", got)
	}
	hi, lo := s.Uint128(BigEndian, 0)
	if hi != 0x0123456789abcdef || lo != 0x1032547698badcfe {
		t.Errorf("Uint128: %#016x %#016x", hi, lo)
	}
	if got := s.Addr4(0); got != netip.AddrFrom4([4]byte{0x01, 0x23, 0x45, 0x67}) {
		t.Errorf("Addr4: %v", got)
	}
	if got := s.Addr16(0); got != netip.AddrFrom16([16]byte(buf)) {
		t.Errorf("Addr16: %v", got)
	}
	if got := s.HardwareAddr6(2); got != [6]byte{0x45, 0x67, 0x89, 0xab, 0xcd, 0xef} {
		t.Errorf("HardwareAddr6: %x", got)
	}
}

func TestSegmentReadPastLengthPanics(t *testing.T) {
	// The view's length bounds reads even when the backing buffer is larger.
	buf := make([]byte, 16)
	s, err := NewSegmentAt(buf, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("want panic reading past segment length")
		}
	}()
	s.Uint32(BigEndian, 0)
}

func TestSegmentEqualHash(t *testing.T) {
	a := NewSegment([]byte{1, 2, 3})
	b, err := NewSegmentAt([]byte{0, 1, 2, 3, 4}, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Error("equal content segments differ")
	}
	if a.Hash() != b.Hash() {
		t.Error("hash inconsistent with Equal")
	}
	c := NewSegment([]byte{1, 2, 4})
	if a.Equal(c) {
		t.Error("unequal content segments equal")
	}
}

func TestSegmentHexAndText(t *testing.T) {
	s := NewSegment([]byte{0xca, 0xfe})
	if got := s.String(); got != "cafe" {
		t.Errorf("String: %q", got)
	}
	if got := string(s.AppendHex([]byte("0x"))); got != "0xcafe" {
		t.Errorf("AppendHex: %q", got)
	}

	latin := NewSegment([]byte{0x68, 0x6f, 0x6c, 0x61, 0x20, 0xf1}) // "hola ñ" in Latin-1
	got, err := latin.DecodeText(charmap.ISO8859_1.NewDecoder())
	if err != nil {
		t.Fatal(err)
	}
	if got != "hola ñ" {
		t.Errorf("DecodeText: %q", got)
	}
}
