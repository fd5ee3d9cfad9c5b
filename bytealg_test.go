package pnet

import (
	"encoding/binary"
	"math/rand"
	"testing"
)

func TestByteOrderAgainstBinary(t *testing.T) {
	// The 16/32/64 widths must agree with encoding/binary exactly.
	rng := rand.New(rand.NewSource(1))
	var buf [8]byte
	for i := 0; i < 256; i++ {
		v := rng.Uint64()
		BigEndian.PutUint64(buf[:], v)
		if got := binary.BigEndian.Uint64(buf[:]); got != v {
			t.Fatalf("BE PutUint64: %#x != %#x", got, v)
		}
		if got := BigEndian.Uint64(buf[:]); got != v {
			t.Fatalf("BE Uint64: %#x != %#x", got, v)
		}
		LittleEndian.PutUint32(buf[:], uint32(v))
		if got := binary.LittleEndian.Uint32(buf[:]); got != uint32(v) {
			t.Fatalf("LE PutUint32: %#x != %#x", got, uint32(v))
		}
		BigEndian.PutUint16(buf[:], uint16(v))
		if got := binary.BigEndian.Uint16(buf[:]); got != uint16(v) {
			t.Fatalf("BE PutUint16: %#x != %#x", got, uint16(v))
		}
	}
}

func TestByteOrderMidWidths(t *testing.T) {
	var buf [8]byte
	// High bits beyond the field width must be masked off, not spill over.
	buf[3] = 0x7f
	BigEndian.PutUint24(buf[:], 0xff_123456)
	if buf[3] != 0x7f {
		t.Error("PutUint24 scribbled past 3 bytes")
	}
	if got := BigEndian.Uint24(buf[:]); got != 0x123456 {
		t.Errorf("Uint24 round trip: %#06x", got)
	}
	buf = [8]byte{}
	buf[6] = 0x7f
	LittleEndian.PutUint48(buf[:], 0xffff_0123_4567_89ab)
	if buf[6] != 0x7f {
		t.Error("PutUint48 scribbled past 6 bytes")
	}
	if got := LittleEndian.Uint48(buf[:]); got != 0x0123_4567_89ab {
		t.Errorf("Uint48 round trip: %#012x", got)
	}
	// Big and little endian views of the same field are byte reversals.
	BigEndian.PutUint24(buf[:], 0xabcdef)
	if got := LittleEndian.Uint24(buf[:]); got != 0xefcdab {
		t.Errorf("LE view of BE bytes: %#06x", got)
	}
}

func TestByteOrderAppend(t *testing.T) {
	b := BigEndian.AppendUint16(nil, 0x0102)
	b = BigEndian.AppendUint32(b, 0x03040506)
	want := []byte{1, 2, 3, 4, 5, 6}
	if string(b) != string(want) {
		t.Errorf("append BE: % x", b)
	}
	b = LittleEndian.AppendUint16(nil, 0x0102)
	if string(b) != string([]byte{2, 1}) {
		t.Errorf("append LE: % x", b)
	}
}
