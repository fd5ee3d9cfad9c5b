package pnet

import (
	"math/rand"
	"testing"
)

// Classic IPv4 header example with checksum 0xb861 at bytes 10:12.
var ipv4Header = []byte{
	0x45, 0x00, 0x00, 0x73, 0x00, 0x00, 0x40, 0x00, 0x40, 0x11,
	0xb8, 0x61, 0xc0, 0xa8, 0x00, 0x01, 0xc0, 0xa8, 0x00, 0xc7,
}

func TestChecksum16(t *testing.T) {
	hdr := append([]byte{}, ipv4Header...)
	hdr[10], hdr[11] = 0, 0
	if got := Checksum16(hdr); got != 0xb861 {
		t.Errorf("want checksum 0xb861, got %#04x", got)
	}
	if !VerifyChecksum16(ipv4Header, 10) {
		t.Error("verify of good header failed")
	}
	bad := append([]byte{}, ipv4Header...)
	bad[14] ^= 1
	if VerifyChecksum16(bad, 10) {
		t.Error("verify of corrupted header passed")
	}
	if VerifyChecksum16(ipv4Header, 11) {
		t.Error("verify with odd checksum offset passed")
	}
}

func TestCRC791Incremental(t *testing.T) {
	// Writing the same bytes in any chunking must give the one-shot sum.
	rng := rand.New(rand.NewSource(1))
	buf := make([]byte, 257)
	for i := 0; i < 64; i++ {
		n := 1 + rng.Intn(len(buf))
		data := buf[:n]
		rng.Read(data)
		want := Checksum16(data)

		var crc CRC791
		even := n &^ 1
		split := 2 * rng.Intn(even/2+1)
		crc.Write(data[:split])
		if got := crc.PayloadSum16(data[split:]); got != want {
			t.Fatalf("n=%d split=%d: want %#04x, got %#04x", n, split, got, want)
		}
		// PayloadSum16 must not consume the accumulator.
		if got := crc.PayloadSum16(data[split:]); got != want {
			t.Fatalf("second PayloadSum16 differs: %#04x != %#04x", got, want)
		}
	}
}

func TestCRC791AddUint(t *testing.T) {
	var a, b CRC791
	a.Write([]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc})
	b.AddUint16(0x1234)
	b.AddUint32(0x5678_9abc)
	if a.Sum16() != b.Sum16() {
		t.Errorf("byte and integer writes disagree: %#04x != %#04x", a.Sum16(), b.Sum16())
	}
	b.Reset()
	if b.Sum16() != Checksum16(nil) {
		t.Error("reset accumulator not empty")
	}
}

func TestCRC791OddWritePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on odd Write")
		}
	}()
	var crc CRC791
	crc.Write([]byte{1, 2, 3})
}

func TestSum16BitsOddTail(t *testing.T) {
	// Odd trailing byte is the high byte of a zero-padded word.
	if got := Sum16Bits([]byte{0x01}); got != 0x0100 {
		t.Errorf("want 0x0100, got %#04x", got)
	}
	if got := Sum16Bits([]byte{0xab, 0xcd, 0xef}); got != 0xabcd+0xef00 {
		t.Errorf("want %#04x, got %#04x", 0xabcd+0xef00, got)
	}
}

func TestPseudoHeaderChecksum16(t *testing.T) {
	src := []byte{192, 168, 0, 1}
	dst := []byte{192, 168, 0, 199}
	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0x01}

	want := PseudoHeaderChecksum16(src, dst, IPProtoUDP, uint16(len(payload)), payload)

	// Same accumulation by hand: pseudo-header and payload must share one
	// accumulator before the fold.
	var crc CRC791
	crc.Write(src)
	crc.Write(dst)
	crc.AddUint16(uint16(IPProtoUDP))
	crc.AddUint16(uint16(len(payload)))
	if got := crc.PayloadSum16(payload); got != want {
		t.Errorf("manual accumulation disagrees: %#04x != %#04x", got, want)
	}
}

func TestNeverZeroChecksum(t *testing.T) {
	if got := NeverZeroChecksum(0); got != 0xffff {
		t.Errorf("want 0xffff, got %#04x", got)
	}
	if got := NeverZeroChecksum(0x1234); got != 0x1234 {
		t.Errorf("want passthrough, got %#04x", got)
	}
}
